package clash

//go:generate go run github.com/dmarkham/enumer -type Severity -trimprefix Severity -transform lower -json -text -output severity.gen.go

// Severity ranks a clash for presentation. Higher values sort first.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)
