package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/territoryops/recon/pkg/clash"
	"github.com/territoryops/recon/pkg/model"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authHeader   string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.Reset()
	})

	// Background steps
	sc.Step(`^a recon server is running$`, s.aReconServerIsRunning)
	sc.Step(`^the following builds exist:$`, s.theFollowingBuildsExist)
	sc.Step(`^the following accounts exist:$`, s.theFollowingAccountsExist)

	// Identity steps
	s.registerAuthSteps(sc)

	// Clash steps
	sc.Step(`^I request the clashes$`, s.iRequestTheClashes)
	sc.Step(`^I request the clashes for builds "([^"]*)"$`, s.iRequestTheClashesForBuilds)
	sc.Step(`^I resolve the clash on "([^"]*)" in favour of build "([^"]*)" with rationale "([^"]*)"$`, s.iResolveTheClash)
	sc.Step(`^I request the resolutions of "([^"]*)"$`, s.iRequestTheResolutionsOf)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response should contain (\d+) clash(?:es)?$`, s.theResponseShouldContainClashes)
	sc.Step(`^the clash on "([^"]*)" should have severity "([^"]*)"$`, s.theClashShouldHaveSeverity)
	sc.Step(`^the clash on "([^"]*)" should have tag "([^"]*)"$`, s.theClashShouldHaveTag)
	sc.Step(`^the response should contain (\d+) resolutions?$`, s.theResponseShouldContainResolutions)
	sc.Step(`^the response error should be "([^"]*)"$`, s.theResponseErrorShouldBe)

	// Database steps
	sc.Step(`^account "([^"]*)" in build "([^"]*)" should have proposed owner "([^"]*)"$`, s.accountShouldHaveProposedOwner)
	sc.Step(`^account "([^"]*)" in build "([^"]*)" should have no proposed owner$`, s.accountShouldHaveNoProposedOwner)
	sc.Step(`^(\d+) resolution records? should exist for "([^"]*)"$`, s.resolutionRecordsShouldExist)
}

// Background steps

func (s *StepsContext) aReconServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) theFollowingBuildsExist(table *godog.Table) error {
	rows, err := tableMaps(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		build := model.Build{ID: row["id"], Name: row["name"], Region: row["region"]}
		if err := s.tc.DB.Create(&build).Error; err != nil {
			return fmt.Errorf("failed to create build %s: %w", build.ID, err)
		}
	}
	return nil
}

func (s *StepsContext) theFollowingAccountsExist(table *godog.Table) error {
	rows, err := tableMaps(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		arr, err := decimal.NewFromString(valueOr(row["arr"], "0"))
		if err != nil {
			return fmt.Errorf("invalid arr %q: %w", row["arr"], err)
		}
		account := model.Account{
			BuildID:       row["build"],
			SFDCAccountID: row["account"],
			AccountName:   row["name"],
			IsParent:      row["parent"] != "no",
			OwnerID:       row["owner"],
			OwnerName:     row["owner"],
			ARR:           arr,
		}
		if proposed := row["proposed_owner"]; proposed != "" {
			account.NewOwnerID = &proposed
			account.NewOwnerName = &proposed
		}
		if err := s.tc.DB.Create(&account).Error; err != nil {
			return fmt.Errorf("failed to create account %s in %s: %w", account.SFDCAccountID, account.BuildID, err)
		}
	}
	return nil
}

// Clash steps

func (s *StepsContext) iRequestTheClashes() error {
	return s.do(http.MethodGet, "/clashes", nil)
}

func (s *StepsContext) iRequestTheClashesForBuilds(buildIDs string) error {
	return s.do(http.MethodGet, "/clashes?build_id="+url.QueryEscape(buildIDs), nil)
}

func (s *StepsContext) iResolveTheClash(accountID, buildID, rationale string) error {
	body, err := json.Marshal(clash.ResolveRequest{TargetBuildID: buildID, Rationale: rationale})
	if err != nil {
		return err
	}
	return s.do(http.MethodPost, "/clashes/"+url.PathEscape(accountID)+"/resolve", body)
}

func (s *StepsContext) iRequestTheResolutionsOf(accountID string) error {
	return s.do(http.MethodGet, "/clashes/"+url.PathEscape(accountID)+"/resolutions", nil)
}

func (s *StepsContext) do(method, path string, body []byte) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, s.tc.ServerURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.authHeader != "" {
		req.Header.Set("Authorization", s.authHeader)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}

	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) detection() (*clash.Detection, error) {
	var detection clash.Detection
	if err := json.Unmarshal(s.responseBody, &detection); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &detection, nil
}

func (s *StepsContext) clashOn(accountID string) (clash.Clash, error) {
	detection, err := s.detection()
	if err != nil {
		return clash.Clash{}, err
	}
	c, ok := detection.Find(accountID)
	if !ok {
		return clash.Clash{}, fmt.Errorf("no clash on %s in %s", accountID, string(s.responseBody))
	}
	return c, nil
}

func (s *StepsContext) theResponseShouldContainClashes(expected int) error {
	detection, err := s.detection()
	if err != nil {
		return err
	}
	if len(detection.Clashes) != expected {
		return fmt.Errorf("expected %d clashes, got %d: %s", expected, len(detection.Clashes), string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theClashShouldHaveSeverity(accountID, severity string) error {
	c, err := s.clashOn(accountID)
	if err != nil {
		return err
	}
	if c.Severity.String() != severity {
		return fmt.Errorf("expected severity %s, got %s", severity, c.Severity)
	}
	return nil
}

func (s *StepsContext) theClashShouldHaveTag(accountID, tag string) error {
	c, err := s.clashOn(accountID)
	if err != nil {
		return err
	}
	if !c.HasTag(clash.Tag(tag)) {
		return fmt.Errorf("expected tag %s, got %v", tag, c.Tags)
	}
	return nil
}

func (s *StepsContext) theResponseShouldContainResolutions(expected int) error {
	var resolutions []model.Resolution
	if err := json.Unmarshal(s.responseBody, &resolutions); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resolutions) != expected {
		return fmt.Errorf("expected %d resolutions, got %d", expected, len(resolutions))
	}
	return nil
}

func (s *StepsContext) theResponseErrorShouldBe(expected string) error {
	var body map[string]string
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if body["error"] != expected {
		return fmt.Errorf("expected error %q, got %q", expected, body["error"])
	}
	return nil
}

// Database steps

func (s *StepsContext) proposedOwner(accountID, buildID string) (*string, error) {
	var account model.Account
	err := s.tc.DB.Where("build_id = ? AND sfdc_account_id = ?", buildID, accountID).First(&account).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s in %s: %w", accountID, buildID, err)
	}
	return account.NewOwnerID, nil
}

func (s *StepsContext) accountShouldHaveProposedOwner(accountID, buildID, owner string) error {
	proposed, err := s.proposedOwner(accountID, buildID)
	if err != nil {
		return err
	}
	if proposed == nil || *proposed != owner {
		return fmt.Errorf("expected proposed owner %s, got %v", owner, valueOrNil(proposed))
	}
	return nil
}

func (s *StepsContext) accountShouldHaveNoProposedOwner(accountID, buildID string) error {
	proposed, err := s.proposedOwner(accountID, buildID)
	if err != nil {
		return err
	}
	if proposed != nil {
		return fmt.Errorf("expected no proposed owner, got %s", *proposed)
	}
	return nil
}

func (s *StepsContext) resolutionRecordsShouldExist(expected int, accountID string) error {
	var count int64
	if err := s.tc.DB.Model(&model.Resolution{}).Where("sfdc_account_id = ?", accountID).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != expected {
		return fmt.Errorf("expected %d resolution records for %s, got %d", expected, accountID, count)
	}
	return nil
}

// tableMaps turns a table with a header row into one map per data row.
func tableMaps(table *godog.Table) ([]map[string]string, error) {
	if len(table.Rows) < 1 {
		return nil, fmt.Errorf("table has no header row")
	}
	header := table.Rows[0].Cells
	var out []map[string]string
	for _, row := range table.Rows[1:] {
		m := make(map[string]string, len(header))
		for i, cell := range row.Cells {
			m[strings.TrimSpace(header[i].Value)] = strings.TrimSpace(cell.Value)
		}
		out = append(out, m)
	}
	return out, nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func valueOrNil(v *string) string {
	if v == nil {
		return "<nil>"
	}
	return *v
}
