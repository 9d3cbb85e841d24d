package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/recon"
	ConfigFileName    = "recon.yml"
)

// ValidLogFormats is the list of supported log formatters
var ValidLogFormats = []string{"text", "json"}

// ReconConfig holds all reconciliation service settings
type ReconConfig struct {
	// GlobalRoles are the caller roles that see every region
	GlobalRoles []string `yaml:"global_roles" json:"global_roles"`

	// FetchConcurrency caps concurrent per-build fetches; 0 means unlimited
	FetchConcurrency int `yaml:"fetch_concurrency" json:"fetch_concurrency"`

	// ResolutionLockTTL is the per-account resolution lock TTL in seconds
	ResolutionLockTTL int `yaml:"resolution_lock_ttl" json:"resolution_lock_ttl"`

	// RedisAddress enables the distributed resolution lock when set
	RedisAddress string `yaml:"redis_address" json:"redis_address"`

	// LogLevel is a logrus level name
	LogLevel string `yaml:"log_level" json:"log_level"`

	// LogFormat is "text" or "json"
	LogFormat string `yaml:"log_format" json:"log_format"`

	// JWTSecret is the HS256 key used to verify bearer tokens
	JWTSecret string `yaml:"jwt_secret" json:"-"`

	// ExportSheetName is the worksheet name of spreadsheet exports
	ExportSheetName string `yaml:"export_sheet_name" json:"export_sheet_name"`

	// TrustedProxies is a list of CIDR ranges whose X-Forwarded-For is honoured
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *ReconConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *ReconConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *ReconConfig {
	return &ReconConfig{
		GlobalRoles:       []string{"revops", "admin"},
		FetchConcurrency:  0,
		ResolutionLockTTL: 30,
		LogLevel:          "info",
		LogFormat:         "text",
		ExportSheetName:   "Clashes",
		TrustedProxies:    []string{},
		sources:           make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*ReconConfig, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("RECON_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig ReconConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"global_roles", "fetch_concurrency", "resolution_lock_ttl",
		"redis_address", "log_level", "log_format", "jwt_secret",
		"export_sheet_name", "trusted_proxies",
	}
}

func (c *ReconConfig) applyFileConfig(file *ReconConfig) {
	if len(file.GlobalRoles) > 0 {
		c.GlobalRoles = file.GlobalRoles
		c.sources["global_roles"] = "file"
	}
	if file.FetchConcurrency != 0 {
		c.FetchConcurrency = file.FetchConcurrency
		c.sources["fetch_concurrency"] = "file"
	}
	if file.ResolutionLockTTL != 0 {
		c.ResolutionLockTTL = file.ResolutionLockTTL
		c.sources["resolution_lock_ttl"] = "file"
	}
	if file.RedisAddress != "" {
		c.RedisAddress = file.RedisAddress
		c.sources["redis_address"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
	if file.LogFormat != "" {
		c.LogFormat = file.LogFormat
		c.sources["log_format"] = "file"
	}
	if file.JWTSecret != "" {
		c.JWTSecret = file.JWTSecret
		c.sources["jwt_secret"] = "file"
	}
	if file.ExportSheetName != "" {
		c.ExportSheetName = file.ExportSheetName
		c.sources["export_sheet_name"] = "file"
	}
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}
}

func (c *ReconConfig) applyEnvConfig() {
	if val := os.Getenv("RECON_GLOBAL_ROLES"); val != "" {
		c.GlobalRoles = splitAndTrim(val)
		c.sources["global_roles"] = "environment"
	}
	if val := os.Getenv("RECON_FETCH_CONCURRENCY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.FetchConcurrency = i
			c.sources["fetch_concurrency"] = "environment"
		}
	}
	if val := os.Getenv("RECON_RESOLUTION_LOCK_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.ResolutionLockTTL = i
			c.sources["resolution_lock_ttl"] = "environment"
		}
	}
	if val := os.Getenv("RECON_REDIS_ADDRESS"); val != "" {
		c.RedisAddress = val
		c.sources["redis_address"] = "environment"
	}
	if val := os.Getenv("RECON_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
	if val := os.Getenv("RECON_LOG_FORMAT"); val != "" {
		c.LogFormat = val
		c.sources["log_format"] = "environment"
	}
	if val := os.Getenv("RECON_JWT_SECRET"); val != "" {
		c.JWTSecret = val
		c.sources["jwt_secret"] = "environment"
	}
	if val := os.Getenv("RECON_EXPORT_SHEET_NAME"); val != "" {
		c.ExportSheetName = val
		c.sources["export_sheet_name"] = "environment"
	}
	if val := os.Getenv("RECON_TRUSTED_PROXIES"); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *ReconConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *ReconConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// LockTTL returns the resolution lock TTL as a duration
func (c *ReconConfig) LockTTL() time.Duration {
	return time.Duration(c.ResolutionLockTTL) * time.Second
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *ReconConfig) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *ReconConfig) Validate() error {
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}
	if c.FetchConcurrency < 0 {
		return fmt.Errorf("invalid fetch_concurrency value: %d", c.FetchConcurrency)
	}
	if c.ResolutionLockTTL <= 0 {
		return fmt.Errorf("invalid resolution_lock_ttl value: %d", c.ResolutionLockTTL)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level value: %w", err)
	}
	validFormat := false
	for _, f := range ValidLogFormats {
		if c.LogFormat == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid log_format value: %s", c.LogFormat)
	}
	if strings.TrimSpace(c.ExportSheetName) == "" || len(c.ExportSheetName) > 31 {
		return fmt.Errorf("invalid export_sheet_name value: %q", c.ExportSheetName)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *ReconConfig) Attributes() []Attribute {
	secret := ""
	if c.JWTSecret != "" {
		secret = "********"
	}
	return []Attribute{
		{Name: "global_roles", Value: strings.Join(c.GlobalRoles, ","), Source: c.Source("global_roles")},
		{Name: "fetch_concurrency", Value: strconv.Itoa(c.FetchConcurrency), Source: c.Source("fetch_concurrency")},
		{Name: "resolution_lock_ttl", Value: strconv.Itoa(c.ResolutionLockTTL), Source: c.Source("resolution_lock_ttl")},
		{Name: "redis_address", Value: c.RedisAddress, Source: c.Source("redis_address")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "log_format", Value: c.LogFormat, Source: c.Source("log_format")},
		{Name: "jwt_secret", Value: secret, Source: c.Source("jwt_secret")},
		{Name: "export_sheet_name", Value: c.ExportSheetName, Source: c.Source("export_sheet_name")},
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
	}
}

// FormatText returns a text representation of the configuration
func (c *ReconConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *ReconConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
