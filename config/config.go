package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"fsclean/rule"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

const (
	DefaultLogDir    = "/tmp/fsclean"
	DefaultRulesFile = "./fsclean.conf"
	DefaultLogLevel  = "info"
)

// Config stores the configuration for the cleaner.
type Config struct {
	LogDir       string       `yaml:"log_dir"`
	LogLevel     string       `yaml:"log_level"`
	RulesFile    string       `yaml:"rules_file"`
	Rules        []RuleConfig `yaml:"rules"`
	InvalidRules string       `yaml:"invalid_rules"`
	Schedule     string       `yaml:"schedule"`
	LockFile     string       `yaml:"lock_file"`
	MetricsFile  string       `yaml:"metrics_file"`
	DiscordURL   string       `yaml:"discord"`
	Progress     bool         `yaml:"progress"`
}

// RuleConfig is a rule written inline in the YAML file instead of as a line
// in the rules file. Values are validated the same way.
type RuleConfig struct {
	Mode      string `yaml:"mode"`
	Root      string `yaml:"root"`
	Scope     string `yaml:"scope"`
	Condition string `yaml:"condition"`
	Days      int    `yaml:"days"`
	Action    string `yaml:"action"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		LogDir:    DefaultLogDir,
		LogLevel:  DefaultLogLevel,
		RulesFile: DefaultRulesFile,
		LockFile:  filepath.Join(os.TempDir(), "fsclean.lock"),
	}
}

// LoadConfig loads the configuration from a YAML file. A missing file is not an
// error when allowMissing is set; the defaults are returned instead.
func LoadConfig(filePath string, allowMissing bool) (*Config, error) {
	config := Default()

	// Read config file
	data, err := os.ReadFile(filePath)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, err
	}

	// Parse YAML data
	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return config, nil
}

// Validate checks the settings that do not depend on the filesystem.
func (c *Config) Validate() error {
	if c.LogDir == "" {
		return errors.New("log_dir must not be empty")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if _, err := rule.ParsePolicy(c.InvalidRules); err != nil {
		return fmt.Errorf("invalid_rules: %w", err)
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("schedule %q: %w", c.Schedule, err)
		}
	}
	for i, r := range c.Rules {
		// days is validated with the rest of the rule, only reject the
		// impossible negative here so the error points at the YAML file
		if r.Days < 0 {
			return fmt.Errorf("rules[%d]: days must be a positive number", i)
		}
	}
	return nil
}

// Policy returns the configured handling of invalid rules.
func (c *Config) Policy() rule.Policy {
	p, _ := rule.ParsePolicy(c.InvalidRules)
	return p
}

// Records returns every configured rule in order: the rules file first, then
// the inline rules. A rules file that does not exist is skipped when inline
// rules are present.
func (c *Config) Records() ([]rule.Record, error) {
	var recs []rule.Record
	if c.RulesFile != "" {
		fileRecs, err := ReadRecords(c.RulesFile)
		switch {
		case err == nil:
			recs = append(recs, fileRecs...)
		case errors.Is(err, os.ErrNotExist) && len(c.Rules) > 0:
		default:
			return nil, err
		}
	}
	for i, r := range c.Rules {
		recs = append(recs, rule.Record{
			Source: "rules",
			Line:   i + 1,
			Fields: []string{r.Mode, r.Root, r.Scope, r.Condition, strconv.Itoa(r.Days), r.Action},
		})
	}
	return recs, nil
}
