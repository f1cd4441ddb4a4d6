package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/ospreysec/iocharvest/internal/core/domain"
)

// Render modes for the master sheet's category blobs.
const (
	RenderInline    = "inline"    // values joined with ", "
	RenderFormatted = "formatted" // one value per line, wrapped cells
)

type Config struct {
	Mailbox MailboxConfig  `yaml:"mailbox"`
	Master  MasterConfig   `yaml:"master"`
	Staging StagingConfig  `yaml:"staging"`
	Archive ArchiveConfig  `yaml:"archive"`
	Slack   SlackConfig    `yaml:"slack"`
	Catalog []CatalogEntry `yaml:"catalog"`
}

type MailboxConfig struct {
	Server   string `yaml:"server"` // host:port, implicit TLS
	Username string `yaml:"username"`
	Password string `yaml:"-"` // env only, never in the file
	Folder   string `yaml:"folder"`
}

type MasterConfig struct {
	Path       string `yaml:"path"`
	RenderMode string `yaml:"render_mode"`
}

type StagingConfig struct {
	RetryAttempts   int `yaml:"retry_attempts"`
	RetryIntervalMS int `yaml:"retry_interval_ms"`
}

type ArchiveConfig struct {
	DatabaseURL string `yaml:"-"` // env only
}

type SlackConfig struct {
	BotToken string `yaml:"-"` // env only
	Channel  string `yaml:"channel"`
}

type CatalogEntry struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

func defaults() *Config {
	return &Config{
		Mailbox: MailboxConfig{Folder: "Invoices"},
		Master:  MasterConfig{Path: "Master_IOC_Sheet.xlsx", RenderMode: RenderInline},
		Staging: StagingConfig{RetryAttempts: 3, RetryIntervalMS: 500},
	}
}

// Load reads the YAML file (missing file falls back to defaults), then
// applies environment overrides and validates. Secrets only ever come from
// the environment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}

	overrideFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("IMAP_SERVER"); v != "" {
		cfg.Mailbox.Server = v
	}
	if v := os.Getenv("IMAP_USERNAME"); v != "" {
		cfg.Mailbox.Username = v
	}
	cfg.Mailbox.Password = os.Getenv("IMAP_PASSWORD")
	cfg.Archive.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.Slack.BotToken = os.Getenv("SLACK_BOT_TOKEN")
}

func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Mailbox,
		validation.Field(&c.Mailbox.Server, validation.Required),
		validation.Field(&c.Mailbox.Username, validation.Required),
		validation.Field(&c.Mailbox.Folder, validation.Required),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Master,
		validation.Field(&c.Master.Path, validation.Required),
		validation.Field(&c.Master.RenderMode, validation.Required, validation.In(RenderInline, RenderFormatted)),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Staging,
		validation.Field(&c.Staging.RetryAttempts, validation.Min(0), validation.Max(10)),
		validation.Field(&c.Staging.RetryIntervalMS, validation.Min(0)),
	)
}

// BuildCatalog turns the configured catalog into the domain value, falling
// back to the built-in default when none is configured.
func (c *Config) BuildCatalog() *domain.Catalog {
	if len(c.Catalog) == 0 {
		return domain.DefaultCatalog()
	}
	entries := make([]domain.CatalogEntry, 0, len(c.Catalog))
	for _, e := range c.Catalog {
		entries = append(entries, domain.CatalogEntry{
			Category: domain.Category(e.Category),
			Keywords: e.Keywords,
		})
	}
	return domain.NewCatalog(entries)
}

// Separator returns the value separator for the configured render mode.
func (c *Config) Separator() string {
	if c.Master.RenderMode == RenderFormatted {
		return domain.SeparatorFormatted
	}
	return domain.SeparatorInline
}

// RetryInterval is the staging retry delay.
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.Staging.RetryIntervalMS) * time.Millisecond
}

// ValidateDate checks one interactive date input.
func ValidateDate(s string) error {
	return validation.Validate(s,
		validation.Required,
		validation.Date(domain.DateLayout),
	)
}
