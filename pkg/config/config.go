// Package config holds the server's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/webagent/pkg/events"
	"github.com/entrhq/webagent/pkg/retention"
)

// Config is the full server configuration.
type Config struct {
	Browser     BrowserConfig    `yaml:"browser" json:"browser"`
	Screenshots ScreenshotConfig `yaml:"screenshots" json:"screenshots"`
	Retention   retention.Policy `yaml:"retention" json:"retention"`
	Dialogs     DialogConfig     `yaml:"dialogs" json:"dialogs"`
	Console     ConsoleConfig    `yaml:"console" json:"console"`
	Content     ContentConfig    `yaml:"content" json:"content"`
	OCR         OCRConfig        `yaml:"ocr" json:"ocr"`
}

// BrowserConfig controls the Chromium session.
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	ViewportWidth     int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height" json:"viewport_height"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	Args              []string      `yaml:"args" json:"args"`
	ActionTimeout     time.Duration `yaml:"action_timeout" json:"action_timeout"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	// SkipInstall skips downloading the driver and browsers at startup.
	SkipInstall bool `yaml:"skip_install" json:"skip_install"`
}

// ScreenshotConfig controls capture and derivative encoding.
type ScreenshotConfig struct {
	Directory      string `yaml:"directory" json:"directory"`
	LowResWidth    int    `yaml:"low_res_width" json:"low_res_width"`
	LowResQuality  int    `yaml:"low_res_quality" json:"low_res_quality"`
	HiResQuality   int    `yaml:"hi_res_quality" json:"hi_res_quality"`
	ThumbnailWidth int    `yaml:"thumbnail_width" json:"thumbnail_width"`
	// AllowedDirs are directories outside the working directory that
	// callers may save screenshots into.
	AllowedDirs []string `yaml:"allowed_dirs" json:"allowed_dirs"`
}

// DialogConfig is the initial dialog policy plus the buffer size.
type DialogConfig struct {
	events.DialogConfig `yaml:",inline"`

	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
}

// ConsoleConfig sizes the console buffer.
type ConsoleConfig struct {
	BufferSize int `yaml:"buffer_size" json:"buffer_size"`
}

// ContentConfig bounds page content returned to the client.
type ContentConfig struct {
	// MaxTokens caps get_page_content output; 0 disables the cap.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`
}

// OCRConfig selects the text-recognition model.
type OCRConfig struct {
	Model     string `yaml:"model" json:"model"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens"`
}

// DefaultUserAgent is a desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:          true,
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			UserAgent:         DefaultUserAgent,
			Args:              []string{"--no-sandbox", "--disable-setuid-sandbox"},
			ActionTimeout:     30 * time.Second,
			NavigationTimeout: 60 * time.Second,
		},
		Screenshots: ScreenshotConfig{
			Directory:      "screenshots",
			LowResWidth:    800,
			LowResQuality:  75,
			HiResQuality:   85,
			ThumbnailWidth: 400,
		},
		Retention: retention.DefaultPolicy(),
		Dialogs: DialogConfig{
			DialogConfig: events.DefaultDialogConfig(),
			BufferSize:   events.DefaultCapacity,
		},
		Console: ConsoleConfig{BufferSize: events.DefaultCapacity},
		Content: ContentConfig{MaxTokens: 25000},
		OCR: OCRConfig{
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			MaxTokens: 4096,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}
	if c.Browser.ActionTimeout < 0 || c.Browser.NavigationTimeout < 0 {
		return fmt.Errorf("browser timeouts cannot be negative")
	}

	if c.Screenshots.Directory == "" {
		return fmt.Errorf("screenshots.directory is required")
	}
	if c.Screenshots.LowResWidth <= 0 || c.Screenshots.ThumbnailWidth <= 0 {
		return fmt.Errorf("screenshot widths must be positive")
	}
	for name, q := range map[string]int{
		"low_res_quality": c.Screenshots.LowResQuality,
		"hi_res_quality":  c.Screenshots.HiResQuality,
	} {
		if q < 1 || q > 100 {
			return fmt.Errorf("screenshots.%s must be between 1 and 100, got %d", name, q)
		}
	}

	if err := c.Retention.Validate(); err != nil {
		return err
	}

	switch c.Dialogs.DefaultAction {
	case events.ActionAccept, events.ActionDismiss:
	default:
		return fmt.Errorf("invalid dialogs.default_action: %s (must be 'accept' or 'dismiss')", c.Dialogs.DefaultAction)
	}
	if c.Dialogs.BufferSize <= 0 || c.Console.BufferSize <= 0 {
		return fmt.Errorf("buffer sizes must be positive")
	}

	if c.Content.MaxTokens < 0 {
		return fmt.Errorf("content.max_tokens cannot be negative")
	}
	return nil
}
