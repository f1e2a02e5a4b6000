package scraper

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Domain is the "primera sección" listing the calendar lives on.
const Domain = "https://www.boletinoficial.gob.ar/seccion/primera"

const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
)

// Selectors used against the gazette markup. CalendarDay is a format string
// taking the day number.
type Selectors struct {
	CalendarDay    string `yaml:"calendar_day" validate:"required"`
	Results        string `yaml:"results" validate:"required"`
	Items          string `yaml:"items" validate:"required"`
	ItemLink       string `yaml:"item_link" validate:"required"`
	DownloadButton string `yaml:"download_button" validate:"required"`
}

// Timings holds the bounded waits and the fixed settle delays. Settle delays
// are approximations used where the page gives no readiness signal.
type Timings struct {
	DayWait             time.Duration `yaml:"day_wait" validate:"gt=0"`
	StaleWait           time.Duration `yaml:"stale_wait" validate:"gt=0"`
	DownloadWait        time.Duration `yaml:"download_wait" validate:"gt=0"`
	AfterDaySettle      time.Duration `yaml:"after_day_settle" validate:"gte=0"`
	AfterDownloadSettle time.Duration `yaml:"after_download_settle" validate:"gte=0"`
	AfterBatchSettle    time.Duration `yaml:"after_batch_settle" validate:"gte=0"`
}

type ScraperConfig struct {
	Headless    bool      `yaml:"headless"`
	Driver      string    `yaml:"driver" validate:"oneof=playwright chromedp"`
	Domain      string    `yaml:"domain" validate:"required,url"`
	DownloadDir string    `yaml:"download_dir" validate:"required"`
	Keywords    []string  `yaml:"keywords"`
	MatchMode   MatchMode `yaml:"match_mode" validate:"oneof=exact fold"`
	Debug       bool      `yaml:"debug"`
	LogFile     string    `yaml:"log_file"`
	Selectors   Selectors `yaml:"selectors"`
	Timings     Timings   `yaml:"timings"`
}

func NewConfig(headless bool, domain, downloadDir string, keywords []string, debug bool) ScraperConfig {
	config := DefaultConfig()
	config.Headless = headless
	config.Domain = domain
	config.DownloadDir = downloadDir
	config.Keywords = keywords
	config.Debug = debug
	return config
}

// DefaultConfig mirrors what the gazette site needed when the selectors were
// last checked.
func DefaultConfig() ScraperConfig {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return ScraperConfig{
		Driver:      DriverPlaywright,
		Domain:      Domain,
		DownloadDir: filepath.Join(cwd, "Descargas"),
		Keywords:    []string{"MINISTERIO DE JUSTICIA"},
		MatchMode:   MatchExact,
		LogFile:     "scraper.log",
		Selectors: Selectors{
			CalendarDay:    "xpath=//div[contains(@class, 'datepicker-days')]//td[text()='%d' and not(contains(@class, 'old')) and not(contains(@class, 'new'))]",
			Results:        ".items-section",
			Items:          "#avisosSeccionDiv > div",
			ItemLink:       "a",
			DownloadButton: "#subLayouyContentDiv .col-download button",
		},
		Timings: Timings{
			DayWait:             10 * time.Second,
			StaleWait:           5 * time.Second,
			DownloadWait:        5 * time.Second,
			AfterDaySettle:      3 * time.Second,
			AfterDownloadSettle: 4 * time.Second,
			AfterBatchSettle:    2 * time.Second,
		},
	}
}

// LoadConfigFile overlays the YAML file at path on top of DefaultConfig.
func LoadConfigFile(path string) (ScraperConfig, error) {
	config := DefaultConfig()
	if path == "" {
		return config, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides fields from BOLETIN_* environment variables.
func (c *ScraperConfig) ApplyEnv() error {
	if v := os.Getenv("BOLETIN_DOMAIN"); v != "" {
		c.Domain = v
	}
	if v := os.Getenv("BOLETIN_DOWNLOAD_DIR"); v != "" {
		c.DownloadDir = v
	}
	if v := os.Getenv("BOLETIN_DRIVER"); v != "" {
		c.Driver = v
	}
	if v := os.Getenv("BOLETIN_KEYWORDS"); v != "" {
		c.Keywords = splitKeywords(v)
	}
	if v := os.Getenv("BOLETIN_MATCH_MODE"); v != "" {
		c.MatchMode = MatchMode(v)
	}
	if v := os.Getenv("BOLETIN_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid BOLETIN_HEADLESS %q: %w", v, err)
		}
		c.Headless = headless
	}
	return nil
}

// ResolvePaths makes DownloadDir absolute, since the browser resolves
// download paths against its own working directory.
func (c *ScraperConfig) ResolvePaths() error {
	if c.DownloadDir == "" {
		return nil
	}
	abs, err := filepath.Abs(c.DownloadDir)
	if err != nil {
		return fmt.Errorf("invalid download dir %q: %w", c.DownloadDir, err)
	}
	c.DownloadDir = abs
	return nil
}

// Validate checks field constraints declared in the struct tags.
func (c ScraperConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: %s failed %q check", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	if !strings.Contains(c.Selectors.CalendarDay, "%d") {
		return errors.New("config error: calendar_day selector needs a %d placeholder")
	}
	return nil
}

// splitKeywords splits a comma separated list, keeping inner spaces.
func splitKeywords(s string) []string {
	var out []string
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
