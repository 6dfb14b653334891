package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nholik/progress-sentinel/internal/progress"
	"github.com/nholik/progress-sentinel/internal/whatsapp"
)

const (
	envAccessToken        = "PS_WHATSAPP_ACCESS_TOKEN"
	envPhoneNumberID      = "PS_WHATSAPP_PHONE_NUMBER_ID"
	envRecipientID        = "PS_WHATSAPP_RECIPIENT_ID"
	envGraphAPIBaseURL    = "PS_GRAPH_API_BASE_URL"
	envTemplateFile       = "PS_TEMPLATE_FILE"
	envTemplateName       = "PS_TEMPLATE_NAME"
	envTemplateLanguage   = "PS_TEMPLATE_LANGUAGE"
	envDocumentPattern    = "PS_DOCUMENT_PATTERN"
	envTimeZone           = "PS_TIMEZONE"
	envSource             = "PS_SOURCE"
	envFirestoreProjectID = "PS_FIRESTORE_PROJECT_ID"
	envListenPort         = "PS_LISTEN_PORT"
	envMetricsPort        = "PS_METRICS_PORT"
	envLogLevel           = "PS_LOG_LEVEL"
	envDryRun             = "PS_DRY_RUN"
	envHTTPTimeout        = "PS_HTTP_TIMEOUT"
)

const (
	defaultTemplateName     = "solar_progress_update"
	defaultTemplateLanguage = "en_US"
	defaultTimeZone         = "UTC"
	defaultListenPort       = 8080
	defaultLogLevel         = "info"
)

// Change-event sources.
const (
	SourceHTTP      = "http"
	SourceFirestore = "firestore"
)

// WhatsApp holds the Cloud API credentials. They are checked per dispatch, not at load.
type WhatsApp struct {
	AccessToken   string
	PhoneNumberID string
	RecipientID   string
	BaseURL       string
}

// Missing returns the environment variable names of absent credentials.
func (w WhatsApp) Missing() []string {
	var missing []string
	if strings.TrimSpace(w.AccessToken) == "" {
		missing = append(missing, envAccessToken)
	}
	if strings.TrimSpace(w.PhoneNumberID) == "" {
		missing = append(missing, envPhoneNumberID)
	}
	if strings.TrimSpace(w.RecipientID) == "" {
		missing = append(missing, envRecipientID)
	}
	return missing
}

// Template selects the approved message template and how records are rendered.
type Template struct {
	Name            string
	Language        string
	DocumentPattern string
	TimeZone        string
}

// Location returns the display time zone, falling back to UTC.
func (t Template) Location() *time.Location {
	loc, err := time.LoadLocation(t.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Pattern returns the parsed document pattern.
func (t Template) Pattern() (progress.Pattern, error) {
	return progress.ParsePattern(t.DocumentPattern)
}

// Config describes runtime configuration loaded from the environment.
type Config struct {
	WhatsApp           WhatsApp
	Template           Template
	Source             string
	FirestoreProjectID string
	ListenPort         int
	MetricsPort        int
	LogLevel           string
	DryRun             bool
	HTTPTimeout        time.Duration
}

// Load reads configuration from environment variables and a local .env file if present.
// Existing environment variables take precedence over values in .env, and both take
// precedence over the template file.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		WhatsApp: WhatsApp{
			BaseURL: whatsapp.DefaultBaseURL,
		},
		Template: Template{
			Name:            defaultTemplateName,
			Language:        defaultTemplateLanguage,
			DocumentPattern: progress.DefaultPattern,
			TimeZone:        defaultTimeZone,
		},
		Source:     SourceHTTP,
		ListenPort: defaultListenPort,
		LogLevel:   defaultLogLevel,
	}

	if value, ok := lookupTrimmed(envTemplateFile); ok && value != "" {
		file, err := LoadTemplateFile(value)
		if err != nil {
			return Config{}, err
		}
		file.apply(&cfg.Template)
	}

	if value, ok := lookupTrimmed(envAccessToken); ok {
		cfg.WhatsApp.AccessToken = value
	}
	if value, ok := lookupTrimmed(envPhoneNumberID); ok {
		cfg.WhatsApp.PhoneNumberID = value
	}
	if value, ok := lookupTrimmed(envRecipientID); ok {
		cfg.WhatsApp.RecipientID = value
	}
	if value, ok := lookupTrimmed(envGraphAPIBaseURL); ok && value != "" {
		cfg.WhatsApp.BaseURL = strings.TrimRight(value, "/")
	}

	if value, ok := lookupTrimmed(envTemplateName); ok && value != "" {
		cfg.Template.Name = value
	}
	if value, ok := lookupTrimmed(envTemplateLanguage); ok && value != "" {
		cfg.Template.Language = value
	}
	if value, ok := lookupTrimmed(envDocumentPattern); ok && value != "" {
		cfg.Template.DocumentPattern = value
	}
	if value, ok := lookupTrimmed(envTimeZone); ok && value != "" {
		cfg.Template.TimeZone = value
	}

	if value, ok := lookupTrimmed(envSource); ok && value != "" {
		cfg.Source = strings.ToLower(value)
	}
	if value, ok := lookupTrimmed(envFirestoreProjectID); ok {
		cfg.FirestoreProjectID = value
	}

	if value, ok := lookupTrimmed(envListenPort); ok && value != "" {
		port, err := parsePort(value, envListenPort)
		if err != nil {
			return Config{}, err
		}
		if port == 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envListenPort)
		}
		cfg.ListenPort = port
	}
	if value, ok := lookupTrimmed(envMetricsPort); ok && value != "" {
		port, err := parsePort(value, envMetricsPort)
		if err != nil {
			return Config{}, err
		}
		cfg.MetricsPort = port
	}

	if value, ok := lookupTrimmed(envLogLevel); ok && value != "" {
		cfg.LogLevel = value
	}

	if value, ok := lookupTrimmed(envDryRun); ok && value != "" {
		dryRun, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envDryRun, err)
		}
		cfg.DryRun = dryRun
	}

	if value, ok := lookupTrimmed(envHTTPTimeout); ok && value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envHTTPTimeout, err)
		}
		if timeout < 0 {
			return Config{}, fmt.Errorf("%s cannot be negative", envHTTPTimeout)
		}
		cfg.HTTPTimeout = timeout
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if err := validateURL(c.WhatsApp.BaseURL, envGraphAPIBaseURL); err != nil {
		return err
	}
	if _, err := c.Template.Pattern(); err != nil {
		return fmt.Errorf("invalid %s: %w", envDocumentPattern, err)
	}
	if _, err := time.LoadLocation(c.Template.TimeZone); err != nil {
		return fmt.Errorf("invalid %s: %w", envTimeZone, err)
	}

	switch c.Source {
	case SourceHTTP:
	case SourceFirestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("%s is required when %s=%s", envFirestoreProjectID, envSource, SourceFirestore)
		}
	default:
		return fmt.Errorf("invalid %s: %q (want %s or %s)", envSource, c.Source, SourceHTTP, SourceFirestore)
	}

	return nil
}

func parsePort(value, name string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 0 and 65535", name)
	}
	return port, nil
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
