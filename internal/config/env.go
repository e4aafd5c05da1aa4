package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type EnvConfig struct {
	DocumentPath string
	Server       ServerEnvConfig
	Store        StoreEnvConfig
	Atlassian    AtlassianEnvConfig
	Search       SearchEnvConfig
	OpenAI       OpenAIEnvConfig
	OTel         OTelEnvConfig
	Slack        SlackEnvConfig
	SMTP         SMTPEnvConfig
	Alert        AlertEnvConfig
	External     ExternalEnvConfig
}

type ServerEnvConfig struct {
	Addr            string
	LogFormat       string // "text" or "json"
	LogLevel        string
	ShutdownTimeout time.Duration
}

type StoreEnvConfig struct {
	Driver string // "sqlite", "badger" or "memory"
	Path   string
}

type AtlassianEnvConfig struct {
	SiteURL       string
	Email         string
	APIToken      string
	HTTPTimeout   time.Duration
	UserAgent     string
	ServiceDeskID string
	RequestTypeID string
}

// SearchEnvConfig bounds the space listing crawl.
type SearchEnvConfig struct {
	PageSize      int
	MaxIterations int
	Timeout       time.Duration
}

type OpenAIEnvConfig struct {
	APIKey       string
	BaseURL      string
	Organization string
	Model        string
	MaxKeywords  int
	OTel         OpenAIOTelEnvConfig
}

type OpenAIOTelEnvConfig struct {
	Enabled       bool
	CaptureBodies bool
	MaxBodyBytes  int
}

type OTelEnvConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Protocol    string // "grpc" or "http/protobuf"
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

type SlackEnvConfig struct {
	BotToken    string
	ChannelID   string
	BaseURL     string
	HTTPTimeout time.Duration
}

type SMTPEnvConfig struct {
	Host               string
	Port               int
	User               string
	Password           string
	TLSMode            string
	InsecureSkipVerify bool
}

type AlertEnvConfig struct {
	Rule      string
	Schedule  string
	Timezone  string
	QueueSize int
	BrowseURL string
	EmailFrom string
	EmailTo   string
}

type ExternalEnvConfig struct {
	PlaceholderBaseURL string
	QuotesBaseURL      string
	HTTPTimeout        time.Duration
	UserAgent          string
}

// Configured reports whether enough credentials exist to call Atlassian.
func (c AtlassianEnvConfig) Configured() bool {
	return c.SiteURL != "" && c.Email != "" && c.APIToken != ""
}

func (c SlackEnvConfig) Configured() bool {
	return c.BotToken != "" && c.ChannelID != ""
}

func LoadEnv() EnvConfig {
	otlpEndpoint := strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_ENDPOINT", ""))
	siteURL := strings.TrimRight(strings.TrimSpace(envString("ATLASSIAN_SITE_URL", "")), "/")

	openAIModel := strings.TrimSpace(envString("OPENAI_MODEL", ""))
	if openAIModel == "" {
		openAIModel = "gpt-4o-mini"
	}

	browseURL := envString("ALERT_BROWSE_URL", "")
	if browseURL == "" && siteURL != "" {
		browseURL = siteURL + "/browse/"
	}

	return EnvConfig{
		DocumentPath: envString("HMG_INDEX_CONFIG", "hmg-index.yaml"),
		Server: ServerEnvConfig{
			Addr:            envString("HTTP_ADDR", ":8080"),
			LogFormat:       strings.ToLower(envString("LOG_FORMAT", "text")),
			LogLevel:        strings.ToLower(envString("LOG_LEVEL", "info")),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreEnvConfig{
			Driver: strings.ToLower(envString("STORE_DRIVER", "sqlite")),
			Path:   envString("STORE_PATH", "data/hmg-index.db"),
		},
		Atlassian: AtlassianEnvConfig{
			SiteURL:       siteURL,
			Email:         envString("ATLASSIAN_EMAIL", ""),
			APIToken:      envString("ATLASSIAN_API_TOKEN", ""),
			HTTPTimeout:   envDuration("ATLASSIAN_HTTP_TIMEOUT", 30*time.Second),
			UserAgent:     envString("ATLASSIAN_USER_AGENT", "hmg-index/1.1"),
			ServiceDeskID: envString("SERVICE_DESK_ID", "33"),
			RequestTypeID: envString("SERVICE_DESK_REQUEST_TYPE_ID", "279"),
		},
		Search: SearchEnvConfig{
			PageSize:      envInt("SPACE_SEARCH_PAGE_SIZE", 100),
			MaxIterations: envInt("SPACE_SEARCH_MAX_ITERATIONS", 10),
			Timeout:       envDuration("SPACE_SEARCH_TIMEOUT", 30*time.Second),
		},
		OpenAI: OpenAIEnvConfig{
			APIKey:       strings.TrimSpace(envString("OPENAI_API_KEY", "")),
			BaseURL:      strings.TrimSpace(envString("OPENAI_BASE_URL", "")),
			Organization: strings.TrimSpace(envString("OPENAI_ORG_ID", "")),
			Model:        openAIModel,
			MaxKeywords:  envInt("KEYWORDS_MAX", 10),
			OTel: OpenAIOTelEnvConfig{
				Enabled:       envBool("OTEL_OPENAI_ENABLED", true),
				CaptureBodies: envBool("OTEL_CAPTURE_OPENAI_BODIES", false),
				MaxBodyBytes:  envInt("OTEL_OPENAI_MAX_BODY_BYTES", 64*1024),
			},
		},
		OTel: OTelEnvConfig{
			Enabled:     envBool("OTEL_ENABLED", false),
			ServiceName: strings.TrimSpace(envString("OTEL_SERVICE_NAME", "hmg-index")),
			Endpoint:    otlpEndpoint,
			Protocol:    strings.ToLower(strings.TrimSpace(envString("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			Headers:     parseHeaders(envString("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", defaultInsecure(otlpEndpoint)),
			SampleRatio: clamp01(envFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0)),
		},
		Slack: SlackEnvConfig{
			BotToken:    envString("SLACK_BOT_TOKEN", ""),
			ChannelID:   envString("SLACK_CHANNEL_ID", ""),
			BaseURL:     envString("SLACK_API_URL", "https://slack.com/api/"),
			HTTPTimeout: envDuration("SLACK_HTTP_TIMEOUT", 10*time.Second),
		},
		SMTP: SMTPEnvConfig{
			Host:               envString("SMTP_HOST", ""),
			Port:               envInt("SMTP_PORT", 587),
			User:               envString("SMTP_USER", ""),
			Password:           envString("SMTP_PASSWORD", ""),
			TLSMode:            envString("SMTP_TLS_MODE", ""),
			InsecureSkipVerify: envBool("SMTP_INSECURE_SKIP_VERIFY", false),
		},
		Alert: AlertEnvConfig{
			Rule:      envString("ALERT_RULE", ""),
			Schedule:  envString("ALERT_SCHEDULE", ""),
			Timezone:  envString("ALERT_TIMEZONE", ""),
			QueueSize: envInt("ALERT_QUEUE_SIZE", 16),
			BrowseURL: browseURL,
			EmailFrom: envString("ALERT_EMAIL_FROM", ""),
			EmailTo:   envString("ALERT_EMAIL_TO", ""),
		},
		External: ExternalEnvConfig{
			PlaceholderBaseURL: envString("JSONPLACEHOLDER_BASE_URL", "https://jsonplaceholder.typicode.com"),
			QuotesBaseURL:      envString("QUOTES_BASE_URL", "https://zenquotes.io/api"),
			HTTPTimeout:        envDuration("EXTERNAL_HTTP_TIMEOUT", 10*time.Second),
			UserAgent:          envString("EXTERNAL_USER_AGENT", "hmg-index/1.1"),
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := parseDurationExtended(v)
	if err != nil {
		return fallback
	}
	return d
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func parseHeaders(raw string) map[string]string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func defaultInsecure(endpoint string) bool {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return true
	}
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return false
		}
		return u.Scheme == "http"
	}
	return strings.HasPrefix(endpoint, "localhost:") ||
		strings.HasPrefix(endpoint, "127.0.0.1:") ||
		strings.HasPrefix(endpoint, "0.0.0.0:")
}
