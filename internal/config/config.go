package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL     string
	TemporalAddress string
	HTTPListenAddr  string
	MetricsAddr     string
	LogLevel        string

	// Temporal mTLS. Cert and key must be set together; CA cert and server
	// name are optional.
	TemporalTLSCert       string
	TemporalTLSKey        string
	TemporalTLSCACert     string
	TemporalTLSServerName string

	// Azure service principal used for all management-plane and Graph calls.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// EntraDomain is the directory domain participant accounts are created
	// under, e.g. contoso.onmicrosoft.com.
	EntraDomain string

	// DeploymentSubscriptionID hosts shared infrastructure and is excluded
	// from participant allocation.
	DeploymentSubscriptionID string

	ResourceGroupPrefix string
	ParticipantRole     string
	UsageLocation       string
	DefaultRegion       string

	// SubscriptionCacheTTLMinutes bounds how stale the discovered
	// subscription catalog may be before a refresh is forced.
	SubscriptionCacheTTLMinutes int

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		TemporalAddress: getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		HTTPListenAddr:  getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsAddr:     getEnv("METRICS_LISTEN_ADDR", ":9100"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		TemporalTLSCert:       getEnv("TEMPORAL_TLS_CERT", ""),
		TemporalTLSKey:        getEnv("TEMPORAL_TLS_KEY", ""),
		TemporalTLSCACert:     getEnv("TEMPORAL_TLS_CA_CERT", ""),
		TemporalTLSServerName: getEnv("TEMPORAL_TLS_SERVER_NAME", ""),

		AzureTenantID:     getEnv("AZURE_TENANT_ID", ""),
		AzureClientID:     getEnv("AZURE_CLIENT_ID", ""),
		AzureClientSecret: getEnv("AZURE_CLIENT_SECRET", ""),

		EntraDomain:              getEnv("ENTRA_DOMAIN", ""),
		DeploymentSubscriptionID: getEnv("DEPLOYMENT_SUBSCRIPTION_ID", ""),

		ResourceGroupPrefix: getEnv("RESOURCE_GROUP_PREFIX", "ws"),
		ParticipantRole:     getEnv("PARTICIPANT_ROLE", "Contributor"),
		UsageLocation:       getEnv("USAGE_LOCATION", "KR"),
		DefaultRegion:       getEnv("DEFAULT_REGION", "koreacentral"),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		SMTPFrom: getEnv("SMTP_FROM", ""),
	}

	ttl, err := getEnvInt("SUBSCRIPTION_CACHE_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	cfg.SubscriptionCacheTTLMinutes = ttl

	port, err := getEnvInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	cfg.SMTPPort = port

	return cfg, nil
}

// Validate checks that the fields required by the given component are set.
// Component is "portal-api" or "worker".
func (c *Config) Validate(component string) error {
	var missing []string

	need := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	need("DATABASE_URL", c.DatabaseURL)
	need("TEMPORAL_ADDRESS", c.TemporalAddress)

	switch component {
	case "portal-api":
		need("HTTP_LISTEN_ADDR", c.HTTPListenAddr)
	case "worker":
		need("AZURE_TENANT_ID", c.AzureTenantID)
		need("AZURE_CLIENT_ID", c.AzureClientID)
		need("AZURE_CLIENT_SECRET", c.AzureClientSecret)
		need("ENTRA_DOMAIN", c.EntraDomain)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if (c.TemporalTLSCert == "") != (c.TemporalTLSKey == "") {
		return fmt.Errorf("TEMPORAL_TLS_CERT and TEMPORAL_TLS_KEY must both be set or both be empty")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}
