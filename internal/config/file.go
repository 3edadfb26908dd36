package config

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultGroupID is the consumer group used on the source cluster.
	DefaultGroupID = "replicator"
	// DefaultBatchCommitSize is how many messages are delivered before each offset commit.
	DefaultBatchCommitSize = 100

	// DefaultServiceName is the OpenTelemetry service name.
	DefaultServiceName = "maned-mirror"
	// DefaultTraceSampleRate is used when traces are enabled without a sample rate.
	DefaultTraceSampleRate = 0.1

	defaultSourceClientID      = "replicator_source"
	defaultDestinationClientID = "replicator_destination"
)

var (
	// ErrNoSourceBrokers is returned when the source cluster has no seed brokers.
	ErrNoSourceBrokers = errors.New("source brokers are required")
	// ErrNoDestinationBrokers is returned when the destination cluster has no seed brokers.
	ErrNoDestinationBrokers = errors.New("destination brokers are required")
	// ErrInvalidBatchCommitSize is returned when batch_commit_size is not positive.
	ErrInvalidBatchCommitSize = errors.New("batch_commit_size must be positive")
	// ErrInvalidSampleRate is returned when telemetry.trace_sample_rate is outside [0, 1].
	ErrInvalidSampleRate = errors.New("telemetry.trace_sample_rate must be between 0 and 1")
)

// ClusterConfig holds cluster connectivity and security configuration.
type ClusterConfig struct {
	Name     string            `yaml:"name,omitempty" json:"name,omitempty"`
	Brokers  []string          `yaml:"brokers" json:"brokers"`
	ClientID string            `yaml:"client_id,omitempty" json:"client_id,omitempty"`
	TLS      *TLSConfig        `yaml:"tls,omitempty" json:"tls,omitempty"`
	SASL     *SASLConfig       `yaml:"sasl,omitempty" json:"sasl,omitempty"`
	AWS      *AWSConfig        `yaml:"aws,omitempty" json:"aws,omitempty"`
	Options  map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
}

// TLSConfig holds TLS related fields.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	CAFile             string `yaml:"ca_file,omitempty" json:"ca_file,omitempty"`
	CertFile           string `yaml:"cert_file,omitempty" json:"cert_file,omitempty"`
	KeyFile            string `yaml:"key_file,omitempty" json:"key_file,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify,omitempty" json:"insecure_skip_verify,omitempty"`
}

// SASLConfig holds SASL configuration. Credentials may be provided inline or via env var names.
type SASLConfig struct {
	Mechanism   string `yaml:"mechanism,omitempty" json:"mechanism,omitempty"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username    string `yaml:"username,omitempty" json:"username,omitempty"`
	Password    string `yaml:"password,omitempty" json:"-"`
	UsernameEnv string `yaml:"username_env,omitempty" json:"username_env,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty" json:"password_env,omitempty"`
}

// AWSConfig holds AWS MSK IAM SASL config.
type AWSConfig struct {
	IAM             bool   `yaml:"iam,omitempty" json:"iam,omitempty"`
	Region          string `yaml:"region,omitempty" json:"region,omitempty"`
	AccessKeyEnv    string `yaml:"access_key_env,omitempty" json:"access_key_env,omitempty"`
	SecretKeyEnv    string `yaml:"secret_key_env,omitempty" json:"secret_key_env,omitempty"`
	SessionTokenEnv string `yaml:"session_token_env,omitempty" json:"session_token_env,omitempty"`
}

// HTTPConfig configures the optional status server. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

// TelemetryConfig configures OpenTelemetry export over OTLP/gRPC. An empty Endpoint disables it.
type TelemetryConfig struct {
	Endpoint        string  `yaml:"otlp_endpoint,omitempty" json:"otlp_endpoint,omitempty"`
	Insecure        bool    `yaml:"insecure,omitempty" json:"insecure,omitempty"`
	ServiceName     string  `yaml:"service_name,omitempty" json:"service_name,omitempty"`
	Traces          bool    `yaml:"traces,omitempty" json:"traces,omitempty"`
	TraceSampleRate float64 `yaml:"trace_sample_rate,omitempty" json:"trace_sample_rate,omitempty"`
}

// Enabled reports whether an exporter endpoint is configured.
func (t TelemetryConfig) Enabled() bool {
	return t.Endpoint != ""
}

// FileConfig is the replicator configuration file.
type FileConfig struct {
	Source          ClusterConfig   `yaml:"source" json:"source"`
	Destination     ClusterConfig   `yaml:"destination" json:"destination"`
	SkipTopics      []string        `yaml:"skip_topics,omitempty" json:"skip_topics,omitempty"`
	GroupID         string          `yaml:"group_id,omitempty" json:"group_id,omitempty"`
	BatchCommitSize int             `yaml:"batch_commit_size,omitempty" json:"batch_commit_size,omitempty"`
	HTTP            HTTPConfig      `yaml:"http,omitempty" json:"http,omitempty"`
	Telemetry       TelemetryConfig `yaml:"telemetry,omitempty" json:"telemetry,omitempty"`
}

// Default returns a configuration with every optional field filled in and no brokers.
func Default() FileConfig {
	var cfg FileConfig
	cfg.ApplyDefaults()
	return cfg
}

func ReadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

func WriteConfig(path string, cfg FileConfig) error {
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ApplyDefaults fills unset optional fields.
func (c *FileConfig) ApplyDefaults() {
	if c.Source.Name == "" {
		c.Source.Name = "source"
	}
	if c.Destination.Name == "" {
		c.Destination.Name = "destination"
	}
	if c.Source.ClientID == "" {
		c.Source.ClientID = defaultSourceClientID
	}
	if c.Destination.ClientID == "" {
		c.Destination.ClientID = defaultDestinationClientID
	}
	if c.GroupID == "" {
		c.GroupID = DefaultGroupID
	}
	if c.BatchCommitSize == 0 {
		c.BatchCommitSize = DefaultBatchCommitSize
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
	if c.Telemetry.Traces && c.Telemetry.TraceSampleRate == 0 {
		c.Telemetry.TraceSampleRate = DefaultTraceSampleRate
	}
}

// ApplyEnv overrides file values with MANED_MIRROR_* environment variables when set.
func (c *FileConfig) ApplyEnv() {
	if v := os.Getenv("MANED_MIRROR_SOURCE_BROKERS"); v != "" {
		c.Source.Brokers = splitList(v)
	}
	if v := os.Getenv("MANED_MIRROR_DESTINATION_BROKERS"); v != "" {
		c.Destination.Brokers = splitList(v)
	}
	if v := os.Getenv("MANED_MIRROR_SKIP_TOPICS"); v != "" {
		c.SkipTopics = splitList(v)
	}
	if v := os.Getenv("MANED_MIRROR_GROUP_ID"); v != "" {
		c.GroupID = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv("MANED_MIRROR_HTTP_ADDR"); ok {
		c.HTTP.Addr = strings.TrimSpace(v)
	}
	if v := os.Getenv("MANED_MIRROR_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = strings.TrimSpace(v)
	}
}

// Validate reports the first configuration problem found.
func (c *FileConfig) Validate() error {
	if len(c.Source.Brokers) == 0 {
		return ErrNoSourceBrokers
	}
	if len(c.Destination.Brokers) == 0 {
		return ErrNoDestinationBrokers
	}
	if c.BatchCommitSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchCommitSize, c.BatchCommitSize)
	}
	if r := c.Telemetry.TraceSampleRate; r < 0 || r > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidSampleRate, r)
	}
	return nil
}

// Load reads path, applies defaults and environment overrides and validates the result.
func Load(path string) (FileConfig, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetAuthType returns a human-readable authentication type based on the cluster config
func (c *ClusterConfig) GetAuthType() string {
	if c.AWS != nil && c.AWS.IAM {
		return "AWS IAM"
	}

	if c.SASL != nil && c.SASL.Mechanism != "" {
		mechanism := c.SASL.Mechanism
		if c.TLS != nil && c.TLS.Enabled {
			return "SASL/" + mechanism + " + TLS"
		}
		return "SASL/" + mechanism
	}

	// mTLS when a client certificate is configured
	if c.TLS != nil && c.TLS.Enabled {
		if c.TLS.CertFile != "" && c.TLS.KeyFile != "" {
			return "mTLS"
		}
		return "TLS"
	}

	return "PLAINTEXT"
}

// CertificateInfo holds certificate validity information
type CertificateInfo struct {
	NotBefore    time.Time `json:"not_before"`
	NotAfter     time.Time `json:"not_after"`
	DaysToExpiry int       `json:"days_to_expiry"`
	Status       string    `json:"status"` // "valid", "warning", "critical", "expired"
}

// GetCertificateInfo reads the client certificate and reports its validity window.
func (c *ClusterConfig) GetCertificateInfo() (*CertificateInfo, error) {
	if !c.HasCertificate() {
		return nil, nil
	}

	certPEM, err := os.ReadFile(c.TLS.CertFile)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, nil
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	daysToExpiry := int(time.Until(cert.NotAfter).Hours() / 24)

	status := "valid"
	if now.After(cert.NotAfter) {
		status = "expired"
	} else if daysToExpiry <= 7 {
		status = "critical"
	} else if daysToExpiry <= 30 {
		status = "warning"
	}

	return &CertificateInfo{
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		DaysToExpiry: daysToExpiry,
		Status:       status,
	}, nil
}

// HasCertificate returns true if the cluster uses certificate-based authentication
func (c *ClusterConfig) HasCertificate() bool {
	return c.TLS != nil && c.TLS.Enabled && c.TLS.CertFile != ""
}
