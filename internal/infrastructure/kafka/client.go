// Package kafka implements the engine's broker collaborators on top of franz-go: a kadm-backed
// cluster handle, a consumer-group source consumer and a partition-preserving destination producer.
package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"github.com/OliveiraNt/maned-mirror/internal/config"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/aws"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"
)

// clientOpts translates connectivity and security configuration into franz-go options.
func clientOpts(cfg config.ClusterConfig) ([]kgo.Opt, error) {
	opts := []kgo.Opt{kgo.WithLogger(newClientLogger(cfg.Name))}

	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if len(cfg.Brokers) > 0 {
		opts = append(opts, kgo.SeedBrokers(cfg.Brokers...))
	}
	if cfg.TLS != nil && cfg.TLS.Enabled {
		tlsCfg, err := buildTLSConfig(cfg.TLS)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	if cfg.SASL != nil && cfg.SASL.Mechanism != "" {
		if mech := buildSASLMechanism(cfg.SASL); mech != nil {
			opts = append(opts, kgo.SASL(mech))
		}
	}
	if cfg.AWS != nil && cfg.AWS.IAM {
		if awsMech := buildAWSMechanism(cfg.AWS); awsMech != nil {
			opts = append(opts, kgo.SASL(awsMech))
		}
	}
	return opts, nil
}

// newClient creates a franz-go client for cfg with extra role specific options appended.
func newClient(cfg config.ClusterConfig, extra ...kgo.Opt) (*kgo.Client, error) {
	opts, err := clientOpts(cfg)
	if err != nil {
		return nil, err
	}
	return kgo.NewClient(append(opts, extra...)...)
}

// buildTLSConfig reads cert files and builds a tls.Config
func buildTLSConfig(t *config.TLSConfig) (*tls.Config, error) {
	rootCAs := x509.NewCertPool()
	if t.CAFile != "" {
		b, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, err
		}
		rootCAs.AppendCertsFromPEM(b)
	}

	var cert tls.Certificate
	if t.CertFile != "" && t.KeyFile != "" {
		c, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, err
		}
		cert = c
	}

	cfg := &tls.Config{
		RootCAs:            rootCAs,
		InsecureSkipVerify: t.InsecureSkipVerify,
	}

	if len(cert.Certificate) > 0 {
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

// buildSASLMechanism creates a franz-go sasl.Mechanism; env credentials take precedence.
// Unknown mechanisms yield nil, meaning no SASL.
func buildSASLMechanism(s *config.SASLConfig) sasl.Mechanism {
	username := s.Username
	password := s.Password

	if s.UsernameEnv != "" {
		if v := os.Getenv(s.UsernameEnv); v != "" {
			username = v
		}
	}
	if s.PasswordEnv != "" {
		if v := os.Getenv(s.PasswordEnv); v != "" {
			password = v
		}
	}

	switch s.Mechanism {
	case "PLAIN", "plain":
		return plain.Auth{User: username, Pass: password}.AsMechanism()
	case "SCRAM-SHA-256", "SCRAM-SHA256", "scram-sha-256":
		return scram.Auth{User: username, Pass: password}.AsSha256Mechanism()
	case "SCRAM-SHA-512", "SCRAM-SHA512", "scram-sha-512":
		return scram.Auth{User: username, Pass: password}.AsSha512Mechanism()
	default:
		return nil
	}
}

// buildAWSMechanism constructs an AWS MSK IAM mechanism, or nil when no credentials are available.
func buildAWSMechanism(a *config.AWSConfig) sasl.Mechanism {
	access := ""
	secret := ""
	session := ""

	if a != nil {
		if a.AccessKeyEnv != "" {
			access = os.Getenv(a.AccessKeyEnv)
		}
		if a.SecretKeyEnv != "" {
			secret = os.Getenv(a.SecretKeyEnv)
		}
		if a.SessionTokenEnv != "" {
			session = os.Getenv(a.SessionTokenEnv)
		}
	}

	if access == "" {
		access = os.Getenv("AWS_ACCESS_KEY_ID")
	}
	if secret == "" {
		secret = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	if session == "" {
		session = os.Getenv("AWS_SESSION_TOKEN")
	}

	if access == "" || secret == "" {
		return nil
	}

	return aws.Auth{
		AccessKey:    access,
		SecretKey:    secret,
		SessionToken: session,
	}.AsManagedStreamingIAMMechanism()
}
