package kafka

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OliveiraNt/maned-mirror/internal/config"
)

// writeCA generates a self-signed CA certificate in dir and returns its path.
func writeCA(t *testing.T, dir string) string {
	t.Helper()
	caKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	caTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			Organization: []string{"Test CA"},
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	caCertDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatal(err)
	}

	caFile := filepath.Join(dir, "ca.pem")
	caOut, err := os.Create(caFile)
	if err != nil {
		t.Fatal(err)
	}
	defer caOut.Close()
	if err := pem.Encode(caOut, &pem.Block{Type: "CERTIFICATE", Bytes: caCertDER}); err != nil {
		t.Fatal(err)
	}
	return caFile
}

func TestNewClient(t *testing.T) {
	t.Run("basic client creation", func(t *testing.T) {
		cfg := config.ClusterConfig{
			Name:     "test",
			Brokers:  []string{"localhost:9092"},
			ClientID: "test-client",
		}

		client, err := newClient(cfg)
		if err != nil {
			t.Fatalf("newClient() error = %v", err)
		}
		defer client.Close()
	})

	t.Run("client with empty brokers", func(t *testing.T) {
		client, err := newClient(config.ClusterConfig{Name: "test"})
		if err != nil {
			t.Fatalf("newClient() error = %v", err)
		}
		defer client.Close()
	})
}

func TestClientOptsWithTLS(t *testing.T) {
	caFile := writeCA(t, t.TempDir())

	t.Run("TLS with CA only", func(t *testing.T) {
		cfg := config.ClusterConfig{
			Brokers: []string{"localhost:9093"},
			TLS:     &config.TLSConfig{Enabled: true, CAFile: caFile},
		}

		client, err := newClient(cfg)
		if err != nil {
			t.Fatalf("newClient() with TLS error = %v", err)
		}
		defer client.Close()
	})

	t.Run("TLS with invalid CA file", func(t *testing.T) {
		cfg := config.ClusterConfig{
			Brokers: []string{"localhost:9093"},
			TLS:     &config.TLSConfig{Enabled: true, CAFile: "/nonexistent/ca.pem"},
		}

		if _, err := clientOpts(cfg); err == nil {
			t.Error("expected error for invalid CA file, got nil")
		}
	})

	t.Run("TLS with missing key pair", func(t *testing.T) {
		tlsCfg := &config.TLSConfig{Enabled: true, CertFile: "/nonexistent/c.pem", KeyFile: "/nonexistent/k.pem"}
		if _, err := buildTLSConfig(tlsCfg); err == nil {
			t.Error("expected error for missing key pair, got nil")
		}
	})

	t.Run("insecure skip verify is carried over", func(t *testing.T) {
		tlsCfg, err := buildTLSConfig(&config.TLSConfig{Enabled: true, InsecureSkipVerify: true})
		if err != nil {
			t.Fatalf("buildTLSConfig() error = %v", err)
		}
		if !tlsCfg.InsecureSkipVerify {
			t.Error("expected InsecureSkipVerify")
		}
		if len(tlsCfg.Certificates) != 0 {
			t.Errorf("expected no client certificates, got %d", len(tlsCfg.Certificates))
		}
	})
}

func TestBuildSASLMechanism(t *testing.T) {
	tests := []struct {
		mechanism string
		wantName  string
	}{
		{"PLAIN", "PLAIN"},
		{"plain", "PLAIN"},
		{"SCRAM-SHA-256", "SCRAM-SHA-256"},
		{"scram-sha-512", "SCRAM-SHA-512"},
		{"UNKNOWN", ""},
	}

	for _, tt := range tests {
		t.Run(tt.mechanism, func(t *testing.T) {
			mech := buildSASLMechanism(&config.SASLConfig{Mechanism: tt.mechanism, Username: "u", Password: "p"})
			if tt.wantName == "" {
				if mech != nil {
					t.Fatalf("expected nil mechanism, got %s", mech.Name())
				}
				return
			}
			if mech == nil {
				t.Fatal("expected non-nil mechanism")
			}
			if mech.Name() != tt.wantName {
				t.Errorf("mechanism name = %s, want %s", mech.Name(), tt.wantName)
			}
		})
	}

	t.Run("credentials from env", func(t *testing.T) {
		t.Setenv("TEST_USERNAME", "envuser")
		t.Setenv("TEST_PASSWORD", "envpass")

		cfg := config.ClusterConfig{
			Brokers: []string{"localhost:9092"},
			SASL: &config.SASLConfig{
				Mechanism:   "PLAIN",
				UsernameEnv: "TEST_USERNAME",
				PasswordEnv: "TEST_PASSWORD",
			},
		}
		client, err := newClient(cfg)
		if err != nil {
			t.Fatalf("newClient() with SASL env error = %v", err)
		}
		defer client.Close()
	})
}

func TestBuildAWSMechanism(t *testing.T) {
	t.Run("no credentials", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "")
		if mech := buildAWSMechanism(&config.AWSConfig{IAM: true}); mech != nil {
			t.Fatal("expected nil mechanism without credentials")
		}
	})

	t.Run("default env variables", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "test-access-key")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "test-secret-key")
		mech := buildAWSMechanism(&config.AWSConfig{IAM: true})
		if mech == nil {
			t.Fatal("expected non-nil mechanism")
		}
		if mech.Name() != "AWS_MSK_IAM" {
			t.Errorf("unexpected mechanism %s", mech.Name())
		}
	})

	t.Run("custom env variables", func(t *testing.T) {
		t.Setenv("AWS_ACCESS_KEY_ID", "")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "")
		t.Setenv("CUSTOM_ACCESS_KEY", "custom-access")
		t.Setenv("CUSTOM_SECRET_KEY", "custom-secret")

		cfg := config.ClusterConfig{
			Brokers: []string{"b-1.msk.amazonaws.com:9098"},
			AWS: &config.AWSConfig{
				IAM:          true,
				AccessKeyEnv: "CUSTOM_ACCESS_KEY",
				SecretKeyEnv: "CUSTOM_SECRET_KEY",
			},
		}
		client, err := newClient(cfg)
		if err != nil {
			t.Fatalf("newClient() with AWS IAM error = %v", err)
		}
		defer client.Close()
	})
}
