package store

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig points at PEM files for mutual TLS with the backend.
type TLSConfig struct {
	// Enabled determines whether TLS is active.
	// If false, all other fields are ignored.
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`

	CertFile string `yaml:"cert_file" toml:"cert_file" json:"cert_file"`
	KeyFile  string `yaml:"key_file" toml:"key_file" json:"key_file"`

	// CAFile verifies the server certificate.
	CAFile string `yaml:"ca_file" toml:"ca_file" json:"ca_file"`
}

// ClientConfig loads the certificates. It returns nil when TLS is disabled.
func (c *TLSConfig) ClientConfig() (*tls.Config, error) {
	if c == nil || !c.Enabled {
		return nil, nil
	}

	if c.CertFile == "" {
		return nil, fmt.Errorf("%w: TLS cert file is required when TLS is enabled", ErrStore)
	}
	if c.KeyFile == "" {
		return nil, fmt.Errorf("%w: TLS key file is required when TLS is enabled", ErrStore)
	}
	if c.CAFile == "" {
		return nil, fmt.Errorf("%w: TLS CA file is required when TLS is enabled", ErrStore)
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: load client certificate: %v", ErrStore, err)
	}

	caData, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read CA certificate: %v", ErrStore, err)
	}

	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caData) {
		return nil, fmt.Errorf("%w: parse CA certificate", ErrStore)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      caPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
