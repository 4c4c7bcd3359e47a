// Package clienttransport implements the client half of the TLS transport
// (spec §4.2) and the synchronous per-RPC calls the broker (internal/broker)
// drives from its worker thread (spec §4.6).
package clienttransport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
)

// DialConfig names everything needed to establish one client connection
// (spec §3 ClientConfig, immutable after a connection attempt starts).
type DialConfig struct {
	Host                   string
	Domain                 string
	Port                   int
	CertPath               string
	DisableTLSVerification bool
}

// Dial opens a TCP connection to host:port and performs a TLS handshake,
// authenticating the server against the CA certificate(s) at CertPath
// unless DisableTLSVerification is set (development only, spec §4.2).
func Dial(cfg DialConfig) (net.Conn, error) {
	tlsCfg := &tls.Config{
		ServerName: cfg.Domain,
		MinVersion: tls.VersionTLS12,
	}

	if cfg.DisableTLSVerification {
		tlsCfg.InsecureSkipVerify = true
	} else {
		pool, err := loadCAPool(cfg.CertPath)
		if err != nil {
			return nil, fmt.Errorf("clienttransport: load CA pool: %w", err)
		}
		tlsCfg.RootCAs = pool
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := tls.Dial("tcp", addr, tlsCfg)
	if err != nil {
		return nil, fmt.Errorf("clienttransport: connect to %s: %w", addr, err)
	}
	return conn, nil
}

func loadCAPool(certPath string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read CA cert file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", certPath)
	}
	return pool, nil
}
