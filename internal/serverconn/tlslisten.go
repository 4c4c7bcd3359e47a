// Package serverconn implements the server half of the TLS transport (spec
// §4.2) and the per-connection acceptor/dispatcher (spec §4.5).
package serverconn

import (
	"crypto/tls"
	"fmt"
	"net"
)

// Listen loads a PEM certificate chain and PKCS#8 private key and binds a
// TLS-terminated TCP listener on addr. The server does not request client
// certificates (spec §1 Non-goals: client authentication is not in scope).
func Listen(addr, certPath, keyPath string) (net.Listener, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("serverconn: load key pair: %w", err)
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.NoClientCert,
		MinVersion:   tls.VersionTLS12,
	}

	ln, err := tls.Listen("tcp", addr, tlsCfg)
	if err != nil {
		return nil, fmt.Errorf("serverconn: listen on %s: %w", addr, err)
	}
	return ln, nil
}
