package qcat

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
	"time"
)

// NextProto is the ALPN protocol name of the QUIC transport.
const NextProto = "qcat"

// ErrNoCACerts is returned when a CA file holds no usable certificates.
var ErrNoCACerts = errors.New("qcat: no certificates in CA file")

// ServerTLSConfig returns the TLS configuration for ServeQUIC. It loads
// certFile and keyFile, or generates an in-memory self-signed certificate
// for hosts when both are empty.
func ServerTLSConfig(certFile, keyFile string, hosts ...string) (*tls.Config, error) {
	var cert tls.Certificate
	var err error
	if certFile == "" && keyFile == "" {
		cert, err = SelfSignedCertificate(hosts, 365*24*time.Hour)
	} else {
		cert, err = tls.LoadX509KeyPair(certFile, keyFile)
	}
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{NextProto},
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// ClientTLSConfig returns the TLS configuration for DialQUIC. With an empty
// caFile the server certificate is not verified, which is what a server
// using a generated certificate requires.
func ClientTLSConfig(caFile, serverName string) (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName: serverName,
		NextProtos: []string{NextProto},
		MinVersion: tls.VersionTLS13,
	}
	if caFile == "" {
		cfg.InsecureSkipVerify = true
		return cfg, nil
	}
	pemData, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemData) {
		return nil, ErrNoCACerts
	}
	cfg.RootCAs = pool
	return cfg, nil
}
