package qcat

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCreateSelfSigned(t *testing.T) {
	certPEM, keyPEM, err := CreateSelfSigned([]string{"catalog.local", "127.0.0.1"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	block, _ := pem.Decode(certPEM)
	if block == nil {
		t.Fatal("no PEM block")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	if cert.Subject.CommonName != "catalog.local" {
		t.Errorf("CommonName = %q", cert.Subject.CommonName)
	}
	if len(cert.DNSNames) != 1 || len(cert.IPAddresses) != 1 {
		t.Errorf("SANs = %v %v", cert.DNSNames, cert.IPAddresses)
	}
	if err := cert.VerifyHostname("127.0.0.1"); err != nil {
		t.Error(err)
	}
	if cert.SerialNumber.Sign() <= 0 {
		t.Error("serial number is not positive")
	}

	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	os.WriteFile(certFile, certPEM, 0600)
	os.WriteFile(keyFile, keyPEM, 0600)

	cfg, err := ServerTLSConfig(certFile, keyFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Certificates) != 1 || cfg.NextProtos[0] != NextProto {
		t.Errorf("server config = %+v", cfg)
	}

	ccfg, err := ClientTLSConfig(certFile, "catalog.local")
	if err != nil {
		t.Fatal(err)
	}
	if ccfg.InsecureSkipVerify || ccfg.RootCAs == nil {
		t.Error("client config with CA file does not verify")
	}
	if _, err := ClientTLSConfig(keyFile, ""); err != ErrNoCACerts {
		t.Errorf("ClientTLSConfig with key file = %v", err)
	}
}
