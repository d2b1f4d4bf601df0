// Package certs loads the TLS certificate the web surface serves with.
package certs

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"time"
)

// ErrExpired is returned for a certificate whose validity has ended.
var ErrExpired = errors.New("certificate expired")

// CertManager loads a certificate and key pair from disk.
type CertManager struct {
	certFile string
	keyFile  string
	now      func() time.Time
}

// NewCertManager creates a new CertManager for the given files.
func NewCertManager(certFile, keyFile string) *CertManager {
	return &CertManager{certFile: certFile, keyFile: keyFile, now: time.Now}
}

// TLSConfig loads the pair and returns a server config. Expired or not yet
// valid certificates are rejected.
func (cm *CertManager) TLSConfig() (*tls.Config, *x509.Certificate, error) {
	pair, err := tls.LoadX509KeyPair(cm.certFile, cm.keyFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load key pair: %w", err)
	}
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, nil, fmt.Errorf("parse certificate: %w", err)
	}
	if cm.IsExpired(leaf) {
		return nil, nil, fmt.Errorf("%w: not after %s", ErrExpired, leaf.NotAfter.Format(time.RFC3339))
	}
	if leaf.NotBefore.After(cm.now()) {
		return nil, nil, fmt.Errorf("certificate not valid before %s", leaf.NotBefore.Format(time.RFC3339))
	}
	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}, leaf, nil
}

// IsExpired checks if a certificate is expired.
func (cm *CertManager) IsExpired(cert *x509.Certificate) bool {
	return cert.NotAfter.Before(cm.now())
}

// ExpiresWithin reports whether cert expires inside d.
func (cm *CertManager) ExpiresWithin(cert *x509.Certificate, d time.Duration) bool {
	return cert.NotAfter.Before(cm.now().Add(d))
}
