package cli

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// LoadCertificatesAndKey reads the signing certificate, its private key and
// any number of chain files. Each file may be PEM or DER; chain files may
// hold several certificates.
func LoadCertificatesAndKey(certPath, keyPath string, chainPaths ...string) (*x509.Certificate, crypto.Signer, []*x509.Certificate, error) {
	certs, err := loadCertificates(certPath)
	if err != nil {
		return nil, nil, nil, err
	}
	cert := certs[0]

	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, nil, nil, err
	}
	key, err := parsePrivateKey(keyData)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", keyPath, err)
	}

	// Extra certificates in the certificate file count as chain.
	chain := certs[1:]
	for _, path := range chainPaths {
		more, err := loadCertificates(path)
		if err != nil {
			return nil, nil, nil, err
		}
		chain = append(chain, more...)
	}
	return cert, key, chain, nil
}

func loadCertificates(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	certs, err := parseCertificates(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return certs, nil
}

func parseCertificates(data []byte) ([]*x509.Certificate, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("certificate data is empty")
	}

	var certs []*x509.Certificate
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	if len(certs) > 0 {
		return certs, nil
	}

	// Try DER
	return x509.ParseCertificates(data)
}

func parsePrivateKey(data []byte) (crypto.Signer, error) {
	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
	}

	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, errors.New("failed to parse private key as PKCS#1, PKCS#8 or SEC 1")
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("unsupported private key type %T", key)
	}
	return signer, nil
}

// loadContainer reads a CMS container from a PEM ("PKCS7" or "CMS" block)
// or DER file.
func loadContainer(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if block, _ := pem.Decode(data); block != nil {
		return block.Bytes, nil
	}
	return data, nil
}
