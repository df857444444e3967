package testpki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/digitorus/timestamp"
)

// KeyProfile defines the cryptographic settings for the PKI.
type KeyProfile string

const (
	RSA_2048   KeyProfile = "RSA_2048"
	RSA_3072   KeyProfile = "RSA_3072"
	ECDSA_P256 KeyProfile = "ECDSA_P256"
	ECDSA_P384 KeyProfile = "ECDSA_P384"
	ECDSA_P521 KeyProfile = "ECDSA_P521"
	ED25519    KeyProfile = "ED25519"
)

type TestPKIConfig struct {
	Profile         KeyProfile
	IntermediateCAs int
}

// TestPKI manages a temporary PKI hierarchy for testing.
type TestPKI struct {
	T                 *testing.T
	RootKey           crypto.Signer
	RootCert          *x509.Certificate
	IntermediateKeys  []crypto.Signer
	IntermediateCerts []*x509.Certificate
	Profile           KeyProfile
}

// NewTestPKI creates a fresh Root CA with one intermediate.
func NewTestPKI(t *testing.T) *TestPKI {
	return NewTestPKIWithConfig(t, TestPKIConfig{
		Profile:         ECDSA_P256,
		IntermediateCAs: 1,
	})
}

// NewTestPKIWithConfig allows detailed configuration of the PKI.
func NewTestPKIWithConfig(t *testing.T, config TestPKIConfig) *TestPKI {
	rootKey := GenerateKey(t, config.Profile)
	rootTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   "PDFSign Test Root CA",
			Organization: []string{"PDFSign Test Org"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		SubjectKeyId:          []byte{1, 2, 3, 4},
	}
	rootCert := createCertificate(t, rootTemplate, rootTemplate, rootKey.Public(), rootKey)

	p := &TestPKI{T: t, RootKey: rootKey, RootCert: rootCert, Profile: config.Profile}

	parentKey, parentCert := rootKey, rootCert
	for i := 0; i < config.IntermediateCAs; i++ {
		key := GenerateKey(t, config.Profile)
		template := &x509.Certificate{
			SerialNumber: big.NewInt(int64(i + 2)),
			Subject: pkix.Name{
				CommonName:   fmt.Sprintf("PDFSign Test Intermediate CA %d", i+1),
				Organization: []string{"PDFSign Test Org"},
			},
			NotBefore:             time.Now().Add(-1 * time.Hour),
			NotAfter:              time.Now().Add(24 * time.Hour),
			KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
			BasicConstraintsValid: true,
			IsCA:                  true,
			SubjectKeyId:          []byte{5, 6, 7, 8, byte(i)},
			AuthorityKeyId:        parentCert.SubjectKeyId,
		}
		cert := createCertificate(t, template, parentCert, key.Public(), parentKey)

		p.IntermediateKeys = append(p.IntermediateKeys, key)
		p.IntermediateCerts = append(p.IntermediateCerts, cert)
		parentKey, parentCert = key, cert
	}
	return p
}

// IssueLeaf issues a document signing certificate from the last CA in the
// hierarchy.
func (p *TestPKI) IssueLeaf(commonName string) (crypto.Signer, *x509.Certificate) {
	priv := GenerateKey(p.T, p.Profile)

	issuerCert, issuerKey := p.RootCert, p.RootKey
	if n := len(p.IntermediateCerts); n > 0 {
		issuerCert, issuerKey = p.IntermediateCerts[n-1], p.IntermediateKeys[n-1]
	}

	template := &x509.Certificate{
		SerialNumber: randomSerial(p.T),
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{"PDFSign Test Org"},
		},
		NotBefore:          time.Now().Add(-1 * time.Hour),
		NotAfter:           time.Now().Add(1 * time.Hour),
		KeyUsage:           x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment,
		UnknownExtKeyUsage: []asn1.ObjectIdentifier{{1, 3, 6, 1, 5, 5, 7, 3, 36}},
	}
	return priv, createCertificate(p.T, template, issuerCert, priv.Public(), issuerKey)
}

// Chain returns the CA certificates for a leaf (Intermediate -> Root).
func (p *TestPKI) Chain() []*x509.Certificate {
	var chain []*x509.Certificate
	for i := len(p.IntermediateCerts) - 1; i >= 0; i-- {
		chain = append(chain, p.IntermediateCerts[i])
	}
	return append(chain, p.RootCert)
}

// SelfSigned returns a key and a self-signed signing certificate.
func SelfSigned(t *testing.T, profile KeyProfile, commonName string) (crypto.Signer, *x509.Certificate) {
	key := GenerateKey(t, profile)
	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{"PDFSign Test Org"},
		},
		NotBefore: time.Now().Add(-1 * time.Hour),
		NotAfter:  time.Now().Add(24 * time.Hour),
		KeyUsage:  x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment,
	}
	return key, createCertificate(t, template, template, key.Public(), key)
}

// StartTSA starts an RFC 3161 responder signing with a fresh RSA key. The
// returned counter is incremented for every request served.
func StartTSA(t *testing.T) (*httptest.Server, *atomic.Int32) {
	key, cert := tsaIdentity(t)
	requests := new(atomic.Int32)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("Content-Type") != "application/timestamp-query" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		req, err := timestamp.ParseRequest(body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		ts := timestamp.Timestamp{
			HashAlgorithm:     req.HashAlgorithm,
			HashedMessage:     req.HashedMessage,
			Time:              time.Now().UTC().Truncate(time.Second),
			Nonce:             req.Nonce,
			Policy:            asn1.ObjectIdentifier{1, 2, 3, 4, 1},
			AddTSACertificate: req.Certificates,
		}
		resp, err := ts.CreateResponseWithOpts(cert, key, crypto.SHA256)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/timestamp-reply")
		_, _ = w.Write(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, requests
}

func tsaIdentity(t *testing.T) (crypto.Signer, *x509.Certificate) {
	key := GenerateKey(t, RSA_2048)
	template := &x509.Certificate{
		SerialNumber: randomSerial(t),
		Subject:      pkix.Name{CommonName: "PDFSign Test TSA"},
		NotBefore:    time.Now().Add(-1 * time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageTimeStamping},
	}
	return key, createCertificate(t, template, template, key.Public(), key)
}

// WritePEM writes the certificate and a PKCS#8 key to dir and returns their
// paths.
func WritePEM(t *testing.T, dir string, key crypto.Signer, cert *x509.Certificate) (certPath, keyPath string) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		Fail(t, "failed to marshal key: %v", err)
	}
	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}), 0o600); err != nil {
		Fail(t, "failed to write certificate: %v", err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600); err != nil {
		Fail(t, "failed to write key: %v", err)
	}
	return certPath, keyPath
}

func createCertificate(t *testing.T, template, parent *x509.Certificate, pub crypto.PublicKey, priv crypto.Signer) *x509.Certificate {
	der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, priv)
	if err != nil {
		Fail(t, "failed to create certificate %q: %v", template.Subject.CommonName, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		Fail(t, "failed to parse certificate %q: %v", template.Subject.CommonName, err)
	}
	return cert
}

func randomSerial(t *testing.T) *big.Int {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		Fail(t, "failed to generate serial: %v", err)
	}
	return serial
}

func Fail(t *testing.T, format string, args ...interface{}) {
	if t != nil {
		t.Helper()
		t.Fatalf(format, args...)
	} else {
		log.Fatalf(format, args...)
	}
}

func GenerateKey(t *testing.T, profile KeyProfile) crypto.Signer {
	switch profile {
	case RSA_2048:
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			Fail(t, "failed to generate RSA 2048 key: %v", err)
		}
		return k
	case RSA_3072:
		k, err := rsa.GenerateKey(rand.Reader, 3072)
		if err != nil {
			Fail(t, "failed to generate RSA 3072 key: %v", err)
		}
		return k
	case ECDSA_P256:
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			Fail(t, "failed to generate P-256 key: %v", err)
		}
		return k
	case ECDSA_P384:
		k, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
		if err != nil {
			Fail(t, "failed to generate P-384 key: %v", err)
		}
		return k
	case ECDSA_P521:
		k, err := ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
		if err != nil {
			Fail(t, "failed to generate P-521 key: %v", err)
		}
		return k
	case ED25519:
		_, k, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			Fail(t, "failed to generate Ed25519 key: %v", err)
		}
		return k
	default:
		Fail(t, "unknown key profile: %s", profile)
		return nil
	}
}
