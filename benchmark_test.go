package pdfsign_test

import (
	"testing"

	"github.com/inkseal/pdfsign"
	"github.com/inkseal/pdfsign/cms"
	"github.com/inkseal/pdfsign/internal/testpki"
)

func benchIdentity(b *testing.B, profile testpki.KeyProfile) *cms.Identity {
	b.Helper()
	key, cert := testpki.SelfSigned(nil, profile, "Benchmarker")
	id, err := pdfsign.NewIdentity(key, cert)
	if err != nil {
		b.Fatal(err)
	}
	return id
}

// BenchmarkSign benchmarks the signing process
func BenchmarkSign(b *testing.B) {
	input := testpki.MultiPagePDF(10)

	for _, profile := range []testpki.KeyProfile{testpki.RSA_2048, testpki.ECDSA_P256} {
		b.Run(string(profile), func(b *testing.B) {
			signer := benchIdentity(b, profile)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				doc, err := pdfsign.Open(input)
				if err != nil {
					b.Fatal(err)
				}
				if _, err := doc.Sign(signer).Reason("Benchmark").Write(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkVerify benchmarks the structural listing and the integrity check
// of a signed document.
func BenchmarkVerify(b *testing.B) {
	doc, err := pdfsign.Open(testpki.MultiPagePDF(10))
	if err != nil {
		b.Fatal(err)
	}
	if _, err := doc.Sign(benchIdentity(b, testpki.ECDSA_P256)).Write(); err != nil {
		b.Fatal(err)
	}

	b.Run("Structural", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := doc.Verify(); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Integrity", func(b *testing.B) {
		sigs, err := doc.Verify()
		if err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := doc.CheckIntegrity(sigs[0]); err != nil {
				b.Fatal(err)
			}
		}
	})
}
