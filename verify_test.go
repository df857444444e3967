package pdfsign_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/inkseal/pdfsign"
	"github.com/inkseal/pdfsign/internal/testpki"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyUnsigned(t *testing.T) {
	doc, err := pdfsign.Open(testpki.MinimalPDF())
	require.NoError(t, err)

	sigs, err := doc.Verify()
	require.NoError(t, err)
	assert.NotNil(t, sigs)
	assert.Empty(t, sigs)

	var count int
	for range doc.Signatures() {
		count++
	}
	assert.Zero(t, count)
}

func TestVerifyTampered(t *testing.T) {
	doc, err := pdfsign.Open(testpki.MinimalPDF())
	require.NoError(t, err)
	signed, err := doc.Sign(identity(t, "Tamper Test")).Write()
	require.NoError(t, err)

	tampered := bytes.Replace(signed, []byte("612 792"), []byte("612 793"), 1)
	require.NotEqual(t, signed, tampered)

	changed, err := pdfsign.Open(tampered)
	require.NoError(t, err)
	sigs, err := changed.Verify()
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.True(t, sigs[0].Valid, "the structural check does not look at the digest")

	result, err := changed.CheckIntegrity(sigs[0])
	require.NoError(t, err)
	assert.False(t, result.DigestMatch)
	assert.False(t, result.SignatureOK)
	assert.NotEmpty(t, result.Error)
}

func TestSignatureInfoJSON(t *testing.T) {
	doc, err := pdfsign.Open(testpki.MinimalPDF())
	require.NoError(t, err)
	_, err = doc.Sign(identity(t, "JSON Signer")).Reason("Review").Write()
	require.NoError(t, err)

	sigs, err := doc.Verify()
	require.NoError(t, err)
	out, err := json.Marshal(sigs)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "JSON Signer", decoded[0]["signer_name"])
	assert.Equal(t, "Review", decoded[0]["reason"])
	assert.Equal(t, true, decoded[0]["valid"])
	assert.Equal(t, false, decoded[0]["trusted"])
	assert.Len(t, decoded[0]["byte_range"], 4)
	assert.NotContains(t, decoded[0], "Contents")
}
