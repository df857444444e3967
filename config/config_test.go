package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/inkseal/pdfsign/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfig(t *testing.T) {
	const configContent = `
[signature]
name = "Jeroen Bobbeldijk"
reason = "Test"
location = "Rotterdam"
contact = "Geen"
page = 2
contents_size = 16384
certificate = "cert.pem"
key = "key.pem"
chain = ["intermediate.pem"]

[tsa]
url = "http://aatl-timestamp.globalsign.com/tsa/aohfewat2389535fnasgnlg5m23"
username = "user"
password = "secret"
timeout = "5s"

[logging]
level = "debug"
format = "json"
`

	c, err := config.Read(writeConfig(t, "pdfsign.conf", configContent))
	require.NoError(t, err)

	assert.Equal(t, "Jeroen Bobbeldijk", c.Signature.Name)
	assert.Equal(t, "Test", c.Signature.Reason)
	assert.Equal(t, "Rotterdam", c.Signature.Location)
	assert.Equal(t, "Geen", c.Signature.ContactInfo)
	assert.Equal(t, 2, c.Signature.Page)
	assert.Equal(t, 16384, c.Signature.ContentsSize)
	assert.Equal(t, []string{"intermediate.pem"}, c.Signature.Chain)
	assert.Equal(t, "user", c.TSA.Username)
	assert.Equal(t, 5*time.Second, c.TSA.Timeout)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, "json", c.Logging.Format)
}

func TestConfigYAML(t *testing.T) {
	const configContent = `
signature:
  reason: Approved
  page: 1
tsa:
  url: http://timestamp.example.com/tsr
  timeout: 10s
logging:
  level: warn
`

	c, err := config.Read(writeConfig(t, "pdfsign.yaml", configContent))
	require.NoError(t, err)

	assert.Equal(t, "Approved", c.Signature.Reason)
	assert.Equal(t, 1, c.Signature.Page)
	assert.Equal(t, "http://timestamp.example.com/tsr", c.TSA.URL)
	assert.Equal(t, 10*time.Second, c.TSA.Timeout)
	assert.Equal(t, "warn", c.Logging.Level)
	assert.Equal(t, "text", c.Logging.Format, "defaults survive partial files")
}

func TestDefaults(t *testing.T) {
	c, err := config.Read(writeConfig(t, "empty.toml", ""))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
	assert.NoError(t, c.ValidateFields())
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"level", "[logging]\nlevel = \"verbose\"\n"},
		{"format", "[logging]\nformat = \"xml\"\n"},
		{"url", "[tsa]\nurl = \"not a url\"\n"},
		{"page", "[signature]\npage = -1\n"},
		{"contents size", "[signature]\ncontents_size = 99999999\n"},
		{"half credentials", "[tsa]\nurl = \"http://tsa.example.com\"\nusername = \"user\"\n"},
		{"credentials without url", "[tsa]\nusername = \"user\"\npassword = \"secret\"\n"},
		{"key without certificate", "[signature]\nkey = \"key.pem\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c = *config.Default()
			_, err := toml.Decode(tt.content, &c)
			require.NoError(t, err)
			assert.Error(t, c.ValidateFields())

			_, err = config.Read(writeConfig(t, "pdfsign.conf", tt.content))
			assert.ErrorContains(t, err, "config is not valid")
		})
	}
}

func TestReadErrors(t *testing.T) {
	_, err := config.Read(filepath.Join(t.TempDir(), "missing.conf"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = config.Read(writeConfig(t, "broken.toml", "[signature\n"))
	assert.ErrorContains(t, err, "failed to decode TOML")

	_, err = config.Read(writeConfig(t, "broken.yml", "signature: [\n"))
	assert.ErrorContains(t, err, "failed to decode YAML")

	_, err = config.Read(writeConfig(t, "typo.toml", "[signature]\nreasn = \"x\"\n"))
	assert.ErrorContains(t, err, "signature.reasn")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := config.Logging{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "tsa_password", "secret")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"tsa_password":"[REDACTED]"`)
	assert.Equal(t, 1, strings.Count(out, "\n"))

	buf.Reset()
	config.Logging{}.NewLogger(&buf).Debug("quiet")
	assert.Empty(t, buf.String())
}
