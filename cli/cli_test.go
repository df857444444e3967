package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkseal/pdfsign/internal/testpki"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exitCode int

// run executes the command line args with osExit patched to panic. code is
// -1 when the command returned without calling osExit.
func run(t *testing.T, args ...string) (code int, out, errOut string) {
	t.Helper()

	origArgs, origExit, origStdout, origStderr := os.Args, osExit, stdout, stderr
	defer func() {
		os.Args, osExit, stdout, stderr = origArgs, origExit, origStdout, origStderr
	}()

	var o, e bytes.Buffer
	stdout, stderr = &o, &e
	os.Args = append([]string{"pdfsign"}, args...)
	osExit = func(c int) { panic(exitCode(c)) }

	code = -1
	func() {
		defer func() {
			if r := recover(); r != nil {
				c, ok := r.(exitCode)
				if !ok {
					panic(r)
				}
				code = int(c)
			}
		}()
		Run()
	}()
	return code, o.String(), e.String()
}

// writeFile writes data to name in dir and returns its path.
func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// fixture writes an unsigned PDF and a self-signed certificate with its key.
func fixture(t *testing.T) (dir, input, certPath, keyPath string) {
	t.Helper()
	dir = t.TempDir()
	input = writeFile(t, dir, "in.pdf", testpki.MinimalPDF())
	key, cert := testpki.SelfSigned(t, testpki.RSA_2048, "CLI Signer")
	certPath, keyPath = testpki.WritePEM(t, dir, key, cert)
	return dir, input, certPath, keyPath
}

func TestUsage(t *testing.T) {
	code, _, errOut := run(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Commands:")
	assert.Contains(t, errOut, "overlay")

	code, _, errOut = run(t, "help")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Usage:")
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := run(t, "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Unknown command: frobnicate")
}

func TestVersion(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()
	Version = "1.2.3"

	code, out, _ := run(t, "version")
	assert.Equal(t, -1, code)
	assert.Equal(t, "pdfsign 1.2.3\n", out)
}

func TestCommandHelp(t *testing.T) {
	for _, cmd := range []string{"sign", "prepare", "complete", "verify", "overlay"} {
		t.Run(cmd, func(t *testing.T) {
			code, _, errOut := run(t, cmd, "-h")
			assert.Equal(t, 2, code)
			assert.Contains(t, errOut, "Usage:")
		})
	}
}
