// Package cli implements the pdfsign command line tool. Each command parses
// its own flag set from os.Args[2:].
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/inkseal/pdfsign/config"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

var (
	osExit           = os.Exit
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func Usage() {
	fmt.Fprintf(stderr, "Usage: %s <command> [options] <args>\n\n", os.Args[0])
	fmt.Fprintln(stderr, "Commands:")
	fmt.Fprintln(stderr, "  sign      Sign a PDF file")
	fmt.Fprintln(stderr, "  prepare   Prepare a PDF for signing with an external key")
	fmt.Fprintln(stderr, "  complete  Embed an external signature container")
	fmt.Fprintln(stderr, "  verify    List and check the signatures of a PDF file")
	fmt.Fprintln(stderr, "  overlay   Stamp images onto pages")
	fmt.Fprintln(stderr, "  version   Print the version")
	fmt.Fprintln(stderr, "")
	fmt.Fprintf(stderr, "Use '%s <command> -h' for command-specific help\n", os.Args[0])
	osExit(1)
}

// Run dispatches os.Args[1] to its command.
func Run() {
	if len(os.Args) < 2 {
		Usage()
		return
	}

	switch os.Args[1] {
	case "sign":
		SignCommand()
	case "prepare":
		PrepareCommand()
	case "complete":
		CompleteCommand()
	case "verify":
		VerifyCommand()
	case "overlay":
		OverlayCommand()
	case "version":
		fmt.Fprintln(stdout, "pdfsign", Version)
	case "-h", "--help", "help":
		Usage()
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", os.Args[1])
		Usage()
	}
}

// fail logs err and exits with status 1.
func fail(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	osExit(1)
}

// loadConfig reads the config file named by -config, or returns the
// defaults when none was given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Read(path)
}

// setFlags returns the names of the flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// signatureFlags are the signature dictionary flags shared by sign and
// prepare. They override the [signature] section of the config file.
type signatureFlags struct {
	configPath   string
	name         string
	reason       string
	location     string
	contact      string
	page         int
	contentsSize int
	debug        bool
}

func (s *signatureFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&s.configPath, "config", "", "Path to a TOML or YAML config file")
	fs.StringVar(&s.name, "name", "", "Name of the signatory")
	fs.StringVar(&s.reason, "reason", "", "Reason for signing")
	fs.StringVar(&s.location, "location", "", "Location of the signatory")
	fs.StringVar(&s.contact, "contact", "", "Contact information for signatory")
	fs.IntVar(&s.page, "page", 0, "Zero based page the signature field is attached to")
	fs.IntVar(&s.contentsSize, "contents-size", 0, "Bytes reserved for the signature container (0 estimates)")
	fs.BoolVar(&s.debug, "debug", false, "Enable debug logging")
}

// apply loads the config file and overrides it with the flags that were
// set.
func (s *signatureFlags) apply(fs *flag.FlagSet) (*config.Config, error) {
	cfg, err := loadConfig(s.configPath)
	if err != nil {
		return nil, err
	}
	set := setFlags(fs)
	if set["name"] {
		cfg.Signature.Name = s.name
	}
	if set["reason"] {
		cfg.Signature.Reason = s.reason
	}
	if set["location"] {
		cfg.Signature.Location = s.location
	}
	if set["contact"] {
		cfg.Signature.ContactInfo = s.contact
	}
	if set["page"] {
		cfg.Signature.Page = s.page
	}
	if set["contents-size"] {
		cfg.Signature.ContentsSize = s.contentsSize
	}
	if s.debug {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// defaultLogger is used until the config has been read.
func defaultLogger() *slog.Logger {
	return config.Default().Logging.NewLogger(stderr)
}
