package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/inkseal/pdfsign"
	"github.com/inkseal/pdfsign/config"
	"github.com/inkseal/pdfsign/tsa"
)

func SignCommand() {
	signFlags := flag.NewFlagSet("sign", flag.ContinueOnError)
	signFlags.SetOutput(stderr)

	var sf signatureFlags
	var tsaURL, tsaUser, tsaPassword string
	sf.register(signFlags)
	signFlags.StringVar(&tsaURL, "tsa", "", "URL of an RFC 3161 Time-Stamp Authority")
	signFlags.StringVar(&tsaUser, "tsa-user", "", "Username for the Time-Stamp Authority")
	signFlags.StringVar(&tsaPassword, "tsa-password", "", "Password for the Time-Stamp Authority")

	signFlags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s sign [options] <input.pdf> <output.pdf> [certificate.crt private_key.key [chain.crt...]]\n\n", os.Args[0])
		fmt.Fprintln(stderr, "Sign a PDF file with a digital signature")
		fmt.Fprintln(stderr, "\nOptions:")
		signFlags.PrintDefaults()
		fmt.Fprintln(stderr, "\nExamples:")
		fmt.Fprintf(stderr, "  %s sign -name \"John Doe\" input.pdf output.pdf cert.crt key.key\n", os.Args[0])
		fmt.Fprintf(stderr, "  %s sign -config pdfsign.conf -tsa https://freetsa.org/tsr input.pdf output.pdf\n", os.Args[0])
	}

	log := defaultLogger()
	if err := signFlags.Parse(os.Args[2:]); err != nil {
		osExit(2)
		return
	}

	args := signFlags.Args()
	if len(args) != 2 && len(args) < 4 {
		signFlags.Usage()
		osExit(1)
		return
	}

	cfg, err := sf.apply(signFlags)
	if err != nil {
		fail(log, "failed to load config", err)
		return
	}
	set := setFlags(signFlags)
	if set["tsa"] {
		cfg.TSA.URL = tsaURL
	}
	if set["tsa-user"] {
		cfg.TSA.Username = tsaUser
	}
	if set["tsa-password"] {
		cfg.TSA.Password = tsaPassword
	}
	if len(args) >= 4 {
		cfg.Signature.Certificate = args[2]
		cfg.Signature.Key = args[3]
		cfg.Signature.Chain = args[4:]
	}
	if err := cfg.ValidateFields(); err != nil {
		fail(log, "invalid options", err)
		return
	}
	log = cfg.Logging.NewLogger(stderr)

	if cfg.Signature.Certificate == "" {
		fmt.Fprintln(stderr, "Signing requires a certificate and private key, as arguments or in the config file")
		osExit(1)
		return
	}

	SignPDF(args[0], args[1], cfg)
}

// SignPDF signs input with the key and settings in cfg and writes output.
var SignPDF = signPDFImpl

func signPDFImpl(input, output string, cfg *config.Config) {
	log := cfg.Logging.NewLogger(stderr)

	cert, key, chain, err := LoadCertificatesAndKey(cfg.Signature.Certificate, cfg.Signature.Key, cfg.Signature.Chain...)
	if err != nil {
		fail(log, "failed to load certificate and key", err)
		return
	}
	signer, err := pdfsign.NewIdentity(key, cert, chain...)
	if err != nil {
		fail(log, "failed to use certificate and key", err)
		return
	}

	doc, err := pdfsign.OpenFile(input)
	if err != nil {
		fail(log, "failed to open input", err)
		return
	}
	doc.SetLogger(log)

	builder := doc.Sign(signer).
		SignerName(cfg.Signature.Name).
		Reason(cfg.Signature.Reason).
		Location(cfg.Signature.Location).
		Contact(cfg.Signature.ContactInfo).
		Page(cfg.Signature.Page).
		ContentsSize(cfg.Signature.ContentsSize)

	if cfg.TSA.URL != "" {
		client := &tsa.Client{
			URL:      cfg.TSA.URL,
			Username: cfg.TSA.Username,
			Password: cfg.TSA.Password,
			Timeout:  cfg.TSA.Timeout,
			Logger:   log,
		}
		builder.TimestampFunc(client.TimestampFunc(context.Background()))
	}

	if err := builder.WriteFile(output); err != nil {
		fail(log, "failed to sign", err)
		return
	}
	log.Info("signed PDF written", "path", output)
}
