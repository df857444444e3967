package cli

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/inkseal/pdfsign"
	"github.com/inkseal/pdfsign/sign"
)

// prepareOutput is printed by the prepare command for the external signer.
type prepareOutput struct {
	Digest        string   `json:"digest"`
	HashAlgorithm string   `json:"hash_algorithm"`
	ByteRange     [4]int64 `json:"byte_range"`
	ContentsSize  int      `json:"contents_size"`
	FieldName     string   `json:"field_name"`
}

func PrepareCommand() {
	prepareFlags := flag.NewFlagSet("prepare", flag.ContinueOnError)
	prepareFlags.SetOutput(stderr)

	var sf signatureFlags
	sf.register(prepareFlags)

	prepareFlags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s prepare [options] <input.pdf> <prepared.pdf>\n\n", os.Args[0])
		fmt.Fprintln(stderr, "Append an empty signature and print the digest to sign as JSON")
		fmt.Fprintln(stderr, "\nOptions:")
		prepareFlags.PrintDefaults()
		fmt.Fprintln(stderr, "\nExamples:")
		fmt.Fprintf(stderr, "  %s prepare -reason \"Approved\" -contents-size 16384 input.pdf prepared.pdf\n", os.Args[0])
	}

	log := defaultLogger()
	if err := prepareFlags.Parse(os.Args[2:]); err != nil {
		osExit(2)
		return
	}
	if prepareFlags.NArg() != 2 {
		prepareFlags.Usage()
		osExit(1)
		return
	}

	cfg, err := sf.apply(prepareFlags)
	if err != nil {
		fail(log, "failed to load config", err)
		return
	}
	if err := cfg.ValidateFields(); err != nil {
		fail(log, "invalid options", err)
		return
	}
	log = cfg.Logging.NewLogger(stderr)

	doc, err := pdfsign.OpenFile(prepareFlags.Arg(0))
	if err != nil {
		fail(log, "failed to open input", err)
		return
	}
	doc.SetLogger(log)

	prepared, err := doc.Sign(nil).
		SignerName(cfg.Signature.Name).
		Reason(cfg.Signature.Reason).
		Location(cfg.Signature.Location).
		Contact(cfg.Signature.ContactInfo).
		Page(cfg.Signature.Page).
		ContentsSize(cfg.Signature.ContentsSize).
		Prepare()
	if err != nil {
		fail(log, "failed to prepare", err)
		return
	}
	if err := sign.WriteFile(prepareFlags.Arg(1), prepared.Bytes); err != nil {
		fail(log, "failed to write prepared document", err)
		return
	}

	out, err := json.Marshal(prepareOutput{
		Digest:        hex.EncodeToString(prepared.Digest),
		HashAlgorithm: prepared.HashAlgorithm,
		ByteRange:     prepared.ByteRange,
		ContentsSize:  prepared.ContentsSize,
		FieldName:     prepared.FieldName,
	})
	if err != nil {
		fail(log, "failed to encode output", err)
		return
	}
	fmt.Fprintln(stdout, string(out))
}

func CompleteCommand() {
	completeFlags := flag.NewFlagSet("complete", flag.ContinueOnError)
	completeFlags.SetOutput(stderr)

	completeFlags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s complete <prepared.pdf> <container.p7s> <output.pdf>\n\n", os.Args[0])
		fmt.Fprintln(stderr, "Embed a PEM or DER CMS container into a prepared PDF")
	}

	log := defaultLogger()
	if err := completeFlags.Parse(os.Args[2:]); err != nil {
		osExit(2)
		return
	}
	if completeFlags.NArg() != 3 {
		completeFlags.Usage()
		osExit(1)
		return
	}

	container, err := loadContainer(completeFlags.Arg(1))
	if err != nil {
		fail(log, "failed to read signature container", err)
		return
	}
	if err := sign.CompleteFile(completeFlags.Arg(0), completeFlags.Arg(2), container); err != nil {
		fail(log, "failed to complete signature", err)
		return
	}
	log.Info("signed PDF written", "path", completeFlags.Arg(2))
}
