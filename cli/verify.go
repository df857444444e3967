package cli

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/inkseal/pdfsign"
)

// verifyOutput is one entry of the verify report.
type verifyOutput struct {
	pdfsign.SignatureInfo
	Integrity *pdfsign.IntegrityResult `json:"integrity,omitempty"`
}

func VerifyCommand() {
	verifyFlags := flag.NewFlagSet("verify", flag.ContinueOnError)
	verifyFlags.SetOutput(stderr)

	var jsonOutput, integrity bool
	verifyFlags.BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	verifyFlags.BoolVar(&integrity, "integrity", false, "Recompute digests and check the signature values")

	verifyFlags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s verify [options] <input.pdf>\n\n", os.Args[0])
		fmt.Fprintln(stderr, "List the signatures of a PDF file. The check is structural unless -integrity is given;")
		fmt.Fprintln(stderr, "certificate trust is not evaluated.")
		fmt.Fprintln(stderr, "\nOptions:")
		verifyFlags.PrintDefaults()
		fmt.Fprintln(stderr, "\nExamples:")
		fmt.Fprintf(stderr, "  %s verify document.pdf\n", os.Args[0])
		fmt.Fprintf(stderr, "  %s verify -json -integrity document.pdf\n", os.Args[0])
	}

	log := defaultLogger()
	if err := verifyFlags.Parse(os.Args[2:]); err != nil {
		osExit(2)
		return
	}
	if verifyFlags.NArg() != 1 {
		verifyFlags.Usage()
		osExit(1)
		return
	}

	doc, err := pdfsign.OpenFile(verifyFlags.Arg(0))
	if err != nil {
		fail(log, "failed to open input", err)
		return
	}
	sigs, err := doc.Verify()
	if err != nil {
		fail(log, "failed to verify", err)
		return
	}

	report := make([]verifyOutput, 0, len(sigs))
	ok := true
	for _, sig := range sigs {
		entry := verifyOutput{SignatureInfo: sig}
		ok = ok && sig.Valid
		if integrity {
			result, err := doc.CheckIntegrity(sig)
			if err != nil {
				result = &pdfsign.IntegrityResult{Error: err.Error()}
			}
			entry.Integrity = result
			ok = ok && result.DigestMatch && result.SignatureOK
		}
		report = append(report, entry)
	}

	if jsonOutput {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fail(log, "failed to encode report", err)
			return
		}
		fmt.Fprintln(stdout, string(out))
	} else {
		printReport(report)
	}

	if !ok {
		osExit(1)
	}
}

func printReport(report []verifyOutput) {
	if len(report) == 0 {
		fmt.Fprintln(stdout, "No signatures found")
		return
	}
	for i, entry := range report {
		fmt.Fprintf(stdout, "Signature %d: %s\n", i+1, entry.FieldName)
		fmt.Fprintf(stdout, "  Signer:    %s\n", entry.SignerName)
		if entry.SignedAt != nil {
			fmt.Fprintf(stdout, "  Signed at: %s\n", entry.SignedAt.Format(time.RFC3339))
		}
		if entry.Reason != "" {
			fmt.Fprintf(stdout, "  Reason:    %s\n", entry.Reason)
		}
		if entry.Location != "" {
			fmt.Fprintf(stdout, "  Location:  %s\n", entry.Location)
		}
		fmt.Fprintf(stdout, "  Valid:     %v\n", entry.Valid)
		if entry.Integrity == nil {
			continue
		}
		fmt.Fprintf(stdout, "  Digest:    %s (%s) match=%v\n", entry.Integrity.DocumentHash, entry.Integrity.HashAlgorithm, entry.Integrity.DigestMatch)
		fmt.Fprintf(stdout, "  Signature: ok=%v\n", entry.Integrity.SignatureOK)
		if ts := entry.Integrity.Timestamp; ts != nil {
			fmt.Fprintf(stdout, "  Timestamp: %s by %s imprint=%v\n", ts.Time.Format(time.RFC3339), ts.Certificate, ts.ImprintOK)
		}
		if entry.Integrity.Error != "" {
			fmt.Fprintf(stdout, "  Error:     %s\n", entry.Integrity.Error)
		}
	}
}
