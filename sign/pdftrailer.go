package sign

import (
	"fmt"
	"strconv"

	"github.com/inkseal/pdfsign/internal/pdf"
)

// writeTrailer writes the trailer of the update. /Prev points at the
// previous cross-reference section; /Info and /ID are carried over.
func (context *SignContext) writeTrailer(size int) error {
	previous := context.Document.Trailer()

	trailer := pdf.NewDict().
		Set("Size", strconv.Itoa(size)).
		Set("Root", pdf.FormatRef(previous.Root))
	if previous.Info != "" {
		trailer.Set("Info", previous.Info)
	}
	if previous.ID != "" {
		trailer.Set("ID", previous.ID)
	}
	trailer.Set("Prev", strconv.FormatInt(previous.StartXref, 10))

	if _, err := fmt.Fprintf(context.OutputBuffer, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, context.NewXrefStart); err != nil {
		return fmt.Errorf("failed to write trailer: %w", err)
	}
	return nil
}
