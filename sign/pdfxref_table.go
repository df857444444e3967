package sign

import (
	"fmt"
)

// writeIncrXrefTable writes the cross-reference section of the update: the
// free list head followed by one subsection per run of new or changed
// objects.
func (context *SignContext) writeIncrXrefTable() error {
	context.NewXrefStart = int64(context.OutputBuffer.Buff.Len())

	if _, err := context.OutputBuffer.Write([]byte("xref\n0 1\n0000000000 65535 f \n")); err != nil {
		return fmt.Errorf("failed to write incremental xref header: %w", err)
	}

	for _, run := range xrefRuns(context.xrefEntries) {
		if _, err := fmt.Fprintf(context.OutputBuffer, "%d %d\n", run[0].ID, len(run)); err != nil {
			return fmt.Errorf("failed to write xref subsection header: %w", err)
		}
		for _, entry := range run {
			if _, err := fmt.Fprintf(context.OutputBuffer, "%010d 00000 n \n", entry.Offset); err != nil {
				return fmt.Errorf("failed to write incremental xref entry: %w", err)
			}
		}
	}
	return nil
}
