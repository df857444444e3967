package overlay

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/inkseal/pdfsign/internal/pdf"
	"github.com/mattetti/filebuffer"
)

type xrefEntry struct {
	ID     int
	Offset int64
}

// update appends new and revised objects after the end of a document and
// closes them with an xref section and a trailer chained through /Prev.
type update struct {
	doc     *pdf.Document
	out     *filebuffer.Buffer
	entries []xrefEntry
	log     *slog.Logger
}

func newUpdate(doc *pdf.Document, log *slog.Logger) (*update, error) {
	u := &update{doc: doc, out: filebuffer.New([]byte{}), log: log}
	if _, err := u.out.Write(doc.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to copy document: %w", err)
	}
	if last := doc.Bytes()[doc.Len()-1]; last != '\n' && last != '\r' {
		if _, err := u.out.Write([]byte("\n")); err != nil {
			return nil, fmt.Errorf("failed to copy document: %w", err)
		}
	}
	return u, nil
}

func (u *update) addObject(id int, body string) error {
	offset := int64(u.out.Buff.Len())
	if _, err := fmt.Fprintf(u.out, "%d 0 obj\n%s\nendobj\n", id, body); err != nil {
		return fmt.Errorf("failed to write object %d: %w", id, err)
	}
	u.entries = append(u.entries, xrefEntry{ID: id, Offset: offset})
	u.log.Debug("wrote object", "id", id, "offset", offset)
	return nil
}

// finish writes the xref section and trailer and returns the new document.
func (u *update) finish(size int) ([]byte, error) {
	xrefStart := int64(u.out.Buff.Len())
	if _, err := u.out.Write([]byte("xref\n0 1\n0000000000 65535 f \n")); err != nil {
		return nil, fmt.Errorf("failed to write incremental xref header: %w", err)
	}

	sort.Slice(u.entries, func(i, j int) bool { return u.entries[i].ID < u.entries[j].ID })
	for i := 0; i < len(u.entries); {
		j := i + 1
		for j < len(u.entries) && u.entries[j].ID == u.entries[j-1].ID+1 {
			j++
		}
		if _, err := fmt.Fprintf(u.out, "%d %d\n", u.entries[i].ID, j-i); err != nil {
			return nil, fmt.Errorf("failed to write xref subsection header: %w", err)
		}
		for _, entry := range u.entries[i:j] {
			if _, err := fmt.Fprintf(u.out, "%010d 00000 n \n", entry.Offset); err != nil {
				return nil, fmt.Errorf("failed to write incremental xref entry: %w", err)
			}
		}
		i = j
	}

	previous := u.doc.Trailer()
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

	if _, err := fmt.Fprintf(u.out, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, xrefStart); err != nil {
		return nil, fmt.Errorf("failed to write trailer: %w", err)
	}
	return u.out.Buff.Bytes(), nil
}
