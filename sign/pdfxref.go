package sign

import (
	"fmt"
	"sort"
)

// addObject writes "<id> 0 obj" with body to the output buffer, records its
// xref entry and returns the absolute offset at which body starts.
func (context *SignContext) addObject(id int, body string) (int64, error) {
	offset := int64(context.OutputBuffer.Buff.Len())
	header := fmt.Sprintf("%d 0 obj\n", id)

	if _, err := context.OutputBuffer.Write([]byte(header + body + "\nendobj\n")); err != nil {
		return 0, fmt.Errorf("failed to write object %d: %w", id, err)
	}
	context.xrefEntries = append(context.xrefEntries, xrefEntry{ID: id, Offset: offset})
	context.log.Debug("wrote object", "id", id, "offset", offset)

	return offset + int64(len(header)), nil
}

// xrefRuns groups entries into subsections of consecutive object numbers.
func xrefRuns(entries []xrefEntry) [][]xrefEntry {
	sorted := append([]xrefEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var runs [][]xrefEntry
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j].ID == sorted[j-1].ID+1 {
			j++
		}
		runs = append(runs, sorted[i:j])
		i = j
	}
	return runs
}
