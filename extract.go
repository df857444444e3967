package pdfsign

import (
	"iter"
)

// Signatures returns an iterator over the signatures of the document,
// each paired with its integrity check.
func (d *Document) Signatures() iter.Seq2[SignatureInfo, *IntegrityResult] {
	return func(yield func(SignatureInfo, *IntegrityResult) bool) {
		sigs, err := d.Verify()
		if err != nil {
			return
		}
		for _, sig := range sigs {
			result, err := d.CheckIntegrity(sig)
			if err != nil {
				result = &IntegrityResult{Error: err.Error()}
			}
			if !yield(sig, result) {
				return
			}
		}
	}
}
