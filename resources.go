package pdfsign

import (
	"github.com/inkseal/pdfsign/overlay"
)

// AddImage stamps an image onto a page with an incremental update. Existing
// signatures stay intact.
func (d *Document) AddImage(p Placement) error {
	out, err := overlay.Options{Logger: d.log()}.AddImage(d.data, p)
	if err != nil {
		return err
	}
	return d.replace(out)
}
