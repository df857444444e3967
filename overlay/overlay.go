// Package overlay stamps raster images onto PDF pages with an incremental
// update, leaving every existing byte (and so every earlier signature)
// untouched.
package overlay

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/inkseal/pdfsign/common"
	"github.com/inkseal/pdfsign/internal/pdf"
	"github.com/inkseal/pdfsign/sign"
)

// Placement puts one image on one page. Coordinates are in PDF user space
// units measured from the lower left corner of the page. A zero Width or
// Height uses the image's pixel size.
type Placement struct {
	Page   int // zero based
	X, Y   float64
	Width  float64
	Height float64
	Image  []byte // PNG, JPEG, BMP, TIFF or WebP
}

// Options configures an overlay run. The zero value is ready to use.
type Options struct {
	Logger *slog.Logger
}

// AddImage calls Options.AddImage with default options.
func AddImage(data []byte, p Placement) ([]byte, error) {
	return Options{}.AddImage(data, p)
}

// ApplyPlacements calls Options.ApplyPlacements with default options.
func ApplyPlacements(inputPath, outputPath string, placements []Placement) error {
	return Options{}.ApplyPlacements(inputPath, outputPath, placements)
}

// AddImage appends an image XObject, a content stream drawing it and a
// revised page object to data. Existing page content is bracketed by q and Q
// so the image is drawn in the page's default coordinate system.
func (o Options) AddImage(data []byte, p Placement) ([]byte, error) {
	log := o.logger()

	raster, err := decodeImage(p.Image)
	if err != nil {
		return nil, err
	}

	doc, err := pdf.NewDocument(data)
	if err != nil {
		return nil, err
	}
	if doc.Trailer().Encrypted {
		return nil, common.Structuralf("overlay", "encrypted documents are not supported")
	}
	page, err := doc.Page(p.Page)
	if err != nil {
		return nil, err
	}

	next := doc.NextObjectNumber()
	smaskID := 0
	if raster.Alpha != nil {
		smaskID = next
		next++
	}
	imageID := next
	contentID := next + 1
	saveID := next + 2
	size := next + 2
	imageName := "Im" + strconv.Itoa(imageID)

	revised := page.Dict.Clone()
	contents, wrapped, err := appendContents(doc, revised, saveID, contentID)
	if err != nil {
		return nil, err
	}
	if wrapped {
		size++
	}
	revised.Set("Contents", contents)
	resources, err := addXObject(doc, page, imageName, imageID)
	if err != nil {
		return nil, err
	}
	revised.Set("Resources", resources)

	u, err := newUpdate(doc, log)
	if err != nil {
		return nil, err
	}
	if smaskID > 0 {
		mask, err := imageXObject(raster.Width, raster.Height, "DeviceGray", raster.Alpha, 0)
		if err != nil {
			return nil, err
		}
		if err := u.addObject(smaskID, mask); err != nil {
			return nil, err
		}
	}
	xobject, err := imageXObject(raster.Width, raster.Height, "DeviceRGB", raster.RGB, smaskID)
	if err != nil {
		return nil, err
	}
	if err := u.addObject(imageID, xobject); err != nil {
		return nil, err
	}

	w, h := p.Width, p.Height
	if w <= 0 || h <= 0 {
		w, h = float64(raster.Width), float64(raster.Height)
	}
	stream := fmt.Sprintf("q %s 0 0 %s %s %s cm /%s Do Q", number(w), number(h), number(p.X), number(p.Y), imageName)
	if wrapped {
		// Restore the state saved ahead of the existing content, so a
		// CTM it leaves behind does not move the image.
		stream = "Q " + stream
		if err := u.addObject(saveID, contentStream("q")); err != nil {
			return nil, err
		}
	}
	if err := u.addObject(contentID, contentStream(stream)); err != nil {
		return nil, err
	}
	if err := u.addObject(page.ObjNum, revised.String()); err != nil {
		return nil, err
	}

	out, err := u.finish(size)
	if err != nil {
		return nil, err
	}
	log.Debug("added image overlay",
		"page", p.Page,
		"page_object", page.ObjNum,
		"image_object", imageID,
		"format", raster.Format,
		"soft_mask", smaskID > 0,
	)
	return out, nil
}

func contentStream(data string) string {
	return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(data), data)
}

// appendContents returns the page's new /Contents value with ref appended.
// Existing content is preceded by the save stream, reported by wrapped; a
// page without content gets a one element array.
func appendContents(doc *pdf.Document, page *pdf.Dict, saveID, contentID int) (contents string, wrapped bool, err error) {
	ref := pdf.FormatRef(contentID)
	raw, ok := page.Get("Contents")
	if !ok {
		return "[" + ref + "]", false, nil
	}
	var items []string
	if _, indirect := pdf.ParseRef(raw); indirect {
		resolved, err := doc.Resolve(raw)
		if err != nil {
			return "", false, err
		}
		if !strings.HasPrefix(resolved, "[") {
			items = []string{raw}
		}
	}
	if items == nil {
		if items, err = doc.ResolveArray(raw); err != nil {
			return "", false, err
		}
	}
	if len(items) == 0 {
		return "[" + ref + "]", false, nil
	}
	items = append([]string{pdf.FormatRef(saveID)}, items...)
	return pdf.FormatArray(append(items, ref)), true, nil
}

// addXObject returns the page's /Resources as an inline dictionary with
// name bound to the image in its /XObject subdictionary. Resources are taken
// from the parent /Pages node when the page has none of its own.
func addXObject(doc *pdf.Document, page *pdf.Page, name string, imageID int) (string, error) {
	resources := pdf.NewDict()
	raw, ok := page.Dict.Get("Resources")
	if !ok {
		if parentRef, hasParent := page.Dict.Get("Parent"); hasParent {
			parent, _, err := doc.ResolveDict(parentRef)
			if err != nil {
				return "", err
			}
			raw, ok = parent.Get("Resources")
		}
	}
	if ok {
		dict, _, err := doc.ResolveDict(raw)
		if err != nil {
			return "", err
		}
		resources = dict.Clone()
	}

	xobjects := pdf.NewDict()
	if raw, ok := resources.Get("XObject"); ok {
		dict, _, err := doc.ResolveDict(raw)
		if err != nil {
			return "", err
		}
		xobjects = dict.Clone()
	}
	xobjects.Set(name, pdf.FormatRef(imageID))
	resources.Set("XObject", xobjects.String())
	return resources.String(), nil
}

// ApplyPlacements applies placements in order, each to the output of the
// previous one, and writes the final document to outputPath. Intermediate
// documents go to temporary files which are removed on return.
func (o Options) ApplyPlacements(inputPath, outputPath string, placements []Placement) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return &common.IOError{Path: inputPath, Err: err}
	}

	dir, err := os.MkdirTemp(filepath.Dir(outputPath), ".overlay-*")
	if err != nil {
		return &common.IOError{Path: outputPath, Err: err}
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	current := inputPath
	for i, p := range placements {
		out, err := o.AddImage(data, p)
		if err != nil {
			return fmt.Errorf("placement %d: %w", i+1, err)
		}
		step := filepath.Join(dir, fmt.Sprintf("step-%d.pdf", i+1))
		if err := os.WriteFile(step, out, 0o600); err != nil {
			return &common.IOError{Path: step, Err: err}
		}
		o.logger().Debug("applied placement", "index", i+1, "input", current, "output", step)

		current = step
		if data, err = os.ReadFile(step); err != nil {
			return &common.IOError{Path: step, Err: err}
		}
	}

	return sign.WriteFile(outputPath, data)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
