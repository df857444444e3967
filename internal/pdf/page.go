package pdf

import (
	"github.com/inkseal/pdfsign/common"
)

// Page is a page object of a flat page tree.
type Page struct {
	Index  int
	ObjNum int
	Dict   *Dict
	// Annots holds the raw elements of the page's /Annots array, resolved
	// when the array is stored as its own object. Nil when absent.
	Annots []string
}

func (d *Document) pageKids() ([]string, error) {
	catalog, err := d.Catalog()
	if err != nil {
		return nil, err
	}
	pagesRef, ok := catalog.Get("Pages")
	if !ok {
		return nil, common.Structuralf("page tree", "catalog has no /Pages")
	}
	pages, _, err := d.ResolveDict(pagesRef)
	if err != nil {
		return nil, err
	}
	kidsRaw, ok := pages.Get("Kids")
	if !ok {
		return nil, common.Structuralf("page tree", "/Pages has no /Kids")
	}
	return d.ResolveArray(kidsRaw)
}

// PageCount returns the number of entries in the root /Kids array.
func (d *Document) PageCount() (int, error) {
	kids, err := d.pageKids()
	if err != nil {
		return 0, err
	}
	return len(kids), nil
}

// Page resolves the page at a zero based index. Only flat page trees are
// supported; an intermediate /Pages node is a structural error.
func (d *Document) Page(index int) (*Page, error) {
	kids, err := d.pageKids()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(kids) {
		return nil, common.Structuralf("page tree", "page index %d out of range (0-%d)", index, len(kids)-1)
	}
	objNum, ok := ParseRef(kids[index])
	if !ok {
		return nil, common.Structuralf("page tree", "page %d is not an indirect object", index)
	}
	dict, err := d.Object(objNum)
	if err != nil {
		return nil, err
	}
	if dict.Name("Type") == "Pages" {
		return nil, common.Structuralf("page tree", "nested page trees are not supported")
	}

	p := &Page{Index: index, ObjNum: objNum, Dict: dict}
	if raw, ok := dict.Get("Annots"); ok {
		annots, err := d.ResolveArray(raw)
		if err != nil {
			return nil, err
		}
		p.Annots = annots
		if p.Annots == nil {
			p.Annots = []string{}
		}
	}
	return p, nil
}

// ReadPageMediaBox returns the page's /MediaBox, looking one level up to
// the parent /Pages node when the page has none. Any failure yields
// LetterMediaBox.
func (d *Document) ReadPageMediaBox(p *Page) [4]float64 {
	if p == nil || p.Dict == nil {
		return LetterMediaBox
	}
	raw, ok := p.Dict.Get("MediaBox")
	if !ok {
		parentRef, ok := p.Dict.Get("Parent")
		if !ok {
			return LetterMediaBox
		}
		parent, _, err := d.ResolveDict(parentRef)
		if err != nil {
			return LetterMediaBox
		}
		if raw, ok = parent.Get("MediaBox"); !ok {
			return LetterMediaBox
		}
	}
	resolved, err := d.Resolve(raw)
	if err != nil {
		return LetterMediaBox
	}
	nums, err := ParseNumbers(resolved)
	if err != nil || len(nums) != 4 {
		return LetterMediaBox
	}
	return [4]float64{nums[0], nums[1], nums[2], nums[3]}
}
