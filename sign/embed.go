package sign

import (
	"bytes"
	"encoding/hex"

	"github.com/inkseal/pdfsign/common"
)

// contentsGap locates the /Contents placeholder covered by the last
// /ByteRange in data and returns the offsets of its '<' and one past '>'.
func contentsGap(data []byte) (int64, int64, error) {
	br, _, err := lastByteRange(data)
	if err != nil {
		return 0, 0, err
	}
	if err := checkByteRange(br, int64(len(data))); err != nil {
		return 0, 0, err
	}
	gapStart, gapEnd := br[1], br[2]
	if gapEnd-gapStart < 2 || data[gapStart] != '<' || data[gapEnd-1] != '>' {
		return 0, 0, common.Structuralf("embed", "byte range gap [%d, %d) is not a hex string", gapStart, gapEnd)
	}
	return gapStart, gapEnd, nil
}

// embedContainer returns a copy of data with container hex encoded into the
// last /Contents placeholder. Unused capacity keeps its '0' padding, so the
// document length and byte range are unchanged.
func embedContainer(data []byte, container []byte) ([]byte, error) {
	gapStart, gapEnd, err := contentsGap(data)
	if err != nil {
		return nil, err
	}

	available := int(gapEnd - gapStart - 2)
	encoded := make([]byte, hex.EncodedLen(len(container)))
	hex.Encode(encoded, container)
	if len(encoded) > available {
		return nil, &common.CapacityError{Required: len(encoded), Available: available}
	}

	out := bytes.Clone(data)
	hexStart := gapStart + 1
	copy(out[hexStart:], encoded)
	for i := hexStart + int64(len(encoded)); i < gapEnd-1; i++ {
		out[i] = '0'
	}
	return out, nil
}
