package sign

import (
	"crypto"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/inkseal/pdfsign/common"
)

// updateByteRange computes the byte range around the /Contents placeholder
// and overwrites the /ByteRange placeholder in the output buffer with it,
// padded with spaces to the same length.
func (context *SignContext) updateByteRange() error {
	buf := context.OutputBuffer.Buff.Bytes()
	total := int64(len(buf))

	gapStart := context.contentsOffset
	gapEnd := gapStart + int64(2*context.contentsSize) + 2
	if gapEnd > total || buf[gapStart] != '<' || buf[gapEnd-1] != '>' {
		return common.Structuralf("byte range", "contents placeholder not found at offset %d", gapStart)
	}
	context.ByteRangeValues = [4]int64{0, gapStart, gapEnd, total - gapEnd}

	start := context.byteRangeOffset
	end := start + int64(len(signatureByteRangePlaceholder))
	if end > total || string(buf[start:end]) != signatureByteRangePlaceholder {
		return common.Structuralf("byte range", "byte range placeholder not found at offset %d", start)
	}

	replacement := formatByteRange(context.ByteRangeValues)
	if len(replacement) > len(signatureByteRangePlaceholder) {
		return common.Structuralf("byte range", "byte range %s does not fit the placeholder", replacement)
	}
	replacement += strings.Repeat(" ", len(signatureByteRangePlaceholder)-len(replacement))
	copy(buf[start:end], replacement)

	context.log.Debug("byte range written", "byte_range", context.ByteRangeValues[:], "offset", start)
	return nil
}

func formatByteRange(br [4]int64) string {
	return fmt.Sprintf("/ByteRange [%d %d %d %d]", br[0], br[1], br[2], br[3])
}

// HashByteRange returns the SHA-256 digest of the two ranges described by
// br, in file order.
func HashByteRange(data []byte, br [4]int64) ([]byte, error) {
	return HashByteRangeWith(data, br, crypto.SHA256)
}

// HashByteRangeWith is HashByteRange with an explicit hash function.
func HashByteRangeWith(data []byte, br [4]int64, hash crypto.Hash) ([]byte, error) {
	if err := checkByteRange(br, int64(len(data))); err != nil {
		return nil, err
	}
	if !hash.Available() {
		return nil, &common.CryptoError{Msg: fmt.Sprintf("hash function %v is not available", hash)}
	}
	h := hash.New()
	h.Write(data[br[0] : br[0]+br[1]])
	h.Write(data[br[2] : br[2]+br[3]])
	return h.Sum(nil), nil
}

func checkByteRange(br [4]int64, size int64) error {
	for _, v := range br {
		if v < 0 {
			return common.Structuralf("byte range", "negative value in %v", br)
		}
	}
	if br[0]+br[1] > br[2] || br[2]+br[3] > size {
		return common.Structuralf("byte range", "%v does not fit a document of %d bytes", br, size)
	}
	return nil
}

var byteRangePattern = regexp.MustCompile(`/ByteRange\s*\[\s*(\d+)\s+(\d+)\s+(\d+)\s+(\d+)\s*\]`)

// lastByteRange finds the /ByteRange of the last signature dictionary in
// data, returning the values and the offset of the entry.
func lastByteRange(data []byte) ([4]int64, int, error) {
	var br [4]int64
	matches := byteRangePattern.FindAllSubmatchIndex(data, -1)
	if len(matches) == 0 {
		return br, 0, common.Structuralf("byte range", "no /ByteRange found")
	}
	m := matches[len(matches)-1]
	for i := range br {
		v, err := strconv.ParseInt(string(data[m[2+2*i]:m[3+2*i]]), 10, 64)
		if err != nil {
			return br, 0, common.Structuralf("byte range", "invalid /ByteRange value: %v", err)
		}
		br[i] = v
	}
	return br, m[0], nil
}
