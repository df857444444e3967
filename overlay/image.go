package overlay

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register JPEG format
	_ "image/png"  // register PNG format

	_ "golang.org/x/image/bmp"  // register BMP format
	_ "golang.org/x/image/tiff" // register TIFF format
	_ "golang.org/x/image/webp" // register WebP format
)

// rasterImage is a decoded image split into the samples of an RGB image
// XObject and, when any pixel is translucent, a DeviceGray soft mask.
type rasterImage struct {
	Width, Height int
	Format        string
	RGB           []byte
	Alpha         []byte
}

func decodeImage(data []byte) (*rasterImage, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("image has no pixels")
	}

	r := &rasterImage{
		Width:  w,
		Height: h,
		Format: format,
		RGB:    make([]byte, 0, w*h*3),
	}
	alpha := make([]byte, 0, w*h)
	translucent := false

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			r.RGB = append(r.RGB, c.R, c.G, c.B)
			alpha = append(alpha, c.A)
			if c.A != 0xff {
				translucent = true
			}
		}
	}
	if translucent {
		r.Alpha = alpha
	}
	return r, nil
}

func deflate(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w := zlib.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress image data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress image data: %w", err)
	}
	return b.Bytes(), nil
}

// imageXObject returns the object body of an image XObject. smask is the
// object number of the soft mask, or 0.
func imageXObject(width, height int, colorSpace string, samples []byte, smask int) (string, error) {
	compressed, err := deflate(samples)
	if err != nil {
		return "", err
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent 8 /Filter /FlateDecode",
		width, height, colorSpace)
	if smask > 0 {
		fmt.Fprintf(&b, " /SMask %d 0 R", smask)
	}
	fmt.Fprintf(&b, " /Length %d >>\nstream\n", len(compressed))
	b.Write(compressed)
	b.WriteString("\nendstream")
	return b.String(), nil
}
