package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image/color"
	"image/jpeg"
	"image/png"
)

// Image is a decoded raster ready for embedding as an image XObject.
type Image struct {
	Width      int
	Height     int
	ColorSpace Name
	Bits       int
	Filter     Name
	Data       []byte
	SMask      *Image
}

// DecodeImage prepares raw image bytes for embedding. JPEG passes through
// untouched under DCTDecode; PNG is decoded and re-encoded as Flate pixel
// data, with the alpha channel split into a soft mask. Anything else is
// ErrUnsupportedFormat.
func DecodeImage(data []byte) (*Image, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return decodeJPEG(data)
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return decodePNG(data)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func decodeJPEG(data []byte) (*Image, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("pdf: decode jpeg: %w", err)
	}
	cs := Name("DeviceRGB")
	switch cfg.ColorModel {
	case color.GrayModel:
		cs = "DeviceGray"
	case color.CMYKModel:
		cs = "DeviceCMYK"
	}
	return &Image{
		Width:      cfg.Width,
		Height:     cfg.Height,
		ColorSpace: cs,
		Bits:       8,
		Filter:     "DCTDecode",
		Data:       data,
	}, nil
}

func decodePNG(data []byte) (*Image, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("pdf: decode png: %w", err)
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	rgb := make([]byte, 0, w*h*3)
	alpha := make([]byte, 0, w*h)
	opaque := true
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := src.At(x, y).RGBA()
			rgb = append(rgb, byte(r>>8), byte(g>>8), byte(b>>8))
			alpha = append(alpha, byte(a>>8))
			if a != 0xFFFF {
				opaque = false
			}
		}
	}

	img := &Image{
		Width:      w,
		Height:     h,
		ColorSpace: "DeviceRGB",
		Bits:       8,
		Filter:     "FlateDecode",
		Data:       deflate(rgb),
	}
	if !opaque {
		img.SMask = &Image{
			Width:      w,
			Height:     h,
			ColorSpace: "DeviceGray",
			Bits:       8,
			Filter:     "FlateDecode",
			Data:       deflate(alpha),
		}
	}
	return img, nil
}

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

// AddImage embeds the image and its optional soft mask as XObjects.
func (d *Document) AddImage(img *Image) Ref {
	dict := Dict{
		"Type":             Name("XObject"),
		"Subtype":          Name("Image"),
		"Width":            img.Width,
		"Height":           img.Height,
		"ColorSpace":       img.ColorSpace,
		"BitsPerComponent": img.Bits,
		"Filter":           img.Filter,
	}
	if img.SMask != nil {
		dict["SMask"] = d.AddImage(img.SMask)
	}
	return d.Add(Stream{Dict: dict, Data: img.Data})
}
