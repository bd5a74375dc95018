// Package imaging normalizes uploaded product and category images: sniff the
// real content type, cap dimensions, and re-encode everything as JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	// Longest edge after processing.
	MaxEdge = 1280
	Quality = 85
	// Uploads larger than this are rejected before decoding.
	MaxUploadBytes = 10 << 20
)

var allowed = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Normalize validates and re-encodes one upload. The sniffed content type is
// trusted over whatever the client claimed.
func Normalize(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("image exceeds %d MB", MaxUploadBytes>>20)
	}

	if mime := http.DetectContentType(data); !allowed[mime] {
		return nil, fmt.Errorf("unsupported image type %s, want JPEG or PNG", mime)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	src = fit(src, MaxEdge)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, src, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return out.Bytes(), nil
}

// fit scales the image down so its longest edge is at most maxEdge,
// preserving aspect ratio. Images already within bounds pass through.
func fit(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src
	}

	scale := float64(maxEdge) / float64(w)
	if h > w {
		scale = float64(maxEdge) / float64(h)
	}
	nw, nh := int(float64(w)*scale), int(float64(h)*scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
