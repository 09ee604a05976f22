// Package images turns uploaded image files into the data URLs carried by a
// product payload, and back.
package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNotImage         = errors.New("not an image")
	ErrMalformedDataURL = errors.New("malformed data URL")
)

// DataURL inlines an image as a base64 data URL. The media type is sniffed
// from the content, not taken from a file name.
func DataURL(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Decode splits a base64 data URL into its bytes and media type. The media
// type returned is sniffed from the bytes; the declared one only has to claim
// an image. Only JPEG, PNG, GIF and WebP content is accepted.
func Decode(dataURL string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing data: scheme", ErrMalformedDataURL)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing comma", ErrMalformedDataURL)
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, "", fmt.Errorf("%w: only base64 payloads are accepted", ErrMalformedDataURL)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrMalformedDataURL, err)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return nil, "", fmt.Errorf("%w: %s", ErrNotImage, mediaType)
	}
	detected := mimetype.Detect(data).String()
	if !storedTypes[detected] {
		return nil, "", fmt.Errorf("%w: declared %s, detected %s", ErrNotImage, mediaType, detected)
	}
	return data, detected, nil
}

// storedTypes are the image formats accepted from uploads.
var storedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Fit shrinks an image so neither side exceeds maxDim, keeping its format.
// Images already small enough, maxDim <= 0, and formats imaging cannot
// re-encode are returned unchanged.
func Fit(data []byte, maxDim int) ([]byte, error) {
	if maxDim <= 0 {
		return data, nil
	}
	var format imaging.Format
	switch mimetype.Detect(data).String() {
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	case "image/gif":
		format = imaging.GIF
	default:
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return data, nil
	}

	resized := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
