package evaluator

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

// EncodePNG re-serializes an in-memory image as PNG and returns the bytes
// base64-encoded for embedding in a chat message. The encoding is
// deterministic for a given pixel buffer.
func EncodePNG(img image.Image) (string, error) {
	if img == nil {
		return "", ErrNilImage
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image as PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func pngDataURL(encoded string) string {
	return "data:image/png;base64," + encoded
}
