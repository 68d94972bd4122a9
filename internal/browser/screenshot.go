package browser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

// Viewport-screenshot bounds for the model-facing base64 variant. Anything
// larger gets scaled down so image turns stay small.
const (
	maxShotWidth  = 800
	maxShotHeight = 600
)

// Screenshot captures the current viewport as PNG bytes.
func (s *Session) Screenshot() ([]byte, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, err
	}
	return s.page.Screenshot()
}

// SaveScreenshot captures the viewport and writes it to a timestamped PNG
// under dir, returning the file path.
func (s *Session) SaveScreenshot(dir string) (string, error) {
	data, err := s.Screenshot()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ScreenshotBase64 captures the viewport, writes the full capture to dir,
// and returns the payload with the "base64," prefix the agent loop keys its
// image handling on. With compress the payload is scaled down to the shot
// bounds and the scaled copy is written alongside as *_compressed.png.
func (s *Session) ScreenshotBase64(dir string, compress bool) (string, error) {
	data, err := s.Screenshot()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	if compress {
		scaled, err := shrinkPNG(data, maxShotWidth, maxShotHeight)
		if err == nil {
			compressedPath := strings.TrimSuffix(path, ".png") + "_compressed.png"
			if err := os.WriteFile(compressedPath, scaled, 0o644); err != nil {
				return "", err
			}
			data = scaled
		}
	}
	return "base64," + base64.StdEncoding.EncodeToString(data), nil
}

// shrinkPNG scales a PNG down to fit within maxW x maxH, preserving aspect
// ratio. Images already within bounds pass through untouched.
func shrinkPNG(data []byte, maxW, maxH int) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxW && h <= maxH {
		return data, nil
	}

	ratio := float64(maxW) / float64(w)
	if r := float64(maxH) / float64(h); r < ratio {
		ratio = r
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*ratio), int(float64(h)*ratio)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
