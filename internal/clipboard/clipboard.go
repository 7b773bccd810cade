// Package clipboard bridges the system clipboard: pasting an image into the
// user message, and copying branch responses back out as plain text or
// markdown.
package clipboard

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/charmbracelet/x/ansi"
	"golang.design/x/clipboard"

	"github.com/wookiisky/think-bot/internal/logger"
)

// MaxImageSize caps pasted images; providers reject larger payloads anyway.
const MaxImageSize = 3750000

// MaxImageDimension caps pasted image width/height.
const MaxImageDimension = 8000

// ImageData is a pasted clipboard image, re-encoded to PNG.
type ImageData struct {
	Data   []byte
	Width  int
	Height int
}

var initialized bool

// Init initializes the clipboard. Safe to call multiple times.
func Init() error {
	if initialized {
		return nil
	}
	if err := clipboard.Init(); err != nil {
		logger.Warn("Clipboard: Failed to initialize: %v", err)
		return fmt.Errorf("failed to initialize clipboard: %w", err)
	}
	initialized = true
	logger.Debug("Clipboard: Initialized")
	return nil
}

// ReadImage reads an image from the clipboard, or nil when none is present.
func ReadImage() (*ImageData, error) {
	if err := Init(); err != nil {
		return nil, err
	}

	imgBytes := clipboard.Read(clipboard.FmtImage)
	if len(imgBytes) == 0 {
		return nil, nil
	}

	img, format, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode clipboard image: %w", err)
	}
	bounds := img.Bounds()
	logger.Debug("Clipboard: Image pasted: %dx%d, format=%s", bounds.Dx(), bounds.Dy(), format)

	// Re-encode as PNG so downstream always sees one format.
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}

	return &ImageData{Data: pngBuf.Bytes(), Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// Validate checks size limits for a pasted image.
func (img *ImageData) Validate() error {
	if len(img.Data) > MaxImageSize {
		return fmt.Errorf("image too large: %d bytes (max %d)", len(img.Data), MaxImageSize)
	}
	if img.Width > MaxImageDimension || img.Height > MaxImageDimension {
		return fmt.Errorf("image dimensions too large: %dx%d (max %dx%d)",
			img.Width, img.Height, MaxImageDimension, MaxImageDimension)
	}
	return nil
}

// DataURI encodes the image as the data URI stored alongside the user
// message.
func (img *ImageData) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// WriteText writes plain text to the clipboard, stripping any ANSI styling
// picked up from the rendered view.
func WriteText(text string) error {
	if err := Init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(ansi.Strip(text)))
	logger.Debug("Clipboard: Wrote %d bytes of text", len(text))
	return nil
}

// WriteMarkdown writes raw markdown to the clipboard without any stripping.
func WriteMarkdown(markdown string) error {
	if err := Init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(markdown))
	logger.Debug("Clipboard: Wrote %d bytes of markdown", len(markdown))
	return nil
}
