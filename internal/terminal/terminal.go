// Package terminal detects what the terminal can draw and restores it
// after the program exits.
package terminal

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/nfnt/resize"
)

// cell size in pixels assumed when scaling images for the kitty protocol
const (
	cellWidth  = 10
	cellHeight = 20
	chunkSize  = 4096
)

type Capabilities struct {
	SupportsKittyGraphics bool
	SupportsRGB           bool
	TermProgram           string
}

// DetectCapabilities reads the environment. The kitty graphics protocol is
// opt-in through KINETIC_USE_KITTY_GRAPHICS.
func DetectCapabilities() *Capabilities {
	caps := &Capabilities{
		SupportsRGB: os.Getenv("COLORTERM") != "" || os.Getenv("TERM_PROGRAM") != "",
		TermProgram: os.Getenv("TERM_PROGRAM"),
	}

	switch strings.ToLower(os.Getenv("KINETIC_USE_KITTY_GRAPHICS")) {
	case "1", "true", "yes", "on":
		caps.SupportsKittyGraphics = true
		if caps.TermProgram == "" {
			caps.TermProgram = "kitty"
		}
	}
	return caps
}

// Reset shows the cursor, clears attributes and leaves the alternate screen
// and mouse modes.
func Reset() {
	os.Stdout.WriteString("\033[?25h")
	os.Stdout.WriteString("\033[0m")
	os.Stdout.WriteString("\033[?1049l")
	os.Stdout.WriteString("\033[?1000l")
	os.Stdout.WriteString("\033[?1002l")
	os.Stdout.WriteString("\033[?1003l")
	os.Stdout.WriteString("\033[?1006l")
	os.Stdout.Sync()
}

// fit scales a width x height image into cols x rows cells keeping its
// aspect ratio, never going below 10 pixels on a side.
func fit(width, height, cols, rows int) (uint, uint) {
	w, h := float64(cols*cellWidth), float64(rows*cellHeight)
	aspect := float64(width) / float64(height)
	if aspect > w/h {
		h = w / aspect
	} else {
		w = h * aspect
	}
	return uint(max(w, 10)), uint(max(h, 10))
}

// EncodeImageForKitty returns the escape sequence that draws img over
// cols x rows cells, or "" when it cannot be encoded.
func EncodeImageForKitty(img image.Image, cols int, rows int) string {
	if img == nil {
		return ""
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return ""
	}

	w, h := fit(b.Dx(), b.Dy(), cols, rows)
	var buf bytes.Buffer
	if err := png.Encode(&buf, resize.Resize(w, h, img, resize.Lanczos3)); err != nil {
		return ""
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	var out strings.Builder
	for i := 0; i < len(encoded); i += chunkSize {
		end := min(i+chunkSize, len(encoded))
		more := 1
		if end == len(encoded) {
			more = 0
		}
		if i == 0 {
			fmt.Fprintf(&out, "\x1b_Ga=T,f=100,c=%d,r=%d,m=%d;%s\x1b\\", cols, rows, more, encoded[i:end])
		} else {
			fmt.Fprintf(&out, "\x1b_Gm=%d;%s\x1b\\", more, encoded[i:end])
		}
	}
	return out.String()
}
