package terminal

import (
	"image"
	"strings"
	"testing"
)

func TestDetectCapabilities(t *testing.T) {
	tests := []struct {
		env       string
		term      string
		wantKitty bool
		wantTerm  string
	}{
		{env: "", term: "", wantKitty: false, wantTerm: ""},
		{env: "1", term: "", wantKitty: true, wantTerm: "kitty"},
		{env: "on", term: "WezTerm", wantKitty: true, wantTerm: "WezTerm"},
		{env: "off", term: "kitty", wantKitty: false, wantTerm: "kitty"},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.term, func(t *testing.T) {
			t.Setenv("KINETIC_USE_KITTY_GRAPHICS", tt.env)
			t.Setenv("TERM_PROGRAM", tt.term)

			caps := DetectCapabilities()
			if caps.SupportsKittyGraphics != tt.wantKitty {
				t.Errorf("SupportsKittyGraphics = %v, want %v", caps.SupportsKittyGraphics, tt.wantKitty)
			}
			if caps.TermProgram != tt.wantTerm {
				t.Errorf("TermProgram = %q, want %q", caps.TermProgram, tt.wantTerm)
			}
		})
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, cols, rows int
		wantW, wantH     uint
	}{
		{w: 100, h: 100, cols: 4, rows: 2, wantW: 40, wantH: 40},
		{w: 200, h: 100, cols: 4, rows: 4, wantW: 40, wantH: 20},
		{w: 10, h: 1000, cols: 1, rows: 1, wantW: 10, wantH: 20},
	}
	for _, tt := range tests {
		w, h := fit(tt.w, tt.h, tt.cols, tt.rows)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("fit(%d, %d, %d, %d) = %d, %d, want %d, %d", tt.w, tt.h, tt.cols, tt.rows, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestEncodeImageForKitty(t *testing.T) {
	if got := EncodeImageForKitty(nil, 4, 2); got != "" {
		t.Errorf("EncodeImageForKitty(nil) = %q, want empty", got)
	}

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	got := EncodeImageForKitty(img, 4, 2)
	if !strings.HasPrefix(got, "\x1b_Ga=T,f=100,c=4,r=2,") {
		t.Errorf("EncodeImageForKitty() prefix = %q", got[:min(len(got), 24)])
	}
	if !strings.HasSuffix(got, "\x1b\\") {
		t.Error("EncodeImageForKitty() is not terminated")
	}
}
