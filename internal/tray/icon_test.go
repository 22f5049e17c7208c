package tray

import (
	"bytes"
	"image/png"
	"testing"
)

func TestIconIsPNG(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(Icon()))
	if err != nil {
		t.Fatalf("icon is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("icon size = %v", b)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Error("corner should be transparent")
	}
	if _, _, _, a := img.At(16, 16).RGBA(); a == 0 {
		t.Error("centre should be opaque")
	}
}
