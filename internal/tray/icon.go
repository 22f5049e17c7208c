package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// Icon renders the tray icon: a lit sphere like the Move controller's bulb.
func Icon() []byte {
	const size = 32
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			d2 := dx*dx + dy*dy
			if d2 > c*c {
				continue
			}
			shade := uint8(255 - 120*d2/(c*c))
			img.Set(x, y, color.NRGBA{R: shade / 3, G: shade / 2, B: shade, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
