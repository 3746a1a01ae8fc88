package render

import (
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// DrawTerminal paints img onto the screen area with upper half blocks, so
// each cell shows two image rows: the foreground is the top pixel and the
// background the bottom one. The image should be twice as tall as area.
func DrawTerminal[C color.Pixel[C]](scr uv.Screen, area uv.Rectangle, img surface.Image[C]) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		y := (row - area.Min.Y) * 2
		if y >= img.Height() {
			break
		}
		top := img.Row(y)
		var bot []C
		if y+1 < img.Height() {
			bot = img.Row(y + 1)
		}

		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= img.Width() {
				break
			}
			style := uv.Style{Fg: color.From[color.RGBA32](top[x].RGBf())}
			if bot != nil {
				style.Bg = color.From[color.RGBA32](bot[x].RGBf())
			}
			scr.SetCell(col, row, &uv.Cell{Content: "▀", Width: 1, Style: style})
		}
	}
}
