package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/render"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// frame is one rendered image with the work it took.
type frame[C color.Pixel[C]] struct {
	img   surface.Image[C]
	stats render.Stats
}

// tileRects splits a w x h screen into a cols x rows grid. The last column
// and row absorb the remainder.
func tileRects(w, h, cols, rows int) []image.Rectangle {
	cols, rows = max(1, min(cols, w)), max(1, min(rows, h))
	rects := make([]image.Rectangle, 0, cols*rows)
	tw, th := w/cols, h/rows
	for j := range rows {
		for i := range cols {
			r := image.Rect(i*tw, j*th, (i+1)*tw, (j+1)*th)
			if i == cols-1 {
				r.Max.X = w
			}
			if j == rows-1 {
				r.Max.Y = h
			}
			rects = append(rects, r)
		}
	}
	return rects
}

// renderTiles draws the scene with one renderer per tile, in parallel.
// Each renderer owns a sub-view of the shared colour and depth surfaces
// and a viewport offset that places it in the full screen.
func renderTiles[C color.Pixel[C], D render.Depth](ctx context.Context, sc *Scene, w *world[C], cols, rows int) (frame[C], error) {
	loaded, err := render.ParseShader(sc.Load)
	if err != nil {
		return frame[C]{}, err
	}
	bgf, err := hexOr(sc.Background, color.Black)
	if err != nil {
		return frame[C]{}, err
	}
	bg := color.From[C](bgf)
	wire := color.From[C](color.RGBf{R: 0, G: 1, B: 0.5})

	img := surface.New[C](sc.Width, sc.Height)
	zbuf := surface.New[D](sc.Width, sc.Height)
	rects := tileRects(sc.Width, sc.Height, cols, rows)
	stats := make([]render.Stats, len(rects))

	g, ctx := errgroup.WithContext(ctx)
	for i, rect := range rects {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			vp := render.Viewport{Width: sc.Width, Height: sc.Height, OffsetX: rect.Min.X, OffsetY: rect.Min.Y}
			r, err := render.New[C, D](vp, loaded)
			if err != nil {
				return err
			}
			ci, err := img.Sub(rect)
			if err != nil {
				return err
			}
			di, err := zbuf.Sub(rect)
			if err != nil {
				return err
			}
			if err := r.SetSurfaces(ci, di); err != nil {
				return err
			}
			r.Clear(bg)
			r.ClearDepth()
			if err := setup(r, sc); err != nil {
				return err
			}
			if err := w.draw(r, sc.Wireframe, wire); err != nil {
				return fmt.Errorf("tile %v: %w", rect, err)
			}
			stats[i] = r.Stats()
			slog.Debug("tile done", "rect", rect, "triangles", stats[i].Triangles, "rasterized", stats[i].Rasterized)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return frame[C]{}, err
	}

	f := frame[C]{img: img}
	for _, s := range stats {
		f.stats.Add(s)
	}
	return f, nil
}
