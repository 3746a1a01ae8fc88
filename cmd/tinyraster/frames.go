package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/render"
	"github.com/taigrr/tinyraster/pkg/surface"
)

func newFramesCmd() *cobra.Command {
	var (
		opts  renderOptions
		dir   string
		count int
	)
	cmd := &cobra.Command{
		Use:   "frames",
		Short: "Render a turntable around the camera target as numbered PNG files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := opts.loadScene()
			if err != nil {
				return err
			}
			cols, rows, err := parseTiles(opts.tiles)
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("frame count %d: need at least one", count)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			ctx := cmd.Context()
			switch opts.format + "/" + opts.depth {
			case "rgb565/float":
				err = turntable[color.RGB565, float32](ctx, sc, cols, rows, count, dir)
			case "rgb565/uint16":
				err = turntable[color.RGB565, uint16](ctx, sc, cols, rows, count, dir)
			case "rgb24/float":
				err = turntable[color.RGB24, float32](ctx, sc, cols, rows, count, dir)
			case "rgb24/uint16":
				err = turntable[color.RGB24, uint16](ctx, sc, cols, rows, count, dir)
			default:
				err = fmt.Errorf("unsupported format %q with depth %q", opts.format, opts.depth)
			}
			return err
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&dir, "dir", "d", "frames", "output directory")
	cmd.Flags().IntVarP(&count, "count", "n", 36, "number of frames in one revolution")
	return cmd
}

// orbitFrom returns distance, yaw and pitch of eye around target.
func orbitFrom(eye, target math3d.Vec3) (dist, yaw, pitch float32) {
	d := eye.Sub(target)
	dist = d.Len()
	if dist == 0 {
		return 0, 0, 0
	}
	return dist, math32.Atan2(d.X, d.Z), math32.Asin(d.Y / dist)
}

func turntable[C color.Pixel[C], D render.Depth](ctx context.Context, sc *Scene, cols, rows, count int, dir string) error {
	w, err := buildWorld[C](sc)
	if err != nil {
		return err
	}
	eye, err := vec3(sc.Camera.Position, math3d.V3(0, 0, 5))
	if err != nil {
		return err
	}
	target, err := vec3(sc.Camera.Target, math3d.Zero3())
	if err != nil {
		return err
	}
	dist, yaw, pitch := orbitFrom(eye, target)
	cam := render.NewCamera(float32(sc.Width) / float32(sc.Height))

	bar := progressbar.Default(int64(count), "rendering")
	defer bar.Close()

	var total render.Stats
	frameScene := *sc
	for i := range count {
		cam.Orbit(target, dist, yaw+2*math32.Pi*float32(i)/float32(count), pitch)
		frameScene.Camera.Position = []float32{cam.Position.X, cam.Position.Y, cam.Position.Z}

		f, err := renderTiles[C, D](ctx, &frameScene, w, cols, rows)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i))
		if err := surface.SavePNG(path, f.img); err != nil {
			return err
		}
		total.Add(f.stats)
		bar.Add(1)
	}
	slog.Info("frames written", "dir", dir, "count", count, "triangles", total.Triangles, "rasterized", total.Rasterized)
	return nil
}
