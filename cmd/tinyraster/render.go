package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/lcd"
	"github.com/taigrr/tinyraster/pkg/render"
	"github.com/taigrr/tinyraster/pkg/surface"
)

// renderOptions are the flags shared by the commands that write images.
type renderOptions struct {
	scene     string
	width     int
	height    int
	tiles     string
	format    string
	depth     string
	shaders   string
	wireframe bool
}

func (o *renderOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.scene, "scene", "s", "", "scene file (YAML); built-in scene when empty")
	f.IntVar(&o.width, "width", 0, "override the scene width")
	f.IntVar(&o.height, "height", 0, "override the scene height")
	f.StringVar(&o.tiles, "tiles", "1x1", "render in a COLSxROWS grid of parallel renderers")
	f.StringVar(&o.format, "format", "rgb24", "pixel format: rgb565 or rgb24")
	f.StringVar(&o.depth, "depth", "float", "depth buffer: float or uint16")
	f.StringVar(&o.shaders, "shaders", "", `active shaders, e.g. "phong|bilinear|wrap"`)
	f.BoolVar(&o.wireframe, "wireframe", false, "draw edges only")
}

// loadScene reads the scene and applies flag overrides.
func (o *renderOptions) loadScene() (*Scene, error) {
	sc := DefaultScene()
	if o.scene != "" {
		var err error
		if sc, err = LoadScene(o.scene); err != nil {
			return nil, err
		}
	}
	if o.width > 0 {
		sc.Width = o.width
	}
	if o.height > 0 {
		sc.Height = o.height
	}
	if o.shaders != "" {
		sc.Shaders = o.shaders
	}
	sc.Wireframe = sc.Wireframe || o.wireframe
	return sc, sc.Validate()
}

func parseTiles(s string) (cols, rows int, err error) {
	c, r, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("tiles %q: want COLSxROWS", s)
	}
	if cols, err = strconv.Atoi(c); err != nil || cols < 1 {
		return 0, 0, fmt.Errorf("tiles %q: bad column count", s)
	}
	if rows, err = strconv.Atoi(r); err != nil || rows < 1 {
		return 0, 0, fmt.Errorf("tiles %q: bad row count", s)
	}
	return cols, rows, nil
}

func newRenderCmd() *cobra.Command {
	var (
		opts renderOptions
		out   string
		label bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			job := func(ctx context.Context, sc *Scene, cols, rows int) (render.Stats, error) {
				switch opts.format + "/" + opts.depth {
				case "rgb565/float":
					return renderPNG[color.RGB565, float32](ctx, sc, cols, rows, out, label)
				case "rgb565/uint16":
					return renderPNG[color.RGB565, uint16](ctx, sc, cols, rows, out, label)
				case "rgb24/float":
					return renderPNG[color.RGB24, float32](ctx, sc, cols, rows, out, label)
				case "rgb24/uint16":
					return renderPNG[color.RGB24, uint16](ctx, sc, cols, rows, out, label)
				}
				return render.Stats{}, fmt.Errorf("unsupported format %q with depth %q", opts.format, opts.depth)
			}

			sc, err := opts.loadScene()
			if err != nil {
				return err
			}
			cols, rows, err := parseTiles(opts.tiles)
			if err != nil {
				return err
			}
			start := time.Now()
			stats, err := job(cmd.Context(), sc, cols, rows)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)
			slog.Info("rendered", "out", out, "elapsed", elapsed)
			fmt.Fprintln(cmd.OutOrStdout(), summary(out, sc, cols*rows, elapsed, stats))
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "out.png", "output PNG path")
	cmd.Flags().BoolVar(&label, "label", false, "stamp frame statistics into the image")
	return cmd
}

func renderPNG[C color.Pixel[C], D render.Depth](ctx context.Context, sc *Scene, cols, rows int, out string, label bool) (render.Stats, error) {
	w, err := buildWorld[C](sc)
	if err != nil {
		return render.Stats{}, err
	}
	slog.Debug("scene loaded", "objects", len(w.instances), "triangles", w.triangles)
	f, err := renderTiles[C, D](ctx, sc, w, cols, rows)
	if err != nil {
		return render.Stats{}, err
	}
	if label {
		lcd.Label(f.img, statsLabel(f.stats), color.White)
	}
	if err := surface.SavePNG(out, f.img); err != nil {
		return render.Stats{}, err
	}
	return f.stats, nil
}

// statsLabel is the short overlay text written by --label.
func statsLabel(s render.Stats) []string {
	return []string{
		fmt.Sprintf("tri %d/%d", s.Rasterized, s.Triangles),
		fmt.Sprintf("cull %d clip %d", s.Culled, s.Clipped),
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6AD5")).MarginBottom(1)
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8AA0")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8E8F0"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5A5A7A")).Padding(0, 1)
)

func summary(out string, sc *Scene, tiles int, elapsed time.Duration, s render.Stats) string {
	rows := [][2]string{
		{"size", fmt.Sprintf("%dx%d", sc.Width, sc.Height)},
		{"tiles", strconv.Itoa(tiles)},
		{"time", elapsed.Round(time.Microsecond).String()},
		{"segments", fmt.Sprintf("%d drawn, %d rejected", s.Segments, s.SegmentsRejected)},
		{"triangles", strconv.Itoa(s.Triangles)},
		{"culled", strconv.Itoa(s.Culled)},
		{"behind", strconv.Itoa(s.Behind)},
		{"clipped", strconv.Itoa(s.Clipped)},
		{"rasterized", strconv.Itoa(s.Rasterized)},
	}
	if s.Lines > 0 {
		rows = append(rows, [2]string{"lines", strconv.Itoa(s.Lines)})
	}
	lines := []string{titleStyle.Render(out)}
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, keyStyle.Render(r[0]), valueStyle.Render(r[1])))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
