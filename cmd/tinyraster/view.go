package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"
	xterm "golang.org/x/term"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/render"
	"github.com/taigrr/tinyraster/pkg/surface"
)

func newViewCmd() *cobra.Command {
	var (
		sceneFile string
		fps       int
	)
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Orbit a scene in the terminal",
		Long: `Draws the scene with half-block characters, two pixels per cell.

Keys: arrows or WASD orbit, +/- zoom, f/g/p pick flat, Gouraud or Phong
shading, t toggles textures, x toggles wireframe, r resets, q or Esc quits.

c switches to free flight: WASD move, arrows turn, [ and ] roll, l levels
the camera. Press c again to return to the orbit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := DefaultScene()
			if sceneFile != "" {
				var err error
				if sc, err = LoadScene(sceneFile); err != nil {
					return err
				}
			}
			return runView(cmd.Context(), sc, max(fps, 1))
		},
	}
	cmd.Flags().StringVarP(&sceneFile, "scene", "s", "", "scene file (YAML); built-in scene when empty")
	cmd.Flags().IntVar(&fps, "fps", 30, "target frames per second")
	return cmd
}

// spinAxis is an orbit angle whose velocity decays to rest through a
// critically damped spring.
type spinAxis struct {
	angle    float64
	velocity float64
	accel    float64
	spring   harmonica.Spring
}

func newSpinAxis(fps int, angle float64) spinAxis {
	return spinAxis{angle: angle, spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

func (a *spinAxis) step() {
	a.angle += a.velocity
	a.velocity, a.accel = a.spring.Update(a.velocity, a.accel, 0)
}

// zoom eases the orbit distance toward a target.
type zoom struct {
	dist, vel, target float64
	spring            harmonica.Spring
}

func (z *zoom) step() {
	z.dist, z.vel = z.spring.Update(z.dist, z.vel, z.target)
}

// viewer owns the renderer sized to the terminal.
type viewer struct {
	sc     *Scene
	world  *world[color.RGB24]
	r      *render.Renderer[color.RGB24, float32]
	img    surface.Image[color.RGB24]
	cam    *render.Camera
	target math3d.Vec3
	bg     color.RGB24

	cols, rows int
	shade      render.Shader
	textured   bool
	wireframe  bool
	// fly leaves the camera to the free-flight keys instead of the orbit.
	fly bool
}

// resize recreates the surfaces for a terminal of cols x rows cells.
func (v *viewer) resize(cols, rows int) error {
	v.cols, v.rows = max(cols, 1), max(rows, 1)
	w, h := min(v.cols, render.MaxViewportSize), min(v.rows*2, render.MaxViewportSize)
	r, err := render.New[color.RGB24, float32](render.Viewport{Width: w, Height: h}, render.ShaderAll)
	if err != nil {
		return err
	}
	sc := *v.sc
	sc.Width, sc.Height = w, h
	if err := setup(r, &sc); err != nil {
		return err
	}
	v.img = surface.New[color.RGB24](w, h)
	if err := r.SetSurfaces(v.img, surface.New[float32](w, h)); err != nil {
		return err
	}
	v.r = r
	v.cam.Aspect = float32(w) / float32(h)
	return v.applyShaders()
}

func (v *viewer) applyShaders() error {
	s := v.shade
	if v.textured {
		s |= render.ShaderTextureNearest | render.ShaderTextureWrapPow2
	}
	return v.r.SetShaders(s)
}

func (v *viewer) frame(scr uv.Screen, yaw, pitch, dist float32) error {
	if !v.fly {
		v.cam.Orbit(v.target, dist, yaw, pitch)
	}
	v.r.SetViewMatrix(v.cam.ViewMatrix())
	if err := v.r.SetPerspective(v.cam.Perspective()); err != nil {
		return err
	}
	v.r.Clear(v.bg)
	v.r.ClearDepth()
	v.r.ResetStats()
	if err := v.world.draw(v.r, v.wireframe, color.From[color.RGB24](color.RGBf{G: 1, B: 0.5})); err != nil {
		return err
	}
	render.DrawTerminal(scr, uv.Rect(0, 0, v.cols, v.rows), v.img)
	return nil
}

// Free-flight movement per key press, in world units and radians.
const (
	flyStep = 0.25
	flyTurn = 0.05
)

// flyKey applies a free-flight key to cam. match reports whether the
// pressed key is one of its arguments. It returns false for other keys.
func flyKey(cam *render.Camera, match func(...string) bool) bool {
	switch {
	case match("w"):
		cam.MoveForward(flyStep)
	case match("s"):
		cam.MoveForward(-flyStep)
	case match("a"):
		cam.MoveRight(-flyStep)
	case match("d"):
		cam.MoveRight(flyStep)
	case match("up"):
		cam.Rotate(flyTurn, 0, 0)
	case match("down"):
		cam.Rotate(-flyTurn, 0, 0)
	case match("left"):
		cam.Rotate(0, flyTurn, 0)
	case match("right"):
		cam.Rotate(0, -flyTurn, 0)
	case match("["):
		cam.Rotate(0, 0, flyTurn)
	case match("]"):
		cam.Rotate(0, 0, -flyTurn)
	case match("l"):
		cam.SetRotation(0, cam.Yaw, 0)
	default:
		return false
	}
	return true
}

var errNoTerminal = errors.New("view needs an interactive terminal")

func runView(ctx context.Context, sc *Scene, fps int) error {
	if !xterm.IsTerminal(int(os.Stdout.Fd())) || !xterm.IsTerminal(int(os.Stdin.Fd())) {
		return errNoTerminal
	}
	w, err := buildWorld[color.RGB24](sc)
	if err != nil {
		return err
	}
	bgf, err := hexOr(sc.Background, color.Black)
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
	dist, yaw0, pitch0 := orbitFrom(eye, target)

	cam := render.NewCamera(1)
	if sc.Camera.FovY > 0 {
		cam.FovY = sc.Camera.FovY
	}
	if sc.Camera.Near > 0 && sc.Camera.Far > sc.Camera.Near {
		cam.Near, cam.Far = sc.Camera.Near, sc.Camera.Far
	}
	v := &viewer{
		sc:       sc,
		world:    w,
		cam:      cam,
		target:   target,
		bg:       color.From[color.RGB24](bgf),
		shade:    render.ShaderGouraud,
		textured: true,
	}

	term := uv.DefaultTerminal()
	cols, rows, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(cols, rows)
	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		if err := term.Shutdown(context.Background()); err != nil {
			slog.Debug("terminal shutdown", "error", err)
		}
	}()

	if err := v.resize(cols, rows); err != nil {
		return err
	}

	yaw, pitch := newSpinAxis(fps, float64(yaw0)), newSpinAxis(fps, float64(pitch0))
	z := zoom{dist: float64(dist), target: float64(dist), spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0)}
	const impulse = 0.05

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	events := term.Events()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				term.Erase()
				term.Resize(ev.Width, ev.Height)
				if err := v.resize(ev.Width, ev.Height); err != nil {
					return err
				}
			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("q", "escape", "ctrl+c"):
					return nil
				case ev.MatchString("c"):
					v.fly = !v.fly
				case v.fly && flyKey(v.cam, ev.MatchString):
				case ev.MatchString("a", "left"):
					yaw.velocity -= impulse
				case ev.MatchString("d", "right"):
					yaw.velocity += impulse
				case ev.MatchString("w", "up"):
					pitch.velocity += impulse
				case ev.MatchString("s", "down"):
					pitch.velocity -= impulse
				case ev.MatchString("+", "="):
					z.target = max(z.target*0.9, 0.5)
				case ev.MatchString("-", "_"):
					z.target = min(z.target*1.1, 50)
				case ev.MatchString("f"):
					v.shade = render.ShaderFlat
				case ev.MatchString("g"):
					v.shade = render.ShaderGouraud
				case ev.MatchString("p"):
					v.shade = render.ShaderPhong
				case ev.MatchString("t"):
					v.textured = !v.textured
				case ev.MatchString("x"):
					v.wireframe = !v.wireframe
				case ev.MatchString("r") && v.fly:
					v.cam.SetPosition(eye)
					v.cam.LookAt(target)
				case ev.MatchString("r"):
					yaw, pitch = newSpinAxis(fps, float64(yaw0)), newSpinAxis(fps, float64(pitch0))
					z.target = float64(dist)
				}
				if err := v.applyShaders(); err != nil {
					return err
				}
			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					z.target = max(z.target*0.9, 0.5)
				case uv.MouseWheelDown:
					z.target = min(z.target*1.1, 50)
				}
			}

		case <-ticker.C:
			yaw.step()
			pitch.step()
			// Keep the camera off the poles so LookAt stays defined.
			pitch.angle = max(-1.5, min(1.5, pitch.angle))
			z.step()
			if err := v.frame(term, float32(yaw.angle), float32(pitch.angle), float32(z.dist)); err != nil {
				return err
			}
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}
