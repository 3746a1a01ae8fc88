package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/tinyraster/pkg/color"
	"github.com/taigrr/tinyraster/pkg/math3d"
	"github.com/taigrr/tinyraster/pkg/models"
	"github.com/taigrr/tinyraster/pkg/render"
	"github.com/taigrr/tinyraster/pkg/surface"
)

var errScene = errors.New("invalid scene")

// Scene is the YAML description of what to render.
type Scene struct {
	Width      int      `yaml:"width"`
	Height     int      `yaml:"height"`
	Background string   `yaml:"background"`
	Load       string   `yaml:"load"`    // features the renderers are created with
	Shaders    string   `yaml:"shaders"` // active shading and texture mode
	Cull       string   `yaml:"cull"`
	Wireframe  bool     `yaml:"wireframe"`
	Camera     Camera   `yaml:"camera"`
	Light      Light    `yaml:"light"`
	Objects    []Object `yaml:"objects"`

	dir string
}

type Camera struct {
	Position []float32 `yaml:"position"`
	Target   []float32 `yaml:"target"`
	FovY     float32   `yaml:"fov"`
	Near     float32   `yaml:"near"`
	Far      float32   `yaml:"far"`
	// Ortho selects an orthographic projection with this half height.
	Ortho float32 `yaml:"ortho"`
}

type Light struct {
	Direction []float32 `yaml:"direction"`
	Ambient   string    `yaml:"ambient"`
	Diffuse   string    `yaml:"diffuse"`
	Specular  string    `yaml:"specular"`
}

type Material struct {
	Color     string  `yaml:"color"`
	Ambient   float32 `yaml:"ambient"`
	Diffuse   float32 `yaml:"diffuse"`
	Specular  float32 `yaml:"specular"`
	Shininess int     `yaml:"shininess"`
}

// Object is one model in the scene: a glTF file or a built-in shape.
type Object struct {
	Model    string    `yaml:"model"`
	Shape    string    `yaml:"shape"` // cube, sphere, plane, quad
	Size     float32   `yaml:"size"`
	Texture  string    `yaml:"texture"` // image path or "checker"
	Position []float32 `yaml:"position"`
	Scale    []float32 `yaml:"scale"`
	Axis     []float32 `yaml:"axis"`
	Degrees  float32   `yaml:"degrees"`
	Material *Material `yaml:"material"`
}

// DefaultScene is a textured cube and a sphere standing on a plane.
func DefaultScene() *Scene {
	return &Scene{
		Width:      320,
		Height:     240,
		Background: "#1e1e28",
		Load:       "all",
		Shaders:    "gouraud|nearest|wrap",
		Cull:       "cw",
		Camera: Camera{
			Position: []float32{3, 2.5, 5},
			Target:   []float32{0, 0.5, 0},
			FovY:     45,
			Near:     0.1,
			Far:      100,
		},
		Light: Light{
			Direction: []float32{-0.5, -1, -0.3},
			Ambient:   "#333340",
			Diffuse:   "#ffffff",
			Specular:  "#ffffff",
		},
		Objects: []Object{
			{Shape: "plane", Size: 8, Texture: "checker"},
			{Shape: "cube", Size: 1, Texture: "checker", Position: []float32{-0.9, 0.5, 0}, Axis: []float32{0, 1, 0}, Degrees: 30},
			{Shape: "sphere", Size: 0.6, Position: []float32{1, 0.6, 0.3}, Material: &Material{Color: "#e05050", Ambient: 0.2, Diffuse: 0.7, Specular: 0.6, Shininess: 32}},
		},
	}
}

// LoadScene reads a scene file. Unset fields keep the DefaultScene values;
// a file that lists objects replaces the default objects.
func LoadScene(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scene: %w", err)
	}
	defer f.Close()

	sc := DefaultScene()
	sc.Objects = nil
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(sc); err != nil {
		return nil, fmt.Errorf("parsing scene %s: %w", path, err)
	}
	sc.dir = filepath.Dir(path)
	return sc, sc.Validate()
}

func (sc *Scene) Validate() error {
	vp := render.Viewport{Width: sc.Width, Height: sc.Height}
	if err := vp.Validate(); err != nil {
		return err
	}
	if len(sc.Objects) == 0 {
		return fmt.Errorf("%w: no objects", errScene)
	}
	for i, o := range sc.Objects {
		if (o.Model == "") == (o.Shape == "") {
			return fmt.Errorf("%w: object %d needs exactly one of model and shape", errScene, i)
		}
	}
	if _, err := cullMode(sc.Cull); err != nil {
		return err
	}
	return nil
}

func cullMode(s string) (render.CullMode, error) {
	for _, c := range []render.CullMode{render.CullNone, render.CullClockwise, render.CullCounterClockwise} {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	if s == "" {
		return render.CullClockwise, nil
	}
	return 0, fmt.Errorf("%w: cull mode %q", errScene, s)
}

func vec3(v []float32, def math3d.Vec3) (math3d.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 1:
		return math3d.V3(v[0], v[0], v[0]), nil
	case 3:
		return math3d.V3(v[0], v[1], v[2]), nil
	}
	return def, fmt.Errorf("%w: vector %v needs 1 or 3 components", errScene, v)
}

func hexOr(s string, def color.RGBf) (color.RGBf, error) {
	if s == "" {
		return def, nil
	}
	return color.Hex(s)
}

// instance is an object resolved into a model and its placement.
type instance[C color.Pixel[C]] struct {
	model     *models.Model[C]
	transform math3d.Mat4
}

// world is the scene geometry shared read-only by every renderer.
type world[C color.Pixel[C]] struct {
	instances []instance[C]
	triangles int
}

func buildWorld[C color.Pixel[C]](sc *Scene) (*world[C], error) {
	var checker *surface.Image[C]
	w := &world[C]{}
	for i, o := range sc.Objects {
		m, err := loadObject[C](&o, sc.dir)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
		var tex *surface.Image[C]
		switch o.Texture {
		case "":
		case "checker":
			if checker == nil {
				t := models.NewCheckerTexture[C](64, 8, color.RGB8(200, 200, 200), color.RGB8(90, 90, 100))
				checker = &t
			}
			tex = checker
		default:
			t, err := models.LoadTexture[C](resolve(sc.dir, o.Texture), models.DefaultMaxTextureSize)
			if err != nil {
				return nil, fmt.Errorf("object %d: %w", i, err)
			}
			tex = &t
		}
		if o.Material != nil {
			mat, err := o.Material.resolve()
			if err != nil {
				return nil, fmt.Errorf("object %d: %w", i, err)
			}
			for s := range m.Segments {
				m.Segments[s].Material = mat
			}
		}
		if tex != nil {
			for s := range m.Segments {
				m.Segments[s].Texture = tex
			}
		}

		pos, err := vec3(o.Position, math3d.Zero3())
		if err != nil {
			return nil, err
		}
		scale, err := vec3(o.Scale, math3d.V3(1, 1, 1))
		if err != nil {
			return nil, err
		}
		axis, err := vec3(o.Axis, math3d.Up())
		if err != nil {
			return nil, err
		}
		t := math3d.Translate(pos)
		if o.Degrees != 0 {
			t = t.Rotated(axis, o.Degrees*math32.Pi/180)
		}
		w.instances = append(w.instances, instance[C]{model: m, transform: t.Scaled(scale)})
		w.triangles += m.TriangleCount()
	}
	return w, nil
}

func loadObject[C color.Pixel[C]](o *Object, dir string) (*models.Model[C], error) {
	if o.Model != "" {
		return models.LoadGLTF[C](resolve(dir, o.Model))
	}
	size := o.Size
	if size <= 0 {
		size = 1
	}
	var m *models.Mesh[C]
	switch strings.ToLower(o.Shape) {
	case "cube":
		m = models.NewCube[C](size)
	case "sphere":
		m = models.NewSphere[C](size, 24, 16)
	case "plane":
		m = models.NewPlane[C](size, size, 8)
	case "quad":
		m = models.NewQuad[C](size, size)
	default:
		return nil, fmt.Errorf("%w: unknown shape %q", errScene, o.Shape)
	}
	return &models.Model[C]{Name: m.Name, Segments: []models.Mesh[C]{*m}}, nil
}

func (m *Material) resolve() (models.Material, error) {
	c, err := hexOr(m.Color, models.DefaultMaterial().Color)
	if err != nil {
		return models.Material{}, err
	}
	return models.Material{
		Color:     c,
		Ambient:   m.Ambient,
		Diffuse:   m.Diffuse,
		Specular:  m.Specular,
		Shininess: m.Shininess,
	}, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}

// setup applies the scene camera, light, culling and shaders to a renderer.
func setup[C color.Pixel[C], D render.Depth](r *render.Renderer[C, D], sc *Scene) error {
	eye, err := vec3(sc.Camera.Position, math3d.V3(0, 0, 5))
	if err != nil {
		return err
	}
	target, err := vec3(sc.Camera.Target, math3d.Zero3())
	if err != nil {
		return err
	}
	r.SetLookAt(eye, target, math3d.Up())

	aspect := float32(sc.Width) / float32(sc.Height)
	cam := sc.Camera
	if cam.Ortho > 0 {
		err = r.SetOrtho(render.Ortho{
			Left: -cam.Ortho * aspect, Right: cam.Ortho * aspect,
			Bottom: -cam.Ortho, Top: cam.Ortho,
			Near: cam.Near, Far: cam.Far,
		})
	} else {
		err = r.SetPerspective(render.Perspective{FovY: cam.FovY, Aspect: aspect, Near: cam.Near, Far: cam.Far})
	}
	if err != nil {
		return err
	}

	l := render.DefaultLight()
	if l.Direction, err = vec3(sc.Light.Direction, l.Direction); err != nil {
		return err
	}
	if l.Ambient, err = hexOr(sc.Light.Ambient, l.Ambient); err != nil {
		return err
	}
	if l.Diffuse, err = hexOr(sc.Light.Diffuse, l.Diffuse); err != nil {
		return err
	}
	if l.Specular, err = hexOr(sc.Light.Specular, l.Specular); err != nil {
		return err
	}
	r.SetLight(l)

	cull, err := cullMode(sc.Cull)
	if err != nil {
		return err
	}
	r.SetCulling(cull)

	if sc.Shaders != "" {
		s, err := render.ParseShader(sc.Shaders)
		if err != nil {
			return err
		}
		if err := r.SetShaders(s); err != nil {
			return err
		}
	}
	return nil
}

// draw renders every instance with the renderer's current camera.
func (w *world[C]) draw(r renderTarget[C], wire bool, wireColor C) error {
	for _, in := range w.instances {
		r.SetModelMatrix(in.transform)
		if wire {
			for s := range in.model.Segments {
				if err := r.DrawWireframeMesh(&in.model.Segments[s], wireColor, true); err != nil {
					return err
				}
			}
			continue
		}
		if err := r.DrawModel(in.model, true); err != nil {
			return fmt.Errorf("%s: %w", in.model.Name, err)
		}
	}
	return nil
}

// renderTarget is the part of a Renderer the scene draws through; it does
// not depend on the depth type.
type renderTarget[C color.Pixel[C]] interface {
	SetModelMatrix(math3d.Mat4)
	DrawModel(*models.Model[C], bool) error
	DrawWireframeMesh(*models.Mesh[C], C, bool) error
}
