package render

// Stats counts the work done since the last ResetStats. Counts are per
// triangle after quad splitting; clipping can turn one triangle into
// several rasterized ones.
type Stats struct {
	Segments         int // segments drawn
	SegmentsRejected int // segments outside the view frustum
	Triangles        int // triangles submitted
	Culled           int // discarded by winding
	Behind           int // entirely behind the near plane
	Clipped          int // split by the near plane
	Degenerate       int // zero area after snapping
	Rasterized       int // handed to the fill routine and scanned
	Lines            int // wireframe and line segments drawn
	Points           int // pixels and dots drawn
}

// Stats returns the counters.
func (r *Renderer[C, D]) Stats() Stats { return r.stats }

// ResetStats zeroes the counters.
func (r *Renderer[C, D]) ResetStats() { r.stats = Stats{} }

func (s *Stats) count(res rasterResult) {
	switch res {
	case rasterDrawn:
		s.Rasterized++
	case rasterDegenerate:
		s.Degenerate++
	}
}

// Add accumulates o into s, for renderers that share a frame.
func (s *Stats) Add(o Stats) {
	s.Segments += o.Segments
	s.SegmentsRejected += o.SegmentsRejected
	s.Triangles += o.Triangles
	s.Culled += o.Culled
	s.Behind += o.Behind
	s.Clipped += o.Clipped
	s.Degenerate += o.Degenerate
	s.Rasterized += o.Rasterized
	s.Lines += o.Lines
	s.Points += o.Points
}
