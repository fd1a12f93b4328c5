package nav

import gmath "github.com/Faultbox/midgard-nav/pkg/math"

// Probe is a downward environment query at one horizontal position.
type Probe struct {
	Position     gmath.Vec2 // World X, Z
	GroundMask   uint32
	ObstacleMask uint32
	MaxHeight    float32
}

// Sample is what the environment reports for a probe.
type Sample struct {
	Hit      bool // Ground surface found
	Height   float32
	Normal   gmath.Vec3 // Zero means flat
	Obstacle bool
}

// Sampler answers probes during grid construction. When the config asks for
// more than one build worker, Sample must be safe for concurrent use.
type Sampler interface {
	Sample(p Probe) (Sample, error)
}

// SamplerFunc adapts a plain function to Sampler.
type SamplerFunc func(p Probe) (Sample, error)

// Sample calls f(p).
func (f SamplerFunc) Sample(p Probe) (Sample, error) {
	return f(p)
}
