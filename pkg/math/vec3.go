// Package math provides the small vector types shared by the grid and the
// path search.
package math

import "math"

// Vec3 is a 3D vector. Y is up; X and Z span the horizontal plane.
type Vec3 struct {
	X, Y, Z float32
}

// Up is the world up axis used for slope classification.
var Up = Vec3{0, 1, 0}

// FromXZ lifts a horizontal-plane point to 3D at height y.
func FromXZ(p Vec2, y float32) Vec3 {
	return Vec3{p.X, y, p.Y}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Normalize returns a unit vector, or the zero vector for zero input.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// XZ projects v onto the horizontal plane.
func (v Vec3) XZ() Vec2 {
	return Vec2{v.X, v.Z}
}
