package math

// Vec2i is an integer grid coordinate.
type Vec2i struct {
	X, Y int
}

// Add returns v + other.
func (v Vec2i) Add(other Vec2i) Vec2i {
	return Vec2i{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2i) Sub(other Vec2i) Vec2i {
	return Vec2i{v.X - other.X, v.Y - other.Y}
}

// Abs returns the component-wise absolute value.
func (v Vec2i) Abs() Vec2i {
	return Vec2i{absInt(v.X), absInt(v.Y)}
}

// Vec2 converts to a float vector.
func (v Vec2i) Vec2() Vec2 {
	return Vec2{float32(v.X), float32(v.Y)}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
