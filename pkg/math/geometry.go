// Package math provides the vector helpers used when building mesh buffers.
package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Normalize returns v scaled to unit length.
// The zero vector is returned unchanged instead of dividing by zero.
func Normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{v[0] / l, v[1] / l, v[2] / l}
}

// FaceNormal returns the unit normal of triangle (p1, p2, p3) as
// normalize((p1-p2) x (p3-p1)). Degenerate triangles yield the zero vector.
func FaceNormal(p1, p2, p3 mgl32.Vec3) mgl32.Vec3 {
	u := p1.Sub(p2)
	v := p3.Sub(p1)
	return Normalize(u.Cross(v))
}

// IsFinite reports whether every component of v is a finite number.
func IsFinite(v mgl32.Vec3) bool {
	for _, c := range v {
		f := float64(c)
		if gomath.IsNaN(f) || gomath.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Bounds returns the axis-aligned bounding box of points.
// Non-finite points are skipped. ok is false when no finite point exists.
func Bounds(points []mgl32.Vec3) (min, max mgl32.Vec3, ok bool) {
	for _, p := range points {
		if !IsFinite(p) {
			continue
		}
		if !ok {
			min, max, ok = p, p, true
			continue
		}
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return min, max, ok
}
