// Package vec provides the small 2D value types used by the layout.
//
// [Vec2] operations never mutate their receiver; callers commit a result by
// assigning it. [Normalize] reports whether a direction exists so that
// zero-length vectors can be skipped instead of producing NaN.
//
//	d, ok := b.Sub(a).Normalize()
//	if !ok {
//	    return // coincident points: no direction
//	}
//
// [Rect] describes the load area used for random initial placement and
// [Band] the falloff interval of cluster repulsion.
//
// [Normalize]: Vec2.Normalize
package vec
