package mesh

import "github.com/Faultbox/objconv/pkg/formats"

// Triangle is three corners in winding order.
type Triangle [3]formats.OBJCorner

// Triangulate fan-triangulates poly around its first corner, producing
// len(poly)-2 triangles. The result is only correct for convex polygons.
func Triangulate(poly formats.OBJPolygon) []Triangle {
	if len(poly) < 3 {
		return nil
	}
	tris := make([]Triangle, 0, len(poly)-2)
	for i := 1; i < len(poly)-1; i++ {
		tris = append(tris, Triangle{poly[0], poly[i], poly[i+1]})
	}
	return tris
}
