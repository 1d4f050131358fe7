// Package mesh turns parsed OBJ groups into flat vertex buffers ready for
// GPU upload.
package mesh

// Buffers holds the flattened, triangulated data of one group.
// Corner k of the output reads Positions[3k:3k+3] and Normals[3k:3k+3].
type Buffers struct {
	Group    string
	Material string

	Positions []float32 // x, y, z per corner
	TexCoords []float32 // u, v per corner that carries a texcoord
	Normals   []float32 // x, y, z per corner
}

// VertexCount returns the number of emitted corners.
func (b *Buffers) VertexCount() int {
	return len(b.Positions) / 3
}

// TriangleCount returns the number of emitted triangles.
func (b *Buffers) TriangleCount() int {
	return b.VertexCount() / 3
}

// HasParallelTexCoords reports whether every corner carries a texcoord,
// so TexCoords can be indexed alongside Positions.
func (b *Buffers) HasParallelTexCoords() bool {
	return len(b.TexCoords) > 0 && len(b.TexCoords)/2 == b.VertexCount()
}

// IsEmpty returns true if the buffers hold no geometry.
func (b *Buffers) IsEmpty() bool {
	return len(b.Positions) == 0
}
