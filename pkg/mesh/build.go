package mesh

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/objconv/pkg/formats"
	"github.com/Faultbox/objconv/pkg/math"
)

// Build errors.
var (
	ErrUnknownGroup  = errors.New("group not found")
	ErrDanglingIndex = errors.New("index outside pool bounds")
)

// Build triangulates the named group of doc and resolves every corner into
// flat position, texcoord and normal buffers. Corners without an explicit
// normal receive the normal of the triangle they belong to.
// The document is only read.
func Build(doc *formats.OBJDocument, group string) (*Buffers, error) {
	g, ok := doc.Group(group)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}

	tris := g.TriangleCount()
	b := &Buffers{
		Group:     g.Name,
		Material:  g.Material,
		Positions: make([]float32, 0, tris*9),
		Normals:   make([]float32, 0, tris*9),
	}

	for pi, poly := range g.Polygons {
		for _, tri := range Triangulate(poly) {
			if err := b.appendTriangle(doc, tri); err != nil {
				return nil, fmt.Errorf("group %q polygon %d: %w", g.Name, pi, err)
			}
		}
	}

	return b, nil
}

func (b *Buffers) appendTriangle(doc *formats.OBJDocument, tri Triangle) error {
	var pos [3]mgl32.Vec3
	for i, c := range tri {
		p, err := lookup(doc.Vertices, c.Vertex, "vertex")
		if err != nil {
			return err
		}
		pos[i] = p
	}

	var faceNormal mgl32.Vec3
	haveFaceNormal := false

	for i, c := range tri {
		b.Positions = append(b.Positions, pos[i][0], pos[i][1], pos[i][2])

		if c.HasTexCoord {
			uv, err := lookup(doc.TexCoords, c.TexCoord, "texcoord")
			if err != nil {
				return err
			}
			b.TexCoords = append(b.TexCoords, uv[0], uv[1])
		}

		var n mgl32.Vec3
		if c.HasNormal {
			var err error
			if n, err = lookup(doc.Normals, c.Normal, "normal"); err != nil {
				return err
			}
		} else {
			if !haveFaceNormal {
				faceNormal = math.FaceNormal(pos[0], pos[1], pos[2])
				haveFaceNormal = true
			}
			n = faceNormal
		}
		b.Normals = append(b.Normals, n[0], n[1], n[2])
	}
	return nil
}

func lookup(pool []mgl32.Vec3, idx int, kind string) (mgl32.Vec3, error) {
	if idx < 0 || idx >= len(pool) {
		return mgl32.Vec3{}, fmt.Errorf("%w: %s %d (pool size %d)", ErrDanglingIndex, kind, idx, len(pool))
	}
	return pool[idx], nil
}

// BuildAll builds every group of doc concurrently, running at most workers
// builds at once (workers <= 0 means no limit). Workers share the document
// read-only and each owns its result. The first error cancels the rest.
func BuildAll(ctx context.Context, doc *formats.OBJDocument, workers int) (map[string]*Buffers, error) {
	names := doc.GroupNames()
	results := make([]*Buffers, len(names))

	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}

	for i, name := range names {
		i, name := i, name
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := Build(doc, name)
			if err != nil {
				return err
			}
			results[i] = b
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*Buffers, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out, nil
}
