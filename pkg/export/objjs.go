// Package export serializes parsed OBJ documents and their mesh buffers.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	gomath "math"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/objconv/pkg/formats"
	"github.com/Faultbox/objconv/pkg/mesh"
)

// ObjJSRegistry is the global the objjs script registers files under.
const ObjJSRegistry = "LoadedOBJFiles"

// jsWriter accumulates output and keeps the first write error.
type jsWriter struct {
	w   *bufio.Writer
	err error
	buf []byte
}

func (jw *jsWriter) printf(format string, args ...any) {
	if jw.err != nil {
		return
	}
	_, jw.err = fmt.Fprintf(jw.w, format, args...)
}

func (jw *jsWriter) write(b []byte) {
	if jw.err != nil {
		return
	}
	_, jw.err = jw.w.Write(b)
}

// WriteObjJS writes the objjs script for one file: the raw pools, every
// group's faces and material, and the flattened webGL buffers built for it.
// Groups missing from buffers get no webGL block.
func WriteObjJS(w io.Writer, fileName string, doc *formats.OBJDocument, buffers map[string]*mesh.Buffers) error {
	jw := &jsWriter{w: bufio.NewWriter(w)}
	root := fmt.Sprintf("%s[%s]", ObjJSRegistry, quote(fileName))

	jw.printf("var %s = %s || {};\n", ObjJSRegistry, ObjJSRegistry)
	jw.printf("%s = {};\n", root)
	jw.printf("%s.vertices = ", root)
	jw.write(appendVecs(nil, doc.Vertices))
	jw.printf(";\n%s.normals = ", root)
	jw.write(appendVecs(nil, doc.Normals))
	jw.printf(";\n%s.texCoords = ", root)
	jw.write(appendVecs(nil, doc.TexCoords))
	jw.printf(";\n%s.groups = {};\n", root)

	for _, name := range doc.GroupNames() {
		g := doc.Groups[name]
		group := fmt.Sprintf("%s.groups[%s]", root, quote(name))

		jw.printf("%s = {};\n", group)
		jw.printf("%s.vertices = %s.vertices;\n", group, root)
		jw.printf("%s.normals = %s.normals;\n", group, root)
		jw.printf("%s.texCoords = %s.texCoords;\n", group, root)
		jw.printf("%s.faces = ", group)
		jw.buf = appendFaces(jw.buf[:0], g.Polygons)
		jw.write(jw.buf)
		jw.printf(";\n%s.material = %s;\n", group, materialLiteral(g.Material))

		b, ok := buffers[name]
		if !ok {
			continue
		}
		jw.printf("%s.webGL = {};\n", group)
		jw.printf("%s.webGL.vertices = ", group)
		jw.buf = appendFloats(jw.buf[:0], b.Positions)
		jw.write(jw.buf)
		jw.printf(";\n%s.webGL.texCoords = ", group)
		jw.buf = appendFloats(jw.buf[:0], b.TexCoords)
		jw.write(jw.buf)
		jw.printf(";\n%s.webGL.normals = ", group)
		jw.buf = appendFloats(jw.buf[:0], b.Normals)
		jw.write(jw.buf)
		jw.printf(";\n")
	}

	if jw.err != nil {
		return fmt.Errorf("writing objjs: %w", jw.err)
	}
	if err := jw.w.Flush(); err != nil {
		return fmt.Errorf("writing objjs: %w", err)
	}
	return nil
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func materialLiteral(name string) string {
	if name == "" {
		return "null"
	}
	return quote(name)
}

// appendFloat writes f the way JSON.stringify does, with null for NaN and
// infinities.
func appendFloat(dst []byte, f float32) []byte {
	if gomath.IsNaN(float64(f)) || gomath.IsInf(float64(f), 0) {
		return append(dst, "null"...)
	}
	return strconv.AppendFloat(dst, float64(f), 'g', -1, 32)
}

func appendFloats(dst []byte, fs []float32) []byte {
	dst = append(dst, '[')
	for i, f := range fs {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendFloat(dst, f)
	}
	return append(dst, ']')
}

func appendVecs(dst []byte, vs []mgl32.Vec3) []byte {
	dst = append(dst, '[')
	for i, v := range vs {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendFloats(dst, v[:])
	}
	return append(dst, ']')
}

// appendFaces writes each corner as [vertex, texcoord|null, normal|null].
func appendFaces(dst []byte, polys []formats.OBJPolygon) []byte {
	dst = append(dst, '[')
	for i, poly := range polys {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, '[')
		for j, c := range poly {
			if j > 0 {
				dst = append(dst, ',')
			}
			dst = append(dst, '[')
			dst = strconv.AppendInt(dst, int64(c.Vertex), 10)
			dst = append(dst, ',')
			dst = appendOptional(dst, c.TexCoord, c.HasTexCoord)
			dst = append(dst, ',')
			dst = appendOptional(dst, c.Normal, c.HasNormal)
			dst = append(dst, ']')
		}
		dst = append(dst, ']')
	}
	return append(dst, ']')
}

func appendOptional(dst []byte, idx int, ok bool) []byte {
	if !ok {
		return append(dst, "null"...)
	}
	return strconv.AppendInt(dst, int64(idx), 10)
}
