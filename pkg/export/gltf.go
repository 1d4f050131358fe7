package export

import (
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/objconv/pkg/mesh"
)

// GLTFGenerator is written to the asset generator field.
const GLTFGenerator = "objconv"

// BuildGLTF creates a glTF document with one node and mesh per non-empty
// group, in the order of names. Groups sharing a material name share a
// glTF material. TEXCOORD_0 is only written when every corner carries a
// texcoord.
func BuildGLTF(names []string, buffers map[string]*mesh.Buffers) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = GLTFGenerator

	materials := make(map[string]uint32)

	for _, name := range names {
		b, ok := buffers[name]
		if !ok || b.IsEmpty() {
			continue
		}

		posAccessor := modeler.WritePosition(doc, toVec3s(b.Positions))
		normalAccessor := modeler.WriteNormal(doc, toVec3s(b.Normals))

		prim := &gltf.Primitive{
			Attributes: map[string]uint32{
				gltf.POSITION: uint32(posAccessor),
				gltf.NORMAL:   uint32(normalAccessor),
			},
		}
		if b.HasParallelTexCoords() {
			uvAccessor := modeler.WriteTextureCoord(doc, toVec2s(b.TexCoords))
			prim.Attributes[gltf.TEXCOORD_0] = uint32(uvAccessor)
		}

		if b.Material != "" {
			idx, seen := materials[b.Material]
			if !seen {
				idx = uint32(len(doc.Materials))
				doc.Materials = append(doc.Materials, &gltf.Material{
					Name: b.Material,
					PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
						BaseColorFactor: &[4]float32{1, 1, 1, 1},
						MetallicFactor:  gltf.Float(0),
						RoughnessFactor: gltf.Float(1),
					},
				})
				materials[b.Material] = idx
			}
			prim.Material = gltf.Index(idx)
		}

		meshIdx := uint32(len(doc.Meshes))
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})

		nodeIdx := uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: name, Mesh: gltf.Index(meshIdx)})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, nodeIdx)
	}

	return doc
}

// WriteGLB encodes the groups as a binary glTF stream.
func WriteGLB(w io.Writer, names []string, buffers map[string]*mesh.Buffers) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(BuildGLTF(names, buffers)); err != nil {
		return fmt.Errorf("encoding glb: %w", err)
	}
	return nil
}

// SaveGLB writes the groups to a .glb file.
func SaveGLB(path string, names []string, buffers map[string]*mesh.Buffers) error {
	if err := gltf.SaveBinary(BuildGLTF(names, buffers), path); err != nil {
		return fmt.Errorf("saving glb: %w", err)
	}
	return nil
}

func toVec3s(flat []float32) [][3]float32 {
	out := make([][3]float32, len(flat)/3)
	for i := range out {
		out[i] = [3]float32{flat[3*i], flat[3*i+1], flat[3*i+2]}
	}
	return out
}

func toVec2s(flat []float32) [][2]float32 {
	out := make([][2]float32, len(flat)/2)
	for i := range out {
		out[i] = [2]float32{flat[2*i], flat[2*i+1]}
	}
	return out
}
