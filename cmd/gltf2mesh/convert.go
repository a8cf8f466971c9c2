package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/spaghettifunk/pica/engine/assets/loaders"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

// largest vertex count addressable by u16 indices
const maxMeshVertices = 1 << 16

var errTooManyVertices = errors.New("primitive has more vertices than u16 indices can address")

type converter struct {
	doc *gltf.Document
	// directory external image URIs are resolved against
	dir          string
	skipTextures bool
	// decoded once per glTF image index
	images map[int][]byte
	meshes []loaders.MeshData
}

func newConverter(doc *gltf.Document, dir string, skipTextures bool) *converter {
	return &converter{
		doc:          doc,
		dir:          dir,
		skipTextures: skipTextures,
		images:       make(map[int][]byte),
	}
}

// convert walks the default scene (or every root node when there is none)
// and returns one mesh per triangle primitive, in traversal order.
func (c *converter) convert() ([]loaders.MeshData, error) {
	roots, err := c.roots()
	if err != nil {
		return nil, err
	}
	for _, n := range roots {
		if err := c.walk(n, math.NewMat4Identity(), 0); err != nil {
			return nil, err
		}
	}
	return c.meshes, nil
}

func (c *converter) roots() ([]int, error) {
	if len(c.doc.Scenes) > 0 {
		scene := 0
		if c.doc.Scene != nil {
			scene = *c.doc.Scene
		}
		if scene < 0 || scene >= len(c.doc.Scenes) {
			return nil, fmt.Errorf("default scene %d out of range", scene)
		}
		return c.doc.Scenes[scene].Nodes, nil
	}

	isChild := make(map[int]bool)
	for _, n := range c.doc.Nodes {
		for _, child := range n.Children {
			isChild[child] = true
		}
	}
	var roots []int
	for i := range c.doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

func (c *converter) walk(index int, parent math.Mat4, depth int) error {
	if index < 0 || index >= len(c.doc.Nodes) {
		return fmt.Errorf("node %d out of range", index)
	}
	if depth > len(c.doc.Nodes) {
		return fmt.Errorf("node %d: cycle in node hierarchy", index)
	}
	node := c.doc.Nodes[index]
	world := nodeMatrix(node).Mul(parent)

	if node.Mesh != nil {
		if *node.Mesh < 0 || *node.Mesh >= len(c.doc.Meshes) {
			return fmt.Errorf("node %d: mesh %d out of range", index, *node.Mesh)
		}
		mesh := c.doc.Meshes[*node.Mesh]
		for p, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				core.LogWarn("mesh `%s` primitive %d: skipping non-triangle mode %d", mesh.Name, p, prim.Mode)
				continue
			}
			data, err := c.primitive(prim, world)
			if err != nil {
				return fmt.Errorf("mesh `%s` primitive %d: %w", mesh.Name, p, err)
			}
			c.meshes = append(c.meshes, data)
		}
	}

	for _, child := range node.Children {
		if err := c.walk(child, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nodeMatrix returns the node's local transform in the engine's layout.
func nodeMatrix(node *gltf.Node) math.Mat4 {
	if m := node.MatrixOrDefault(); m != gltf.DefaultMatrix {
		// glTF matrices are column-major like math.Mat4
		out := math.Mat4{}
		for i, v := range m {
			out.Data[i] = float32(v)
		}
		return out
	}
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()
	rotation := math.Quaternion{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])}
	return math.NewMat4Scale(math.NewVec3(float32(s[0]), float32(s[1]), float32(s[2]))).
		Mul(rotation.ToMat4()).
		Mul(math.NewMat4Translation(math.NewVec3(float32(t[0]), float32(t[1]), float32(t[2]))))
}

func (c *converter) accessor(prim *gltf.Primitive, name string) (*gltf.Accessor, bool) {
	index, ok := prim.Attributes[name]
	if !ok || index < 0 || index >= len(c.doc.Accessors) {
		return nil, false
	}
	return c.doc.Accessors[index], true
}

func (c *converter) primitive(prim *gltf.Primitive, world math.Mat4) (loaders.MeshData, error) {
	posAcr, ok := c.accessor(prim, gltf.POSITION)
	if !ok {
		return loaders.MeshData{}, fmt.Errorf("missing %s attribute", gltf.POSITION)
	}
	positions, err := modeler.ReadPosition(c.doc, posAcr, nil)
	if err != nil {
		return loaders.MeshData{}, err
	}
	if len(positions) == 0 {
		return loaders.MeshData{}, core.ErrEmptyVertices
	}
	if len(positions) > maxMeshVertices {
		return loaders.MeshData{}, fmt.Errorf("%w: %d", errTooManyVertices, len(positions))
	}

	var indices32 []uint32
	if prim.Indices != nil && *prim.Indices >= 0 && *prim.Indices < len(c.doc.Accessors) {
		if indices32, err = modeler.ReadIndices(c.doc, c.doc.Accessors[*prim.Indices], nil); err != nil {
			return loaders.MeshData{}, err
		}
	} else {
		indices32 = make([]uint32, len(positions))
		for i := range indices32 {
			indices32[i] = uint32(i)
		}
	}
	indices := make([]uint16, len(indices32))
	for i, idx := range indices32 {
		if int(idx) >= len(positions) {
			return loaders.MeshData{}, fmt.Errorf("%w: %d >= %d", core.ErrIndexOutOfRange, idx, len(positions))
		}
		indices[i] = uint16(idx)
	}

	points := make([]math.Vec3, len(positions))
	for i, p := range positions {
		points[i] = math.NewVec3(p[0], p[1], p[2]).Transform(world)
	}

	var normals []math.Vec3
	if acr, ok := c.accessor(prim, gltf.NORMAL); ok {
		raw, err := modeler.ReadNormal(c.doc, acr, nil)
		if err != nil {
			return loaders.MeshData{}, err
		}
		flat := math.GenerateFlatNormals(points, indices32)
		normals = make([]math.Vec3, len(points))
		for i := range normals {
			if i < len(raw) {
				normals[i] = math.NewVec3(raw[i][0], raw[i][1], raw[i][2]).TransformDirection(world).Normalized()
			}
			// degenerate or missing file normals take the face normal
			if normals[i].Compare(math.NewVec3Zero(), 1e-6) {
				normals[i] = flat[i]
			}
		}
	} else {
		normals = math.GenerateFlatNormals(points, indices32)
	}

	var uvs [][2]float32
	if acr, ok := c.accessor(prim, gltf.TEXCOORD_0); ok {
		if uvs, err = modeler.ReadTextureCoord(c.doc, acr, nil); err != nil {
			return loaders.MeshData{}, err
		}
	}

	vertices := make([]metadata.Vertex, len(points))
	for i := range vertices {
		uv := math.NewVec2Zero()
		if i < len(uvs) {
			uv = math.NewVec2(uvs[i][0], uvs[i][1])
		}
		vertices[i] = metadata.NewVertex(points[i], uv, normals[i])
	}

	diffuse, texture, err := c.material(prim)
	if err != nil {
		return loaders.MeshData{}, err
	}
	return loaders.MeshData{
		Material: metadata.NewMaterialFromDiffuse(diffuse),
		Vertices: vertices,
		Indices:  indices,
		Texture:  texture,
	}, nil
}

// material returns the base colour factor and the raw bytes of the base colour image, if any.
func (c *converter) material(prim *gltf.Primitive) (math.Vec4, []byte, error) {
	white := math.NewVec4One()
	if prim.Material == nil || *prim.Material < 0 || *prim.Material >= len(c.doc.Materials) {
		return white, nil, nil
	}
	pbr := c.doc.Materials[*prim.Material].PBRMetallicRoughness
	if pbr == nil {
		return white, nil, nil
	}
	f := pbr.BaseColorFactorOrDefault()
	diffuse := math.NewVec4(float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3]))
	if c.skipTextures || pbr.BaseColorTexture == nil {
		return diffuse, nil, nil
	}

	tex := pbr.BaseColorTexture.Index
	if tex < 0 || tex >= len(c.doc.Textures) || c.doc.Textures[tex].Source == nil {
		return diffuse, nil, fmt.Errorf("texture %d has no image source", tex)
	}
	data, err := c.image(*c.doc.Textures[tex].Source)
	if err != nil {
		return diffuse, nil, err
	}
	if format, ok := loaders.IsSupportedImage(data); !ok {
		return diffuse, nil, fmt.Errorf("texture %d: unsupported image format `%s`", tex, format)
	}
	return diffuse, data, nil
}

func (c *converter) image(index int) ([]byte, error) {
	if data, ok := c.images[index]; ok {
		return data, nil
	}
	if index < 0 || index >= len(c.doc.Images) {
		return nil, fmt.Errorf("image %d out of range", index)
	}
	img := c.doc.Images[index]

	var (
		data []byte
		err  error
	)
	switch {
	case img.BufferView != nil:
		data, err = c.bufferView(*img.BufferView)
	case img.IsEmbeddedResource():
		data, err = img.MarshalData()
	case img.URI != "":
		var name string
		if name, err = url.PathUnescape(img.URI); err == nil {
			data, err = os.ReadFile(filepath.Join(c.dir, filepath.FromSlash(name)))
		}
	default:
		err = fmt.Errorf("image %d has neither a buffer view nor a URI", index)
	}
	if err != nil {
		return nil, err
	}
	c.images[index] = data
	return data, nil
}

func (c *converter) bufferView(index int) ([]byte, error) {
	if index < 0 || index >= len(c.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", index)
	}
	bv := c.doc.BufferViews[index]
	if bv.Buffer < 0 || bv.Buffer >= len(c.doc.Buffers) {
		return nil, fmt.Errorf("buffer view %d: buffer %d out of range", index, bv.Buffer)
	}
	buf := c.doc.Buffers[bv.Buffer].Data
	end := bv.ByteOffset + bv.ByteLength
	if bv.ByteOffset < 0 || end > len(buf) {
		return nil, fmt.Errorf("buffer view %d: range %d..%d exceeds buffer of %d bytes", index, bv.ByteOffset, end, len(buf))
	}
	out := make([]byte, bv.ByteLength)
	copy(out, buf[bv.ByteOffset:end])
	return out, nil
}

// convertFile loads a .gltf or .glb file and writes the MESH container to out.
func convertFile(in, out string, skipTextures bool) (int, error) {
	doc, err := gltf.Open(in)
	if err != nil {
		return 0, err
	}
	meshes, err := newConverter(doc, filepath.Dir(in), skipTextures).convert()
	if err != nil {
		return 0, err
	}
	if len(meshes) == 0 {
		return 0, fmt.Errorf("%s contains no triangle meshes", in)
	}

	f, err := os.Create(out)
	if err != nil {
		return 0, err
	}
	if err := loaders.EncodeMeshes(f, meshes); err != nil {
		f.Close()
		return 0, err
	}
	return len(meshes), f.Close()
}

func defaultOutput(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".mesh"
}
