package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle() []metadata.Vertex {
	n := math.NewVec3(0, 0, 1)
	return []metadata.Vertex{
		metadata.NewVertex(math.NewVec3(-0.5, -0.5, 0), math.NewVec2(0, 0), n),
		metadata.NewVertex(math.NewVec3(0.5, -0.5, 0), math.NewVec2(1, 0), n),
		metadata.NewVertex(math.NewVec3(0, 0.5, 0), math.NewVec2(0.5, 1), n),
	}
}

func encode(t *testing.T, meshes []MeshData) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, EncodeMeshes(&buf, meshes))
	return buf.Bytes()
}

func TestMeshContainerLayout(t *testing.T) {
	tex := WhiteTexture()
	data := encode(t, []MeshData{{
		Material: metadata.NewMaterialFromDiffuse(math.NewVec4(1, 0.5, 0.25, 1)),
		Vertices: triangle(),
		Indices:  []uint16{0, 1, 2},
		Texture:  tex,
	}})

	// magic + count + diffuse + nverts + verts + nidx + idx + texsize + tex
	assert.Len(t, data, 4+4+16+4+3*32+4+3*2+4+len(tex))
	assert.Equal(t, []byte("MESH"), data[:4])
	assert.Equal(t, []byte{1, 0, 0, 0}, data[4:8])

	meshes, err := DecodeMeshes(data)
	require.NoError(t, err)
	require.Len(t, meshes, 1)
	m := meshes[0]
	assert.Equal(t, triangle(), m.Vertices)
	assert.Equal(t, []uint16{0, 1, 2}, m.Indices)
	assert.Equal(t, tex, m.Texture)
	assert.Equal(t, math.NewVec4(1, 0.5, 0.25, 1), m.Material.Diffuse)
	assert.Equal(t, metadata.DefaultMaterial().Ambient, m.Material.Ambient)
	assert.Equal(t, metadata.DefaultMaterial().Emission, m.Material.Emission)
}

func TestDecodeMeshesUntexturedAndUnindexed(t *testing.T) {
	data := encode(t, []MeshData{
		{Material: metadata.DefaultMaterial(), Vertices: triangle()},
		{Material: metadata.DefaultMaterial(), Vertices: triangle()[:1]},
	})
	meshes, err := DecodeMeshes(data)
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	assert.Nil(t, meshes[0].Texture)
	assert.Nil(t, meshes[0].Indices)
	assert.Len(t, meshes[1].Vertices, 1)
}

func TestDecodeMeshesRejectsBadInput(t *testing.T) {
	good := encode(t, []MeshData{{Material: metadata.DefaultMaterial(), Vertices: triangle(), Indices: []uint16{0, 1, 2}}})

	_, err := DecodeMeshes([]byte("MES"))
	assert.ErrorIs(t, err, core.ErrTruncatedMesh)

	bad := append([]byte("HSEM"), good[4:]...)
	_, err = DecodeMeshes(bad)
	assert.ErrorIs(t, err, core.ErrBadMeshMagic)

	for _, cut := range []int{6, 20, 40, len(good) - 3} {
		_, err = DecodeMeshes(good[:cut])
		assert.ErrorIs(t, err, core.ErrTruncatedMesh, "cut at %d", cut)
	}

	outOfRange := encode(t, []MeshData{{Material: metadata.DefaultMaterial(), Vertices: triangle(), Indices: []uint16{0, 1, 3}}})
	_, err = DecodeMeshes(outOfRange)
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)

	empty := encode(t, []MeshData{{Material: metadata.DefaultMaterial()}})
	_, err = DecodeMeshes(empty)
	assert.ErrorIs(t, err, core.ErrEmptyVertices)

	// huge counts must not allocate before the length check
	huge := append([]byte{}, good[:24]...)
	huge = append(huge, 0xFF, 0xFF, 0xFF, 0x7F)
	_, err = DecodeMeshes(huge)
	assert.ErrorIs(t, err, core.ErrTruncatedMesh)
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	img.Set(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	data := pngBytes(t, img)

	decoded, err := DecodeImage(data, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), decoded.Width)
	assert.Equal(t, uint32(2), decoded.Height)
	assert.Equal(t, uint8(4), decoded.ChannelCount)
	assert.Equal(t, "png", decoded.Format)
	assert.False(t, decoded.HasTransparency)
	assert.Equal(t, []uint8{255, 0, 0, 255}, decoded.Pixels[0:4])

	flipped, err := DecodeImage(data, true)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 255, 255}, flipped.Pixels[0:4])
}

func TestDecodeImageTransparency(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 10, A: 0})
	decoded, err := DecodeImage(pngBytes(t, img), false)
	require.NoError(t, err)
	assert.True(t, decoded.HasTransparency)
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := DecodeImage(nil, false)
	assert.Error(t, err)
	_, err = DecodeImage([]byte("definitely not an image"), false)
	assert.Error(t, err)

	// valid PNG magic, broken body
	data := WhiteTexture()
	_, err = DecodeImage(data[:20], false)
	assert.Error(t, err)
}

func TestWhiteTexture(t *testing.T) {
	decoded, err := DecodeImage(WhiteTexture(), false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), decoded.Width)
	assert.Equal(t, []uint8{255, 255, 255, 255}, decoded.Pixels)
}

func TestCheckerTexture(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	data, err := CheckerTexture(4, 2, red, blue)
	require.NoError(t, err)

	decoded, err := DecodeImage(data, false)
	require.NoError(t, err)
	require.Equal(t, uint32(4), decoded.Width)
	pixel := func(x, y int) []uint8 {
		i := (y*4 + x) * 4
		return decoded.Pixels[i : i+4]
	}
	assert.Equal(t, []uint8{255, 0, 0, 255}, pixel(0, 0))
	assert.Equal(t, []uint8{255, 0, 0, 255}, pixel(1, 1))
	assert.Equal(t, []uint8{0, 0, 255, 255}, pixel(2, 0))
	assert.Equal(t, []uint8{255, 0, 0, 255}, pixel(3, 3))

	_, err = CheckerTexture(4, 0, red, blue)
	assert.Error(t, err)
	_, err = CheckerTexture(2, 4, red, blue)
	assert.Error(t, err)
}

func TestLoadersFromDisk(t *testing.T) {
	dir := t.TempDir()

	meshPath := filepath.Join(dir, "tri.mesh")
	require.NoError(t, os.WriteFile(meshPath, encode(t, []MeshData{{Material: metadata.DefaultMaterial(), Vertices: triangle()}}), 0o644))
	res, err := (&ModelLoader{}).Load(meshPath, metadata.ResourceTypeMesh, nil)
	require.NoError(t, err)
	assert.Len(t, res.Data.([]MeshData), 1)
	assert.Equal(t, "tri.mesh", res.Name)

	texPath := filepath.Join(dir, "white.png")
	require.NoError(t, os.WriteFile(texPath, WhiteTexture(), 0o644))
	res, err = (&TextureLoader{}).Load(texPath, metadata.ResourceTypeImage, nil)
	require.NoError(t, err)
	assert.Equal(t, WhiteTexture(), res.Data.([]byte))

	badTex := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(badTex, []byte("nope"), 0o644))
	_, err = (&TextureLoader{}).Load(badTex, metadata.ResourceTypeImage, nil)
	assert.Error(t, err)

	vertPath := filepath.Join(dir, "shader.vert.spv")
	require.NoError(t, os.WriteFile(vertPath, []byte{0x03, 0x02, 0x23, 0x07}, 0o644))
	res, err = (&ShaderLoader{}).Load(vertPath, metadata.ResourceTypeShader, nil)
	require.NoError(t, err)
	src := res.Data.(metadata.ShaderSource)
	assert.Equal(t, metadata.ShaderStageVertex, src.Stage)
	assert.Len(t, src.Code, 4)

	res, err = (&ShaderLoader{}).Load(vertPath, metadata.ResourceTypeShader, metadata.ShaderStageFragment)
	require.NoError(t, err)
	assert.Equal(t, metadata.ShaderStageFragment, res.Data.(metadata.ShaderSource).Stage)

	oddPath := filepath.Join(dir, "blob.spv")
	require.NoError(t, os.WriteFile(oddPath, []byte{1, 2, 3, 4}, 0o644))
	_, err = (&ShaderLoader{}).Load(oddPath, metadata.ResourceTypeShader, nil)
	assert.Error(t, err)
}
