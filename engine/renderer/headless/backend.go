package headless

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/pica/engine/assets/loaders"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

type CallKind string

const (
	CallLoadProgram        CallKind = "LoadProgram"
	CallSetAttributeLayout CallKind = "SetAttributeLayout"
	CallSetTextureCombiner CallKind = "SetTextureCombiner"
	CallDestroyProgram     CallKind = "DestroyProgram"
	CallAllocVertexBuffer  CallKind = "AllocVertexBuffer"
	CallAllocIndexBuffer   CallKind = "AllocIndexBuffer"
	CallFreeBuffer         CallKind = "FreeBuffer"
	CallImportTexture      CallKind = "ImportTexture"
	CallSetTextureFilter   CallKind = "SetTextureFilter"
	CallFreeTexture        CallKind = "FreeTexture"
	CallBeginFrame         CallKind = "BeginFrame"
	CallBindProgram        CallKind = "BindProgram"
	CallSetUniformMat4     CallKind = "SetUniformMat4"
	CallSetUniformVec4     CallKind = "SetUniformVec4"
	CallBindTexture        CallKind = "BindTexture"
	CallBindVertexBuffer   CallKind = "BindVertexBuffer"
	CallBindIndexBuffer    CallKind = "BindIndexBuffer"
	CallDrawArrays         CallKind = "DrawArrays"
	CallDrawElements       CallKind = "DrawElements"
	CallEndFrame           CallKind = "EndFrame"
	CallResized            CallKind = "Resized"
)

// Call is one recorded backend invocation. Only the fields relevant to Kind are set.
type Call struct {
	Kind     CallKind
	Location metadata.UniformLocation
	Mat4     math.Mat4
	Vec4     math.Vec4
	Unit     uint32
	Program  metadata.ProgramID
	Buffer   metadata.BufferID
	Texture  metadata.TextureID
	First    uint32
	Count    uint32
}

// Draw is the state captured at each draw call.
type Draw struct {
	Indexed      bool
	Program      metadata.ProgramID
	VertexBuffer metadata.BufferID
	IndexBuffer  metadata.BufferID
	Texture      metadata.TextureID
	First        uint32
	Count        uint32
	Projection   math.Mat4
	ModelView    math.Mat4
	Material     metadata.Material
	LightVec     math.Vec4
	LightHalfVec math.Vec4
	LightColor   math.Vec4
}

type buffer struct {
	label    string
	vertices []metadata.Vertex
	indices  []uint16
}

// TextureRecord is what the backend keeps of an imported texture; pixels are dropped after import.
type TextureRecord struct {
	Label   string
	Texture metadata.Texture
	Magnify metadata.TextureFilter
	Minify  metadata.TextureFilter
}

type program struct {
	label    string
	stages   []metadata.ShaderSource
	layout   metadata.VertexLayout
	combiner metadata.TextureCombiner
}

// Backend is a renderer backend that talks to no GPU. It validates and
// records every call, which makes it the test double for the renderer and
// the engine's headless mode.
type Backend struct {
	// Fail makes the named call return the given error instead of running.
	Fail map[CallKind]error

	calls []Call
	draws []Draw

	programs map[metadata.ProgramID]*program
	buffers  map[metadata.BufferID]*buffer
	textures map[metadata.TextureID]*TextureRecord
	nextID   uint32

	registers     [metadata.UniformRegisterCount]math.Vec4
	boundProgram  metadata.ProgramID
	boundTextures [4]metadata.TextureID
	boundVertex   metadata.BufferID
	boundLayout   metadata.VertexLayout
	boundIndex    metadata.BufferID

	inFrame bool
	frames  uint64
	width   uint32
	height  uint32

	isShutdown bool
}

func New(width, height uint32) *Backend {
	return &Backend{
		Fail:     make(map[CallKind]error),
		programs: make(map[metadata.ProgramID]*program),
		buffers:  make(map[metadata.BufferID]*buffer),
		textures: make(map[metadata.TextureID]*TextureRecord),
		width:    width,
		height:   height,
	}
}

func (b *Backend) record(c Call) error {
	b.calls = append(b.calls, c)
	if err, ok := b.Fail[c.Kind]; ok && err != nil {
		return err
	}
	return nil
}

func (b *Backend) newID() uint32 {
	b.nextID++
	return b.nextID
}

func newLabel(kind string) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewString())
}

// ------------------------------------------
// Programs
// ------------------------------------------

func (b *Backend) LoadProgram(stages []metadata.ShaderSource) (metadata.ProgramID, error) {
	if err := b.record(Call{Kind: CallLoadProgram}); err != nil {
		return 0, err
	}
	p := &program{label: newLabel("program"), stages: stages}
	id := metadata.ProgramID(b.newID())
	b.programs[id] = p
	core.LogDebug("headless: loaded program %s with %d stages", p.label, len(stages))
	return id, nil
}

func (b *Backend) UniformLocation(programID metadata.ProgramID, name string) (metadata.UniformLocation, error) {
	if _, ok := b.programs[programID]; !ok {
		return metadata.InvalidUniformLocation, fmt.Errorf("unknown program %d", programID)
	}
	loc, ok := metadata.UniformRegisters[name]
	if !ok {
		return metadata.InvalidUniformLocation, fmt.Errorf("%w: %s", core.ErrUniformNotFound, name)
	}
	return loc, nil
}

func (b *Backend) SetAttributeLayout(programID metadata.ProgramID, layout metadata.VertexLayout) error {
	if err := b.record(Call{Kind: CallSetAttributeLayout, Program: programID}); err != nil {
		return err
	}
	p, ok := b.programs[programID]
	if !ok {
		return fmt.Errorf("unknown program %d", programID)
	}
	p.layout = layout
	return nil
}

func (b *Backend) SetTextureCombiner(programID metadata.ProgramID, combiner metadata.TextureCombiner) error {
	if err := b.record(Call{Kind: CallSetTextureCombiner, Program: programID}); err != nil {
		return err
	}
	p, ok := b.programs[programID]
	if !ok {
		return fmt.Errorf("unknown program %d", programID)
	}
	p.combiner = combiner
	return nil
}

func (b *Backend) DestroyProgram(programID metadata.ProgramID) {
	_ = b.record(Call{Kind: CallDestroyProgram, Program: programID})
	if _, ok := b.programs[programID]; !ok {
		core.LogWarn("headless: destroying unknown program %d", programID)
		return
	}
	delete(b.programs, programID)
}

// ------------------------------------------
// Resources
// ------------------------------------------

func (b *Backend) AllocVertexBuffer(vertices []metadata.Vertex) (metadata.BufferID, error) {
	if err := b.record(Call{Kind: CallAllocVertexBuffer, Count: uint32(len(vertices))}); err != nil {
		return 0, err
	}
	id := metadata.BufferID(b.newID())
	b.buffers[id] = &buffer{
		label:    newLabel("vbo"),
		vertices: append([]metadata.Vertex(nil), vertices...),
	}
	return id, nil
}

func (b *Backend) AllocIndexBuffer(indices []uint16) (metadata.BufferID, error) {
	if err := b.record(Call{Kind: CallAllocIndexBuffer, Count: uint32(len(indices))}); err != nil {
		return 0, err
	}
	id := metadata.BufferID(b.newID())
	b.buffers[id] = &buffer{
		label:   newLabel("ibo"),
		indices: append([]uint16(nil), indices...),
	}
	return id, nil
}

func (b *Backend) FreeBuffer(id metadata.BufferID) {
	_ = b.record(Call{Kind: CallFreeBuffer, Buffer: id})
	if _, ok := b.buffers[id]; !ok {
		core.LogWarn("headless: freeing unknown buffer %d", id)
		return
	}
	delete(b.buffers, id)
}

func (b *Backend) ImportTexture(data []byte) (metadata.Texture, error) {
	if err := b.record(Call{Kind: CallImportTexture}); err != nil {
		return metadata.Texture{}, err
	}
	img, err := loaders.DecodeImage(data, false)
	if err != nil {
		return metadata.Texture{}, err
	}

	id := metadata.TextureID(b.newID())
	tex := metadata.Texture{
		ID:           id,
		Width:        img.Width,
		Height:       img.Height,
		ChannelCount: img.ChannelCount,
		Name:         newLabel("texture"),
	}
	if img.HasTransparency {
		tex.Flags |= metadata.TextureFlagHasTransparency
	}
	b.textures[id] = &TextureRecord{Label: tex.Name, Texture: tex}
	return tex, nil
}

func (b *Backend) SetTextureFilter(id metadata.TextureID, magnify, minify metadata.TextureFilter) error {
	if err := b.record(Call{Kind: CallSetTextureFilter, Texture: id}); err != nil {
		return err
	}
	t, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("unknown texture %d", id)
	}
	t.Magnify = magnify
	t.Minify = minify
	return nil
}

func (b *Backend) FreeTexture(id metadata.TextureID) {
	_ = b.record(Call{Kind: CallFreeTexture, Texture: id})
	if _, ok := b.textures[id]; !ok {
		core.LogWarn("headless: freeing unknown texture %d", id)
		return
	}
	delete(b.textures, id)
}

// ------------------------------------------
// Drawing
// ------------------------------------------

func (b *Backend) BeginFrame() error {
	if err := b.record(Call{Kind: CallBeginFrame}); err != nil {
		return err
	}
	if b.inFrame {
		return fmt.Errorf("BeginFrame called twice")
	}
	b.inFrame = true
	return nil
}

func (b *Backend) BindProgram(programID metadata.ProgramID) error {
	if err := b.record(Call{Kind: CallBindProgram, Program: programID}); err != nil {
		return err
	}
	if _, ok := b.programs[programID]; !ok {
		return fmt.Errorf("unknown program %d", programID)
	}
	b.boundProgram = programID
	return nil
}

func (b *Backend) SetUniformMat4(location metadata.UniformLocation, value math.Mat4) {
	_ = b.record(Call{Kind: CallSetUniformMat4, Location: location, Mat4: value})
	for i := 0; i < 4; i++ {
		b.setRegister(location+metadata.UniformLocation(i), value.Column(i))
	}
}

func (b *Backend) SetUniformVec4(location metadata.UniformLocation, value math.Vec4) {
	_ = b.record(Call{Kind: CallSetUniformVec4, Location: location, Vec4: value})
	b.setRegister(location, value)
}

func (b *Backend) setRegister(location metadata.UniformLocation, value math.Vec4) {
	if location < 0 || int(location) >= len(b.registers) {
		core.LogWarn("headless: uniform register %d out of range", location)
		return
	}
	b.registers[location] = value
}

func (b *Backend) BindTexture(unit uint32, id metadata.TextureID) {
	_ = b.record(Call{Kind: CallBindTexture, Unit: unit, Texture: id})
	if int(unit) < len(b.boundTextures) {
		b.boundTextures[unit] = id
	}
}

func (b *Backend) BindVertexBuffer(id metadata.BufferID, layout metadata.VertexLayout) {
	_ = b.record(Call{Kind: CallBindVertexBuffer, Buffer: id})
	b.boundVertex = id
	b.boundLayout = layout
}

func (b *Backend) BindIndexBuffer(id metadata.BufferID) {
	_ = b.record(Call{Kind: CallBindIndexBuffer, Buffer: id})
	b.boundIndex = id
}

func (b *Backend) DrawArrays(first, count uint32) error {
	if err := b.record(Call{Kind: CallDrawArrays, First: first, Count: count}); err != nil {
		return err
	}
	vbo, err := b.checkDraw()
	if err != nil {
		return err
	}
	if uint64(first)+uint64(count) > uint64(len(vbo.vertices)) {
		return fmt.Errorf("draw range [%d, %d) exceeds %d vertices", first, first+count, len(vbo.vertices))
	}
	b.draws = append(b.draws, b.snapshot(false, first, count))
	return nil
}

func (b *Backend) DrawElements(count uint32) error {
	if err := b.record(Call{Kind: CallDrawElements, Count: count}); err != nil {
		return err
	}
	if _, err := b.checkDraw(); err != nil {
		return err
	}
	ibo, ok := b.buffers[b.boundIndex]
	if !ok || ibo.indices == nil {
		return fmt.Errorf("no index buffer bound")
	}
	if int(count) > len(ibo.indices) {
		return fmt.Errorf("draw of %d indices exceeds %d", count, len(ibo.indices))
	}
	b.draws = append(b.draws, b.snapshot(true, 0, count))
	return nil
}

func (b *Backend) checkDraw() (*buffer, error) {
	if !b.inFrame {
		return nil, fmt.Errorf("draw outside of a frame")
	}
	vbo, ok := b.buffers[b.boundVertex]
	if !ok || vbo.vertices == nil {
		return nil, fmt.Errorf("no vertex buffer bound")
	}
	if _, ok := b.textures[b.boundTextures[0]]; !ok {
		return nil, fmt.Errorf("no texture bound to unit 0")
	}
	return vbo, nil
}

func (b *Backend) snapshot(indexed bool, first, count uint32) Draw {
	reg := func(name string) math.Vec4 {
		return b.registers[metadata.UniformRegisters[name]]
	}
	mat := func(name string) math.Mat4 {
		base := metadata.UniformRegisters[name]
		m := math.Mat4{}
		for i := 0; i < 4; i++ {
			c := b.registers[int(base)+i]
			copy(m.Data[i*4:], []float32{c.X, c.Y, c.Z, c.W})
		}
		return m
	}
	material := metadata.UniformRegisters[metadata.UniformMaterial]
	d := Draw{
		Indexed:      indexed,
		Program:      b.boundProgram,
		VertexBuffer: b.boundVertex,
		Texture:      b.boundTextures[0],
		First:        first,
		Count:        count,
		Projection:   mat(metadata.UniformProjection),
		ModelView:    mat(metadata.UniformModelView),
		Material: metadata.Material{
			Ambient:  b.registers[material],
			Diffuse:  b.registers[material+1],
			Specular: b.registers[material+2],
			Emission: b.registers[material+3],
		},
		LightVec:     reg(metadata.UniformLightVec),
		LightHalfVec: reg(metadata.UniformLightHalfVec),
		LightColor:   reg(metadata.UniformLightColor),
	}
	if indexed {
		d.IndexBuffer = b.boundIndex
	}
	return d
}

func (b *Backend) EndFrame() error {
	if err := b.record(Call{Kind: CallEndFrame}); err != nil {
		b.inFrame = false
		return err
	}
	if !b.inFrame {
		return fmt.Errorf("EndFrame without BeginFrame")
	}
	b.inFrame = false
	b.frames++
	return nil
}

func (b *Backend) Resized(width, height uint32) error {
	if err := b.record(Call{Kind: CallResized, First: width, Count: height}); err != nil {
		return err
	}
	b.width = width
	b.height = height
	return nil
}

func (b *Backend) Shutdown() error {
	if b.isShutdown {
		return nil
	}
	b.isShutdown = true
	if n := len(b.buffers) + len(b.textures) + len(b.programs); n > 0 {
		core.LogWarn("headless: shutting down with %d live resources", n)
	}
	core.LogInfo("headless backend rendered %d frames, %d draws", b.frames, len(b.draws))
	return nil
}

// ------------------------------------------
// Inspection
// ------------------------------------------

// Calls returns every recorded call in order.
func (b *Backend) Calls() []Call {
	return b.calls
}

// CallsOf returns the recorded calls of one kind, in order.
func (b *Backend) CallsOf(kind CallKind) []Call {
	var out []Call
	for _, c := range b.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Draws returns the state captured at every successful draw.
func (b *Backend) Draws() []Draw {
	return b.draws
}

func (b *Backend) Frames() uint64 {
	return b.frames
}

// Reset forgets recorded calls and draws but keeps resources.
func (b *Backend) Reset() {
	b.calls = nil
	b.draws = nil
}

func (b *Backend) BufferVertices(id metadata.BufferID) ([]metadata.Vertex, bool) {
	buf, ok := b.buffers[id]
	if !ok {
		return nil, false
	}
	return buf.vertices, true
}

func (b *Backend) BufferIndices(id metadata.BufferID) ([]uint16, bool) {
	buf, ok := b.buffers[id]
	if !ok {
		return nil, false
	}
	return buf.indices, true
}

func (b *Backend) TextureInfo(id metadata.TextureID) (TextureRecord, bool) {
	t, ok := b.textures[id]
	if !ok {
		return TextureRecord{}, false
	}
	return *t, true
}

// LiveResources returns the number of buffers, textures and programs not yet freed.
func (b *Backend) LiveResources() (buffers, textures, programs int) {
	return len(b.buffers), len(b.textures), len(b.programs)
}

func (b *Backend) Size() (uint32, uint32) {
	return b.width, b.height
}
