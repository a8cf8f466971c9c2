package vulkan

import (
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"

	"github.com/google/uuid"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/math"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

var errNotInFrame = errors.New("draw outside of a frame")

func (vr *Backend) newID() uint32 {
	vr.nextID++
	return vr.nextID
}

// ------------------------------------------
// Programs
// ------------------------------------------

// LoadProgram creates the shader modules. The pipeline itself is built once
// the attribute layout is known.
func (vr *Backend) LoadProgram(stages []metadata.ShaderSource) (metadata.ProgramID, error) {
	var hasVertex, hasFragment bool
	for _, s := range stages {
		hasVertex = hasVertex || s.Stage == metadata.ShaderStageVertex
		hasFragment = hasFragment || s.Stage == metadata.ShaderStageFragment
	}
	if !hasVertex || !hasFragment {
		return 0, fmt.Errorf("program needs a vertex and a fragment stage, got %d stages", len(stages))
	}

	p := &vulkanProgram{}
	for _, source := range stages {
		stage, err := NewShaderStage(vr.context, source)
		if err != nil {
			for _, s := range p.stages {
				s.Destroy(vr.context)
			}
			return 0, err
		}
		p.stages = append(p.stages, stage)
	}
	id := metadata.ProgramID(vr.newID())
	vr.programs[id] = p
	core.LogDebug("Vulkan program %d loaded with %d stages.", id, len(p.stages))
	return id, nil
}

func (vr *Backend) UniformLocation(program metadata.ProgramID, name string) (metadata.UniformLocation, error) {
	if _, ok := vr.programs[program]; !ok {
		return metadata.InvalidUniformLocation, fmt.Errorf("unknown program %d", program)
	}
	loc, ok := metadata.UniformRegisters[name]
	if !ok {
		return metadata.InvalidUniformLocation, fmt.Errorf("%w: %s", core.ErrUniformNotFound, name)
	}
	return loc, nil
}

func (vr *Backend) SetAttributeLayout(program metadata.ProgramID, layout metadata.VertexLayout) error {
	p, ok := vr.programs[program]
	if !ok {
		return fmt.Errorf("unknown program %d", program)
	}
	if layout.Stride == 0 || len(layout.Attributes) == 0 {
		return fmt.Errorf("empty vertex layout")
	}

	stages := make([]vk.PipelineShaderStageCreateInfo, len(p.stages))
	for i, s := range p.stages {
		stages[i] = s.ShaderStageCreateInfo
	}

	config := &VulkanPipelineConfig{
		Renderpass:           vr.context.MainRenderpass,
		Stride:               layout.Stride,
		Attributes:           VertexInputAttributes(layout),
		DescriptorSetLayouts: vr.descriptors.Layouts(),
		Stages:               stages,
		Viewport: vk.Viewport{
			Width:    float32(vr.context.FramebufferWidth),
			Height:   float32(vr.context.FramebufferHeight),
			MinDepth: 0.0,
			MaxDepth: 1.0,
		},
		Scissor: vk.Rect2D{
			Extent: vk.Extent2D{
				Width:  vr.context.FramebufferWidth,
				Height: vr.context.FramebufferHeight,
			},
		},
	}
	pipeline, err := NewGraphicsPipeline(vr.context, config)
	if err != nil {
		return err
	}
	if p.pipeline != nil {
		vr.waitIdle()
		p.pipeline.Destroy(vr.context)
	}
	p.pipeline = pipeline
	p.layout = layout
	return nil
}

// SetTextureCombiner only accepts the modulate combiner, which is what the fragment stage implements.
func (vr *Backend) SetTextureCombiner(program metadata.ProgramID, combiner metadata.TextureCombiner) error {
	p, ok := vr.programs[program]
	if !ok {
		return fmt.Errorf("unknown program %d", program)
	}
	if combiner != metadata.ModulateTextureCombiner() {
		return fmt.Errorf("unsupported texture combiner %+v", combiner)
	}
	p.combiner = combiner
	return nil
}

func (vr *Backend) DestroyProgram(program metadata.ProgramID) {
	if _, ok := vr.programs[program]; !ok {
		core.LogWarn("Destroying unknown program %d.", program)
		return
	}
	vr.waitIdle()
	vr.destroyProgram(program)
}

func (vr *Backend) destroyProgram(program metadata.ProgramID) {
	p := vr.programs[program]
	if p.pipeline != nil {
		p.pipeline.Destroy(vr.context)
	}
	for _, s := range p.stages {
		s.Destroy(vr.context)
	}
	delete(vr.programs, program)
}

// ------------------------------------------
// Resources
// ------------------------------------------

func (vr *Backend) allocBuffer(kind vulkanBufferKind, data []byte, count, elementSize uint32) (metadata.BufferID, error) {
	usage := vk.BufferUsageVertexBufferBit
	if kind == vulkanBufferKindIndex {
		usage = vk.BufferUsageIndexBufferBit
	}
	buffer, err := BufferCreate(vr.context, uint64(len(data)), usage, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrBackendAlloc, err)
	}
	if err := buffer.LoadData(vr.context, 0, data); err != nil {
		buffer.Destroy(vr.context)
		return 0, fmt.Errorf("%w: %w", core.ErrBackendAlloc, err)
	}
	id := metadata.BufferID(vr.newID())
	vr.buffers[id] = &vulkanGeometryData{
		Kind:        kind,
		Buffer:      buffer,
		Count:       count,
		ElementSize: elementSize,
	}
	return id, nil
}

func (vr *Backend) AllocVertexBuffer(vertices []metadata.Vertex) (metadata.BufferID, error) {
	if len(vertices) == 0 {
		return 0, fmt.Errorf("%w: %w", core.ErrBackendAlloc, core.ErrEmptyVertices)
	}
	return vr.allocBuffer(vulkanBufferKindVertex, metadata.VertexBytes(vertices), uint32(len(vertices)), metadata.VertexStride)
}

func (vr *Backend) AllocIndexBuffer(indices []uint16) (metadata.BufferID, error) {
	if len(indices) == 0 {
		return 0, fmt.Errorf("%w: %w", core.ErrBackendAlloc, core.ErrEmptyIndices)
	}
	return vr.allocBuffer(vulkanBufferKindIndex, metadata.IndexBytes(indices), uint32(len(indices)), 2)
}

func (vr *Backend) FreeBuffer(buffer metadata.BufferID) {
	b, ok := vr.buffers[buffer]
	if !ok {
		core.LogWarn("Freeing unknown buffer %d.", buffer)
		return
	}
	vr.waitIdle()
	b.Buffer.Destroy(vr.context)
	delete(vr.buffers, buffer)
}

func (vr *Backend) ImportTexture(data []byte) (metadata.Texture, error) {
	if uint32(len(vr.textures)) >= VULKAN_MAX_TEXTURE_COUNT {
		return metadata.Texture{}, fmt.Errorf("texture limit of %d reached", VULKAN_MAX_TEXTURE_COUNT)
	}
	texture, img, err := TextureCreate(vr.context, vr.descriptors, data)
	if err != nil {
		return metadata.Texture{}, err
	}
	id := metadata.TextureID(vr.newID())
	vr.textures[id] = texture

	out := metadata.Texture{
		ID:           id,
		Width:        img.Width,
		Height:       img.Height,
		ChannelCount: img.ChannelCount,
		Name:         fmt.Sprintf("texture-%s", uuid.NewString()),
	}
	if img.HasTransparency {
		out.Flags |= metadata.TextureFlagHasTransparency
	}
	core.LogDebug("Vulkan texture %s imported (%dx%d %s).", out.Name, out.Width, out.Height, img.Format)
	return out, nil
}

func (vr *Backend) SetTextureFilter(texture metadata.TextureID, magnify, minify metadata.TextureFilter) error {
	t, ok := vr.textures[texture]
	if !ok {
		return fmt.Errorf("unknown texture %d", texture)
	}
	// The old sampler may still be referenced by frames in flight.
	vr.waitIdle()
	return t.SetFilter(vr.context, vr.descriptors, magnify, minify)
}

func (vr *Backend) FreeTexture(texture metadata.TextureID) {
	t, ok := vr.textures[texture]
	if !ok {
		core.LogWarn("Freeing unknown texture %d.", texture)
		return
	}
	vr.waitIdle()
	t.Destroy(vr.context, vr.descriptors)
	delete(vr.textures, texture)
}

// ------------------------------------------
// Drawing
// ------------------------------------------

func (vr *Backend) BindProgram(program metadata.ProgramID) error {
	if _, ok := vr.programs[program]; !ok {
		return fmt.Errorf("unknown program %d", program)
	}
	vr.boundProgram = program
	return nil
}

func (vr *Backend) SetUniformMat4(location metadata.UniformLocation, value math.Mat4) {
	for i := 0; i < 4; i++ {
		vr.setRegister(location+metadata.UniformLocation(i), value.Column(i))
	}
}

func (vr *Backend) SetUniformVec4(location metadata.UniformLocation, value math.Vec4) {
	vr.setRegister(location, value)
}

func (vr *Backend) setRegister(location metadata.UniformLocation, value math.Vec4) {
	if location < 0 || int(location) >= len(vr.registers) {
		core.LogWarn("Uniform register %d out of range.", location)
		return
	}
	vr.registers[location] = value
}

// Only unit 0 is sampled.
func (vr *Backend) BindTexture(unit uint32, texture metadata.TextureID) {
	if unit != 0 {
		core.LogWarn("Texture unit %d is not sampled, ignoring.", unit)
		return
	}
	vr.boundTexture = texture
}

func (vr *Backend) BindVertexBuffer(buffer metadata.BufferID, layout metadata.VertexLayout) {
	if p, ok := vr.programs[vr.boundProgram]; ok && p.layout.Stride != layout.Stride {
		core.LogWarn("Vertex buffer %d bound with stride %d, pipeline expects %d.", buffer, layout.Stride, p.layout.Stride)
	}
	vr.boundVertex = buffer
}

func (vr *Backend) BindIndexBuffer(buffer metadata.BufferID) {
	vr.boundIndex = buffer
}

func (vr *Backend) DrawArrays(first, count uint32) error {
	vbo, err := vr.prepareDraw()
	if err != nil {
		return err
	}
	if uint64(first)+uint64(count) > uint64(vbo.Count) {
		return fmt.Errorf("draw range [%d, %d) exceeds %d vertices", first, first+count, vbo.Count)
	}
	cmd := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]
	vk.CmdDraw(cmd.Handle, count, 1, first, 0)
	vr.drawIndex++
	return nil
}

func (vr *Backend) DrawElements(count uint32) error {
	ibo, ok := vr.buffers[vr.boundIndex]
	if !ok || ibo.Kind != vulkanBufferKindIndex {
		return fmt.Errorf("no index buffer bound")
	}
	if count > ibo.Count {
		return fmt.Errorf("draw of %d indices exceeds %d", count, ibo.Count)
	}
	if _, err := vr.prepareDraw(); err != nil {
		return err
	}
	cmd := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]
	vk.CmdBindIndexBuffer(cmd.Handle, ibo.Buffer.Handle, 0, ibo.indexType())
	vk.CmdDrawIndexed(cmd.Handle, count, 1, 0, 0, 0)
	vr.drawIndex++
	return nil
}

// prepareDraw validates the bound state, uploads the register file into the
// next uniform block and records the pipeline, descriptor and vertex bindings.
func (vr *Backend) prepareDraw() (*vulkanGeometryData, error) {
	if !vr.inFrame {
		return nil, errNotInFrame
	}
	if vr.drawIndex >= VULKAN_MAX_DRAWS_PER_FRAME {
		return nil, fmt.Errorf("more than %d draws in one frame", VULKAN_MAX_DRAWS_PER_FRAME)
	}
	p, ok := vr.programs[vr.boundProgram]
	if !ok || p.pipeline == nil {
		return nil, fmt.Errorf("no program with an attribute layout bound")
	}
	vbo, ok := vr.buffers[vr.boundVertex]
	if !ok || vbo.Kind != vulkanBufferKindVertex {
		return nil, fmt.Errorf("no vertex buffer bound")
	}
	texture, ok := vr.textures[vr.boundTexture]
	if !ok {
		return nil, fmt.Errorf("no texture bound to unit 0")
	}

	offset := uint64(vr.drawIndex) * vr.uniformBlockSize
	ubo := vr.uniformBuffers[vr.context.CurrentFrame]
	if err := ubo.LoadData(vr.context, offset, vr.registerBytes()); err != nil {
		return nil, err
	}

	cmd := vr.context.GraphicsCommandBuffers[vr.context.ImageIndex]
	p.pipeline.Bind(cmd, vk.PipelineBindPointGraphics)
	vk.CmdBindDescriptorSets(
		cmd.Handle,
		vk.PipelineBindPointGraphics,
		p.pipeline.PipelineLayout,
		VULKAN_DESCRIPTOR_SET_UNIFORMS,
		2,
		[]vk.DescriptorSet{vr.descriptors.UniformSets[vr.context.CurrentFrame], texture.DescriptorSet},
		1,
		[]uint32{uint32(offset)})
	vk.CmdBindVertexBuffers(cmd.Handle, 0, 1, []vk.Buffer{vbo.Buffer.Handle}, []vk.DeviceSize{0})
	return vbo, nil
}

func (vr *Backend) registerBytes() []byte {
	out := make([]byte, len(vr.registers)*int(VULKAN_UNIFORM_REGISTER_SIZE))
	for i, r := range vr.registers {
		for j, f := range r.Elements() {
			binary.LittleEndian.PutUint32(out[i*16+j*4:], gomath.Float32bits(f))
		}
	}
	return out
}
