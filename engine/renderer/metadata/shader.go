package metadata

type ProgramID uint32

// UniformLocation is a vertex-stage uniform register. Matrices take four
// consecutive registers.
type UniformLocation int32

const InvalidUniformLocation UniformLocation = -1

const (
	UniformProjection   = "projection"
	UniformModelView    = "modelView"
	UniformLightVec     = "lightVec"
	UniformLightHalfVec = "lightHalfVec"
	UniformLightColor   = "lightClr"
	UniformMaterial     = "material"
)

// UniformNames lists every uniform the renderer looks up at startup.
var UniformNames = []string{
	UniformProjection,
	UniformModelView,
	UniformLightVec,
	UniformLightHalfVec,
	UniformLightColor,
	UniformMaterial,
}

// UniformRegisters is the vec4 register of every uniform in the vertex
// stage uniform block. A register is 16 bytes; matrices are stored as four
// column registers and the material as four consecutive vectors.
var UniformRegisters = map[string]UniformLocation{
	UniformProjection:   0,
	UniformModelView:    4,
	UniformLightVec:     8,
	UniformLightHalfVec: 9,
	UniformLightColor:   10,
	UniformMaterial:     11,
}

// UniformRegisterCount is the size of the vertex uniform block in registers.
const UniformRegisterCount = 15

type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	if s == ShaderStageFragment {
		return "fragment"
	}
	return "vertex"
}

// ShaderSource is a precompiled shader blob for one stage.
type ShaderSource struct {
	Stage ShaderStage
	Name  string
	Code  []byte
}
