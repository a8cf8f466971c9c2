package metadata

import "github.com/spaghettifunk/pica/engine/math"

/**
 * @brief The light response of a surface. Components are passed through
 * to the shader untouched.
 */
type Material struct {
	Ambient  math.Vec4
	Diffuse  math.Vec4
	Specular math.Vec4
	Emission math.Vec4
}

// DefaultMaterial returns a dim grey material with a white emission alpha.
func DefaultMaterial() Material {
	return Material{
		Ambient:  math.NewVec4(0.2, 0.2, 0.2, 0.0),
		Diffuse:  math.NewVec4(0.4, 0.4, 0.4, 0.0),
		Specular: math.NewVec4(0.8, 0.8, 0.8, 0.0),
		Emission: math.NewVec4(0.0, 0.0, 0.0, 1.0),
	}
}

// NewMaterialFromDiffuse returns the default material with its diffuse term replaced.
func NewMaterialFromDiffuse(diffuse math.Vec4) Material {
	m := DefaultMaterial()
	m.Diffuse = diffuse
	return m
}

// Vectors returns ambient, diffuse, specular and emission, in that order.
func (m Material) Vectors() [4]math.Vec4 {
	return [4]math.Vec4{m.Ambient, m.Diffuse, m.Specular, m.Emission}
}
