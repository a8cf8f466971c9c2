package math

// GenerateFlatNormals returns one normal per position, computed from the face
// each indexed triangle forms. Vertices shared between faces keep the normal
// of the last face that references them.
func GenerateFlatNormals(positions []Vec3, indices []uint32) []Vec3 {
	normals := make([]Vec3, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		i0 := indices[i+0]
		i1 := indices[i+1]
		i2 := indices[i+2]

		edge1 := positions[i1].Sub(positions[i0])
		edge2 := positions[i2].Sub(positions[i0])

		// NOTE: This just generates a face normal. Smoothing out should be done in a separate pass if desired.
		normal := edge1.Cross(edge2).Normalized()
		normals[i0] = normal
		normals[i1] = normal
		normals[i2] = normal
	}
	return normals
}
