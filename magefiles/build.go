//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

var shaderStages = map[string]string{
	"shaders/shader.vert": "shaders/vert.spv",
	"shaders/shader.frag": "shaders/frag.spv",
}

// Compiles the GLSL stages to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Builds the testbed and the glTF converter into bin/.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/pica", "."), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/gltf2mesh", "./cmd/gltf2mesh"), withStream()); err != nil {
		return err
	}
	return nil
}

func buildShaders() error {
	for src, out := range shaderStages {
		if _, err := executeCmd("glslc", withArgs(src, "-o", out), withStream()); err != nil {
			return fmt.Errorf("compiling %s: %w", src, err)
		}
	}
	return nil
}
