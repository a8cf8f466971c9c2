//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Compiles the shaders and runs the testbed in a window.
func (Run) Engine() error {
	if err := buildShaders(); err != nil {
		return err
	}
	fmt.Println("Run engine...")
	_, err := executeCmd("go", withArgs("run", ".", "--config", configFile()), withStream())
	return err
}

// Runs the testbed against the recording backend for a fixed number of frames.
func (Run) Headless() error {
	fmt.Println("Run headless...")
	_, err := executeCmd("go", withArgs("run", ".", "--config", configFile(), "--headless", "--frames", "120"), withStream())
	return err
}

type Convert mg.Namespace

// Converts the glTF file in $GLTF to a MESH file in assets/ ($OUT overrides the destination).
func (Convert) Gltf() error {
	in := os.Getenv("GLTF")
	if in == "" {
		return fmt.Errorf("set GLTF to the file to convert")
	}
	out := os.Getenv("OUT")
	if out == "" {
		base := filepath.Base(in)
		out = filepath.Join("assets", strings.TrimSuffix(base, filepath.Ext(base))+".mesh")
	}
	_, err := executeCmd("go", withArgs("run", "./cmd/gltf2mesh", in, "-o", out), withStream())
	return err
}

// Runs every package test.
func Test() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

func configFile() string {
	if c := os.Getenv("PICA_CONFIG"); c != "" {
		return c
	}
	return "pica.toml"
}
