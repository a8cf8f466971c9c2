package core

import (
	"errors"
)

var (
	// registration preconditions
	ErrEmptyVertices   = errors.New("mesh has no vertices")
	ErrEmptyIndices    = errors.New("indexed mesh has no indices")
	ErrIndexOutOfRange = errors.New("index references a vertex out of range")
	ErrEmptyTexture    = errors.New("texture data is empty")

	// submission
	ErrInvalidHandle = errors.New("invalid mesh handle")

	// backend resources
	ErrTextureImport    = errors.New("failed to import texture")
	ErrBackendAlloc     = errors.New("backend allocation failed")
	ErrUniformNotFound  = errors.New("uniform not found in program")
	ErrProgramLoad      = errors.New("failed to load shader program")
	ErrRendererShutdown = errors.New("renderer already shut down")

	// assets
	ErrBadMeshMagic  = errors.New("not a MESH file")
	ErrTruncatedMesh = errors.New("truncated MESH data")

	ErrSwapchainBooting = errors.New("swapchain resized or recreated, booting")
	ErrUnknown          = errors.New("unknown")
)
