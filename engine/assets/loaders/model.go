package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

// ModelLoader loads MESH containers. Resource.Data is a []MeshData.
type ModelLoader struct{}

func (ml *ModelLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	meshes, err := DecodeMeshes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &metadata.Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(data)),
		Data:     meshes,
	}, nil
}

func (ml *ModelLoader) Unload(*metadata.Resource) error {
	return nil
}
