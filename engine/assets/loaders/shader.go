package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

type ShaderLoader struct{}

// Load reads a SPIR-V binary. The stage comes from params (metadata.ShaderStage)
// or, failing that, from the file name (`vert` or `frag`).
func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%s: SPIR-V size %d is not a multiple of 4", path, len(data))
	}

	stage, ok := params.(metadata.ShaderStage)
	if !ok {
		stage, err = stageFromName(path)
		if err != nil {
			return nil, err
		}
	}

	name := filepath.Base(path)
	return &metadata.Resource{
		Name:     name,
		FullPath: path,
		DataSize: uint64(len(data)),
		Data: metadata.ShaderSource{
			Stage: stage,
			Name:  name,
			Code:  data,
		},
	}, nil
}

func (sl *ShaderLoader) Unload(*metadata.Resource) error {
	return nil
}

func stageFromName(path string) (metadata.ShaderStage, error) {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(base, "vert"):
		return metadata.ShaderStageVertex, nil
	case strings.Contains(base, "frag"):
		return metadata.ShaderStageFragment, nil
	}
	return 0, fmt.Errorf("cannot infer shader stage from `%s`", path)
}
