// Command gltf2mesh converts glTF 2.0 scenes into MESH files the engine loads
// from its assets directory.
package main

import (
	"os"

	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var (
		output       string
		skipTextures bool
		logLevel     string
	)
	cmd := &cobra.Command{
		Use:          "gltf2mesh <input.gltf|input.glb>",
		Short:        "Convert a glTF 2.0 file to a MESH container",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := core.ParseLogLevel(logLevel)
			if err != nil {
				return err
			}
			core.SetLogLevel(level)

			in := args[0]
			if output == "" {
				output = defaultOutput(in)
			}
			n, err := convertFile(in, output, skipTextures)
			if err != nil {
				core.LogError("failed to convert %s: %s", in, err)
				return err
			}
			core.LogInfo("wrote %d meshes to %s", n, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: input with a .mesh extension)")
	cmd.Flags().BoolVar(&skipTextures, "skip-textures", false, "do not embed base colour textures")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, error or fatal")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
