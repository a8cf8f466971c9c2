/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/pica/engine"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/testbed"
	"github.com/spf13/cobra"
)

var (
	configPath string
	headless   bool
	frames     uint64
)

var rootCmd = &cobra.Command{
	Use:          "pica",
	Short:        "Spinning cube testbed for the pica renderer",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		config := engine.DefaultApplicationConfig()
		if configPath != "" {
			c, err := engine.LoadApplicationConfig(configPath)
			if err != nil {
				return err
			}
			config = c
		}
		if cmd.Flags().Changed("headless") {
			config.Headless = headless
		}
		if cmd.Flags().Changed("frames") {
			config.FrameLimit = frames
		}
		return run(config)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "render against the recording backend, without a window")
	rootCmd.Flags().Uint64Var(&frames, "frames", 0, "stop after this many frames (0 runs until quit)")
}

func run(config *engine.ApplicationConfig) error {
	tb := testbed.NewTestGame(config)

	e, err := engine.New(tb.Game)
	if err != nil {
		return err
	}

	if err := e.Initialize(); err != nil {
		core.LogError("failed to initialize: %s", err)
		return shutdownAfter(e, err)
	}

	// the loop owns the window, so a signal only asks it to stop
	release := stopOnSignal(e, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer release()

	return shutdownAfter(e, e.Run())
}

type stopper interface {
	Stop()
}

// stopOnSignal calls s.Stop on the first of sigs. The returned func
// unregisters the signals and waits for the watcher goroutine to exit.
func stopOnSignal(s stopper, sigs ...os.Signal) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, sigs...)

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case sig := <-sigCh:
			core.LogInfo("received %s, stopping", sig)
			s.Stop()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
		<-exited
	}
}

func shutdownAfter(e *engine.Engine, err error) error {
	if serr := e.Shutdown(); serr != nil {
		core.LogError("shutdown: %s", serr)
		if err == nil {
			err = serr
		}
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
