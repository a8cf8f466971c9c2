package main

import (
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stopRecorder struct {
	stopped chan struct{}
}

func (s *stopRecorder) Stop() {
	close(s.stopped)
}

func TestStopOnSignalReleaseReturns(t *testing.T) {
	s := &stopRecorder{stopped: make(chan struct{})}
	release := stopOnSignal(s, os.Interrupt)

	returned := make(chan struct{})
	go func() {
		release()
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("release did not return")
	}
	select {
	case <-s.stopped:
		t.Fatal("Stop called without a signal")
	default:
	}
}

func TestStopOnSignalStops(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("os.Process.Signal does not deliver interrupts on windows")
	}
	s := &stopRecorder{stopped: make(chan struct{})}
	release := stopOnSignal(s, os.Interrupt)
	defer release()

	p, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, p.Signal(os.Interrupt))

	select {
	case <-s.stopped:
	case <-time.After(2 * time.Second):
		assert.Fail(t, "Stop was not called after the signal")
	}
}
