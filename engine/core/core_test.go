package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		" warn ":  WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestClock(t *testing.T) {
	now := time.Unix(100, 0)
	c := &Clock{now: func() time.Time { return now }}

	c.Update()
	assert.Zero(t, c.Elapsed(), "non-started clock must not advance")

	c.Start()
	now = now.Add(1500 * time.Millisecond)
	c.Update()
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)

	c.Stop()
	now = now.Add(time.Second)
	c.Update()
	assert.InDelta(t, 1.5, c.Elapsed(), 1e-9)
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.010)
	}
	_, ms := m.Frame()
	assert.InDelta(t, 10.0, ms, 1e-9)
	assert.Equal(t, uint64(AVG_COUNT), m.TotalFrames)

	for i := 0; i < 100; i++ {
		m.Update(0.010)
	}
	fps, _ := m.Frame()
	assert.InDelta(t, 100, fps, 2)
}

func TestEventSystem(t *testing.T) {
	es := NewEventSystem()
	var calls []string

	first := "first"
	second := "second"
	assert.True(t, es.Register(EVENT_CODE_APPLICATION_QUIT, &first, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, first)
		return false
	}))
	assert.True(t, es.Register(EVENT_CODE_APPLICATION_QUIT, &second, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, second)
		return true
	}))
	assert.False(t, es.Register(EVENT_CODE_APPLICATION_QUIT, &first, nil), "duplicate listener")

	assert.True(t, es.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))
	assert.Equal(t, []string{"first", "second"}, calls)

	assert.True(t, es.Unregister(EVENT_CODE_APPLICATION_QUIT, &second))
	assert.False(t, es.Unregister(EVENT_CODE_APPLICATION_QUIT, &second))
	assert.False(t, es.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))
	assert.False(t, es.Fire(EVENT_CODE_RESIZED, nil, EventContext{}))
}

func TestInputFiresKeyEvents(t *testing.T) {
	es := NewEventSystem()
	in := NewInput(es)

	var pressed, released []KeyCode
	es.Register(EVENT_CODE_KEY_PRESSED, "p", func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		pressed = append(pressed, KeyCode(data.Data.U16[0]))
		return true
	})
	es.Register(EVENT_CODE_KEY_RELEASED, "r", func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		released = append(released, KeyCode(data.Data.U16[0]))
		return true
	})

	in.ProcessKey(KEY_ESCAPE, true)
	in.ProcessKey(KEY_ESCAPE, true)
	assert.True(t, in.IsKeyDown(KEY_ESCAPE))
	in.Update(0)

	in.ProcessKey(KEY_ESCAPE, false)
	assert.True(t, in.KeyReleased(KEY_ESCAPE))
	in.Update(0)
	assert.False(t, in.KeyReleased(KEY_ESCAPE))

	assert.Equal(t, []KeyCode{KEY_ESCAPE}, pressed)
	assert.Equal(t, []KeyCode{KEY_ESCAPE}, released)
}

func TestFatalReporterFunc(t *testing.T) {
	var got string
	var r FatalReporter = FatalReporterFunc(func(msg string) { got = msg })
	r.ReportFatal("boom")
	assert.Equal(t, "boom", got)
}
