package logger

import (
	"testing"

	"github.com/goran-ethernal/ModerationIndexor/internal/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type staticConfig struct {
	defaultLevel string
	levels       map[string]string
	development  bool
}

func (c staticConfig) GetComponentLevel(component string) string {
	if level, ok := c.levels[component]; ok {
		return level
	}
	return c.defaultLevel
}

func (c staticConfig) GetDefaultLevel() string { return c.defaultLevel }
func (c staticConfig) IsDevelopment() bool     { return c.development }

func newObservedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	atomicLevel := zap.NewAtomicLevelAt(level)
	core, logs := observer.New(atomicLevel)
	return newLogger(zap.New(core).Sugar(), atomicLevel), logs
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		for _, development := range []bool{false, true} {
			l, err := NewLogger(level, development)
			require.NoError(t, err)
			require.Equal(t, level, l.GetLevel())
			require.Empty(t, l.GetComponent())
		}
	}

	l, err := NewLogger("verbose", false)
	require.Error(t, err)
	require.Nil(t, l)
}

func TestNewComponentLoggerFromConfig(t *testing.T) {
	cfg := staticConfig{
		defaultLevel: "warn",
		levels:       map[string]string{common.ComponentSupervisor: "debug"},
	}

	supervisor := NewComponentLoggerFromConfig(common.ComponentSupervisor, cfg)
	require.Equal(t, common.ComponentSupervisor, supervisor.GetComponent())
	require.Equal(t, "debug", supervisor.GetLevel())

	store := NewComponentLoggerFromConfig(common.ComponentStore, cfg)
	require.Equal(t, common.ComponentStore, store.GetComponent())
	require.Equal(t, "warn", store.GetLevel())

	fallback := NewComponentLoggerFromConfig(common.ComponentReconciler, nil)
	require.Equal(t, "info", fallback.GetLevel())
}

func TestNewComponentLogger_PanicsOnInvalidLevel(t *testing.T) {
	require.Panics(t, func() {
		NewComponentLogger(common.ComponentAPI, "loud", false)
	})
}

func TestWithComponent_TagsEntriesOnce(t *testing.T) {
	root, logs := newObservedLogger(zapcore.InfoLevel)

	reconciler := root.WithComponent(common.ComponentReconciler)
	reconciler.Infow("log applied", "block", 100)

	// re-tagging replaces the component instead of stacking a second field
	notifier := reconciler.WithComponent(common.ComponentNotifier)
	notifier.Info("published")

	require.Same(t, reconciler, reconciler.WithComponent(common.ComponentReconciler))

	entries := logs.All()
	require.Len(t, entries, 2)

	require.Equal(t, map[string]any{"component": "reconciler", "block": int64(100)}, entries[0].ContextMap())

	var componentFields int
	for _, f := range entries[1].Context {
		if f.Key == "component" {
			componentFields++
		}
	}
	require.Equal(t, 1, componentFields)
	require.Equal(t, "notifier", entries[1].ContextMap()["component"])
}

func TestSetLevel_SharedWithDerivedLoggers(t *testing.T) {
	root, logs := newObservedLogger(zapcore.InfoLevel)
	supervisor := root.WithComponent(common.ComponentSupervisor)

	supervisor.Debug("hidden")
	require.Zero(t, logs.Len())

	require.NoError(t, supervisor.SetLevel("debug"))
	require.Equal(t, "debug", root.GetLevel())

	root.WithComponent(common.ComponentLogSource).Debug("visible")
	require.Equal(t, 1, logs.Len())

	require.Error(t, supervisor.SetLevel("chatty"))
	require.Equal(t, "debug", supervisor.GetLevel())
}

func TestNewNopLogger(t *testing.T) {
	l := NewNopLogger().WithComponent(common.ComponentRewards)
	l.Infow("discarded", "epoch", 3)
	require.Equal(t, "info", l.GetLevel())
	require.NoError(t, l.Close())
}
