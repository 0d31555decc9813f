package debug

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/gamestate/internal/app"
	"github.com/zeusync/gamestate/internal/config"
	"github.com/zeusync/gamestate/internal/core/components"
	"github.com/zeusync/gamestate/internal/core/models"
	"github.com/zeusync/gamestate/internal/core/observability/log"
	"github.com/zeusync/gamestate/internal/core/validation"
)

type player struct{}

func newApp(t *testing.T, debugging bool) (*app.App, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := config.Default()
	cfg.Debugging = debugging
	return app.New(cfg, log.NewFromZap(zap.New(core))).AddPlugins(Plugin), logs
}

type fixture struct {
	shown, hidden, unflagged, unmarked models.EntityID
}

func spawnFixture(t *testing.T, w *models.World) fixture {
	t.Helper()
	spawn := func(marked bool, flag *DebugEnabled) models.EntityID {
		id := w.Spawn()
		require.NoError(t, models.Insert(w, id, components.Inherited))
		if marked {
			require.NoError(t, models.Insert(w, id, DebugMarker{}))
		}
		if flag != nil {
			require.NoError(t, models.Insert(w, id, *flag))
		}
		return id
	}
	on, off := DebugEnabled(true), DebugEnabled(false)
	return fixture{
		shown:     spawn(true, &on),
		hidden:    spawn(true, &off),
		unflagged: spawn(true, nil),
		unmarked:  spawn(false, &on),
	}
}

func visibility(t *testing.T, w *models.World, id models.EntityID) components.Visibility {
	t.Helper()
	v, ok := models.Get[components.Visibility](w, id)
	require.True(t, ok)
	return v
}

func TestToggler(t *testing.T) {
	a, _ := newApp(t, true)
	f := spawnFixture(t, a.World)

	a.Update(time.Millisecond)

	assert.Equal(t, components.Visible, visibility(t, a.World, f.shown))
	assert.Equal(t, components.Hidden, visibility(t, a.World, f.hidden))
	assert.Equal(t, components.Hidden, visibility(t, a.World, f.unflagged))
	assert.Equal(t, components.Inherited, visibility(t, a.World, f.unmarked))

	require.NoError(t, models.Update(a.World, f.hidden, func(v *DebugEnabled) { *v = true }))
	a.Update(time.Millisecond)
	assert.Equal(t, components.Visible, visibility(t, a.World, f.hidden))
}

func TestTogglerNeverRunsWhenDisabled(t *testing.T) {
	a, _ := newApp(t, false)
	f := spawnFixture(t, a.World)

	for i := 0; i < 3; i++ {
		a.Update(time.Millisecond)
	}

	for _, id := range []models.EntityID{f.shown, f.hidden, f.unflagged, f.unmarked} {
		assert.Equal(t, components.Inherited, visibility(t, a.World, id))
	}
	m, ok := a.Scheduler.Metrics("debug.manage_visibility")
	require.True(t, ok)
	assert.Zero(t, m.ExecutionCount)
	assert.Equal(t, uint64(3), m.SkipCount)
}

func TestValidationFailuresAreLogged(t *testing.T) {
	a, logs := newApp(t, true)
	AddValidation(a, validation.ExactlyN[player](1, Events(a)))

	a.Update(time.Millisecond)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "required exactly 1, found 0")
	assert.Equal(t, "ExactlyN(0)", warnings[0].ContextMap()["check"])

	a.World.Spawn()
	id := a.World.Spawn()
	require.NoError(t, models.Insert(a.World, id, player{}))
	a.Update(time.Millisecond)
	assert.Len(t, logs.FilterLevelExact(zapcore.WarnLevel).All(), 1, "no new failures")
}

func TestComponentRuleUsesConfiguredWorkers(t *testing.T) {
	a, logs := newApp(t, true)
	a.Config.Validation.Workers = 2
	notInherited := validation.ValidatorFunc[components.Visibility](func(v components.Visibility) error {
		if v == components.Inherited {
			return errors.New("visibility must be explicit")
		}
		return nil
	})
	AddValidation(a, validation.Component[components.Visibility](notInherited, Events(a), Workers(a)))

	f := spawnFixture(t, a.World)
	a.Update(time.Millisecond)

	warnings := logs.FilterMessage("visibility must be explicit").All()
	require.Len(t, warnings, 1, "only the unmarked entity keeps Inherited")
	assert.Equal(t, f.unmarked.String(), warnings[0].ContextMap()["entity"])
}

func TestRepeatedFailuresAreNotSampled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := config.Default()
	cfg.Debugging = true
	a := app.New(cfg, log.NewSampled(zap.New(core))).AddPlugins(Plugin)

	alwaysFails := validation.ValidatorFunc[player](func(player) error {
		return errors.New("player is invalid")
	})
	AddValidation(a, validation.Component[player](alwaysFails, Events(a)))
	for i := 0; i < 250; i++ {
		require.NoError(t, models.Insert(a.World, a.World.Spawn(), player{}))
	}

	a.Update(time.Millisecond)
	assert.Equal(t, 250, logs.FilterMessage("player is invalid").Len())
}

func TestValidationSetDisabled(t *testing.T) {
	a, logs := newApp(t, false)
	var seen int
	Events(a).Subscribe(func(validation.ValidationErrorEvent) error {
		seen++
		return nil
	})
	AddValidation(a, validation.ExactlyN[player](1, Events(a)))

	a.Update(time.Millisecond)
	assert.Zero(t, seen)
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}
