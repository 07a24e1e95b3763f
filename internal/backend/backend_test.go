package backend

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/engine"
)

type fakeTool struct {
	mu     sync.Mutex
	values map[string]string
	writes []string
}

func (f *fakeTool) Read(_ context.Context, name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

func (f *fakeTool) Write(_ context.Context, command, value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, command+" "+value)
	return true
}

func newLocal(t *testing.T) (*Local, *fakeTool) {
	t.Helper()
	tool := &fakeTool{values: map[string]string{"bright": "32768"}}
	eng := engine.New(tool, attr.DefaultSchema(), nil, zap.NewNop())
	return NewLocal(eng), tool
}

func TestLocalApplyAndDefaults(t *testing.T) {
	l, tool := newLocal(t)
	ctx := context.Background()

	schema, err := l.Schema(ctx)
	require.NoError(t, err)
	assert.Equal(t, attr.Osprey440Model, schema.Model())

	rev, changes, err := l.Apply(ctx, attr.Document{"bright": "70", "mute": "on"})
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "70", rev.Document()["bright"])

	cur, err := l.Current(ctx)
	require.NoError(t, err)
	assert.True(t, cur.Equal(rev))

	rev, changes, err = l.Defaults(ctx)
	require.NoError(t, err)
	assert.Len(t, changes, 2)
	assert.Equal(t, "50", rev.Document()["bright"])
	assert.Equal(t, []string{"bright 70%", "setattr mute on", "bright 50%", "setattr mute off"}, tool.writes)

	_, _, err = l.Apply(ctx, attr.Document{"Coring": "9"})
	assert.Error(t, err)
}

func TestLocalGetSet(t *testing.T) {
	l, tool := newLocal(t)
	ctx := context.Background()

	v, err := l.Get(ctx, "bright")
	require.NoError(t, err)
	assert.Equal(t, "32768", v)

	ok, err := l.Set(ctx, "setnorm", "NTSC")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"setnorm NTSC"}, tool.writes)

	value, found := l.Engine().Store().Lookup(attr.Mangle("setnorm"))
	assert.True(t, found)
	assert.Equal(t, "NTSC", value)
}

func TestLocalDefaultsReportsItsOwnRevision(t *testing.T) {
	l, _ := newLocal(t)
	ctx := context.Background()

	_, _, err := l.Apply(ctx, attr.Document{"hue": "20"})
	require.NoError(t, err)

	// An apply that lands right after the defaults reconcile must not leak
	// into the defaults result.
	interleaved := false
	l.Engine().Subscribe(func(attr.Revision, []engine.Change) {
		if interleaved {
			return
		}
		interleaved = true
		_, _, err := l.Engine().Apply(ctx, attr.Document{"hue": "10"})
		assert.NoError(t, err)
	})

	rev, changes, err := l.Defaults(ctx)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "50", rev.Document()["hue"])

	cur, err := l.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", cur.Document()["hue"])
}
