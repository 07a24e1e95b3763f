package backend

import (
	"context"

	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/client"
	"github.com/uavconcept/v4lctl/internal/engine"
)

// Backend reads and reconciles the attributes of one capture card.
type Backend interface {
	// Schema returns the attribute table of the card.
	Schema(ctx context.Context) (*attr.Schema, error)

	// Current returns the revision last reconciled to the card.
	Current(ctx context.Context) (attr.Revision, error)

	// Apply merges a partial document onto the current revision and writes
	// the attributes that changed.
	Apply(ctx context.Context, doc attr.Document) (attr.Revision, []engine.Change, error)

	// Defaults reconciles the card to the schema defaults.
	Defaults(ctx context.Context) (attr.Revision, []engine.Change, error)

	// Get reads a raw attribute value token from the card.
	Get(ctx context.Context, name string) (string, error)

	// Set runs a raw write command. The result reports whether the command
	// executed.
	Set(ctx context.Context, command, value string) (bool, error)
}

var (
	_ Backend = (*Local)(nil)
	_ Backend = (*client.Client)(nil)
)

// Local adapts an in-process engine to Backend. Its methods never fail
// except for Apply with an invalid document.
type Local struct {
	engine *engine.Engine
}

// NewLocal wraps eng.
func NewLocal(eng *engine.Engine) *Local {
	return &Local{engine: eng}
}

// Engine returns the wrapped engine
func (l *Local) Engine() *engine.Engine {
	return l.engine
}

func (l *Local) Schema(context.Context) (*attr.Schema, error) {
	return l.engine.Schema(), nil
}

func (l *Local) Current(context.Context) (attr.Revision, error) {
	return l.engine.Current(), nil
}

func (l *Local) Apply(ctx context.Context, doc attr.Document) (attr.Revision, []engine.Change, error) {
	return l.engine.Apply(ctx, doc)
}

func (l *Local) Defaults(ctx context.Context) (attr.Revision, []engine.Change, error) {
	current, changes := l.engine.RestoreDefaults(ctx)
	return current, changes, nil
}

func (l *Local) Get(ctx context.Context, name string) (string, error) {
	return l.engine.Get(ctx, name), nil
}

func (l *Local) Set(ctx context.Context, command, value string) (bool, error) {
	return l.engine.Set(ctx, command, value), nil
}
