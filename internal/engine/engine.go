package engine

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/uavconcept/v4lctl/internal/attr"
	"github.com/uavconcept/v4lctl/internal/snapshot"
	"github.com/uavconcept/v4lctl/internal/v4lctl"
)

// Change is the outcome of one write issued by Reconcile.
type Change struct {
	Key     string `json:"key"`
	Command string `json:"command"`
	Value   string `json:"value"`
	OK      bool   `json:"ok"`
}

// Observer is notified after every reconcile with the adopted revision and
// the writes that were issued.
type Observer func(current attr.Revision, changes []Change)

// Engine is the synchronization engine.
type Engine struct {
	mu sync.Mutex

	tool    v4lctl.Tool
	schema  *attr.Schema
	store   *snapshot.Store
	logger  *zap.Logger
	current attr.Revision

	observers map[int]Observer
	nextID    int
}

// New creates an engine. The current revision starts as the schema
// defaults; call Start to adopt the card's values.
func New(tool v4lctl.Tool, schema *attr.Schema, store *snapshot.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = snapshot.NewStore(logger)
	}
	return &Engine{
		tool:      tool,
		schema:    schema,
		store:     store,
		logger:    logger,
		current:   schema.Defaults(),
		observers: make(map[int]Observer),
	}
}

// Schema returns the attribute schema.
func (e *Engine) Schema() *attr.Schema {
	return e.schema
}

// Store returns the snapshot store.
func (e *Engine) Store() *snapshot.Store {
	return e.store
}

// Current returns the current revision.
func (e *Engine) Current() attr.Revision {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Restore loads the snapshot at path and replays every entry to the device
// in key order. Entries that fail to replay are dropped from the store.
func (e *Engine) Restore(ctx context.Context, path string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Load(path)
	entries := e.store.Entries()

	// Only replays that ran are kept.
	e.store.Reset()

	replayed := 0
	for _, entry := range entries {
		command := attr.Demangle(entry.Key)
		if !e.tool.Write(ctx, command, entry.Value) {
			e.logger.Warn("snapshot replay failed",
				zap.String("key", entry.Key),
				zap.String("value", entry.Value),
			)
			continue
		}
		e.store.Record(entry.Key, entry.Value)
		replayed++
	}

	e.logger.Info("snapshot replayed",
		zap.Int("entries", len(entries)),
		zap.Int("replayed", replayed),
	)
	return replayed
}

// Initialize computes a full revision. With useDefaults the device is not
// touched and every attribute holds its schema default. The result is not
// adopted.
func (e *Engine) Initialize(ctx context.Context, useDefaults bool) attr.Revision {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialize(ctx, useDefaults)
}

func (e *Engine) initialize(ctx context.Context, useDefaults bool) attr.Revision {
	return e.schema.Build(useDefaults, func(name string) string {
		return e.tool.Read(ctx, name)
	})
}

// Start reads every attribute from the device and adopts the result as the
// current revision without issuing writes.
func (e *Engine) Start(ctx context.Context) attr.Revision {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.current = e.initialize(ctx, false)
	e.logger.Info("initial revision read from device", zap.Int("attributes", e.schema.Len()))
	return e.current
}

// Reconcile writes every attribute of next that differs from the current
// revision, in declaration order, and adopts next regardless of the write
// outcomes. A revision built from another schema is rejected: nothing is
// written or adopted, observers are not called and the result is nil.
func (e *Engine) Reconcile(ctx context.Context, next attr.Revision) []Change {
	if next.Schema() != e.schema {
		e.logger.Warn("reconcile rejected: revision belongs to another schema",
			zap.Bool("zero", next.IsZero()),
		)
		return nil
	}

	e.mu.Lock()
	changes := e.reconcile(ctx, next)
	current := e.current
	observers := e.snapshotObservers()
	e.mu.Unlock()

	for _, fn := range observers {
		fn(current, changes)
	}
	return changes
}

func (e *Engine) reconcile(ctx context.Context, next attr.Revision) []Change {
	var changes []Change

	for _, i := range e.current.Diff(next) {
		a := e.schema.Attribute(i)
		value := attr.Encode(next.At(i))

		ok := e.tool.Write(ctx, a.Command, value)
		if ok {
			e.store.Record(attr.Mangle(a.Command), value)
		} else {
			e.logger.Warn("attribute write failed",
				zap.String("key", a.Key),
				zap.String("command", a.Command),
				zap.String("value", value),
			)
		}

		changes = append(changes, Change{
			Key:     a.Key,
			Command: a.Command,
			Value:   value,
			OK:      ok,
		})
	}

	e.current = next
	return changes
}

// RestoreDefaults reconciles the device to the schema defaults and returns
// the revision it adopted.
func (e *Engine) RestoreDefaults(ctx context.Context) (attr.Revision, []Change) {
	e.mu.Lock()
	changes := e.reconcile(ctx, e.initialize(ctx, true))
	current := e.current
	observers := e.snapshotObservers()
	e.mu.Unlock()

	for _, fn := range observers {
		fn(current, changes)
	}
	return current, changes
}

// Apply merges a partial document onto the current revision and reconciles
// the result.
func (e *Engine) Apply(ctx context.Context, doc attr.Document) (attr.Revision, []Change, error) {
	e.mu.Lock()
	next, err := e.current.Merge(doc)
	if err != nil {
		e.mu.Unlock()
		return attr.Revision{}, nil, err
	}
	changes := e.reconcile(ctx, next)
	current := e.current
	observers := e.snapshotObservers()
	e.mu.Unlock()

	for _, fn := range observers {
		fn(current, changes)
	}
	return current, changes, nil
}

// Get reads an attribute from the device. A failed read yields "".
func (e *Engine) Get(ctx context.Context, name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool.Read(ctx, name)
}

// Set writes value with command and records it in the snapshot when the
// write ran. The current revision is not changed.
func (e *Engine) Set(ctx context.Context, command, value string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.tool.Write(ctx, command, value) {
		return false
	}
	e.store.Record(attr.Mangle(command), value)
	return true
}

// Flush persists the snapshot to path.
func (e *Engine) Flush(path string) error {
	return e.store.Flush(path)
}

// Subscribe registers fn to be called after every reconcile. The returned
// function removes the registration.
func (e *Engine) Subscribe(fn Observer) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextID
	e.nextID++
	e.observers[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

// snapshotObservers must be called with e.mu held.
func (e *Engine) snapshotObservers() []Observer {
	out := make([]Observer, 0, len(e.observers))
	for _, fn := range e.observers {
		out = append(out, fn)
	}
	return out
}
