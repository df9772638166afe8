package quote

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/chid93/next-gen-prf/internal/model"
)

// TabStore persists committed tab state. GetTab returns nil, nil for an
// unknown id.
type TabStore interface {
	SaveTab(ctx context.Context, state model.TabState) error
	GetTab(ctx context.Context, id string) (*model.TabState, error)
}

// Tab owns the committed state of one quote tab and the inputs bound to
// it. Inputs edit private drafts; only Field.Blur writes to the tab.
type Tab struct {
	mu     sync.Mutex
	state  model.TabState
	fields map[FieldName]*Field
	store  TabStore
	now    func() time.Time
}

// NewTab binds one input per entry in Specs to state. store may be nil.
func NewTab(state model.TabState, store TabStore) *Tab {
	t := &Tab{
		state:  state,
		fields: make(map[FieldName]*Field, len(Specs)),
		store:  store,
		now:    time.Now,
	}
	for _, spec := range Specs {
		f := &Field{spec: spec, tab: t}
		f.sync()
		t.fields[spec.Name] = f
	}
	return t
}

// ID returns the tab identifier.
func (t *Tab) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.ID
}

// State returns a copy of the committed state.
func (t *Tab) State() model.TabState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Field returns the input bound to name.
func (t *Tab) Field(name FieldName) (*Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// Replace overwrites the committed state from outside. Every input
// discards its draft and resynchronizes.
func (t *Tab) Replace(state model.TabState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	state.ID = t.state.ID
	t.state = state
	for _, f := range t.fields {
		f.sync()
	}
}

// Ready reports whether every committed value passes validation.
func (t *Tab) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, spec := range Specs {
		v, _ := committed(t.state, spec.Name)
		if spec.Validate(v).HasError {
			return false
		}
	}
	return true
}

// commit writes the field's draft into the tab state. Caller holds t.mu.
func (t *Tab) commit(f *Field) model.TabState {
	t.state = withCommitted(t.state, f.spec.Name, f.draft, f.err)
	t.state.UpdatedAt = t.now().UTC()
	return t.state
}

func (t *Tab) persist(ctx context.Context, state model.TabState) error {
	if t.store == nil {
		return nil
	}
	if err := t.store.SaveTab(ctx, state); err != nil {
		return eris.Wrapf(err, "quote: save tab %s", state.ID)
	}
	return nil
}
