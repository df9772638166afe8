package quote

import (
	"context"
	"strings"

	"github.com/chid93/next-gen-prf/internal/model"
)

// Field is one validated input. It keeps a local draft and error that
// follow every edit, and pushes both to its tab on Blur.
type Field struct {
	spec  FieldSpec
	tab   *Tab
	draft string
	err   model.FieldError
}

// Spec returns the input's limit and label.
func (f *Field) Spec() FieldSpec {
	return f.spec
}

// Draft returns the uncommitted value and its validation result.
func (f *Field) Draft() (string, model.FieldError) {
	f.tab.mu.Lock()
	defer f.tab.mu.Unlock()
	return f.draft, f.err
}

// Edit replaces the draft and revalidates it. The minus sign is not an
// accepted keystroke and is dropped.
func (f *Field) Edit(raw string) model.FieldError {
	f.tab.mu.Lock()
	defer f.tab.mu.Unlock()
	f.draft = strings.ReplaceAll(raw, "-", "")
	f.err = f.spec.Validate(f.draft)
	return f.err
}

// Blur commits the current draft and error to the tab and persists the
// new state. The in-memory commit stands even when persisting fails.
func (f *Field) Blur(ctx context.Context) (model.TabState, error) {
	f.tab.mu.Lock()
	state := f.tab.commit(f)
	f.tab.mu.Unlock()

	return state, f.tab.persist(ctx, state)
}

// sync copies the committed value into the draft. Caller holds tab.mu.
func (f *Field) sync() {
	f.draft, f.err = committed(f.tab.state, f.spec.Name)
}
