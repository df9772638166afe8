package quote

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/chid93/next-gen-prf/internal/model"
)

// Form holds the open quote tabs keyed by id.
type Form struct {
	mu    sync.Mutex
	tabs  map[string]*Tab
	store TabStore
}

// NewForm creates a form. store may be nil.
func NewForm(store TabStore) *Form {
	return &Form{tabs: make(map[string]*Tab), store: store}
}

// Tab returns the tab for id, restoring committed state from the store
// the first time it is requested. The store is read without holding the
// form lock; when two callers load the same id the first insert wins.
func (f *Form) Tab(ctx context.Context, id string) (*Tab, error) {
	if id == "" {
		return nil, eris.New("quote: empty tab id")
	}

	f.mu.Lock()
	t, ok := f.tabs[id]
	f.mu.Unlock()
	if ok {
		return t, nil
	}

	state := model.TabState{ID: id}
	if f.store != nil {
		saved, err := f.store.GetTab(ctx, id)
		if err != nil {
			return nil, eris.Wrapf(err, "quote: load tab %s", id)
		}
		if saved != nil {
			state = *saved
			state.ID = id
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tabs[id]; ok {
		return t, nil
	}
	t = NewTab(state, f.store)
	f.tabs[id] = t
	return t, nil
}

// IDs returns the open tab ids in sorted order.
func (f *Form) IDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.tabs))
	for id := range f.tabs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Drop forgets an open tab. Committed state already persisted is kept.
func (f *Form) Drop(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tabs[id]; !ok {
		return false
	}
	delete(f.tabs, id)
	return true
}
