// Package store persists placed markers and committed quote tab state.
package store

import (
	"context"

	"github.com/chid93/next-gen-prf/internal/model"
)

// Store defines the persistence interface for sessions and quote tabs.
type Store interface {
	// Markers
	SaveMarker(ctx context.Context, sessionID string, m model.Marker) error
	DeleteMarker(ctx context.Context, sessionID, handle string) error
	ListMarkers(ctx context.Context, sessionID string) ([]model.Marker, error)

	// Tabs. GetTab returns nil, nil when the tab was never committed.
	SaveTab(ctx context.Context, state model.TabState) error
	GetTab(ctx context.Context, id string) (*model.TabState, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
