package mapview

import (
	"sync"

	"github.com/chid93/next-gen-prf/internal/geo"
	"github.com/chid93/next-gen-prf/internal/model"
)

// View receives rendering commands from a session.
type View interface {
	AddMarker(m model.Marker, popupOpen bool)
	RemoveMarker(handle string)
	SetView(center geo.Coordinate, zoom int)
	FitBounds(b geo.BBox)
	ShowLabel(l Label)
	HideLabel(id string)
}

// CommandKind names a View call.
type CommandKind string

// Command kinds.
const (
	CmdAddMarker    CommandKind = "add_marker"
	CmdRemoveMarker CommandKind = "remove_marker"
	CmdSetView      CommandKind = "set_view"
	CmdFitBounds    CommandKind = "fit_bounds"
	CmdShowLabel    CommandKind = "show_label"
	CmdHideLabel    CommandKind = "hide_label"
)

// Command is a recorded View call.
type Command struct {
	Kind      CommandKind     `json:"kind"`
	Marker    *model.Marker   `json:"marker,omitempty"`
	PopupOpen bool            `json:"popup_open,omitempty"`
	Handle    string          `json:"handle,omitempty"`
	Center    *geo.Coordinate `json:"center,omitempty"`
	Zoom      int             `json:"zoom"`
	Bounds    *geo.BBox       `json:"bounds,omitempty"`
	Label     *Label          `json:"label,omitempty"`
	LabelID   string          `json:"label_id,omitempty"`
}

// Drainer is implemented by views that buffer commands for a client.
type Drainer interface {
	Drain() []Command
}

// CommandQueue is a View that buffers commands until drained. A remote
// client replays them against its own map.
type CommandQueue struct {
	mu   sync.Mutex
	cmds []Command
}

// NewCommandQueue creates an empty queue.
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{}
}

func (q *CommandQueue) push(c Command) {
	q.mu.Lock()
	q.cmds = append(q.cmds, c)
	q.mu.Unlock()
}

func (q *CommandQueue) AddMarker(m model.Marker, popupOpen bool) {
	q.push(Command{Kind: CmdAddMarker, Marker: &m, PopupOpen: popupOpen, Handle: m.Handle})
}

func (q *CommandQueue) RemoveMarker(handle string) {
	q.push(Command{Kind: CmdRemoveMarker, Handle: handle})
}

func (q *CommandQueue) SetView(center geo.Coordinate, zoom int) {
	q.push(Command{Kind: CmdSetView, Center: &center, Zoom: zoom})
}

func (q *CommandQueue) FitBounds(b geo.BBox) {
	q.push(Command{Kind: CmdFitBounds, Bounds: &b})
}

func (q *CommandQueue) ShowLabel(l Label) {
	q.push(Command{Kind: CmdShowLabel, Label: &l, LabelID: l.ID})
}

func (q *CommandQueue) HideLabel(id string) {
	q.push(Command{Kind: CmdHideLabel, LabelID: id})
}

// Drain returns and clears the buffered commands. It never returns nil.
func (q *CommandQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.cmds
	q.cmds = nil
	if out == nil {
		out = []Command{}
	}
	return out
}

// Len returns the number of buffered commands.
func (q *CommandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}
