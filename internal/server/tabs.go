package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chid93/next-gen-prf/internal/model"
	"github.com/chid93/next-gen-prf/internal/quote"
)

type draftResponse struct {
	Field string `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
	model.FieldError
}

type tabResponse struct {
	State  model.TabState  `json:"state"`
	Drafts []draftResponse `json:"drafts"`
	Ready  bool            `json:"ready"`
}

type editRequest struct {
	Value string `json:"value" validate:"max=64"`
}

func (s *Server) handleGetTab(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tabView(tab))
}

// handleEditField applies one keystroke's worth of input to a draft.
func (s *Server) handleEditField(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	field, ok := tabField(w, r, tab)
	if !ok {
		return
	}
	var req editRequest
	if !s.decode(w, r, &req) {
		return
	}
	field.Edit(req.Value)
	writeJSON(w, http.StatusOK, draftView(field))
}

// handleBlurField commits the draft. A failed save is logged; the
// committed state is still returned.
func (s *Server) handleBlurField(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.tab(w, r)
	if !ok {
		return
	}
	field, ok := tabField(w, r, tab)
	if !ok {
		return
	}
	if _, err := field.Blur(r.Context()); err != nil {
		zap.L().Warn("server: persist tab", zap.String("tab_id", tab.ID()), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, tabView(tab))
}

func (s *Server) tab(w http.ResponseWriter, r *http.Request) (*quote.Tab, bool) {
	tab, err := s.deps.Form.Tab(r.Context(), chi.URLParam(r, "tab"))
	if err != nil {
		zap.L().Error("server: open tab", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not open tab")
		return nil, false
	}
	return tab, true
}

func tabField(w http.ResponseWriter, r *http.Request, tab *quote.Tab) (*quote.Field, bool) {
	field, ok := tab.Field(quote.FieldName(chi.URLParam(r, "field")))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown field")
		return nil, false
	}
	return field, true
}

func tabView(tab *quote.Tab) tabResponse {
	resp := tabResponse{State: tab.State(), Ready: tab.Ready()}
	for _, spec := range quote.Specs {
		f, _ := tab.Field(spec.Name)
		resp.Drafts = append(resp.Drafts, draftView(f))
	}
	return resp
}

func draftView(f *quote.Field) draftResponse {
	value, fe := f.Draft()
	spec := f.Spec()
	return draftResponse{
		Field:      string(spec.Name),
		Label:      spec.Label,
		Value:      value,
		FieldError: fe,
	}
}
