package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/pitchtag/internal/domain/ingest"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/tagging"
)

type tagsResponse struct {
	Tags  []model.Tag `json:"tags"`
	Count int         `json:"count"`
}

type undoResponse struct {
	Undone bool       `json:"undone"`
	Tag    *model.Tag `json:"tag,omitempty"`
}

type clearResponse struct {
	Cleared int `json:"cleared"`
}

// errMissing is a bad request kind naming the absent field.
func errMissing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrBadRequest, field)
}

// errUnknownAction is a not found kind naming the absent vocabulary value.
func errUnknownAction(value string) error {
	return fmt.Errorf("%w: action %q is not in the vocabulary", ErrNotFound, value)
}

func tagIndex(r *http.Request, op string) (int, error) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, WrapKind(op, ErrBadRequest, fmt.Errorf("index %q is not an integer", raw))
	}
	return i, nil
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_tags"
	enrich, _ := strconv.ParseBool(r.URL.Query().Get("enrich"))
	tags, err := s.deps.Tags(r.Context(), chi.URLParam(r, "id"), enrich)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, tagsResponse{Tags: tags, Count: len(tags)})
}

func (s *Server) handleEditTag(w http.ResponseWriter, r *http.Request) {
	const op = "api.edit_tag"
	i, err := tagIndex(r, op)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	var p tagging.Patch
	if err := s.decodeJSON(w, r, op, &p, false); err != nil {
		s.fail(w, r, op, err)
		return
	}
	tag, err := s.deps.EditTag(r.Context(), chi.URLParam(r, "id"), i, p)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_tag"
	i, err := tagIndex(r, op)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	tag, err := s.deps.DeleteTag(r.Context(), chi.URLParam(r, "id"), i)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	const op = "api.undo"
	tag, ok, err := s.deps.Undo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	resp := undoResponse{Undone: ok}
	if ok {
		resp.Tag = &tag
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearTags(w http.ResponseWriter, r *http.Request) {
	const op = "api.clear_tags"
	n, err := s.deps.ClearTags(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Cleared: n})
}

// handleIngest accepts a JSON array of tags or a {"tags": [...]} envelope
// with percent-space coordinates.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	const op = "api.ingest"
	raws, err := ingest.Decode(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		s.fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := s.deps.Ingest(r.Context(), chi.URLParam(r, "id"), raws)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.summary"
	v, err := s.deps.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
