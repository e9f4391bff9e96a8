package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/pitchtag/internal/app"
	"github.com/okian/pitchtag/internal/domain/model"
)

type armRequest struct {
	Value string `json:"value"`
}

type actionsResponse struct {
	Actions []model.ActionDefinition `json:"actions"`
}

type addActionResponse struct {
	Added bool `json:"added"`
}

// handleSports lists the registered pitch templates.
func (s *Server) handleSports(w http.ResponseWriter, r *http.Request) {
	const op = "api.sports"
	sports, err := s.deps.Sports(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sports)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	label := r.URL.Query().Get("label")
	if strings.TrimSpace(label) == "" {
		s.fail(w, r, op, NewKind(op, errMissing("label")))
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Classify(label))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req service.CreateSessionRequest
	if err := s.decodeJSON(w, r, op, &req, false); err != nil {
		s.fail(w, r, op, err)
		return
	}
	if strings.TrimSpace(req.Sport) == "" {
		s.fail(w, r, op, NewKind(op, errMissing("sport")))
		return
	}
	v, err := s.deps.CreateSession(r.Context(), req)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+v.ID)
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_sessions"
	all, err := s.deps.ListSessions(r.Context())
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	v, err := s.deps.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	if err := s.deps.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArm(w http.ResponseWriter, r *http.Request) {
	const op = "api.arm"
	var req armRequest
	if err := s.decodeJSON(w, r, op, &req, false); err != nil {
		s.fail(w, r, op, err)
		return
	}
	out, err := s.deps.Arm(r.Context(), chi.URLParam(r, "id"), req.Value)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDisarm(w http.ResponseWriter, r *http.Request) {
	const op = "api.disarm"
	out, err := s.deps.Disarm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	const op = "api.click"
	var req service.ClickRequest
	if err := s.decodeJSON(w, r, op, &req, false); err != nil {
		s.fail(w, r, op, err)
		return
	}
	out, err := s.deps.Click(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit"
	var meta model.Metadata
	if err := s.decodeJSON(w, r, op, &meta, true); err != nil {
		s.fail(w, r, op, err)
		return
	}
	out, err := s.deps.Submit(r.Context(), chi.URLParam(r, "id"), meta)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	status := http.StatusOK
	if out.Tag != nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, out)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	const op = "api.cancel"
	out, err := s.deps.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_actions"
	defs, err := s.deps.Actions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, actionsResponse{Actions: defs})
}

func (s *Server) handleAddAction(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_action"
	var def model.ActionDefinition
	if err := s.decodeJSON(w, r, op, &def, false); err != nil {
		s.fail(w, r, op, err)
		return
	}
	added, err := s.deps.AddAction(r.Context(), chi.URLParam(r, "id"), def)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, addActionResponse{Added: added})
}

func (s *Server) handleRemoveAction(w http.ResponseWriter, r *http.Request) {
	const op = "api.remove_action"
	value := chi.URLParam(r, "value")
	removed, out, err := s.deps.RemoveAction(r.Context(), chi.URLParam(r, "id"), value)
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	if !removed {
		s.fail(w, r, op, NewKind(op, errUnknownAction(value)))
		return
	}
	writeJSON(w, http.StatusOK, out)
}
