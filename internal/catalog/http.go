package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ProductCatalog/pkg/kit"
)

type Server struct {
	Store *Store
	Desk  *Desk
	Log   *zap.Logger

	// WriteLimit wraps every mutating route when set.
	WriteLimit func(http.Handler) http.Handler
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/desk", s.deskState)

	r.Group(func(wr chi.Router) {
		if s.WriteLimit != nil {
			wr.Use(s.WriteLimit)
		}

		wr.Post("/products", s.create)
		wr.Put("/products/{id}", s.update)
		wr.Delete("/products/{id}", s.remove)

		wr.Patch("/desk/form", s.deskSetFields)
		wr.Post("/desk/submit", s.deskSubmit)
		wr.Post("/desk/edit/{id}", s.deskEdit)
		wr.Post("/desk/reset", s.deskReset)
		wr.Delete("/desk/products/{id}", s.deskDelete)
		wr.Delete("/desk/notification/{id}", s.deskDismiss)
	})

	return r
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "bad id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	s.logger().Error(msg, append(fields, zap.Error(err))...)
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.List())
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, found := s.Store.Get(id)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func decodeForm(w http.ResponseWriter, r *http.Request) (FormFields, bool) {
	f := FormFields{IsActive: true}
	if err := kit.DecodeJSON(w, r, &f); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return FormFields{}, false
	}
	return f, true
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	f, ok := decodeForm(w, r)
	if !ok {
		return
	}

	p, errs, err := s.Store.Submit(r.Context(), f, 0)
	if err != nil {
		s.serverError(w, r, "create product failed", err)
		return
	}
	if len(errs) > 0 {
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "validation failed", errs)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, found := s.Store.Get(id); !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	f, ok := decodeForm(w, r)
	if !ok {
		return
	}

	p, errs, err := s.Store.Submit(r.Context(), f, id)
	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
	case err != nil:
		s.serverError(w, r, "update product failed", err, zap.Int64("id", id))
	case len(errs) > 0:
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "validation failed", errs)
	default:
		kit.WriteJSON(w, http.StatusOK, p)
	}
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, found := s.Store.Get(id)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	if !confirmed(r) {
		kit.WriteError(w, r, http.StatusPreconditionRequired, ErrConfirmationRequired.Error(),
			map[string]any{"id": id, "prompt": DeletePrompt(p)})
		return
	}

	_, found, err := s.Store.Delete(r.Context(), id)
	if err != nil {
		s.serverError(w, r, "delete product failed", err, zap.Int64("id", id))
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deskState(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Desk.State())
}

func (s *Server) deskSetFields(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := kit.DecodeJSON(w, r, &patch); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	st, err := s.Desk.SetFields(patch)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad field", map[string]any{"cause": err.Error()})
		return
	}
	kit.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) deskSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := s.Desk.Submit(r.Context())
	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteJSON(w, http.StatusConflict, s.Desk.State())
	case err != nil:
		s.serverError(w, r, "desk submit failed", err)
	case !res.Accepted():
		kit.WriteJSON(w, http.StatusUnprocessableEntity, s.Desk.State())
	case res.Updated:
		kit.WriteJSON(w, http.StatusOK, s.Desk.State())
	default:
		kit.WriteJSON(w, http.StatusCreated, s.Desk.State())
	}
}

func (s *Server) deskEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	st, err := s.Desk.Edit(id)
	if errors.Is(err, ErrNotFound) {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) deskReset(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Desk.Reset())
}

func (s *Server) deskDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	prompt, err := s.Desk.Delete(r.Context(), id, confirmed(r))
	switch {
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
	case errors.Is(err, ErrConfirmationRequired):
		kit.WriteError(w, r, http.StatusPreconditionRequired, err.Error(),
			map[string]any{"id": id, "prompt": prompt})
	case err != nil:
		s.serverError(w, r, "desk delete failed", err, zap.Int64("id", id))
	default:
		kit.WriteJSON(w, http.StatusOK, s.Desk.State())
	}
}

func (s *Server) deskDismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Desk.Dismiss(id) {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
