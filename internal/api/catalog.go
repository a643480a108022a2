package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/synk/internal/catalog"
)

func handleListEvents(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Catalog.Events.List())
	}
}

func handleGetEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ev, err := deps.Catalog.Events.Get(id)
		if err != nil {
			catalogError(w, err, "event", id)
			return
		}
		writeJSON(w, http.StatusOK, ev)
	}
}

func handleCreateEvent(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form catalog.EventForm
		if !decodeBody(w, r, &form) {
			return
		}
		ev, err := deps.Catalog.CreateEvent(form, displayName(r.Context(), deps))
		if err != nil {
			catalogError(w, err, "event", "")
			return
		}
		writeJSON(w, http.StatusCreated, ev)
	}
}

func handleListCommunities(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Catalog.Communities.List())
	}
}

func handleGetCommunity(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		detail, err := deps.Catalog.CommunityDetail(id)
		if err != nil {
			catalogError(w, err, "community", id)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func handleCreateCommunity(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form catalog.CommunityForm
		if !decodeBody(w, r, &form) {
			return
		}
		comm, err := deps.Catalog.CreateCommunity(form)
		if err != nil {
			catalogError(w, err, "community", "")
			return
		}
		writeJSON(w, http.StatusCreated, comm)
	}
}

func handleListThreads(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Catalog.Threads.List())
	}
}

func handleCreateThread(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form catalog.ThreadForm
		if !decodeBody(w, r, &form) {
			return
		}
		th, err := deps.Catalog.CreateThread(form, displayName(r.Context(), deps))
		if err != nil {
			catalogError(w, err, "thread", "")
			return
		}
		writeJSON(w, http.StatusCreated, th)
	}
}

func handleSearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Catalog.Search(r.URL.Query().Get("q")))
	}
}

func catalogError(w http.ResponseWriter, err error, kind, id string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found_error", "%s %q not found", kind, id)
	case errors.Is(err, catalog.ErrUnknownCommunity):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case isValidation(err):
		validationError(w, err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%s: %v", kind, err)
	}
}

// displayName is what the caller is shown as on things they create: the
// profile name when one is stored, otherwise the signup name.
func displayName(ctx context.Context, deps Deps) string {
	id, _ := identityFrom(ctx)
	s, err := deps.Sessions.Load(ctx, id.UserID)
	if err != nil {
		return id.Email
	}
	if s.HasProfile && s.Profile.Name != "" {
		return s.Profile.Name
	}
	if s.UserName != "" {
		return s.UserName
	}
	return id.Email
}
