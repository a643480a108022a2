package api

import (
	"net/http"

	"github.com/kalambet/synk/internal/profile"
)

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identityFrom(r.Context())
		s, err := deps.Sessions.Load(r.Context(), id.UserID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load session: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handleSetTab(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Tab string `json:"tab"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		id, _ := identityFrom(r.Context())
		tab, err := deps.Sessions.SetTab(r.Context(), id.UserID, req.Tab)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"lastActiveTab": string(tab)})
	}
}

type profileResponse struct {
	Profile profile.UserProfile `json:"profile"`
	Stored  bool                `json:"stored"`
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identityFrom(r.Context())
		p, stored, err := deps.Profiles.Get(id.UserID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get profile: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, profileResponse{Profile: p, Stored: stored})
	}
}

func handleSaveProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form profile.Form
		if !decodeBody(w, r, &form) {
			return
		}

		id, _ := identityFrom(r.Context())
		res, err := deps.Profiles.Save(id.UserID, id.Email, form)
		if err != nil {
			if isValidation(err) {
				validationError(w, err)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save profile: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
