package api

import (
	"errors"
	"net/http"

	"github.com/kalambet/synk/internal/geo"
	"github.com/kalambet/synk/internal/recommend"
)

func handleRecommend(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recommend.Request
		if !decodeBody(w, r, &req) {
			return
		}

		id, _ := identityFrom(r.Context())
		res, err := deps.Recommend.Submit(r.Context(), id.UserID, req)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, res)
		case errors.Is(err, recommend.ErrInvalidRequest):
			httpError(w, http.StatusBadRequest, "invalid_request_error", recommend.MissingFieldsMessage)
		case errors.Is(err, recommend.ErrInFlight):
			httpError(w, http.StatusConflict, "conflict_error", "%v", err)
		default:
			// Details were logged by the service; the client only needs to
			// know it can retry.
			httpError(w, http.StatusBadGateway, "api_error", recommend.FailureMessage)
		}
	}
}

func handleLastRecommendation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identityFrom(r.Context())
		entry, ok, err := deps.Recommend.Last(r.Context(), id.UserID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to load recommendation: %v", err)
			return
		}
		if !ok {
			httpError(w, http.StatusNotFound, "not_found_error", "no recommendations yet")
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

// locationRequest carries either a device position or the kind of
// geolocation failure the client hit.
type locationRequest struct {
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Error string   `json:"error"`
}

type locationFailure struct {
	Error  geo.PositionErrorKind `json:"error"`
	Notice string                `json:"notice"`
}

func handleResolveLocation(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req locationRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if req.Error != "" {
			pe := &geo.PositionError{Kind: geo.ParsePositionErrorKind(req.Error)}
			writeJSON(w, http.StatusOK, locationFailure{Error: pe.Kind, Notice: pe.Notice()})
			return
		}
		if req.Lat == nil || req.Lon == nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "lat and lon are required")
			return
		}

		res, err := deps.Locator.Resolve(r.Context(), geo.Coordinates{Lat: *req.Lat, Lon: *req.Lon})
		if err != nil {
			if errors.Is(err, geo.ErrInvalidCoordinates) {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "failed to resolve location: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
