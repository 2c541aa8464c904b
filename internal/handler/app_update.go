package handler

import (
	"net/http"

	"scanstock-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type AppUpdateHandler struct {
	Service *service.AppUpdateService
}

type appUpdateRequest struct {
	Version      *string `json:"version"`
	MinVersion   *string `json:"minVersion"`
	AndroidURL   *string `json:"androidUrl"`
	IOSURL       *string `json:"iosUrl"`
	ReleaseNotes *string `json:"releaseNotes"`
	ForceUpdate  *bool   `json:"forceUpdate"`
	IsActive     *bool   `json:"isActive"`
}

func (a appUpdateRequest) input() service.AppUpdateInput {
	return service.AppUpdateInput{
		Version:      a.Version,
		MinVersion:   a.MinVersion,
		AndroidURL:   a.AndroidURL,
		IOSURL:       a.IOSURL,
		ReleaseNotes: a.ReleaseNotes,
		ForceUpdate:  a.ForceUpdate,
		IsActive:     a.IsActive,
	}
}

// RegisterPublicRoutes exposes the update check used by clients before login.
func (h AppUpdateHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/updates", h.check)
}

func (h AppUpdateHandler) RegisterRoutes(r chi.Router) {
	r.Post("/app-updates", h.create)
	r.Get("/app-updates", h.list)
	r.Get("/app-updates/latest", h.latest)
	r.Patch("/app-updates/{id}", h.update)
	r.Patch("/app-updates/{id}/force", h.force)
}

func (h AppUpdateHandler) check(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Check(r.Context(), r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"minVersion":    res.MinVersion,
		"latestVersion": res.LatestVersion,
		"updateUrl":     res.UpdateURL,
		"releaseNotes":  res.ReleaseNotes,
		"forceUpdate":   res.ForceUpdate,
	})
}

func (h AppUpdateHandler) create(w http.ResponseWriter, r *http.Request) {
	var req appUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u, err := h.Service.Create(r.Context(), req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appUpdateJSON(*u))
}

func (h AppUpdateHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.FindAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(items))
	for _, u := range items {
		resp = append(resp, appUpdateJSON(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h AppUpdateHandler) latest(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.FindLatest(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appUpdateJSON(*u))
}

func (h AppUpdateHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req appUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u, err := h.Service.Update(r.Context(), id, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appUpdateJSON(*u))
}

func (h AppUpdateHandler) force(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		ForceUpdate bool `json:"forceUpdate"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u, err := h.Service.SetForceUpdate(r.Context(), id, req.ForceUpdate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appUpdateJSON(*u))
}
