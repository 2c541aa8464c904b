package handler

import (
	"net/http"

	"scanstock-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	Service *service.UserService
}

func (h UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users/me", h.me)
	r.Post("/users/change-password", h.changePassword)
	r.Post("/users/profile-picture", h.uploadProfilePicture)
	r.Patch("/users/{id}", h.update)
	r.Delete("/users/{id}", h.delete)
}

func (h UserHandler) me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	u, err := h.Service.Me(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userJSON(*u))
}

func (h UserHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
		Email     *string `json:"email"`
		IsActive  *bool   `json:"isActive"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u, err := h.Service.Update(r.Context(), user.ID, id, service.UserPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		IsActive:  req.IsActive,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userJSON(*u))
}

func (h UserHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}
	changed, err := h.Service.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !changed {
		writeMessage(w, http.StatusOK, "current password is incorrect", false)
		return
	}
	writeMessage(w, http.StatusOK, "password changed", true)
}

func (h UserHandler) uploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxProfilePictureBytes+1<<20)
	if err := r.ParseMultipartForm(service.MaxProfilePictureBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file size must not exceed 2MB")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	u, err := h.Service.UploadProfilePicture(r.Context(), user.ID, service.ProfilePicture{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userJSON(*u))
}

func (h UserHandler) delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "user deleted", nil)
}
