package handlers

import (
	"errors"
	"net/http"

	"github.com/beloteo/tournament-engine/services"
)

type AvatarHandler struct {
	avatarService services.AvatarService
}

func NewAvatarHandler(as services.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatarService: as}
}

// UploadHandler обрабатывает POST /players/{playerID}/avatar
// (multipart/form-data, поле "avatar")
func (h *AvatarHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content type required"))
		return
	}

	result, err := h.avatarService.UploadAvatar(r.Context(), playerID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"avatar": jsonResponse{
			"key": result.Key,
			"url": result.Location,
		},
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /players/{playerID}/avatar
func (h *AvatarHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.avatarService.RemoveAvatar(r.Context(), playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "avatar removed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
