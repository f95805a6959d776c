package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vidmill/vidmill/models"
	"github.com/vidmill/vidmill/services"
)

// @Summary Get the caller's profile
// @Tags user
// @Produce json
// @Router /api/user/profile [get]
func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFrom(r)
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := s.users.FindByID(r.Context(), userID)
	if err != nil {
		writeStoreError(w, err, "User not found")
		return
	}

	writeJSONResponse(w, http.StatusOK, user)
}

// @Summary Update the caller's profile
// @Description Accepts JSON fields or multipart form with an optional
// @Description "profilePicture" image, which is resized and published.
// @Tags user
// @Produce json
// @Router /api/user/profile [patch]
func (s *Server) updateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFrom(r)
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var update models.UserUpdate

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid form data")
			return
		}

		if v := r.FormValue("username"); v != "" {
			update.Username = &v
		}
		if v := r.FormValue("email"); v != "" {
			update.Email = &v
		}

		file, header, err := r.FormFile("profilePicture")
		if err == nil {
			defer file.Close()

			contentType := header.Header.Get("Content-Type")
			if contentType != "image/jpeg" && contentType != "image/png" {
				writeErrorResponse(w, http.StatusBadRequest, "Invalid file type")
				return
			}

			thumb, err := services.NewThumbnail(file)
			if err != nil {
				writeErrorResponse(w, http.StatusBadRequest, "Invalid image")
				return
			}
			defer thumb.Delete()

			if err := thumb.Resize(); err != nil {
				writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			published, err := s.publisher.Publish(r.Context(), thumb.GetTmpPath())
			if err != nil {
				log.Error().Err(err).Msg("failed to publish profile picture")
				writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			update.ProfilePictureUrl = &published.URL
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	user, err := s.users.Update(r.Context(), userID, update)
	if err != nil {
		writeStoreError(w, err, "User not found")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"user":    user,
		"message": "User profile updated successfully",
	})
}

// @Summary List the caller's uploaded videos
// @Tags user
// @Produce json
// @Router /api/user/uploads [get]
func (s *Server) userUploadsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFrom(r)
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	uploads, err := s.videos.FindByUploader(r.Context(), userID)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSONResponse(w, http.StatusOK, uploads)
}
