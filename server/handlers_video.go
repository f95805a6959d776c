package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidmill/vidmill/models"
	"github.com/vidmill/vidmill/pipeline"
	"github.com/vidmill/vidmill/publisher"
	"github.com/vidmill/vidmill/services"
)

// @Summary Upload and process a video
// @Description Transcodes, publishes and persists the uploaded file.
// @Tags videos
// @Produce json
// @Param video formData file true "Video file"
// @Router /api/videos/upload [post]
func (s *Server) uploadVideoHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFrom(r)
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "No video uploaded")
		return
	}
	defer file.Close()

	uploader := services.NewUploader(s.uploadDir, file, header)

	// reject before anything touches disk or the network
	if !uploader.IsVideo() {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	log.Info().
		Str("filename", uploader.GetName()).
		Str("upload_id", uploader.GetID()).
		Msg("handling video upload...")

	inputPath, checksum, err := uploader.SaveOriginal()
	if err != nil {
		log.Error().Err(err).Str("filename", uploader.GetName()).Msg("cannot save video file")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to save video file")
		return
	}
	defer uploader.RemoveAll()

	duration := 0.0
	if v := r.FormValue("duration"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			duration = parsed
		}
	}

	video, err := s.pipeline.Process(r.Context(), pipeline.Request{
		UploadID:    uploader.GetID(),
		InputPath:   inputPath,
		ContentType: uploader.GetContentType(),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Duration:    duration,
		Checksum:    checksum,
		UploadedBy:  userID,
	})
	if err != nil {
		log.Error().Err(err).Str("upload_id", uploader.GetID()).Msg("upload pipeline failed")
		writePipelineError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message":  "Video uploaded",
		"uploadId": uploader.GetID(),
		"video":    video,
	})
}

// parsePage normalizes page/limit query values: defaults for absent or
// non-numeric input, floor of 1, limit capped at the configured max.
func (s *Server) parsePage(r *http.Request) (int64, int64) {
	page := defaultPage
	if v, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64); err == nil {
		page = v
	}
	limit := defaultLimit
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil {
		limit = v
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > s.maxListLimit {
		limit = s.maxListLimit
	}

	return page, limit
}

// @Summary List videos, newest first
// @Tags videos
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Router /api/videos [get]
func (s *Server) listVideosHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := s.parsePage(r)

	result, err := s.videos.List(r.Context(), page, limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch videos")
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// @Summary Get one video by id
// @Tags videos
// @Produce json
// @Router /api/videos/{id} [get]
func (s *Server) getVideoHandler(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid video id")
		return
	}

	video, err := s.videos.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}

	writeJSONResponse(w, http.StatusOK, video)
}

// @Summary Update a video's title or description
// @Tags videos
// @Produce json
// @Router /api/videos/{id} [patch]
func (s *Server) updateVideoHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFrom(r)
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid video id")
		return
	}

	video, err := s.videos.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}
	if video.UploadedBy != userID {
		writeErrorResponse(w, http.StatusForbidden, "Not allowed")
		return
	}

	var update models.VideoUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := s.videos.Update(r.Context(), id, update)
	if err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}

	writeJSONResponse(w, http.StatusOK, updated)
}

// @Summary Delete a video and its remote asset
// @Tags videos
// @Produce json
// @Router /api/videos/{id} [delete]
func (s *Server) deleteVideoHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := identityFrom(r)
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid video id")
		return
	}

	video, err := s.videos.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}
	if video.UploadedBy != userID {
		writeErrorResponse(w, http.StatusForbidden, "Not allowed")
		return
	}

	if video.PublicId != "" {
		if err := s.publisher.Unpublish(r.Context(), video.PublicId); err != nil && !errors.Is(err, publisher.ErrNotPublished) {
			log.Error().Err(err).Str("cid", video.PublicId).Msg("failed to unpublish video")
			writeErrorResponse(w, http.StatusInternalServerError, "Failed to delete video")
			return
		}
	}

	if err := s.videos.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err, "Video not found")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Video deleted"})
}

// @Summary Get pipeline status for an upload
// @Tags videos
// @Produce json
// @Router /api/videos/status/{uploadId} [get]
func (s *Server) uploadStatusHandler(w http.ResponseWriter, r *http.Request) {
	status, err := s.statuses.Get(mux.Vars(r)["uploadId"])
	if err != nil {
		writeErrorResponse(w, http.StatusNotFound, "Upload not found")
		return
	}

	writeJSONResponse(w, http.StatusOK, status)
}
