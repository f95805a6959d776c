package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidmill/vidmill/ds"
	"github.com/vidmill/vidmill/models"
	"github.com/vidmill/vidmill/pipeline"
	"github.com/vidmill/vidmill/publisher"
)

const (
	methodGET    = "GET"
	methodPOST   = "POST"
	methodPATCH  = "PATCH"
	methodDELETE = "DELETE"

	defaultPage  int64 = 1
	defaultLimit int64 = 10
)

// UserStore is the user persistence surface the handlers need.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, update models.UserUpdate) (*models.User, error)
}

// VideoStore is the video persistence surface the handlers need.
type VideoStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	FindByUploader(ctx context.Context, userID primitive.ObjectID) ([]models.Video, error)
	List(ctx context.Context, page, limit int64) (*models.VideoPage, error)
	Update(ctx context.Context, id primitive.ObjectID, update models.VideoUpdate) (*models.Video, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UploadPipeline runs the transcode-publish-persist sequence.
type UploadPipeline interface {
	Process(ctx context.Context, req pipeline.Request) (*models.Video, error)
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// MediaPublisher is used directly for profile pictures and for
// unpublishing a deleted video's remote asset.
type MediaPublisher interface {
	Publish(ctx context.Context, localPath string) (*publisher.Result, error)
	Unpublish(ctx context.Context, contentID string) error
}

// StatusReader reads pipeline job status records.
type StatusReader interface {
	Get(uploadID string) (*ds.JobStatus, error)
}

// Server wires already-constructed collaborators into HTTP handlers.
// Nothing here is process-global; tests substitute fakes freely.
type Server struct {
	users     UserStore
	videos    VideoStore
	pipeline  UploadPipeline
	tokens    TokenService
	publisher MediaPublisher
	statuses  StatusReader

	uploadDir    string
	maxListLimit int64
}

type Deps struct {
	Users     UserStore
	Videos    VideoStore
	Pipeline  UploadPipeline
	Tokens    TokenService
	Publisher MediaPublisher
	Statuses  StatusReader

	UploadDir    string
	MaxListLimit int64
}

func New(deps Deps) *Server {
	limit := deps.MaxListLimit
	if limit <= 0 {
		limit = 100
	}

	return &Server{
		users:        deps.Users,
		videos:       deps.Videos,
		pipeline:     deps.Pipeline,
		tokens:       deps.Tokens,
		publisher:    deps.Publisher,
		statuses:     deps.Statuses,
		uploadDir:    deps.UploadDir,
		maxListLimit: limit,
	}
}

// RegisterRoutes mounts every route on the provided mux router.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", s.welcomeHandler).Methods(methodGET)

	r.HandleFunc("/auth/register", s.registerHandler).Methods(methodPOST)
	r.HandleFunc("/auth/login", s.loginHandler).Methods(methodPOST)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/videos/status/{uploadId}", s.uploadStatusHandler).Methods(methodGET)
	api.Handle("/videos/upload", s.authenticate(s.uploadVideoHandler)).Methods(methodPOST)
	api.HandleFunc("/videos", s.listVideosHandler).Methods(methodGET)
	api.HandleFunc("/videos/{id}", s.getVideoHandler).Methods(methodGET)
	api.Handle("/videos/{id}", s.authenticate(s.updateVideoHandler)).Methods(methodPATCH)
	api.Handle("/videos/{id}", s.authenticate(s.deleteVideoHandler)).Methods(methodDELETE)

	api.Handle("/user/profile", s.authenticate(s.getProfileHandler)).Methods(methodGET)
	api.Handle("/user/profile", s.authenticate(s.updateProfileHandler)).Methods(methodPATCH)
	api.Handle("/user/uploads", s.authenticate(s.userUploadsHandler)).Methods(methodGET)

	r.Handle("/dashboard", s.authenticate(s.dashboardHandler)).Methods(methodGET)
	r.Handle("/dashboard/videos/upload", s.authenticate(s.uploadVideoHandler)).Methods(methodPOST)
}

func (s *Server) welcomeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Welcome to the video processing service API",
	})
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Protected route accessed",
	})
}
