package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidmill/vidmill/auth"
	"github.com/vidmill/vidmill/database"
	"github.com/vidmill/vidmill/ds"
	"github.com/vidmill/vidmill/models"
	"github.com/vidmill/vidmill/pipeline"
	"github.com/vidmill/vidmill/publisher"
)

type fakeUsers struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeUsers) Update(ctx context.Context, id primitive.ObjectID, update models.UserUpdate) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if update.Username != nil {
		u.Username = *update.Username
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.ProfilePictureUrl != nil {
		u.ProfilePictureUrl = *update.ProfilePictureUrl
	}
	return u, nil
}

type fakeVideos struct {
	videos map[primitive.ObjectID]*models.Video
}

func newFakeVideos() *fakeVideos {
	return &fakeVideos{videos: map[primitive.ObjectID]*models.Video{}}
}

func (f *fakeVideos) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	if v, ok := f.videos[id]; ok {
		return v, nil
	}
	return nil, database.ErrNotFound
}

func (f *fakeVideos) FindByUploader(ctx context.Context, userID primitive.ObjectID) ([]models.Video, error) {
	out := []models.Video{}
	for _, v := range f.videos {
		if v.UploadedBy == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVideos) List(ctx context.Context, page, limit int64) (*models.VideoPage, error) {
	return &models.VideoPage{
		Total:  int64(len(f.videos)),
		Page:   page,
		Limit:  limit,
		Videos: []models.Video{},
	}, nil
}

func (f *fakeVideos) Update(ctx context.Context, id primitive.ObjectID, update models.VideoUpdate) (*models.Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	if update.Title != nil {
		v.Title = *update.Title
	}
	if update.Description != nil {
		v.Description = *update.Description
	}
	return v, nil
}

func (f *fakeVideos) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := f.videos[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.videos, id)
	return nil
}

type fakePipeline struct {
	calls int
	err   error
}

func (f *fakePipeline) Process(ctx context.Context, req pipeline.Request) (*models.Video, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	video := models.NewVideo(req.Title, req.Description, req.UploadedBy)
	video.VideoUrl = "https://ipfs.io/ipfs/QmTest"
	video.PublicId = "QmTest"
	return video, nil
}

type fakeMediaPublisher struct {
	unpublished []string
}

func (f *fakeMediaPublisher) Publish(ctx context.Context, path string) (*publisher.Result, error) {
	return &publisher.Result{URL: "https://ipfs.io/ipfs/QmPic", ContentID: "QmPic"}, nil
}

func (f *fakeMediaPublisher) Unpublish(ctx context.Context, contentID string) error {
	f.unpublished = append(f.unpublished, contentID)
	return nil
}

type fakeStatuses struct{}

func (f *fakeStatuses) Get(uploadID string) (*ds.JobStatus, error) {
	if uploadID == "known" {
		return &ds.JobStatus{UploadID: "known", Stage: ds.StageCompleted, Percentage: 100}, nil
	}
	return nil, ds.ErrStatusNotFound
}

type testEnv struct {
	router    *mux.Router
	users     *fakeUsers
	videos    *fakeVideos
	pipeline  *fakePipeline
	publisher *fakeMediaPublisher
	tokens    *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		users:     newFakeUsers(),
		videos:    newFakeVideos(),
		pipeline:  &fakePipeline{},
		publisher: &fakeMediaPublisher{},
		tokens:    auth.NewTokenService("test-secret"),
	}

	srv := New(Deps{
		Users:        env.users,
		Videos:       env.videos,
		Pipeline:     env.pipeline,
		Tokens:       env.tokens,
		Publisher:    env.publisher,
		Statuses:     &fakeStatuses{},
		UploadDir:    t.TempDir(),
		MaxListLimit: 100,
	})

	env.router = mux.NewRouter()
	srv.RegisterRoutes(env.router)

	return env
}

func (env *testEnv) addUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user := models.NewUser("alice", email, hash)
	env.users.users[user.ID] = user
	return user
}

func (env *testEnv) bearer(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := env.tokens.Issue(user.ID.Hex())
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(router *mux.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func videoForm(t *testing.T, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="video"; filename="clip.mp4"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake video bytes"))
	require.NoError(t, err)

	require.NoError(t, writer.WriteField("title", "My clip"))
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(env.router, "POST", "/auth/register", "", map[string]string{
		"username": "alice",
		"password": "pw123",
		"email":    "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(env.router, "POST", "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string         `json:"token"`
		User  models.Summary `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "alice@example.com", resp.User.Email)

	userID, err := env.tokens.Verify(resp.Token)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID.Hex(), userID)
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(env.router, "POST", "/auth/register", "", map[string]string{"username": "bob"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice@example.com", "pw123")

	rec := doJSON(env.router, "POST", "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Authentication failed")
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(env.router, "POST", "/auth/login", "", map[string]string{
		"email":    "ghost@example.com",
		"password": "pw123",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/user/profile"},
		{"GET", "/api/user/uploads"},
		{"GET", "/dashboard"},
		{"POST", "/api/videos/upload"},
	} {
		rec := doJSON(env.router, route.method, route.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}
}

func TestTokenSignedWithOtherSecretRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice@example.com", "pw123")

	other := auth.NewTokenService("other-secret")
	token, err := other.Issue(user.ID.Hex())
	require.NoError(t, err)

	rec := doJSON(env.router, "GET", "/api/user/profile", "Bearer "+token, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid token")
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice@example.com", "pw123")

	rec := doJSON(env.router, "GET", "/api/user/profile", env.bearer(t, user), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "alice@example.com")
	require.NotContains(t, rec.Body.String(), user.PasswordHash)
}

func TestUpdateProfileJSON(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice@example.com", "pw123")

	rec := doJSON(env.router, "PATCH", "/api/user/profile", env.bearer(t, user), map[string]string{
		"username": "alice2",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice2", env.users.users[user.ID].Username)
}

func TestUploadVideoSuccess(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice@example.com", "pw123")

	body, contentType := videoForm(t, "video/mp4")
	req := httptest.NewRequest("POST", "/api/videos/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", env.bearer(t, user))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Video models.Video `json:"video"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, user.ID, resp.Video.UploadedBy)
	require.NotEmpty(t, resp.Video.VideoUrl)
	require.Equal(t, 1, env.pipeline.calls)
}

func TestUploadVideoWrongContentType(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice@example.com", "pw123")

	body, contentType := videoForm(t, "text/plain")
	req := httptest.NewRequest("POST", "/api/videos/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", env.bearer(t, user))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorJson
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Invalid file type", resp.Error)
	require.Zero(t, env.pipeline.calls)
}

func TestUploadVideoPipelineFailure(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice@example.com", "pw123")
	env.pipeline.err = pipeline.ErrTranscode

	body, contentType := videoForm(t, "video/mp4")
	req := httptest.NewRequest("POST", "/api/videos/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", env.bearer(t, user))

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListVideosPagination(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(env.router, "GET", "/api/videos?page=2&limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.VideoPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, int64(2), page.Page)
	require.Equal(t, int64(1), page.Limit)
}

func TestListVideosDefaultsAndCap(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(env.router, "GET", "/api/videos?page=zero&limit=junk", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.VideoPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.Page)
	require.Equal(t, int64(10), page.Limit)

	rec = doJSON(env.router, "GET", "/api/videos?limit=100000", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, int64(100), page.Limit)
}

func TestGetVideoByID(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice@example.com", "pw123")

	video := models.NewVideo("clip", "", user.ID)
	video.VideoUrl = "https://ipfs.io/ipfs/QmV"
	env.videos.videos[video.ID] = video

	rec := doJSON(env.router, "GET", "/api/videos/"+video.ID.Hex(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "QmV")

	rec = doJSON(env.router, "GET", "/api/videos/"+primitive.NewObjectID().Hex(), "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(env.router, "GET", "/api/videos/not-a-hex-id", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserUploads(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice@example.com", "pw123")
	bob := env.addUser(t, "bob@example.com", "pw456")

	mine := models.NewVideo("mine", "", alice.ID)
	theirs := models.NewVideo("theirs", "", bob.ID)
	env.videos.videos[mine.ID] = mine
	env.videos.videos[theirs.ID] = theirs

	rec := doJSON(env.router, "GET", "/api/user/uploads", env.bearer(t, alice), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var uploads []models.Video
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploads))
	require.Len(t, uploads, 1)
	require.Equal(t, "mine", uploads[0].Title)
}

func TestDeleteVideoOwnership(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice@example.com", "pw123")
	bob := env.addUser(t, "bob@example.com", "pw456")

	video := models.NewVideo("clip", "", alice.ID)
	video.PublicId = "QmV"
	env.videos.videos[video.ID] = video

	rec := doJSON(env.router, "DELETE", "/api/videos/"+video.ID.Hex(), env.bearer(t, bob), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(env.router, "DELETE", "/api/videos/"+video.ID.Hex(), env.bearer(t, alice), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"QmV"}, env.publisher.unpublished)
	require.Empty(t, env.videos.videos)
}

func TestUpdateVideo(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice@example.com", "pw123")

	video := models.NewVideo("old title", "", alice.ID)
	env.videos.videos[video.ID] = video

	rec := doJSON(env.router, "PATCH", "/api/videos/"+video.ID.Hex(), env.bearer(t, alice), map[string]string{
		"title": "new title",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "new title", env.videos.videos[video.ID].Title)
}

func TestUploadStatus(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(env.router, "GET", "/api/videos/status/known", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "completed")

	rec = doJSON(env.router, "GET", "/api/videos/status/unknown", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser(t, "alice@example.com", "pw123")

	rec := doJSON(env.router, "GET", "/dashboard", env.bearer(t, user), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Protected route accessed")
}

func TestWelcome(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(env.router, "GET", "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "video processing service")
}
