package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapgram/internal/auth"
	"snapgram/internal/repository/sqlite"
	"snapgram/internal/service"
	"snapgram/internal/storage"
)

type fakeMedia struct {
	uploads map[string]string
}

func (m *fakeMedia) Store(_ context.Context, obj storage.Object) (string, error) {
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	url := "https://media.test/" + string(obj.Kind) + "/" + obj.Filename
	m.uploads[url] = string(data)
	return url, nil
}

func (m *fakeMedia) Transform(_ context.Context, rawURL, format string) (string, error) {
	return rawURL + "?format=" + format, nil
}

type testServer struct {
	router *gin.Engine
	media  *fakeMedia
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := sqlite.NewStore(db)
	require.NoError(t, store.Init(context.Background()))

	issuer, err := auth.NewIssuer("api-test-secret", 5*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	media := &fakeMedia{uploads: map[string]string{}}
	pager := service.NewPager(service.DefaultPageSize, service.MaxPageSize)

	router := gin.New()
	NewHandler(Deps{
		Users:    service.NewUserService(store.Users, issuer, media, pager),
		Posts:    service.NewPostService(store.Posts, media),
		Comments: service.NewCommentService(store.Comments, store.Posts),
		Likes:    service.NewLikeService(store.Likes, store.Posts, pager, logger),
		Follows:  service.NewFollowService(store.Follows, store.Users, pager, logger),
		Feed:     service.NewFeedService(store.Posts, store.Comments, pager),
		Media:    media,
		Tokens:   issuer,
		Logger:   logger,
		Metrics:  NewMetrics(prometheus.NewRegistry()),
	}).RegisterRoutes(router)

	return &testServer{router: router, media: media}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signup(t *testing.T, username string) (UserResponse, TokenResponse) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/register", "", map[string]string{
		"username":        username,
		"email":           username + "@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[UserResponse](t, rec)

	rec = s.do(t, http.MethodPost, "/token", "", map[string]string{
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return user, decode[TokenResponse](t, rec)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorEnvelope](t, rec).Error.Code
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorEnvelope](t, rec).Error.Message
}

func TestAliceAndBob(t *testing.T) {
	s := newTestServer(t)
	alice, aliceTokens := s.signup(t, "alice")
	bob, bobTokens := s.signup(t, "bob")

	// alice posts
	rec := s.do(t, http.MethodPost, "/posts", aliceTokens.Access, map[string]any{"content": "hello from alice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[PostResponse](t, rec)
	assert.Equal(t, "alice", post.Author)
	assert.Equal(t, "alice", post.AuthorUsername)
	assert.Nil(t, post.Image)

	// bob cannot touch it
	rec = s.do(t, http.MethodPut, "/post/"+itoa(post.ID), bobTokens.Access, map[string]any{"content": "bob was here"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorCode(t, rec))
	rec = s.do(t, http.MethodDelete, "/post/"+itoa(post.ID), bobTokens.Access, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// bob likes, then unlikes
	rec = s.do(t, http.MethodPost, "/postlikes/"+itoa(post.ID), bobTokens.Access, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decode[ToggleResponse](t, rec).Created)

	rec = s.do(t, http.MethodGet, "/postlikes/"+itoa(post.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	likes := decode[PageResponse[LikeResponse]](t, rec)
	require.Len(t, likes.Results, 1)
	assert.Equal(t, "bob", likes.Results[0].User)

	rec = s.do(t, http.MethodPost, "/postlikes/"+itoa(post.ID), bobTokens.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[ToggleResponse](t, rec).Removed)

	// bob follows alice
	rec = s.do(t, http.MethodPost, "/follow", bobTokens.Access, map[string]any{"following": alice.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	toggled := decode[ToggleResponse](t, rec)
	require.NotNil(t, toggled.Follow)
	assert.Equal(t, bob.ID, toggled.Follow.Follower)
	assert.Equal(t, alice.ID, toggled.Follow.Following)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), toggled.Follow.CreatedAt)

	rec = s.do(t, http.MethodGet, "/users/"+itoa(alice.ID)+"/followers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	followers := decode[PageResponse[FollowResponse]](t, rec)
	require.Len(t, followers.Results, 1)
	assert.Equal(t, "bob", followers.Results[0].FollowerUsername)

	rec = s.do(t, http.MethodPost, "/follow", bobTokens.Access, map[string]any{"following": bob.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_target", errorCode(t, rec))

	// bob comments
	rec = s.do(t, http.MethodPost, "/comments", bobTokens.Access, map[string]any{"post": post.ID, "message": "hi alice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode[CommentResponse](t, rec)
	assert.Equal(t, "bob", comment.User)

	rec = s.do(t, http.MethodDelete, "/comment/"+itoa(comment.ID), aliceTokens.Access, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/comments?post="+itoa(post.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[PageResponse[CommentResponse]](t, rec).Total)

	// alice edits and deletes her post
	rec = s.do(t, http.MethodPut, "/post/"+itoa(post.ID), aliceTokens.Access, map[string]any{"content": "edited"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "edited", decode[PostResponse](t, rec).Content)

	rec = s.do(t, http.MethodDelete, "/post/"+itoa(post.ID), aliceTokens.Access, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/comments?post="+itoa(post.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decode[PageResponse[CommentResponse]](t, rec).Total)
}

func TestFeedEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, aliceTokens := s.signup(t, "alice")
	_, bobTokens := s.signup(t, "bob")

	for _, c := range []struct{ token, content string }{
		{aliceTokens.Access, "I love my cat"},
		{bobTokens.Access, "dogs rule"},
		{aliceTokens.Access, "third post"},
	} {
		rec := s.do(t, http.MethodPost, "/posts", c.token, map[string]any{"content": c.content})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(t, http.MethodGet, "/posts?page_size=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[PageResponse[PostResponse]](t, rec)
	assert.Len(t, page.Results, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.True(t, page.HasMore)
	assert.Equal(t, "third post", page.Results[0].Content)

	rec = s.do(t, http.MethodGet, "/posts?author=bob", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[PageResponse[PostResponse]](t, rec).Total)

	rec = s.do(t, http.MethodGet, "/posts/search?q=CAT", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[PageResponse[PostResponse]](t, rec)
	require.Len(t, found.Results, 1)
	assert.Equal(t, "I love my cat", found.Results[0].Content)

	rec = s.do(t, http.MethodGet, "/posts/search?q=", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[PageResponse[PostResponse]](t, rec).Results)

	rec = s.do(t, http.MethodGet, "/posts?page=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}

func TestAuthBoundary(t *testing.T) {
	s := newTestServer(t)
	_, tokens := s.signup(t, "alice")

	rec := s.do(t, http.MethodPost, "/posts", "", map[string]any{"content": "anonymous"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/posts", tokens.Refresh, map[string]any{"content": "refresh as access"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh tokens never authenticate requests")

	rec = s.do(t, http.MethodPost, "/token/refresh", "", map[string]string{"refresh": tokens.Refresh})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refreshed := decode[TokenResponse](t, rec)
	assert.NotEmpty(t, refreshed.Access)
	assert.Empty(t, refreshed.Refresh)

	rec = s.do(t, http.MethodGet, "/user", refreshed.Access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[UserResponse](t, rec).Username)

	rec = s.do(t, http.MethodPost, "/token/refresh", "", map[string]string{"refresh": tokens.Access})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/token", "", map[string]string{"email": "alice@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "mallory", "email": "m@example.com", "password": "password123", "confirm_password": "password321",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
	assert.NotContains(t, rec.Body.String(), "password123")

	rec = s.do(t, http.MethodGet, "/users", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[PageResponse[UserResponse]](t, rec).Total)
}

func TestAnonymousWritesAreRejectedBeforeBinding(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		method, path string
	}{
		{http.MethodPost, "/follow"},
		{http.MethodPost, "/comments"},
		{http.MethodPut, "/comment/1"},
		{http.MethodPost, "/posts"},
		{http.MethodPut, "/post/1"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := s.do(t, tc.method, tc.path, "", map[string]string{})
			assert.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
			assert.Equal(t, "unauthenticated", errorCode(t, rec))
		})
	}
}

func TestBindingErrorsNameJSONFields(t *testing.T) {
	s := newTestServer(t)
	_, tokens := s.signup(t, "alice")

	rec := s.do(t, http.MethodPost, "/follow", tokens.Access, map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "following is required", errorMessage(t, rec))
	assert.NotContains(t, body, "followPayload")
	assert.NotContains(t, body, "Key:")

	rec = s.do(t, http.MethodPost, "/comments", tokens.Access, map[string]any{"post": "one", "message": "hi"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "post has the wrong type", errorMessage(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/comments", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec = s.send(req, tokens.Access)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body must be valid JSON", errorMessage(t, rec))
}

func TestRegisterConfirmationKeys(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "password123", "confirm_password": "password123",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "carol", "email": "carol@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorCode(t, rec))
}

func TestMultipartPostAndProfilePic(t *testing.T) {
	s := newTestServer(t)
	_, tokens := s.signup(t, "alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("content", "look at this"))
	part, err := mw.CreateFormFile("video", "clip.mov")
	require.NoError(t, err)
	_, err = part.Write([]byte("movie-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/posts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := s.send(req, tokens.Access)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	post := decode[PostResponse](t, rec)
	require.NotNil(t, post.Video)
	assert.Equal(t, "https://media.test/videos/clip.mov?format=mp4", *post.Video)
	assert.Equal(t, "movie-bytes", s.media.uploads["https://media.test/videos/clip.mov"])

	buf.Reset()
	mw = multipart.NewWriter(&buf)
	part, err = mw.CreateFormFile("profile_pic", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req = httptest.NewRequest(http.MethodPut, "/user/profile-pic", bytes.NewReader(buf.Bytes()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = s.send(req, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/user/profile-pic", bytes.NewReader(buf.Bytes()))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = s.send(req, tokens.Access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	user := decode[UserResponse](t, rec)
	require.NotNil(t, user.ProfilePic)
	assert.Equal(t, "https://media.test/avatars/me.png", *user.ProfilePic)

	rec = s.do(t, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[PageResponse[PostResponse]](t, rec)
	require.Len(t, listed.Results, 1)
	require.NotNil(t, listed.Results[0].ProfilePic)
	assert.Equal(t, *user.ProfilePic, *listed.Results[0].ProfilePic)
}

func TestDeleteAccountCascades(t *testing.T) {
	s := newTestServer(t)
	alice, aliceTokens := s.signup(t, "alice")
	_, bobTokens := s.signup(t, "bob")

	rec := s.do(t, http.MethodPost, "/posts", aliceTokens.Access, map[string]any{"content": "soon gone"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/follow", bobTokens.Access, map[string]any{"following": itoa(alice.ID)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/user", aliceTokens.Access, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[PageResponse[PostResponse]](t, rec).Results)

	rec = s.do(t, http.MethodGet, "/user", aliceTokens.Access, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "req-123")
	rec = s.send(req, "")
	assert.Equal(t, "req-123", rec.Header().Get(headerRequestID))

	rec = s.do(t, http.MethodGet, "/post/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodGet, "/post/42", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `snapgram_http_requests_total{method="GET",route="/post/:id",status="404"} 1`))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
