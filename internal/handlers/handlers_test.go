package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/snapshare/internal/container"
	"github.com/zfogg/snapshare/internal/feed"
	"github.com/zfogg/snapshare/internal/intelligence"
	"github.com/zfogg/snapshare/internal/middleware"
	"github.com/zfogg/snapshare/internal/models"
	"github.com/zfogg/snapshare/internal/repository"
	"github.com/zfogg/snapshare/internal/storage"
	"github.com/zfogg/snapshare/internal/testutil"
	"github.com/zfogg/snapshare/internal/util"
	"gorm.io/gorm"
)

const testSecret = "handlers-test-secret"

// recordingAnalyzer returns a fixed analysis and remembers what it was asked
type recordingAnalyzer struct {
	mu     sync.Mutex
	images []string
}

func (a *recordingAnalyzer) AnalyzeImage(ctx context.Context, base64Image string) intelligence.Analysis {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.images = append(a.images, base64Image)
	return intelligence.Analysis{Description: "a red square", Tags: []string{"red", "square"}}
}

func (a *recordingAnalyzer) ModerateContent(ctx context.Context, text string) bool {
	return true
}

// HandlersTestSuite runs the API against in-memory SQLite and a temp upload dir
type HandlersTestSuite struct {
	suite.Suite
	db        *gorm.DB
	router    *gin.Engine
	uploadDir string
	analyzer  *recordingAnalyzer
	alice     *models.User
	bob       *models.User
}

func (suite *HandlersTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	suite.uploadDir = suite.T().TempDir()
	suite.analyzer = &recordingAnalyzer{}

	auth := middleware.NewAuthenticator(testSecret)
	c := container.New().
		SetDB(suite.db).
		SetStorage(storage.NewLocalBackend(suite.uploadDir, "/uploads")).
		SetAnalyzer(suite.analyzer).
		SetAuthenticator(auth)
	suite.Require().NoError(c.Build(false))

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	NewHandlers(c).RegisterRoutes(suite.router, auth)

	suite.alice = testutil.CreateUser(suite.T(), suite.db, "alice")
	suite.bob = testutil.CreateUser(suite.T(), suite.db, "bob")
}

func (suite *HandlersTestSuite) token(userID string) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID}).
		SignedString([]byte(testSecret))
	suite.Require().NoError(err)
	return token
}

func (suite *HandlersTestSuite) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+suite.token(userID))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// multipartFile is one file part with an explicit content type
type multipartFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func (suite *HandlersTestSuite) doMultipart(path, userID string, fields map[string]string, files []multipartFile) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		suite.Require().NoError(mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		suite.Require().NoError(err)
		_, err = part.Write(f.data)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+suite.token(userID))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (suite *HandlersTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var resp util.ErrorResponse
	suite.decode(w, &resp)
	return resp.Code
}

func (suite *HandlersTestSuite) createPost(userID, content string) *models.Post {
	w := suite.do(http.MethodPost, "/api/v1/posts", userID, map[string]interface{}{"content": content})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var post models.Post
	suite.decode(w, &post)
	return &post
}

// ===== HEALTH & AUTH TESTS =====

func (suite *HandlersTestSuite) TestHealth() {
	w := suite.do(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)

	var resp map[string]interface{}
	suite.decode(w, &resp)
	suite.Equal("ok", resp["status"])
	suite.Equal("ok", resp["database"])
}

func (suite *HandlersTestSuite) TestProtectedRoutesRequireAuth() {
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/posts"},
		{http.MethodGet, "/api/v1/feed"},
		{http.MethodPost, "/api/v1/posts"},
		{http.MethodPost, "/api/v1/posts/x/like"},
		{http.MethodPost, "/api/v1/posts/x/favorite"},
		{http.MethodGet, "/api/v1/posts/x/comments"},
		{http.MethodPost, "/api/v1/posts/x/comments"},
	}
	for _, r := range routes {
		w := suite.do(r.method, r.path, "", nil)
		suite.Equal(http.StatusUnauthorized, w.Code, r.path)
		suite.Equal("AUTHENTICATION_REQUIRED", suite.errorCode(w), r.path)
	}
}

// ===== POST TESTS =====

func (suite *HandlersTestSuite) TestCreatePost() {
	w := suite.do(http.MethodPost, "/api/v1/posts", suite.alice.ID, map[string]interface{}{
		"content":       "  sunset  ",
		"images":        []string{"/uploads/a.jpg"},
		"aiTags":        []string{"sunset", "beach"},
		"aiDescription": "A beach at dusk",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var post models.Post
	suite.decode(w, &post)
	suite.NotEmpty(post.ID)
	suite.Equal(suite.alice.ID, post.AuthorID)
	suite.Equal(models.StringArray{"/uploads/a.jpg"}, post.Images)
	suite.Equal(models.StringArray{"sunset", "beach"}, post.AITags)
	suite.Require().NotNil(post.AIDescription)
	suite.Equal("A beach at dusk", *post.AIDescription)
	suite.True(post.Published)
}

func (suite *HandlersTestSuite) TestCreatePostRequiresContentOrImages() {
	for _, body := range []map[string]interface{}{
		{},
		{"content": "   "},
		{"content": "", "images": []string{}},
	} {
		w := suite.do(http.MethodPost, "/api/v1/posts", suite.alice.ID, body)
		suite.Equal(http.StatusBadRequest, w.Code)
		suite.Equal("VALIDATION_FAILED", suite.errorCode(w))
	}
}

func (suite *HandlersTestSuite) TestCreatePostRejectsMalformedBody() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.token(suite.alice.ID))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("BAD_REQUEST", suite.errorCode(w))
}

// ===== FEED TESTS =====

func (suite *HandlersTestSuite) TestFeedCarriesViewerFlags() {
	liked := suite.createPost(suite.bob.ID, "liked by alice")
	suite.createPost(suite.bob.ID, "not liked")

	w := suite.do(http.MethodPost, "/api/v1/posts/"+liked.ID+"/like", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/feed", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var resp feed.Response
	suite.decode(w, &resp)
	suite.Require().Len(resp.Items, 2)
	suite.Equal(feed.FeedMeta{Limit: feed.PageSize, Count: 2}, resp.Meta)

	for _, item := range resp.Items {
		suite.Require().NotNil(item.Liked)
		suite.Require().NotNil(item.Favorited)
		suite.False(*item.Favorited)
		suite.Equal("bob", item.Author.Name)
		if item.ID == liked.ID {
			suite.True(*item.Liked)
			suite.Equal(int64(1), item.Counts.Likes)
		} else {
			suite.False(*item.Liked)
			suite.Equal(int64(0), item.Counts.Likes)
		}
	}
}

func (suite *HandlersTestSuite) TestListPostsOmitsViewerFlags() {
	suite.createPost(suite.bob.ID, "hello")

	w := suite.do(http.MethodGet, "/api/v1/posts", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.NotContains(w.Body.String(), `"liked"`)
	suite.NotContains(w.Body.String(), `"favorited"`)

	var resp feed.Response
	suite.decode(w, &resp)
	suite.Len(resp.Items, 1)
}

func (suite *HandlersTestSuite) TestFeedIsCappedAtPageSize() {
	for i := 0; i < feed.PageSize+3; i++ {
		suite.createPost(suite.alice.ID, fmt.Sprintf("post %d", i))
	}

	w := suite.do(http.MethodGet, "/api/v1/feed", suite.alice.ID, nil)
	var resp feed.Response
	suite.decode(w, &resp)
	suite.Len(resp.Items, feed.PageSize)
}

// ===== COMMENT TESTS =====

func (suite *HandlersTestSuite) TestCommentsRoundTrip() {
	post := suite.createPost(suite.alice.ID, "comment on me")

	w := suite.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", suite.bob.ID, map[string]string{"content": "  nice  "})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created commentResponse
	suite.decode(w, &created)
	suite.Equal("nice", created.Content)
	suite.Equal(post.ID, created.PostID)
	suite.Equal(suite.bob.Summary(), created.Author)

	suite.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", suite.alice.ID, map[string]string{"content": "thanks"})

	w = suite.do(http.MethodGet, "/api/v1/posts/"+post.ID+"/comments", suite.alice.ID, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var listed struct {
		Comments []commentResponse `json:"comments"`
	}
	suite.decode(w, &listed)
	suite.Require().Len(listed.Comments, 2)
	suite.Equal("thanks", listed.Comments[0].Content)
	suite.Equal("alice", listed.Comments[0].Author.Name)
	suite.Equal("nice", listed.Comments[1].Content)
}

func (suite *HandlersTestSuite) TestCommentErrors() {
	post := suite.createPost(suite.alice.ID, "post")

	w := suite.do(http.MethodPost, "/api/v1/posts/"+post.ID+"/comments", suite.bob.ID, map[string]string{"content": "   "})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("VALIDATION_FAILED", suite.errorCode(w))

	w = suite.do(http.MethodPost, "/api/v1/posts/missing/comments", suite.bob.ID, map[string]string{"content": "hi"})
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("NOT_FOUND", suite.errorCode(w))

	w = suite.do(http.MethodGet, "/api/v1/posts/missing/comments", suite.bob.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

// ===== REACTION TESTS =====

func (suite *HandlersTestSuite) TestToggleLikeAndFavorite() {
	post := suite.createPost(suite.alice.ID, "react")

	expect := func(path, userID string, want repository.ToggleResult) {
		w := suite.do(http.MethodPost, path, userID, nil)
		suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
		var got repository.ToggleResult
		suite.decode(w, &got)
		suite.Equal(want, got, path)
	}

	like := "/api/v1/posts/" + post.ID + "/like"
	favorite := "/api/v1/posts/" + post.ID + "/favorite"

	expect(like, suite.alice.ID, repository.ToggleResult{Active: true, Count: 1})
	expect(like, suite.bob.ID, repository.ToggleResult{Active: true, Count: 2})
	expect(like, suite.alice.ID, repository.ToggleResult{Active: false, Count: 1})
	expect(favorite, suite.alice.ID, repository.ToggleResult{Active: true, Count: 1})
	expect(favorite, suite.alice.ID, repository.ToggleResult{Active: false, Count: 0})
}

func (suite *HandlersTestSuite) TestToggleMissingPost() {
	w := suite.do(http.MethodPost, "/api/v1/posts/missing/like", suite.alice.ID, nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("NOT_FOUND", suite.errorCode(w))
}

// ===== UPLOAD & ANALYZE TESTS =====

func (suite *HandlersTestSuite) TestUploadStoresImage() {
	data := []byte("\x89PNG fake image bytes")
	w := suite.doMultipart("/api/v1/upload", "", nil, []multipartFile{
		{field: "file", filename: "Photo.PNG", contentType: "image/png", data: data},
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		URL      string `json:"url"`
		Base64   string `json:"base64"`
		Filename string `json:"filename"`
	}
	suite.decode(w, &resp)
	suite.True(strings.HasSuffix(resp.Filename, ".png"))
	suite.Equal("/uploads/"+resp.Filename, resp.URL)
	suite.Equal(base64.StdEncoding.EncodeToString(data), resp.Base64)

	stored, err := os.ReadFile(filepath.Join(suite.uploadDir, resp.Filename))
	suite.Require().NoError(err)
	suite.Equal(data, stored)
}

func (suite *HandlersTestSuite) TestUploadValidation() {
	tests := []struct {
		name    string
		files   []multipartFile
		message string
	}{
		{"missing file", nil, "no file"},
		{"empty file", []multipartFile{{field: "file", filename: "a.png", contentType: "image/png"}}, "no file"},
		{"not an image", []multipartFile{{field: "file", filename: "a.txt", contentType: "text/plain", data: []byte("hi")}}, "not an image"},
		{"too large", []multipartFile{{field: "file", filename: "a.jpg", contentType: "image/jpeg", data: make([]byte, 10<<20+1)}}, "file too large"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.doMultipart("/api/v1/upload", "", nil, tt.files)
			suite.Equal(http.StatusBadRequest, w.Code)

			var resp util.ErrorResponse
			suite.decode(w, &resp)
			suite.Equal("VALIDATION_FAILED", resp.Code)
			suite.Equal(tt.message, resp.Message)
		})
	}
}

func (suite *HandlersTestSuite) TestAnalyze() {
	w := suite.do(http.MethodPost, "/api/v1/ai/analyze", "", map[string]string{"image": "aGVsbG8="})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"description":"a red square","tags":["red","square"]}`, w.Body.String())

	// Blank images never reach the model
	w = suite.do(http.MethodPost, "/api/v1/ai/analyze", "", map[string]string{"image": ""})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"description":"","tags":[]}`, w.Body.String())
	suite.Len(suite.analyzer.images, 1)
}

// ===== PUBLISH TESTS =====

func (suite *HandlersTestSuite) TestPublishAnalyzesFirstImageOnly() {
	first := []byte("first image")
	w := suite.doMultipart("/api/v1/posts/publish", suite.alice.ID,
		map[string]string{"content": "two photos"},
		[]multipartFile{
			{field: "files", filename: "one.jpg", contentType: "image/jpeg", data: first},
			{field: "files", filename: "two.webp", contentType: "image/webp", data: []byte("second image")},
		})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var post models.Post
	suite.decode(w, &post)
	suite.Len(post.Images, 2)
	suite.Equal(models.StringArray{"red", "square"}, post.AITags)
	suite.Require().NotNil(post.AIDescription)
	suite.Equal("a red square", *post.AIDescription)
	suite.Equal([]string{base64.StdEncoding.EncodeToString(first)}, suite.analyzer.images)
}

func (suite *HandlersTestSuite) TestPublishRequiresContentOrFiles() {
	w := suite.doMultipart("/api/v1/posts/publish", suite.alice.ID, map[string]string{"content": " "}, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("VALIDATION_FAILED", suite.errorCode(w))
}

func (suite *HandlersTestSuite) TestPublishRejectsNonImage() {
	w := suite.doMultipart("/api/v1/posts/publish", suite.alice.ID, nil, []multipartFile{
		{field: "files", filename: "notes.txt", contentType: "text/plain", data: []byte("hi")},
	})
	suite.Equal(http.StatusBadRequest, w.Code)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Post{}).Count(&count).Error)
	suite.Zero(count)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
