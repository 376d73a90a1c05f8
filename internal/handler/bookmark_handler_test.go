package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/linkhoard/linkhoard/internal/middleware"
	"github.com/linkhoard/linkhoard/internal/model"
	appErr "github.com/linkhoard/linkhoard/internal/pkg/errors"
	"github.com/linkhoard/linkhoard/internal/pkg/jwt"
	"github.com/linkhoard/linkhoard/internal/repo"
	"github.com/linkhoard/linkhoard/internal/service"
)

type fakeBookmarkReader struct {
	items map[string]*model.Bookmark
}

func (f *fakeBookmarkReader) Get(ctx context.Context, userID, id string) (*model.Bookmark, error) {
	bm, ok := f.items[id]
	if !ok || bm.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	return bm, nil
}

func (f *fakeBookmarkReader) List(ctx context.Context, userID string, filter repo.BookmarkFilter) ([]*model.Bookmark, error) {
	var out []*model.Bookmark
	for _, bm := range f.items {
		if bm.UserID != userID {
			continue
		}
		if filter.Type != "" && string(bm.Type) != filter.Type {
			continue
		}
		out = append(out, bm)
	}
	return out, nil
}

func (f *fakeBookmarkReader) Delete(ctx context.Context, userID, id string) error {
	bm, ok := f.items[id]
	if !ok || bm.UserID != userID {
		return appErr.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

const testSecret = "test-secret"

func newTestRouter(t *testing.T, reader *fakeBookmarkReader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	deps := RouterDeps{
		Bookmarks: NewBookmarkHandler(service.NewBookmarkService(reader)),
		JWTSecret: []byte(testSecret),
	}
	api := engine.Group("/api/v1")
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/bookmarks", deps.Bookmarks.List)
	authGroup.GET("/bookmarks/:id", deps.Bookmarks.Get)
	authGroup.DELETE("/bookmarks/:id", deps.Bookmarks.Delete)
	authGroup.GET("/ingest/:id", deps.Bookmarks.IngestState)
	return engine
}

func authHeader(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestBookmarkHandlerGet(t *testing.T) {
	reader := &fakeBookmarkReader{items: map[string]*model.Bookmark{
		"b1": {ID: "b1", UserID: "u1", Title: "Saved Page", Type: model.BookmarkTypeArticle, IngestStatus: model.IngestStatusCompleted},
	}}
	engine := newTestRouter(t, reader)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/bookmarks/b1", nil)
	req.Header.Set("Authorization", authHeader(t, "u1"))
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Saved Page")
}

func TestBookmarkHandlerGet_OtherUsersBookmarkHidden(t *testing.T) {
	reader := &fakeBookmarkReader{items: map[string]*model.Bookmark{
		"b1": {ID: "b1", UserID: "owner", Title: "Private"},
	}}
	engine := newTestRouter(t, reader)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/bookmarks/b1", nil)
	req.Header.Set("Authorization", authHeader(t, "intruder"))
	engine.ServeHTTP(w, req)

	require.NotContains(t, w.Body.String(), "Private")
}

func TestBookmarkHandlerIngestState(t *testing.T) {
	reader := &fakeBookmarkReader{items: map[string]*model.Bookmark{
		"b1": {
			ID:           "b1",
			UserID:       "u1",
			Title:        "Pending Page",
			IngestStatus: model.IngestStatusFailed,
			IngestError:  "Conversion returned empty result",
		},
	}}
	engine := newTestRouter(t, reader)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/ingest/b1", nil)
	req.Header.Set("Authorization", authHeader(t, "u1"))
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "failed")
	require.Contains(t, w.Body.String(), "Conversion returned empty result")
}

func TestBookmarkHandler_MissingToken(t *testing.T) {
	engine := newTestRouter(t, &fakeBookmarkReader{items: map[string]*model.Bookmark{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/bookmarks", nil)
	engine.ServeHTTP(w, req)

	require.Contains(t, w.Body.String(), "missing authorization")
}

func TestBookmarkHandlerDelete(t *testing.T) {
	reader := &fakeBookmarkReader{items: map[string]*model.Bookmark{
		"b1": {ID: "b1", UserID: "u1"},
	}}
	engine := newTestRouter(t, reader)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/api/v1/bookmarks/b1", nil)
	req.Header.Set("Authorization", authHeader(t, "u1"))
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, reader.items)
}
