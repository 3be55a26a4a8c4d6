package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/picstream/backend/internal/config"
	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStorage struct{}

func (stubStorage) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "https://storage.test/" + key + "?signature=stub", nil
}

func (stubStorage) Delete(ctx context.Context, key string) error { return nil }

// newTestRouter wires the image routes exactly as cmd/api does, with a
// middleware stub standing in for token resolution.
func newTestRouter(svc *services.ImageService, ident *models.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewImageHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if ident != nil {
			c.Set(middleware.IdentityKey, ident)
		}
		c.Next()
	})

	images := router.Group("/images")
	{
		images.POST("/presigned", handler.Presign)
		images.POST("", handler.CommitUploads)
		images.GET("", handler.Feed)
		images.GET("/:imageId", handler.GetOne)
		images.DELETE("/:imageId", handler.Delete)
		images.PATCH("/:imageId/like", handler.Like)
		images.PATCH("/:imageId/unlike", handler.Unlike)
	}
	return router
}

func newImageService() *services.ImageService {
	return services.NewImageService(services.NewMemoryImageStore(), stubStorage{}, config.New())
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func seedImages(t *testing.T, svc *services.ImageService, owner *models.Identity, n int, public bool) []models.Image {
	t.Helper()
	out := make([]models.Image, 0, n)
	for i := 0; i < n; i++ {
		records, err := svc.CommitUploads(context.Background(), owner, []services.UploadCommit{
			{Key: uuid.New().String() + ".png", OriginalFileName: fmt.Sprintf("pic-%d.png", i)},
		}, public)
		require.NoError(t, err)
		out = append(out, records[0])
	}
	return out
}

func TestPresignEndpoint(t *testing.T) {
	alice := &models.Identity{ID: uuid.New(), Name: "Alice", Username: "alice"}

	t.Run("ReturnsOrderMatchedGrants", func(t *testing.T) {
		router := newTestRouter(newImageService(), alice)

		rec := doJSON(t, router, http.MethodPost, "/images/presigned", gin.H{
			"contentTypes": []string{"image/png", "image/jpeg"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var grants []struct {
			Key       string `json:"key"`
			UploadURL string `json:"uploadUrl"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grants))
		require.Len(t, grants, 2)
		for _, g := range grants {
			assert.NotEmpty(t, g.Key)
			assert.Contains(t, g.UploadURL, g.Key)
		}
	})

	t.Run("AnonymousIs400WithMessage", func(t *testing.T) {
		router := newTestRouter(newImageService(), nil)
		rec := doJSON(t, router, http.MethodPost, "/images/presigned", gin.H{
			"contentTypes": []string{"image/png"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, decodeMessage(t, rec))
	})

	t.Run("MalformedBodyIs400", func(t *testing.T) {
		router := newTestRouter(newImageService(), alice)
		req := httptest.NewRequest(http.MethodPost, "/images/presigned", bytes.NewBufferString(`{"contentTypes": "image/png"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, decodeMessage(t, rec))
	})
}

func TestCommitAndFeedEndpoints(t *testing.T) {
	alice := &models.Identity{ID: uuid.New(), Name: "Alice", Username: "alice"}

	t.Run("CommitThenListFeed", func(t *testing.T) {
		svc := newImageService()
		router := newTestRouter(svc, alice)

		rec := doJSON(t, router, http.MethodPost, "/images", gin.H{
			"images": []gin.H{
				{"imageKey": "a.png", "originalname": "a.png"},
				{"imageKey": "b.png", "originalname": "b.png"},
			},
			"public": true,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var created []models.Image
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		require.Len(t, created, 2)
		assert.Equal(t, "a.png", created[0].StorageKey)
		assert.Equal(t, alice.Username, created[0].Owner.Username)

		rec = doJSON(t, router, http.MethodGet, "/images", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var feed []models.Image
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
		require.Len(t, feed, 2)
		assert.Greater(t, feed[0].ID, feed[1].ID)
		assert.NotNil(t, feed[0].LikedBy)
	})

	t.Run("FeedIsCappedAtPageSize", func(t *testing.T) {
		svc := newImageService()
		router := newTestRouter(svc, alice)
		seedImages(t, svc, alice, 15, true)

		rec := doJSON(t, router, http.MethodGet, "/images", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var feed []models.Image
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
		assert.Len(t, feed, 12)
	})

	t.Run("CursorWalk", func(t *testing.T) {
		svc := newImageService()
		router := newTestRouter(svc, alice)
		seedImages(t, svc, alice, 15, true)

		rec := doJSON(t, router, http.MethodGet, "/images?lastid=4", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var feed []models.Image
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
		require.Len(t, feed, 3)
		assert.Equal(t, int64(3), feed[0].ID)
		assert.Equal(t, int64(1), feed[2].ID)
	})

	t.Run("MalformedCursorIs400", func(t *testing.T) {
		router := newTestRouter(newImageService(), nil)
		rec := doJSON(t, router, http.MethodGet, "/images?lastid=not-an-id", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, decodeMessage(t, rec))
	})

	t.Run("OversizedBatchIs400", func(t *testing.T) {
		router := newTestRouter(newImageService(), alice)
		images := make([]gin.H, 6)
		for i := range images {
			images[i] = gin.H{"imageKey": fmt.Sprintf("k%d.png", i)}
		}
		rec := doJSON(t, router, http.MethodPost, "/images", gin.H{"images": images, "public": true})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetOneEndpoint(t *testing.T) {
	alice := &models.Identity{ID: uuid.New(), Name: "Alice", Username: "alice"}
	bob := &models.Identity{ID: uuid.New(), Name: "Bob", Username: "bob"}

	t.Run("MalformedIDIs400", func(t *testing.T) {
		router := newTestRouter(newImageService(), nil)
		rec := doJSON(t, router, http.MethodGet, "/images/oid-12ab", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, decodeMessage(t, rec))
	})

	t.Run("MissingIs400", func(t *testing.T) {
		router := newTestRouter(newImageService(), nil)
		rec := doJSON(t, router, http.MethodGet, "/images/42", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("PrivateHiddenFromOthers", func(t *testing.T) {
		svc := newImageService()
		img := seedImages(t, svc, alice, 1, false)[0]

		rec := doJSON(t, newTestRouter(svc, bob), http.MethodGet, fmt.Sprintf("/images/%d", img.ID), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = doJSON(t, newTestRouter(svc, alice), http.MethodGet, fmt.Sprintf("/images/%d", img.ID), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestDeleteEndpoint(t *testing.T) {
	alice := &models.Identity{ID: uuid.New(), Name: "Alice", Username: "alice"}

	t.Run("DeleteTwiceIsIdempotent", func(t *testing.T) {
		svc := newImageService()
		router := newTestRouter(svc, alice)
		img := seedImages(t, svc, alice, 1, true)[0]

		rec := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/images/%d", img.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		firstMsg := decodeMessage(t, rec)

		rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/images/%d", img.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEqual(t, firstMsg, decodeMessage(t, rec))
	})

	t.Run("AnonymousIs400", func(t *testing.T) {
		svc := newImageService()
		img := seedImages(t, svc, alice, 1, true)[0]
		rec := doJSON(t, newTestRouter(svc, nil), http.MethodDelete, fmt.Sprintf("/images/%d", img.ID), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLikeEndpoints(t *testing.T) {
	alice := &models.Identity{ID: uuid.New(), Name: "Alice", Username: "alice"}
	bob := &models.Identity{ID: uuid.New(), Name: "Bob", Username: "bob"}

	t.Run("LikeThenUnlike", func(t *testing.T) {
		svc := newImageService()
		router := newTestRouter(svc, bob)
		img := seedImages(t, svc, alice, 1, true)[0]

		rec := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/images/%d/like", img.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var liked models.Image
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &liked))
		assert.Equal(t, []string{bob.ID.String()}, liked.LikedBy)

		rec = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/images/%d/unlike", img.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var unliked models.Image
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unliked))
		assert.Empty(t, unliked.LikedBy)
	})

	t.Run("AnonymousIs400", func(t *testing.T) {
		svc := newImageService()
		img := seedImages(t, svc, alice, 1, true)[0]
		rec := doJSON(t, newTestRouter(svc, nil), http.MethodPatch, fmt.Sprintf("/images/%d/like", img.ID), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MalformedIDIs400", func(t *testing.T) {
		router := newTestRouter(newImageService(), bob)
		rec := doJSON(t, router, http.MethodPatch, "/images/xyz/like", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
