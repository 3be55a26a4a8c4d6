package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/services"
)

// ImageHandler exposes the image lifecycle endpoints. Per the API
// contract every failure becomes a 400 with a {"message": ...} body; the
// client surfaces the message and never branches on status codes.
type ImageHandler struct {
	imageService *services.ImageService
}

func NewImageHandler(imageService *services.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

func fail(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
}

// Presign handles POST /images/presigned
// Body: {"contentTypes": ["image/png", ...]}
// Returns one {key, uploadUrl} grant per entry, in input order.
func (h *ImageHandler) Presign(c *gin.Context) {
	var req struct {
		ContentTypes []string `json:"contentTypes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, services.ErrInvalidInput)
		return
	}

	grants, err := h.imageService.PresignUploads(c.Request.Context(), middleware.CallerIdentity(c), req.ContentTypes)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, grants)
}

// CommitUploads handles POST /images
// Body: {"images": [{"imageKey": ..., "originalname": ...}], "public": bool}
// The client has already written the bytes to storage; this records them.
func (h *ImageHandler) CommitUploads(c *gin.Context) {
	var req struct {
		Images []services.UploadCommit `json:"images"`
		Public bool                    `json:"public"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, services.ErrInvalidInput)
		return
	}

	records, err := h.imageService.CommitUploads(c.Request.Context(), middleware.CallerIdentity(c), req.Images, req.Public)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// Feed handles GET /images?lastid=<id>
// Public images only, newest first, one page per call.
func (h *ImageHandler) Feed(c *gin.Context) {
	var lastID int64
	if raw := c.Query("lastid"); raw != "" {
		id, err := services.ParseImageID(raw)
		if err != nil {
			fail(c, err)
			return
		}
		lastID = id
	}

	images, err := h.imageService.Feed(c.Request.Context(), lastID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, images)
}

// GetOne handles GET /images/:imageId
func (h *ImageHandler) GetOne(c *gin.Context) {
	id, err := services.ParseImageID(c.Param("imageId"))
	if err != nil {
		fail(c, err)
		return
	}

	image, err := h.imageService.Get(c.Request.Context(), middleware.CallerIdentity(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, image)
}

// Delete handles DELETE /images/:imageId
// Idempotent: deleting an already-deleted image is a 200 with its own
// message, not an error.
func (h *ImageHandler) Delete(c *gin.Context) {
	id, err := services.ParseImageID(c.Param("imageId"))
	if err != nil {
		fail(c, err)
		return
	}

	deleted, err := h.imageService.Delete(c.Request.Context(), middleware.CallerIdentity(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	if deleted == nil {
		c.JSON(http.StatusOK, gin.H{"message": "image was already deleted"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}

// Like handles PATCH /images/:imageId/like
func (h *ImageHandler) Like(c *gin.Context) {
	id, err := services.ParseImageID(c.Param("imageId"))
	if err != nil {
		fail(c, err)
		return
	}

	image, err := h.imageService.Like(c.Request.Context(), middleware.CallerIdentity(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, image)
}

// Unlike handles PATCH /images/:imageId/unlike
func (h *ImageHandler) Unlike(c *gin.Context) {
	id, err := services.ParseImageID(c.Param("imageId"))
	if err != nil {
		fail(c, err)
		return
	}

	image, err := h.imageService.Unlike(c.Request.Context(), middleware.CallerIdentity(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, image)
}
