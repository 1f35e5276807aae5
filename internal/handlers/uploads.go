package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atelierhq/backend/internal/storage"
	appErrors "github.com/atelierhq/backend/pkg/errors"
	"github.com/atelierhq/backend/pkg/response"
)

// UploadHandler stores and serves uploaded files.
type UploadHandler struct {
	uploads *storage.UploadService
}

func NewUploadHandler(uploads *storage.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// POST /api/admin/uploads
// Multipart form with a single "file" part.
func (h *UploadHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("a file part is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	defer file.Close()

	key, err := h.uploads.Save(requestContext(c), header.Header.Get("Content-Type"), file)
	if err != nil {
		response.Error(c, mapStorageError(err))
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"key": key})
}

// GET /api/uploads/:key
func (h *UploadHandler) Serve(c *gin.Context) {
	reader, contentType, err := h.uploads.Open(requestContext(c), c.Param("key"))
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, contentType, reader, nil)
}

// DELETE /api/admin/uploads/:key
func (h *UploadHandler) Delete(c *gin.Context) {
	if err := h.uploads.Delete(requestContext(c), c.Param("key")); err != nil {
		response.Error(c, appErrors.ErrInternalServer.WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return appErrors.NewBadRequest("unsupported file type")
	case errors.Is(err, storage.ErrTooLarge):
		return appErrors.New("UPLOAD_TOO_LARGE", "File exceeds the upload size limit", http.StatusRequestEntityTooLarge)
	default:
		return appErrors.ErrInternalServer.WithInternal(err)
	}
}
