package api

import (
	"DocQA/backend/go/internal/models"
	"DocQA/backend/go/internal/rag_service/rag/errs"
	"DocQA/backend/go/internal/rag_service/service"
	"errors"
	"fmt"
	"net/http"

	"DocQA/backend/go/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Handler holds the endpoint handlers of the document QA API.
type Handler struct {
	service        *service.Service
	log            *logger.Logger
	maxUploadBytes int64
}

// NewHandler creates a Handler. maxUploadBytes <= 0 disables the upload size check.
func NewHandler(s *service.Service, log *logger.Logger, maxUploadBytes int64) *Handler {
	return &Handler{service: s, log: log, maxUploadBytes: maxUploadBytes}
}

// FolderRequest is the body of folder create and rename.
type FolderRequest struct {
	Name string `json:"name" binding:"required"`
}

// QueryRequest is the body of /query. An empty FolderID searches every folder.
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
	FolderID string `json:"folder_id"`
}

func (h *Handler) CreateFolder(c *gin.Context) {
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	folder, err := h.service.CreateFolder(c.Request.Context(), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, folder)
}

func (h *Handler) RenameFolder(c *gin.Context) {
	var req FolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	folder, err := h.service.RenameFolder(c.Request.Context(), c.Param("folder_id"), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, folder)
}

func (h *Handler) ListFolders(c *gin.Context) {
	folders, err := h.service.ListFolders(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, folders)
}

func (h *Handler) DeleteFolder(c *gin.Context) {
	if err := h.service.DeleteFolder(c.Request.Context(), c.Param("folder_id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.service.ListDocuments(c.Request.Context(), c.Param("folder_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Upload accepts a multipart form with a single "file" field and returns
// only once the document has been indexed or has failed.
func (h *Handler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("a multipart file field named \"file\" is required: %v", err)})
		return
	}
	f, err := header.Open()
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer f.Close()

	res, err := h.service.Upload(c.Request.Context(), c.Param("folder_id"), header.Filename, f, header.Size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	if err := h.service.DeleteDocument(c.Request.Context(), c.Param("document_id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	answer, err := h.service.Query(c.Request.Context(), req.Question, req.FolderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (h *Handler) Reconcile(c *gin.Context) {
	removed, err := h.service.Reconcile(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "removed": removed})
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.service.HealthCheck(c.Request.Context()); err != nil {
		h.log.Warn(fmt.Sprintf("Health check failed: %v", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps the error taxonomy onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(models.ErrorInfo{Message: err.Error(), StatusCode: status}).
			Error(fmt.Sprintf("%s %s failed", c.Request.Method, c.FullPath()))
	}
	c.JSON(status, gin.H{"detail": detail})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, errs.ErrDuplicate), errors.Is(err, errs.ErrInvalidArgument), errors.Is(err, errs.ErrChunkConfig):
		return http.StatusBadRequest, err.Error()
	case errs.IsIngestion(err):
		return http.StatusInternalServerError, fmt.Sprintf("Ingestion failed: %v", err)
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}
