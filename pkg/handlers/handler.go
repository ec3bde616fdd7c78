package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"inkscan/pkg/models"
	"inkscan/pkg/store"
)

const formField = "files"

var errNoFiles = errors.New("no files provided")

type Processor interface {
	ProcessBatch(ctx context.Context, uploads []models.Upload) []models.ItemResult
}

type Documents interface {
	Get(id string) (models.Document, error)
}

// UploadLimits is shown on the upload page. MaxRequestSize caps a whole
// batch, zero disables the cap.
type UploadLimits struct {
	MaxSize        int64
	MaxRequestSize int64
	Extensions     []string
}

type Handler struct {
	processor Processor
	documents Documents
	limits    UploadLimits
	log       *zap.Logger
}

func NewHandler(processor Processor, documents Documents, limits UploadLimits, log *zap.Logger) *Handler {
	return &Handler{
		processor: processor,
		documents: documents,
		limits:    limits,
		log:       log,
	}
}

// Register mounts every route on router.
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/", h.GetUI)
	router.POST("/", h.ProcessForm)
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/ocr", h.ProcessAPI)
		api.GET("/documents/:id", h.DownloadDocument)
	}
}

func (h *Handler) GetUI(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", h.pageData(""))
}

// ProcessForm handles the upload form and renders one section per file.
func (h *Handler) ProcessForm(c *gin.Context) {
	uploads, err := h.readUploads(c)
	if err != nil {
		h.log.Warn("Invalid upload form", zap.Error(err))
		if tooLarge(err) {
			c.HTML(http.StatusRequestEntityTooLarge, "index.html", h.pageData("The upload is too large, send fewer files at once."))
			return
		}
		c.HTML(http.StatusBadRequest, "index.html", h.pageData("Please choose at least one image or PDF."))
		return
	}

	results := h.processor.ProcessBatch(c.Request.Context(), uploads)
	c.HTML(http.StatusOK, "results.html", gin.H{"results": results})
}

// ProcessAPI is ProcessForm for API clients.
func (h *Handler) ProcessAPI(c *gin.Context) {
	uploads, err := h.readUploads(c)
	if err != nil {
		h.log.Warn("Invalid upload request", zap.Error(err))
		if tooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	results := h.processor.ProcessBatch(c.Request.Context(), uploads)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handler) DownloadDocument(c *gin.Context) {
	id := c.Param("id")
	doc, err := h.documents.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found or expired"})
			return
		}
		h.log.Error("Failed to load document", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load document"})
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name}))
	c.Data(http.StatusOK, "application/pdf", doc.Data)
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (h *Handler) pageData(errMsg string) gin.H {
	return gin.H{
		"error":      errMsg,
		"extensions": h.limits.Extensions,
		"maxSizeMB":  h.limits.MaxSize / (1024 * 1024),
	}
}

// readUploads loads every file of the form into memory, in form order.
// Type checks and the final size check happen later, per file.
func (h *Handler) readUploads(c *gin.Context) ([]models.Upload, error) {
	if h.limits.MaxRequestSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.limits.MaxRequestSize)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	files := form.File[formField]
	if len(files) == 0 {
		return nil, errNoFiles
	}

	uploads := make([]models.Upload, 0, len(files))
	for _, file := range files {
		// oversize files are rejected later from their announced size, the
		// payload is never loaded
		if h.limits.MaxSize > 0 && file.Size > h.limits.MaxSize {
			uploads = append(uploads, models.Upload{
				Filename:     file.Filename,
				ContentType:  file.Header.Get("Content-Type"),
				DeclaredSize: file.Size,
			})
			continue
		}

		data, err := readFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Filename, err)
		}
		uploads = append(uploads, models.Upload{
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
