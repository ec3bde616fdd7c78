package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"inkscan/pkg/models"
	"inkscan/pkg/services/intake"
	"inkscan/pkg/services/ocr"
	"inkscan/pkg/services/render"
)

// Recognizer extracts text from a document.
type Recognizer interface {
	Recognize(ctx context.Context, data []byte) (*ocr.Result, error)
}

// Renderer typesets extracted text.
type Renderer interface {
	Render(title, text string) ([]byte, error)
}

// Store keeps rendered documents until they are downloaded.
type Store interface {
	Put(name, source string, data []byte) models.Document
}

// Processor runs every upload through intake, OCR and rendering. One
// upload failing never affects another.
type Processor struct {
	validator      *intake.Validator
	recognizer     Recognizer
	renderer       Renderer
	store          Store
	log            *zap.Logger
	enhance        bool
	downloadPrefix string
}

type Option func(*Processor)

// WithEnhancement runs images through intake.Enhance before OCR.
func WithEnhancement(enabled bool) Option {
	return func(p *Processor) {
		p.enhance = enabled
	}
}

// WithDownloadPrefix sets the URL prefix download links are built from.
func WithDownloadPrefix(prefix string) Option {
	return func(p *Processor) {
		p.downloadPrefix = prefix
	}
}

func New(validator *intake.Validator, recognizer Recognizer, renderer Renderer, store Store, log *zap.Logger, opts ...Option) *Processor {
	p := &Processor{
		validator:      validator,
		recognizer:     recognizer,
		renderer:       renderer,
		store:          store,
		log:            log,
		downloadPrefix: "/api/documents/",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessBatch handles uploads strictly one after another, in order.
func (p *Processor) ProcessBatch(ctx context.Context, uploads []models.Upload) []models.ItemResult {
	results := make([]models.ItemResult, 0, len(uploads))
	for _, upload := range uploads {
		results = append(results, p.Process(ctx, upload))
	}
	return results
}

// Process handles a single upload. Failures are reported in the result,
// never returned.
func (p *Processor) Process(ctx context.Context, upload models.Upload) (result models.ItemResult) {
	log := p.log.With(zap.String("file", upload.Filename), zap.Int64("size", upload.Size()))
	result.Filename = upload.Filename

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while processing upload", zap.Any("panic", r))
			result = models.ItemResult{
				Filename: upload.Filename,
				Status:   models.StatusError,
				Message:  fmt.Sprintf("Error: %v", r),
				Preview:  result.Preview,
			}
		}
	}()

	if err := p.validator.Validate(upload); err != nil {
		log.Warn("Upload rejected", zap.Error(err))
		result.Status = models.StatusRejected
		result.Message = p.rejectionMessage(err)
		return result
	}

	contentType := intake.DetectContentType(upload)
	if intake.IsImage(contentType) || intake.IsPDF(contentType) {
		preview, err := intake.Preview(upload)
		if err != nil {
			log.Warn("Failed to build preview", zap.Error(err))
		}
		result.Preview = preview
	}

	data := upload.Data
	if p.enhance && intake.IsImage(contentType) {
		enhanced, err := intake.Enhance(data)
		switch {
		case err != nil:
			log.Warn("Failed to enhance image, submitting original", zap.Error(err))
		case int64(len(enhanced)) > p.validator.MaxSize():
			log.Warn("Enhanced image over the size limit, submitting original",
				zap.Int("enhanced_bytes", len(enhanced)))
		default:
			data = enhanced
		}
	}

	log.Info("Processing with Azure OCR", zap.String("content_type", contentType))
	res, err := p.recognizer.Recognize(ctx, data)
	if err != nil {
		result.Status, result.Message, result.Detail = classify(err)
		if result.Status == models.StatusTimedOut {
			log.Warn("OCR timed out", zap.Error(err))
		} else {
			log.Error("OCR failed", zap.Error(err))
		}
		return result
	}

	result.Text = res.Text()

	doc, err := p.renderer.Render(upload.Filename, result.Text)
	if err != nil {
		log.Error("Failed to render document", zap.Error(err))
		result.Status = models.StatusError
		result.Message = "Error: " + err.Error()
		return result
	}

	stored := p.store.Put(render.DownloadName(upload.Filename), upload.Filename, doc)
	result.Download = &models.Download{
		ID:   stored.ID,
		Name: stored.Name,
		URL:  p.downloadPrefix + stored.ID,
		Size: len(doc),
	}
	result.Status = models.StatusSucceeded
	result.Message = "Text Extracted:"

	log.Info("Document ready",
		zap.String("artifact", stored.ID),
		zap.Int("lines", len(res.Lines())),
		zap.Int("pdf_bytes", len(doc)))

	return result
}

func (p *Processor) rejectionMessage(err error) string {
	switch {
	case errors.Is(err, intake.ErrTooLarge):
		return fmt.Sprintf("Image too large (must be < %dMB). Please resize and try again.", p.validator.MaxSize()/(1024*1024))
	case errors.Is(err, intake.ErrEmpty):
		return "File is empty."
	case errors.Is(err, intake.ErrUnsupportedType):
		return "Unsupported file type. Upload a JPEG, PNG or PDF."
	default:
		return "Error: " + err.Error()
	}
}

func classify(err error) (status models.ItemStatus, message, detail string) {
	var subErr *ocr.SubmissionError
	switch {
	case errors.As(err, &subErr):
		return models.StatusFailed, fmt.Sprintf("Azure error: %d", subErr.StatusCode), subErr.Body
	case errors.Is(err, ocr.ErrNoOperationLocation):
		return models.StatusFailed, "No Operation-Location found.", ""
	case errors.Is(err, ocr.ErrAnalysisFailed):
		return models.StatusFailed, "Azure OCR failed.", ""
	case errors.Is(err, ocr.ErrTimedOut):
		return models.StatusTimedOut, "Azure OCR timed out.", ""
	default:
		return models.StatusError, "Error: " + err.Error(), ""
	}
}
