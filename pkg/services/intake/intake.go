package intake

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"inkscan/pkg/models"
)

var (
	ErrEmpty           = errors.New("file is empty")
	ErrTooLarge        = errors.New("image too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

const (
	DefaultMaxSize = 4 * 1024 * 1024

	contentTypePDF    = "application/pdf"
	contentTypeBinary = "application/octet-stream"
)

// DefaultExtensions are the file types the OCR service accepts.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".pdf"}

// Validator decides whether an upload may be sent for OCR.
type Validator struct {
	maxSize int64
	allowed map[string]bool
}

// NewValidator creates a validator. Non-positive maxSize and an empty
// extension list fall back to the defaults.
func NewValidator(maxSize int64, extensions []string) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}
	return &Validator{maxSize: maxSize, allowed: allowed}
}

// MaxSize is the largest accepted payload in bytes.
func (v *Validator) MaxSize() int64 {
	return v.maxSize
}

// Extensions lists the accepted extensions, for the upload form.
func (v *Validator) Extensions() []string {
	exts := make([]string, 0, len(v.allowed))
	for _, ext := range DefaultExtensions {
		if v.allowed[ext] {
			exts = append(exts, ext)
		}
	}
	for ext := range v.allowed {
		if !contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	return exts
}

// Validate rejects uploads that are empty, too large or of a type the
// service does not read.
func (v *Validator) Validate(upload models.Upload) error {
	if upload.Size() == 0 {
		return ErrEmpty
	}

	if upload.Size() > v.maxSize {
		return fmt.Errorf("%w: %d bytes, must be < %dMB", ErrTooLarge, upload.Size(), v.maxSize/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !v.allowed[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	return nil
}

// DetectContentType returns the declared content type, or sniffs the payload
// when the client did not declare a specific one.
func DetectContentType(upload models.Upload) string {
	declared := normalize(upload.ContentType)
	if declared != "" && declared != contentTypeBinary {
		return declared
	}
	return normalize(mimetype.Detect(upload.Data).String())
}

// IsImage reports whether contentType is previewable as an image.
func IsImage(contentType string) bool {
	return strings.HasPrefix(normalize(contentType), "image/")
}

// IsPDF reports whether contentType is a PDF document.
func IsPDF(contentType string) bool {
	return normalize(contentType) == contentTypePDF
}

func normalize(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
