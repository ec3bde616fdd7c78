package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-pdf/fpdf"
)

// ErrFontNotFound means the TrueType font the documents are typeset with is
// missing. It is a setup problem, not a per-document one.
var ErrFontNotFound = errors.New("font not found")

// ErrInvalidFont means the font file exists but cannot be used to typeset.
var ErrInvalidFont = errors.New("invalid font")

const (
	fontFamily = "DejaVu"

	titleSize  = 14
	bodySize   = 12
	lineHeight = 10
	pageMargin = 15
)

// documentDate is stamped into every document so identical input renders
// identical bytes.
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Renderer typesets extracted text into PDF documents.
type Renderer struct {
	fontPath string
	font     []byte
}

// NewRenderer loads the font at fontPath once.
func NewRenderer(fontPath string) (*Renderer, error) {
	font, err := os.ReadFile(fontPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFontNotFound, fontPath)
		}
		return nil, fmt.Errorf("failed to read font %s: %w", fontPath, err)
	}
	if len(font) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrFontNotFound, fontPath)
	}

	r := &Renderer{fontPath: fontPath, font: font}
	if err := r.check(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFont, fontPath, err)
	}
	return r, nil
}

// check typesets a throwaway document so a broken font fails at startup
// instead of on every upload.
func (r *Renderer) check() (err error) {
	// the font parser panics on some malformed files
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("font parser: %v", rec)
		}
	}()
	_, err = r.Render("inkscan", "The quick brown fox")
	return err
}

// FontPath is the path the font was loaded from.
func (r *Renderer) FontPath() string {
	return r.fontPath
}

// Render builds an A4 document with title on the first line followed by
// text wrapped across as many pages as needed.
func (r *Renderer) Render(title, text string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(title, true)
	pdf.SetCreator("inkscan", true)

	pdf.AddUTF8FontFromBytes(fontFamily, "", r.font)
	pdf.SetFont(fontFamily, "", bodySize)
	pdf.SetAutoPageBreak(true, pageMargin)

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", titleSize)
	pdf.CellFormat(0, lineHeight, title, "", 1, "", false, 0, "")
	pdf.SetFont(fontFamily, "", bodySize)
	pdf.MultiCell(0, lineHeight, text, "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// DownloadName is the file name a document rendered from filename is offered as.
func DownloadName(filename string) string {
	return filename + "_ocr.pdf"
}
