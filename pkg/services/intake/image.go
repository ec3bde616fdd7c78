package intake

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/ledongthuc/pdf"

	"inkscan/pkg/models"
)

const previewSize = 800

// Preview builds what the user sees of an upload. Images get a downscaled
// JPEG thumbnail; PDFs only report their page count.
func Preview(upload models.Upload) (*models.Preview, error) {
	contentType := DetectContentType(upload)

	switch {
	case IsPDF(contentType):
		pages, err := countPages(upload.Data)
		if err != nil {
			return nil, err
		}
		return &models.Preview{Kind: models.PreviewDocument, Pages: pages}, nil

	case IsImage(contentType):
		return imagePreview(upload.Data)

	default:
		return nil, fmt.Errorf("%w: no preview for %s", ErrUnsupportedType, contentType)
	}
}

func imagePreview(data []byte) (*models.Preview, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Fit never enlarges, small scans keep their size
	img := imaging.Fit(src, previewSize, previewSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &models.Preview{
		Kind:    models.PreviewImage,
		DataURI: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:   img.Bounds().Dx(),
		Height:  img.Bounds().Dy(),
	}, nil
}

func countPages(data []byte) (pages int, err error) {
	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("failed to read pdf: %w", err)
	}
	return reader.NumPage(), nil
}

// Enhance prepares a photographed page for OCR: grayscale, stronger
// contrast, sharpening and a gamma lift. The result keeps the source format
// so a compressed photo is not blown up into a lossless one.
func Enhance(data []byte) ([]byte, error) {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img := imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 30)
	img = imaging.Sharpen(img, 1.5)
	img = imaging.AdjustBrightness(img, 10)
	img = imaging.AdjustGamma(img, 1.2)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode enhanced image: %w", err)
	}
	return buf.Bytes(), nil
}
