package ocr

import (
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"

	"inkscan/pkg/models"
)

// Page is one page of recognised text.
type Page struct {
	Number int
	Lines  []models.TextLine
}

// Result is the text recognised in one document.
type Result struct {
	Pages []Page
}

// Lines returns every line of every page in source order.
func (r *Result) Lines() []models.TextLine {
	if r == nil {
		return nil
	}
	var lines []models.TextLine
	for _, page := range r.Pages {
		lines = append(lines, page.Lines...)
	}
	return lines
}

// Text joins all lines with newlines.
func (r *Result) Text() string {
	lines := r.Lines()
	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.Text
	}
	return strings.Join(texts, "\n")
}

// ExtractResult flattens a read operation result into pages of lines.
// Pages or lines the service left out are skipped.
func ExtractResult(res computervision.ReadOperationResult) *Result {
	result := &Result{}
	if res.AnalyzeResult == nil || res.AnalyzeResult.ReadResults == nil {
		return result
	}

	for i, readResult := range *res.AnalyzeResult.ReadResults {
		page := Page{Number: i + 1}
		if readResult.Lines != nil {
			for _, line := range *readResult.Lines {
				if line.Text == nil {
					continue
				}
				page.Lines = append(page.Lines, models.TextLine{
					Text: *line.Text,
					Page: page.Number,
				})
			}
		}
		result.Pages = append(result.Pages, page)
	}
	return result
}
