// Package web holds the HTML templates of the upload UI.
package web

import (
	"embed"
	"html/template"
	"strconv"
	"strings"
)

//go:embed templates/*.html
var templates embed.FS

var funcs = template.FuncMap{
	"join": strings.Join,
	"kb": func(size int) string {
		return strconv.Itoa((size+1023)/1024) + " KB"
	},
	// previews are data URIs built by intake, html/template would drop them otherwise
	"dataURI": func(uri string) template.URL {
		return template.URL(uri)
	},
}

// Templates parses the embedded templates, ready for gin's SetHTMLTemplate.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templates, "templates/*.html")
}
