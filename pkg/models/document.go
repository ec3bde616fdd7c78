package models

import "time"

// Upload is a single file received from the user. It only lives for the
// duration of one request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	// DeclaredSize is the size the client announced for a file whose
	// payload was never read because it is over the limit.
	DeclaredSize int64
}

// Size returns the payload length in bytes.
func (u Upload) Size() int64 {
	if u.Data == nil {
		return u.DeclaredSize
	}
	return int64(len(u.Data))
}

// TextLine represents a line of text recognised by OCR
type TextLine struct {
	Text string
	Page int
}

// PreviewKind tells the UI how to show an upload before its text is ready.
type PreviewKind string

const (
	PreviewImage    PreviewKind = "image"
	PreviewDocument PreviewKind = "document"
)

// Preview is what the user sees of an upload while it is being processed.
type Preview struct {
	Kind    PreviewKind `json:"kind"`
	DataURI string      `json:"data_uri,omitempty"`
	Width   int         `json:"width,omitempty"`
	Height  int         `json:"height,omitempty"`
	Pages   int         `json:"pages,omitempty"`
}

// Document is a rendered PDF kept in memory until it is downloaded or expires.
type Document struct {
	ID        string
	Name      string
	Source    string
	Data      []byte
	CreatedAt time.Time
}

// ItemStatus is the final state of one uploaded item.
type ItemStatus string

const (
	StatusSucceeded ItemStatus = "succeeded"
	StatusRejected  ItemStatus = "rejected"
	StatusFailed    ItemStatus = "failed"
	StatusTimedOut  ItemStatus = "timed_out"
	StatusError     ItemStatus = "error"
)

// Download points at a rendered document in the artifact store.
type Download struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int    `json:"size"`
}

// ItemResult is the user-visible outcome of processing one upload.
type ItemResult struct {
	Filename string     `json:"filename"`
	Status   ItemStatus `json:"status"`
	Message  string     `json:"message,omitempty"`
	Detail   string     `json:"detail,omitempty"`
	Text     string     `json:"text,omitempty"`
	Preview  *Preview   `json:"preview,omitempty"`
	Download *Download  `json:"download,omitempty"`
}

// Succeeded reports whether text was extracted and a document rendered.
func (r ItemResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Warning reports whether the item ended in a non-fatal warning state.
func (r ItemResult) Warning() bool {
	return r.Status == StatusTimedOut
}
