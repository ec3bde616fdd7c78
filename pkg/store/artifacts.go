package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkscan/pkg/models"
)

// ErrNotFound is returned for unknown or expired artifacts.
var ErrNotFound = errors.New("artifact not found")

// Artifacts keeps rendered documents in memory until they are downloaded or
// their TTL passes. Nothing is written to disk.
type Artifacts struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]models.Document
}

func NewArtifacts(ttl time.Duration) *Artifacts {
	return &Artifacts{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]models.Document),
	}
}

// Put stores a document under a fresh ID and returns it with ID and
// CreatedAt filled in.
func (a *Artifacts) Put(name, source string, data []byte) models.Document {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sweepLocked()

	doc := models.Document{
		ID:        uuid.New().String(),
		Name:      name,
		Source:    source,
		Data:      data,
		CreatedAt: a.now(),
	}
	a.items[doc.ID] = doc
	return doc
}

// Get returns the document stored under id.
func (a *Artifacts) Get(id string) (models.Document, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc, ok := a.items[id]
	if !ok {
		return models.Document{}, ErrNotFound
	}
	if a.expired(doc) {
		delete(a.items, id)
		return models.Document{}, ErrNotFound
	}
	return doc, nil
}

// Len counts stored documents, including expired ones not yet swept.
func (a *Artifacts) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

func (a *Artifacts) expired(doc models.Document) bool {
	return a.ttl > 0 && a.now().Sub(doc.CreatedAt) >= a.ttl
}

func (a *Artifacts) sweepLocked() {
	for id, doc := range a.items {
		if a.expired(doc) {
			delete(a.items, id)
		}
	}
}
