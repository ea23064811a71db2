package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"presentation-coach/internal/models"

	"github.com/charmbracelet/log"
)

// ErrNotFound is returned when a presentation id is unknown to the store.
var ErrNotFound = errors.New("presentation not found")

// PresentationStore manages the presentations list in a JSON file.
//
// The whole document {presentations, nextId} is rewritten on every mutation.
// Save failures are logged and swallowed; the in-memory state keeps serving,
// so durability is best-effort.
type PresentationStore struct {
	mu       sync.RWMutex
	filePath string
	logger   *log.Logger
	data     *models.PresentationsFile
}

// NewPresentationStore creates a presentation store backed by
// presentations.json under dataDir and loads existing data.
func NewPresentationStore(dataDir string, logger *log.Logger) (*PresentationStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store := &PresentationStore{
		filePath: filepath.Join(dataDir, "presentations.json"),
		logger:   logger.With("component", "store"),
		data: &models.PresentationsFile{
			Presentations: []*models.Presentation{},
			NextID:        1,
		},
	}

	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load presentations: %w", err)
	}

	return store, nil
}

// load reads presentations.json, starting fresh if it is missing or invalid.
func (s *PresentationStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		s.logger.Info("no existing data file, starting fresh", "path", s.filePath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read presentations file: %w", err)
	}

	var file models.PresentationsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		s.logger.Warn("failed to parse presentations file, starting fresh", "err", err)
		return nil
	}

	if file.Presentations == nil {
		file.Presentations = []*models.Presentation{}
	}
	if file.NextID <= 0 {
		file.NextID = computeNextID(file.Presentations)
	}

	s.data = &file
	s.logger.Info("loaded presentations", "count", len(file.Presentations))
	return nil
}

func computeNextID(presentations []*models.Presentation) int {
	next := 1
	for _, p := range presentations {
		if p.ID >= next {
			next = p.ID + 1
		}
	}
	return next
}

// save atomically writes presentations.json (temp file, fsync, rename).
// Must be called with the lock held.
func (s *PresentationStore) save() error {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presentations: %w", err)
	}

	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	file, err := os.OpenFile(tempPath, os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open temp file for sync: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	file.Close()

	if err := os.Rename(tempPath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// persist saves and downgrades any failure to a log line.
// Must be called with the lock held.
func (s *PresentationStore) persist() {
	if err := s.save(); err != nil {
		s.logger.Error("failed to save presentations, serving from memory", "err", err)
	}
}

// Create adds a new presentation with the next monotonic id.
func (s *PresentationStore) Create(title string, slides []models.Slide) *models.Presentation {
	s.mu.Lock()
	defer s.mu.Unlock()

	pres := &models.Presentation{
		ID:        s.data.NextID,
		Title:     title,
		Slides:    slides,
		CreatedAt: time.Now().UTC(),
		Analyzed:  false,
		Analysis:  []models.AnalysisEntry{},
	}
	s.data.NextID++
	s.data.Presentations = append(s.data.Presentations, pres)
	s.persist()

	s.logger.Info("created presentation", "id", pres.ID, "slides", len(slides))
	return clone(pres)
}

// List returns all presentations in creation order.
func (s *PresentationStore) List() []*models.Presentation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Presentation, 0, len(s.data.Presentations))
	for _, p := range s.data.Presentations {
		out = append(out, clone(p))
	}
	return out
}

// Get returns the presentation with the given id, or ErrNotFound.
func (s *PresentationStore) Get(id int) (*models.Presentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.find(id)
	if p == nil {
		return nil, ErrNotFound
	}
	return clone(p), nil
}

// Update shallow-merges the given JSON fields into the stored presentation.
// Only keys present in fields are overwritten; supplied slices (slides,
// analysis) replace the stored ones wholesale, and the id is never changed.
// A body that fails to decode leaves the stored record untouched.
func (s *PresentationStore) Update(id int, fields json.RawMessage) (*models.Presentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.find(id)
	if p == nil {
		return nil, ErrNotFound
	}

	var patch map[string]json.RawMessage
	if err := json.Unmarshal(fields, &patch); err != nil {
		return nil, fmt.Errorf("failed to parse update fields: %w", err)
	}

	// Merge into a deep copy so the stored record and its backing arrays are
	// untouched until the whole body has decoded. Slice fields present in the
	// patch start from nil, otherwise the decoder would merge object keys
	// into the existing elements index by index instead of replacing them.
	merged := *clone(p)
	if _, ok := patch["slides"]; ok {
		merged.Slides = nil
	}
	if _, ok := patch["analysis"]; ok {
		merged.Analysis = nil
	}
	if err := json.Unmarshal(fields, &merged); err != nil {
		return nil, fmt.Errorf("failed to merge update fields: %w", err)
	}
	merged.ID = p.ID
	*p = merged
	s.persist()

	s.logger.Info("updated presentation", "id", id)
	return clone(p), nil
}

// SetAnalysis marks the presentation analyzed and replaces its analysis.
func (s *PresentationStore) SetAnalysis(id int, entries []models.AnalysisEntry) (*models.Presentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.find(id)
	if p == nil {
		return nil, ErrNotFound
	}

	if entries == nil {
		entries = []models.AnalysisEntry{}
	}
	p.Analyzed = true
	p.Analysis = entries
	s.persist()

	s.logger.Info("stored analysis", "id", id, "entries", len(entries))
	return clone(p), nil
}

// find must be called with the lock held.
func (s *PresentationStore) find(id int) *models.Presentation {
	for _, p := range s.data.Presentations {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// clone returns a copy so callers cannot mutate stored state outside the lock.
func clone(p *models.Presentation) *models.Presentation {
	c := *p
	c.Slides = append([]models.Slide{}, p.Slides...)
	c.Analysis = append([]models.AnalysisEntry{}, p.Analysis...)
	return &c
}
