package models

import "time"

// Slide is a single slide in a deck. Position in the slice is the slide index.
type Slide struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AnalysisEntry holds AI-generated coaching data for one slide.
//
// SlideIndex correlates to a position in the presentation's slides. Nothing
// ties it to the actual slide count; out-of-range entries are legal and
// simply unused by clients.
type AnalysisEntry struct {
	SlideIndex          int      `json:"slideIndex"`
	Importance          string   `json:"importance"` // "low", "medium" or "high"
	ExpectedTimeSeconds int      `json:"expectedTimeSeconds"`
	SpeakerNotes        string   `json:"speakerNotes"`
	KeyPoints           []string `json:"keyPoints"`
	SpeakingScript      string   `json:"speakingScript"`
	TransitionToNext    string   `json:"transitionToNext"`
}

// Presentation is a titled, ordered slide deck plus optional coaching analysis.
type Presentation struct {
	ID        int             `json:"id"`
	Title     string          `json:"title"`
	Slides    []Slide         `json:"slides"`
	CreatedAt time.Time       `json:"createdAt"`
	Analyzed  bool            `json:"analyzed"`
	Analysis  []AnalysisEntry `json:"analysis"`
}

// PresentationsFile is the on-disk layout of presentations.json.
type PresentationsFile struct {
	Presentations []*Presentation `json:"presentations"`
	NextID        int             `json:"nextId"`
}

// ActivityEvent is one row of the activity log kept alongside the JSON store.
type ActivityEvent struct {
	ID             int64     `json:"id"`
	PresentationID int       `json:"presentationId"`
	EventType      string    `json:"eventType"`
	Detail         string    `json:"detail,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Activity event types recorded by the services.
const (
	EventCreated      = "created"
	EventAnalyzed     = "analyzed"
	EventSlideChanged = "slide_changed"
)
