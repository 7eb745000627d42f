// Package session owns all client-side state: the current in-progress
// submission and the persisted history of past diagnoses. The analyzer is
// stateless; everything it produces lands here.
package session

import (
	"errors"
	"sync"

	"github.com/photoactive-studio/photoactive/internal/diagnosis"
	"github.com/photoactive-studio/photoactive/internal/imaging"
	"github.com/photoactive-studio/photoactive/internal/locale"
)

// State is the session's position in the submission flow.
type State string

const (
	// StateEmpty: no image chosen.
	StateEmpty State = "empty"
	// StateImageSelected: image held, title editable, no report yet.
	StateImageSelected State = "image_selected"
	// StateAnalyzing: exactly one analysis request in flight.
	StateAnalyzing State = "analyzing"
	// StateReported: a complete report is on display.
	StateReported State = "reported"
	// StateErrored: the last analysis failed; image and title are intact
	// so the user can retry without re-uploading.
	StateErrored State = "errored"
)

// ErrBusy is returned for any mutation attempted while an analysis is in
// flight. The trigger itself returns it so a second trigger is a no-op.
var ErrBusy = errors.New("an analysis is already in progress")

// ErrNoImage is returned when analysis is triggered without an image.
var ErrNoImage = errors.New("no image selected")

// Session is the state machine for one user's submission flow. All methods
// are safe for concurrent use; the lock stands in for the browser event loop
// the original design relied on.
type Session struct {
	mu       sync.Mutex
	state    State
	language locale.Tag
	image    *imaging.ImageInput
	title    string
	report   *diagnosis.Report
	lastErr  error
}

// New returns an empty session in the default language.
func New() *Session {
	return &Session{state: StateEmpty, language: locale.Default}
}

// Snapshot is a consistent read of the session for rendering.
type Snapshot struct {
	State    State
	Language locale.Tag
	Title    string
	Image    *imaging.ImageInput
	Report   *diagnosis.Report
	Err      error
}

// Snapshot returns the current state under one lock acquisition.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:    s.state,
		Language: s.language,
		Title:    s.title,
		Image:    s.image,
		Report:   s.report,
		Err:      s.lastErr,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Language returns the active language.
func (s *Session) Language() locale.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage switches the active language. Refused mid-analysis so the
// report language matches what was requested.
func (s *Session) SetLanguage(tag locale.Tag) error {
	if !tag.Valid() {
		return errors.New("unsupported language")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAnalyzing {
		return ErrBusy
	}
	s.language = tag
	return nil
}

// SelectImage takes in a new photograph. Any previously held image is
// released and the uncommitted title and report are discarded with it.
func (s *Session) SelectImage(img *imaging.ImageInput) error {
	if img == nil {
		return ErrNoImage
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAnalyzing {
		return ErrBusy
	}
	s.image.Release()
	s.image = img
	s.title = ""
	s.report = nil
	s.lastErr = nil
	s.state = StateImageSelected
	return nil
}

// SetTitle updates the optional title. Requires an image to label.
func (s *Session) SetTitle(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAnalyzing {
		return ErrBusy
	}
	if s.image == nil {
		return ErrNoImage
	}
	s.title = title
	return nil
}

// Begin is the admission gate for analysis: it moves the session to
// Analyzing, or refuses. A second trigger while one request is in flight
// gets ErrBusy and nothing else happens.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateAnalyzing:
		return ErrBusy
	case StateImageSelected, StateErrored, StateReported:
		if s.image == nil {
			return ErrNoImage
		}
		s.state = StateAnalyzing
		s.lastErr = nil
		return nil
	default:
		return ErrNoImage
	}
}

// Complete records a successful analysis.
func (s *Session) Complete(report *diagnosis.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnalyzing {
		return
	}
	s.report = report
	s.lastErr = nil
	s.state = StateReported
}

// Fail records an analysis failure, preserving the selected image and title
// for retry.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAnalyzing {
		return
	}
	s.lastErr = err
	s.state = StateErrored
}

// Reset clears image, title, and report together, never partially, and
// releases the display handle. Refused only mid-analysis.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAnalyzing {
		return ErrBusy
	}
	s.image.Release()
	s.image = nil
	s.title = ""
	s.report = nil
	s.lastErr = nil
	s.state = StateEmpty
	return nil
}

// Restore re-hydrates the session from a history entry. This is navigation,
// not a new analysis: no request is built and the stored report is shown
// as-is.
func (s *Session) Restore(e *Entry) error {
	if e == nil {
		return errors.New("no history entry")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAnalyzing {
		return ErrBusy
	}
	s.image.Release()
	// The session gets its own display handle; the entry keeps its stored
	// preview no matter where navigation goes next.
	s.image = e.Image.Clone()
	title := e.Name
	if title == locale.Untitled(e.Language) {
		// The placeholder is a display name, not a title the user gave.
		title = ""
	}
	report := e.Report
	s.title = title
	s.report = &report
	s.lastErr = nil
	s.language = e.Language
	s.state = StateReported
	return nil
}
