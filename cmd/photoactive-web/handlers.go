package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/photoactive-studio/photoactive/internal/diagnosis"
	"github.com/photoactive-studio/photoactive/internal/imaging"
	"github.com/photoactive-studio/photoactive/internal/locale"
	"github.com/photoactive-studio/photoactive/internal/session"
)

// maxUploadBytes caps image uploads. Typical camera JPEGs sit well below it.
const maxUploadBytes = 25 << 20

// analyzer is the slice of diagnosis.Analyzer the handlers need.
type analyzer interface {
	Analyze(ctx context.Context, img *imaging.ImageInput, lang locale.Tag, title string) (*diagnosis.Report, error)
}

type server struct {
	analyzer analyzer
	history  *session.History
	registry *sessionRegistry
}

// sessionView is the JSON rendering of a session snapshot.
type sessionView struct {
	State    string            `json:"state"`
	Language string            `json:"language"`
	RTL      bool              `json:"rtl"`
	Title    string            `json:"title"`
	HasImage bool              `json:"hasImage"`
	Report   *diagnosis.Report `json:"report,omitempty"`
	Error    *errorPayload     `json:"error,omitempty"`
}

func viewOf(snap session.Snapshot) sessionView {
	v := sessionView{
		State:    string(snap.State),
		Language: string(snap.Language),
		RTL:      snap.Language.RTL(),
		Title:    snap.Title,
		HasImage: snap.Image != nil,
		Report:   snap.Report,
	}
	if snap.Err != nil {
		kind := diagnosis.KindOf(snap.Err)
		v.Error = &errorPayload{
			Kind:    kind.String(),
			Message: locale.ErrorMessage(snap.Language, kind.String()),
		}
	}
	return v
}

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := s.registry.sessionFor(w, r)
	respondJSON(w, http.StatusOK, viewOf(sess.Snapshot()))
}

// handleImage takes in a photograph: a multipart upload (field "image") or a
// raw body with its Content-Type, which is how captured camera frames arrive.
func (s *server) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := s.registry.sessionFor(w, r)
	lang := sess.Language()

	data, declaredMIME, err := readUpload(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := imaging.FromBytes(data, declaredMIME)
	if errors.Is(err, imaging.ErrNotImage) {
		// Rejected at the boundary: no request is ever built for this file.
		respondJSON(w, http.StatusUnprocessableEntity, errorPayload{
			Kind:    diagnosis.KindInvalidInput.String(),
			Message: locale.ErrorMessage(lang, diagnosis.KindInvalidInput.String()),
		})
		return
	}
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := sess.SelectImage(img); err != nil {
		if errors.Is(err, session.ErrBusy) {
			httpError(w, http.StatusConflict, "analysis in progress")
			return
		}
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, viewOf(sess.Snapshot()))
}

func readUpload(r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, "", errors.New("malformed upload")
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			return nil, "", errors.New("missing image field")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", errors.New("unreadable upload")
		}
		return data, hdr.Header.Get("Content-Type"), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", errors.New("unreadable upload")
	}
	return data, ct, nil
}

// handleCaptureDenied lets the frontend report camera permission refusal.
// It is an intake event, not an analysis failure: session state is untouched
// and the response carries the distinct localized message.
func (s *server) handleCaptureDenied(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := s.registry.sessionFor(w, r)
	lang := sess.Language()

	log.Warn().Msg("Camera capture denied by browser permission")
	respondJSON(w, http.StatusOK, errorPayload{
		Kind:    diagnosis.KindCaptureDenied.String(),
		Message: locale.ErrorMessage(lang, diagnosis.KindCaptureDenied.String()),
	})
}

func (s *server) handleTitle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := s.registry.sessionFor(w, r)

	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := sess.SetTitle(body.Title); err != nil {
		if errors.Is(err, session.ErrBusy) {
			httpError(w, http.StatusConflict, "analysis in progress")
			return
		}
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess.Snapshot()))
}

func (s *server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := s.registry.sessionFor(w, r)

	var body struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	tag, err := locale.Parse(body.Language)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.SetLanguage(tag); err != nil {
		httpError(w, http.StatusConflict, "analysis in progress")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess.Snapshot()))
}

// handleAnalyze runs one diagnosis. The session's Begin gate makes a second
// trigger while one is in flight a 409 no-op; the handler blocks until the
// provider answers.
func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := s.registry.sessionFor(w, r)

	if err := sess.Begin(); err != nil {
		switch {
		case errors.Is(err, session.ErrBusy):
			httpError(w, http.StatusConflict, "analysis already in progress")
		case errors.Is(err, session.ErrNoImage):
			httpError(w, http.StatusBadRequest, "no image selected")
		default:
			httpError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	snap := sess.Snapshot()
	start := time.Now()
	report, err := s.analyzer.Analyze(r.Context(), snap.Image, snap.Language, snap.Title)
	if err != nil {
		sess.Fail(err)
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("Analysis failed")
		respondDiagnosisError(w, snap.Language, err)
		return
	}
	sess.Complete(report)

	entry := session.NewEntry(snap.Title, snap.Language, report, snap.Image)
	if evicted, err := s.history.Record(entry); err != nil {
		log.Warn().Err(err).Msg("Failed to record history entry")
	} else if len(evicted) > 0 {
		log.Info().Int("evicted", len(evicted)).Msg("Oldest history entries dropped")
	}

	respondJSON(w, http.StatusOK, viewOf(sess.Snapshot()))
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := s.registry.sessionFor(w, r)

	if err := sess.Reset(); err != nil {
		httpError(w, http.StatusConflict, "analysis in progress")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess.Snapshot()))
}

// handlePreview serves display bytes: the current session image, or an
// archived entry's preview when ?id= is given.
func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var preview *imaging.Preview
	if id := r.URL.Query().Get("id"); id != "" {
		entry, ok := s.history.Find(id)
		if !ok {
			httpError(w, http.StatusNotFound, "unknown history entry")
			return
		}
		preview = entry.Image.Preview
	} else {
		sess := s.registry.sessionFor(w, r)
		if snap := sess.Snapshot(); snap.Image != nil {
			preview = snap.Image.Preview
		}
	}

	if preview.Released() {
		httpError(w, http.StatusNotFound, "no preview available")
		return
	}
	w.Header().Set("Content-Type", preview.MIMEType)
	w.Write(preview.Data)
}

// historyItem is the list rendering of an entry: enough to draw the archive
// sidebar without shipping every embedded image.
type historyItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Language  string    `json:"language"`
	Score     float64   `json:"score"`
	Profile   string    `json:"profile"`
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	entries := s.history.Entries()
	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, historyItem{
			ID:        e.ID,
			Name:      e.Name,
			Timestamp: e.Timestamp,
			Language:  string(e.Language),
			Score:     e.Report.Layers.Technical.Score,
			Profile:   e.Report.PainProfile.Name,
		})
	}
	respondJSON(w, http.StatusOK, items)
}

// handleHistorySelect re-hydrates the session from an archived entry. Pure
// navigation: no analysis request is constructed.
func (s *server) handleHistorySelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess := s.registry.sessionFor(w, r)

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	entry, ok := s.history.Find(body.ID)
	if !ok {
		httpError(w, http.StatusNotFound, "unknown history entry")
		return
	}

	if err := sess.Restore(entry); err != nil {
		httpError(w, http.StatusConflict, "analysis in progress")
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess.Snapshot()))
}

func (s *server) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="photoactive-archive.zip"`)
	if err := s.history.ExportZip(w); err != nil {
		log.Error().Err(err).Msg("History export failed")
	}
}
