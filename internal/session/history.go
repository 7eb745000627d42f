package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/photoactive-studio/photoactive/internal/diagnosis"
	"github.com/photoactive-studio/photoactive/internal/imaging"
	"github.com/photoactive-studio/photoactive/internal/locale"
)

// historyFileName is the fixed storage key. Stable across versions so
// history is not silently lost on upgrade.
const historyFileName = "photoactive_v2_history.json"

// DefaultCap is the maximum number of entries kept. Recording past the cap
// drops the oldest.
const DefaultCap = 15

// storageVersion tags the persisted envelope so future layout changes can
// migrate instead of discarding.
const storageVersion = 1

// Entry is one persisted past diagnosis. The report and image are embedded,
// not referenced; an entry is self-contained.
type Entry struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Report    diagnosis.Report   `json:"report"`
	Image     imaging.ImageInput `json:"image"`
	Language  locale.Tag         `json:"language"`
}

// NewEntry builds an entry for a just-completed diagnosis. An empty title
// falls back to the localized untitled placeholder. The entry clones the
// image so it owns its preview handle: whatever the session releases later,
// the archived preview stays intact.
func NewEntry(title string, lang locale.Tag, report *diagnosis.Report, img *imaging.ImageInput) Entry {
	if title == "" {
		title = locale.Untitled(lang)
	}
	return Entry{
		ID:        uuid.NewString(),
		Name:      title,
		Timestamp: time.Now(),
		Report:    *report,
		Image:     *img.Clone(),
		Language:  lang,
	}
}

// envelope is the on-disk layout: a versioned wrapper around the entry list.
type envelope struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Config controls history behavior.
type Config struct {
	// Dir is the storage directory. Empty means ~/.photoactive.
	Dir string
	// Cap is the maximum entry count. Zero means DefaultCap.
	Cap int
	// OnEvict, when set, is told about entries dropped by truncation.
	// Left nil, the oldest entries are dropped silently (the original
	// behavior); set it to warn the user instead.
	OnEvict func(evicted []Entry)
}

// History is the append-only capped list of past diagnoses, persisted as one
// JSON document rewritten in full on every mutation.
type History struct {
	mu      sync.Mutex
	path    string
	cap     int
	onEvict func([]Entry)
	entries []Entry
}

// Open loads history from durable storage. A missing or unreadable file is
// an empty history, never a startup failure.
func Open(cfg Config) (*History, error) {
	dir := cfg.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".photoactive")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	capN := cfg.Cap
	if capN <= 0 {
		capN = DefaultCap
	}

	h := &History{
		path:    filepath.Join(dir, historyFileName),
		cap:     capN,
		onEvict: cfg.OnEvict,
	}
	h.entries = h.load()
	return h, nil
}

// load reads the persisted list. Corrupt storage is treated as empty.
func (h *History) load() []Entry {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", h.path).Msg("History unreadable, starting empty")
		}
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Version >= 1 {
		log.Debug().Int("entries", len(env.Entries)).Msg("History loaded")
		return env.Entries
	}

	// Pre-envelope layout: a bare JSON array.
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err == nil {
		log.Debug().Int("entries", len(entries)).Msg("Legacy history loaded")
		return entries
	}

	log.Warn().Str("path", h.path).Msg("History corrupt, starting empty")
	return nil
}

// Len returns the current entry count.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns the history, most-recent-first.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Find looks up an entry by ID.
func (h *History) Find(id string) (*Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.entries {
		if h.entries[i].ID == id {
			e := h.entries[i]
			return &e, true
		}
	}
	return nil, false
}

// Record prepends an entry, truncates to the cap by dropping the oldest, and
// persists the whole resulting list. Evicted entries are returned and, when
// configured, reported through OnEvict.
func (h *History) Record(entry Entry) ([]Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append([]Entry{entry}, h.entries...)

	var evicted []Entry
	if len(h.entries) > h.cap {
		evicted = h.entries[h.cap:]
		h.entries = h.entries[:h.cap]
	}

	if err := h.persist(); err != nil {
		return nil, err
	}

	if len(evicted) > 0 {
		log.Debug().Int("evicted", len(evicted)).Int("cap", h.cap).Msg("History truncated")
		if h.onEvict != nil {
			h.onEvict(evicted)
		}
	}
	return evicted, nil
}

// persist writes the full list. Write-then-rename so a crash mid-write
// leaves the previous document intact. Caller holds the lock.
func (h *History) persist() error {
	data, err := json.Marshal(envelope{Version: storageVersion, Entries: h.entries})
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
