package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/photoactive-studio/photoactive/internal/locale"
)

func openTestHistory(t *testing.T, cfg Config) *History {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	h, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return h
}

func TestOpenMissingFileIsEmpty(t *testing.T) {
	h := openTestHistory(t, Config{})
	if h.Len() != 0 {
		t.Errorf("Len = %d, want 0", h.Len())
	}
}

func TestOpenCorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, historyFileName), []byte("{{{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	h := openTestHistory(t, Config{Dir: dir})
	if h.Len() != 0 {
		t.Errorf("corrupt storage should load as empty, got %d entries", h.Len())
	}
}

func TestRecordPersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	h := openTestHistory(t, Config{Dir: dir})

	entry := NewEntry("", locale.English, testReport(), testImage())
	if _, err := h.Record(entry); err != nil {
		t.Fatal(err)
	}

	// Scenario: blank title lands as the localized untitled placeholder.
	if entry.Name != locale.Untitled(locale.English) {
		t.Errorf("entry name = %q, want untitled placeholder", entry.Name)
	}

	reloaded := openTestHistory(t, Config{Dir: dir})
	if reloaded.Len() != 1 {
		t.Fatalf("reloaded Len = %d, want 1", reloaded.Len())
	}
	got := reloaded.Entries()[0]
	if got.ID != entry.ID || got.Name != entry.Name || got.Language != locale.English {
		t.Errorf("reloaded entry differs: %+v", got)
	}
	if got.Report.Layers.Technical.Score != 6 {
		t.Error("embedded report did not survive persistence")
	}
	if len(got.Image.Data) == 0 {
		t.Error("embedded image did not survive persistence")
	}
}

func TestRecordOrderingAndCap(t *testing.T) {
	h := openTestHistory(t, Config{Cap: 15})

	// 16 consecutive diagnoses with a cap of 15.
	var ids []string
	for i := 1; i <= 16; i++ {
		e := NewEntry(fmt.Sprintf("photo %d", i), locale.English, testReport(), testImage())
		ids = append(ids, e.ID)
		if _, err := h.Record(e); err != nil {
			t.Fatal(err)
		}
	}

	entries := h.Entries()
	if len(entries) != 15 {
		t.Fatalf("Len = %d, want exactly 15", len(entries))
	}
	// Newest at index 0.
	if entries[0].ID != ids[15] {
		t.Error("newest entry should be at index 0")
	}
	// The 1st analysis is gone, the 2nd through 16th remain in order.
	for i, e := range entries {
		if want := ids[15-i]; e.ID != want {
			t.Errorf("entry %d = %s, want %s", i, e.Name, want)
		}
	}
	if _, found := h.Find(ids[0]); found {
		t.Error("oldest entry should have been evicted")
	}
}

func TestRecordEvictionReporting(t *testing.T) {
	var reported []Entry
	h := openTestHistory(t, Config{Cap: 2, OnEvict: func(evicted []Entry) {
		reported = append(reported, evicted...)
	}})

	var first Entry
	for i := 0; i < 3; i++ {
		e := NewEntry(fmt.Sprintf("p%d", i), locale.Hebrew, testReport(), testImage())
		if i == 0 {
			first = e
		}
		evicted, err := h.Record(e)
		if err != nil {
			t.Fatal(err)
		}
		if i < 2 && len(evicted) != 0 {
			t.Errorf("record %d evicted %d entries before the cap", i, len(evicted))
		}
	}

	if len(reported) != 1 || reported[0].ID != first.ID {
		t.Errorf("OnEvict reported %d entries, want the first one", len(reported))
	}
}

func TestFind(t *testing.T) {
	h := openTestHistory(t, Config{})
	e := NewEntry("findable", locale.Hebrew, testReport(), testImage())
	if _, err := h.Record(e); err != nil {
		t.Fatal(err)
	}

	got, ok := h.Find(e.ID)
	if !ok || got.Name != "findable" {
		t.Errorf("Find(%s) = %+v, %v", e.ID, got, ok)
	}
	if _, ok := h.Find("no-such-id"); ok {
		t.Error("Find should miss on unknown IDs")
	}
}

func TestLegacyBareArrayLoads(t *testing.T) {
	dir := t.TempDir()
	h := openTestHistory(t, Config{Dir: dir})
	e := NewEntry("legacy", locale.English, testReport(), testImage())
	if _, err := h.Record(e); err != nil {
		t.Fatal(err)
	}

	// Rewrite storage as the pre-envelope bare array.
	legacy, err := json.Marshal([]Entry{e})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, historyFileName), legacy, 0600); err != nil {
		t.Fatal(err)
	}

	reloaded := openTestHistory(t, Config{Dir: dir})
	if reloaded.Len() != 1 {
		t.Errorf("legacy array should load, got %d entries", reloaded.Len())
	}
}

func TestRecordedEntryOwnsItsPreview(t *testing.T) {
	dir := t.TempDir()
	h := openTestHistory(t, Config{Dir: dir})

	s := New()
	if err := s.SelectImage(testImage()); err != nil {
		t.Fatal(err)
	}
	if err := s.Begin(); err != nil {
		t.Fatal(err)
	}
	s.Complete(testReport())

	snap := s.Snapshot()
	entry := NewEntry(snap.Title, snap.Language, snap.Report, snap.Image)
	if _, err := h.Record(entry); err != nil {
		t.Fatal(err)
	}

	// Ordinary session life after recording must not touch the archive.
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	stored, ok := h.Find(entry.ID)
	if !ok {
		t.Fatal("recorded entry not found")
	}
	if stored.Image.Preview.Released() {
		t.Error("session reset blanked the archived preview")
	}

	if err := s.SelectImage(testImage()); err != nil {
		t.Fatal(err)
	}
	stored, _ = h.Find(entry.ID)
	if stored.Image.Preview.Released() {
		t.Error("selecting a new image blanked the archived preview")
	}

	// The preview also survives in durable storage across a reload.
	reloaded := openTestHistory(t, Config{Dir: dir})
	again, ok := reloaded.Find(entry.ID)
	if !ok {
		t.Fatal("entry missing after reload")
	}
	if again.Image.Preview.Released() {
		t.Error("persisted entry has no preview bytes")
	}
}
