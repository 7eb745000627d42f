package jsonutil

import (
	"strings"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodeStrictObject(t *testing.T) {
	got, err := DecodeStrict[payload](`{"name": "a", "count": 3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "a" || got.Count != 3 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestDecodeStrictLeadingWhitespace(t *testing.T) {
	if _, err := DecodeStrict[payload]("\n\t  {\"name\":\"a\"}  \n"); err != nil {
		t.Errorf("surrounding whitespace should be tolerated: %v", err)
	}
}

func TestDecodeStrictArray(t *testing.T) {
	got, err := DecodeStrict[[]payload](`[{"name":"a"},{"name":"b"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 items, got %d", len(got))
	}
}

func TestDecodeStrictRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace only", "   \n"},
		{"prose prefix", `Sure! Here's your analysis: {"name":"a"}`},
		{"markdown fence", "```json\n{\"name\":\"a\"}\n```"},
		{"trailing prose", `{"name":"a"} hope that helps!`},
		{"two documents", `{"name":"a"} {"name":"b"}`},
		{"truncated", `{"name":"a",`},
		{"not json", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeStrict[payload](tt.in); err == nil {
				t.Errorf("DecodeStrict(%q): expected error", tt.in)
			}
		})
	}
}

func TestDecodeStrictErrorPreviewTruncated(t *testing.T) {
	long := `{"name":"` + strings.Repeat("x", 500)
	_, err := DecodeStrict[payload](long)
	if err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	if len(err.Error()) > 400 {
		t.Errorf("error message should truncate the payload preview, got %d bytes", len(err.Error()))
	}
}
