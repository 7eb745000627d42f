package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/photoactive-studio/photoactive/internal/diagnosis"
	"github.com/photoactive-studio/photoactive/internal/locale"
)

// renderReport writes the diagnosis as localized text sections.
func renderReport(w io.Writer, r *diagnosis.Report, lang locale.Tag, title string) {
	if title == "" {
		title = locale.Untitled(lang)
	}

	heading(w, fmt.Sprintf("%s — %s", locale.T(lang, locale.KeyTitle), title))
	fmt.Fprintf(w, "%s\n\n", r.InitialImpression)

	heading(w, fmt.Sprintf("%s (%.1f/10)", locale.T(lang, locale.KeyTechnical), r.Layers.Technical.Score))
	bullets(w, "+", r.Layers.Technical.Pros)
	bullets(w, "-", r.Layers.Technical.Cons)
	fmt.Fprintln(w)

	heading(w, locale.T(lang, locale.KeyEmotional))
	fmt.Fprintf(w, "%s\n%s\n\n", r.Layers.Emotional.Feeling, r.Layers.Emotional.Depth)

	heading(w, locale.T(lang, locale.KeyCommunication))
	fmt.Fprintf(w, "%s\n%s\n\n", r.Layers.Communication.Story, r.Layers.Communication.POV)

	heading(w, locale.T(lang, locale.KeyLight))
	fmt.Fprintf(w, "%s\n%s\n\n", r.Layers.Light.Type, r.Layers.Light.Description)

	heading(w, locale.T(lang, locale.KeyIdentity))
	fmt.Fprintf(w, "%s\n%s\n\n", r.Layers.Identity.Signature, r.Layers.Identity.Uniqueness)

	heading(w, fmt.Sprintf("%s: %s", locale.T(lang, locale.KeyProfile), r.PainProfile.Name))
	fmt.Fprintf(w, "%s\n\n", r.PainProfile.Reason)

	heading(w, locale.T(lang, locale.KeyInsight))
	fmt.Fprintf(w, "%s\n%s\n\n", r.FinalFeedback.Hook, r.FinalFeedback.Insight)

	heading(w, locale.T(lang, locale.KeySolution))
	fmt.Fprintf(w, "%s\n", r.FinalFeedback.Solution)
}

func heading(w io.Writer, text string) {
	fmt.Fprintf(w, "%s\n%s\n", text, strings.Repeat("=", min(len(text), 72)))
}

func bullets(w io.Writer, marker string, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "  %s %s\n", marker, item)
	}
}
