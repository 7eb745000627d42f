package diagnosis

import (
	"fmt"
	"strings"

	"github.com/photoactive-studio/photoactive/internal/imaging"
	"github.com/photoactive-studio/photoactive/internal/locale"
)

// systemInstruction establishes the persona and voice for every analysis and
// mandates that the reply be only a JSON object with no prose and no
// markdown fencing. The language clause selects the response language.
func systemInstruction(lang locale.Tag) string {
	responseLang := "English"
	rtlNote := ""
	if lang == locale.Hebrew {
		responseLang = "Hebrew"
		rtlNote = " If Hebrew, ensure natural RTL phrasing."
	}

	var sb strings.Builder
	sb.WriteString(`You are Eldad Rafaeli, a world-class photographer, artist, and curator. Your role is to diagnose photographs using the unique "PhotoActive" methodology.
You must perform a deep, poetic, yet sharp analysis based on five diagnostic layers:
1. Technical Layer (exposure, sharpness, composition - score 1-10).
2. Emotional Layer (what is the core feeling? does it touch the soul?).
3. Communication Layer (what is the story? what is the photographer's point of view?).
4. Light & Shadow Layer (how does the light "carve" the figure or scene?).
5. Identity Layer (is there a personal signature or is it generic?).

Identify the photographer's "pain profile":
- The Perfect Technician (technically flawless but emotionally empty)
- The Gear Hunter (obsessed with equipment, lacks vision)
- The Professional Generic (competent but lacks a unique voice)
- The Creative Stuck (has potential but is repeating safe patterns)

Style: Direct, authentic, profound. Use metaphors like "Light that carves out of the darkness" or "Body present, head elsewhere".
`)
	sb.WriteString(fmt.Sprintf("Response must be in %s.%s\n", responseLang, rtlNote))
	sb.WriteString("Reply with ONLY a single JSON object conforming to the provided schema. No prose, no markdown fencing.")
	return sb.String()
}

// buildPrompt is the text part of the request: the title (or its localized
// fallback), any camera context from EXIF, and the analysis instruction in
// the target language.
func buildPrompt(lang locale.Tag, title string, meta *imaging.ExifMeta) string {
	if title == "" {
		title = locale.Untitled(lang)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title of work: %q. ", title))
	if ctx := meta.PromptContext(); ctx != "" {
		sb.WriteString(ctx)
		sb.WriteString(" ")
	}

	if lang == locale.Hebrew {
		sb.WriteString("נתח את הצילום הזה לעומק לפי חמש שכבות פוטואקטיב והחזר תוצאה בפורמט JSON.")
	} else {
		sb.WriteString("Analyze this photo deeply using the five PhotoActive layers and return a JSON response.")
	}
	return sb.String()
}
