// Package locale holds the two supported display languages and their string
// tables. The language selects both the UI strings and the language the
// analysis provider is instructed to answer in.
package locale

import "fmt"

// Tag identifies one of the two supported languages.
type Tag string

const (
	// Hebrew is the default language.
	Hebrew Tag = "he"
	// English is the alternate language.
	English Tag = "en"
)

// Default is the language used when none is chosen.
const Default = Hebrew

// Parse validates a language identifier. Only "he" and "en" are accepted.
func Parse(s string) (Tag, error) {
	switch Tag(s) {
	case Hebrew, English:
		return Tag(s), nil
	}
	return "", fmt.Errorf("unsupported language %q (supported: he, en)", s)
}

// RTL reports whether the language is written right-to-left.
func (t Tag) RTL() bool { return t == Hebrew }

// Valid reports whether t is one of the two supported tags.
func (t Tag) Valid() bool { return t == Hebrew || t == English }

// String table keys.
const (
	KeyTitle         = "title"
	KeySubtitle      = "subtitle"
	KeyMethodology   = "methodology"
	KeyAnalyzing     = "analyzing"
	KeyStart         = "start"
	KeyUntitled      = "untitled"
	KeyHistory       = "history"
	KeyNoHistory     = "noHistory"
	KeyTechnical     = "technical"
	KeyEmotional     = "emotional"
	KeyCommunication = "communication"
	KeyLight         = "light"
	KeyIdentity      = "identity"
	KeyProfile       = "profile"
	KeyInsight       = "insight"
	KeySolution      = "solution"
	KeyReset         = "reset"
)

var table = map[Tag]map[string]string{
	Hebrew: {
		KeyTitle:         "PHOTOACTIVE",
		KeySubtitle:      "אבחון עומק פוטואקטיב",
		KeyMethodology:   "מתודולוגיית אלדד רפאלי",
		KeyAnalyzing:     "המוח הפוטואקטיבי מנתח את השכבות...",
		KeyStart:         "התחל אבחון עומק",
		KeyUntitled:      "ללא שם",
		KeyHistory:       "ארכיון אבחונים",
		KeyNoHistory:     "אין אבחונים קודמים",
		KeyTechnical:     "השכבה הטכנית",
		KeyEmotional:     "השכבה הרגשית",
		KeyCommunication: "השכבה התקשורתית",
		KeyLight:         "שכבת האור והצל",
		KeyIdentity:      "שכבת הזהות",
		KeyProfile:       "פרופיל אמן",
		KeyInsight:       "תובנה עמוקה",
		KeySolution:      "הצעה לשינוי",
		KeyReset:         "אבחון חדש",
	},
	English: {
		KeyTitle:         "PHOTOACTIVE",
		KeySubtitle:      "Deep Photo Diagnosis",
		KeyMethodology:   "Eldad Rafaeli Methodology",
		KeyAnalyzing:     "Analyzing diagnostic layers...",
		KeyStart:         "Start Deep Diagnosis",
		KeyUntitled:      "Untitled",
		KeyHistory:       "Analysis Archive",
		KeyNoHistory:     "No past records",
		KeyTechnical:     "Technical Layer",
		KeyEmotional:     "Emotional Layer",
		KeyCommunication: "Communication Layer",
		KeyLight:         "Light & Shadow",
		KeyIdentity:      "Identity Layer",
		KeyProfile:       "Artist Profile",
		KeyInsight:       "Deep Insight",
		KeySolution:      "Proposed Solution",
		KeyReset:         "New Diagnosis",
	},
}

// T looks up a UI string for the given language. Unknown keys return the key
// itself so a missing entry is visible rather than blank.
func T(tag Tag, key string) string {
	if !tag.Valid() {
		tag = Default
	}
	if s, ok := table[tag][key]; ok {
		return s
	}
	return key
}

// Untitled returns the localized placeholder used when no title is supplied.
func Untitled(tag Tag) string { return T(tag, KeyUntitled) }

// errorMessages maps diagnosis error kinds (by their stable string form) to
// user-facing messages. Every failure surfaces as one of these; none are
// shown as raw Go errors.
var errorMessages = map[Tag]map[string]string{
	Hebrew: {
		"invalid_input":      "הקובץ שנבחר אינו תמונה. בחרו קובץ תמונה ונסו שוב.",
		"missing_credential": "לא נמצא מפתח API. הגדירו מפתח ונסו שוב.",
		"empty_response":     "לא התקבלה תשובה מהשירות. נסו שוב.",
		"malformed_json":     "התקבלה תשובה לא תקינה מהשירות. נסו שוב.",
		"schema_mismatch":    "התקבל אבחון חלקי מהשירות. נסו שוב.",
		"provider_rejected":  "השירות דחה את הבקשה עבור תמונה זו.",
		"capture_denied":     "הגישה למצלמה נדחתה. אפשרו גישה או העלו קובץ.",
		"provider_error":     "שגיאה בניתוח הצילום. נסו שוב.",
	},
	English: {
		"invalid_input":      "The selected file is not an image. Pick an image file and try again.",
		"missing_credential": "No API key configured. Set one up and try again.",
		"empty_response":     "The service returned no answer. Try again.",
		"malformed_json":     "The service returned an unreadable answer. Try again.",
		"schema_mismatch":    "The service returned an incomplete diagnosis. Try again.",
		"provider_rejected":  "The service declined to analyze this image.",
		"capture_denied":     "Camera access was denied. Allow access or upload a file.",
		"provider_error":     "Something went wrong analyzing the photo. Try again.",
	},
}

// ErrorMessage returns the localized message for a diagnosis error kind.
// Unknown kinds fold into the generic failure message.
func ErrorMessage(tag Tag, kind string) string {
	if !tag.Valid() {
		tag = Default
	}
	if msg, ok := errorMessages[tag][kind]; ok {
		return msg
	}
	return errorMessages[tag]["provider_error"]
}
