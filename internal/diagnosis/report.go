// Package diagnosis implements the PhotoActive analysis contract: it builds
// one multimodal request per photograph, constrains the provider to a fixed
// JSON report shape, and validates what comes back. One call in, one typed
// report or one classified error out. No retries, no caching.
package diagnosis

import (
	"fmt"

	"github.com/photoactive-studio/photoactive/internal/jsonutil"
)

// Report is the structured result of one analysis. Every field is required:
// a response missing any of them is a schema mismatch, never a partial
// report. Reports are immutable once decoded.
type Report struct {
	InitialImpression string        `json:"initialImpression"`
	Layers            Layers        `json:"layers"`
	PainProfile       PainProfile   `json:"painProfile"`
	FinalFeedback     FinalFeedback `json:"finalFeedback"`
}

// Layers holds the five fixed diagnostic dimensions.
type Layers struct {
	Technical     TechnicalLayer     `json:"technical"`
	Emotional     EmotionalLayer     `json:"emotional"`
	Communication CommunicationLayer `json:"communication"`
	Light         LightLayer         `json:"light"`
	Identity      IdentityLayer      `json:"identity"`
}

// TechnicalLayer scores exposure, sharpness, and composition.
type TechnicalLayer struct {
	Score float64  `json:"score"`
	Pros  []string `json:"pros"`
	Cons  []string `json:"cons"`
}

// EmotionalLayer names the core feeling and how deep it goes.
type EmotionalLayer struct {
	Feeling string `json:"feeling"`
	Depth   string `json:"depth"`
}

// CommunicationLayer covers the story and the photographer's point of view.
type CommunicationLayer struct {
	Story string `json:"story"`
	POV   string `json:"pov"`
}

// LightLayer describes how light shapes the scene.
type LightLayer struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// IdentityLayer judges whether there is a personal signature.
type IdentityLayer struct {
	Signature  string `json:"signature"`
	Uniqueness string `json:"uniqueness"`
}

// PainProfile is the categorical diagnosis of the photographer's recurring
// limitation, with justification.
type PainProfile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// FinalFeedback closes the report: a hook, an insight, and a proposed change.
type FinalFeedback struct {
	Hook     string `json:"hook"`
	Insight  string `json:"insight"`
	Solution string `json:"solution"`
}

// parseReport decodes raw response text into a Report. Decoding is strict:
// the provider promised a bare JSON object, so fences or prose fail here.
func parseReport(text string) (*Report, error) {
	r, err := jsonutil.DecodeStrict[Report](text)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks structural completeness. JSON decoding cannot distinguish
// an absent string from an empty one, so empty strings count as missing; the
// pros/cons arrays must be present (nil means the key was absent) and the
// technical score must land in the schema's declared 1-10 range.
func (r *Report) Validate() error {
	required := []struct {
		field, value string
	}{
		{"initialImpression", r.InitialImpression},
		{"layers.emotional.feeling", r.Layers.Emotional.Feeling},
		{"layers.emotional.depth", r.Layers.Emotional.Depth},
		{"layers.communication.story", r.Layers.Communication.Story},
		{"layers.communication.pov", r.Layers.Communication.POV},
		{"layers.light.type", r.Layers.Light.Type},
		{"layers.light.description", r.Layers.Light.Description},
		{"layers.identity.signature", r.Layers.Identity.Signature},
		{"layers.identity.uniqueness", r.Layers.Identity.Uniqueness},
		{"painProfile.name", r.PainProfile.Name},
		{"painProfile.reason", r.PainProfile.Reason},
		{"finalFeedback.hook", r.FinalFeedback.Hook},
		{"finalFeedback.insight", r.FinalFeedback.Insight},
		{"finalFeedback.solution", r.FinalFeedback.Solution},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("missing required field %s", f.field)
		}
	}

	if s := r.Layers.Technical.Score; s < 1 || s > 10 {
		return fmt.Errorf("layers.technical.score %v outside 1-10", s)
	}
	if r.Layers.Technical.Pros == nil {
		return fmt.Errorf("missing required field layers.technical.pros")
	}
	if r.Layers.Technical.Cons == nil {
		return fmt.Errorf("missing required field layers.technical.cons")
	}

	return nil
}
