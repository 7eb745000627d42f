package diagnosis

import "google.golang.org/genai"

// reportSchema is the formal output schema sent with every request. It
// mirrors Report exactly, so the provider is constrained to emit conforming
// structured output instead of free text. Adherence is a request-time hint,
// not a guarantee, so Validate still runs on every response.
var reportSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"initialImpression": {Type: genai.TypeString},
		"layers": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"technical": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"score": {Type: genai.TypeNumber},
						"pros":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
						"cons":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					},
					Required: []string{"score", "pros", "cons"},
				},
				"emotional": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"feeling": {Type: genai.TypeString},
						"depth":   {Type: genai.TypeString},
					},
					Required: []string{"feeling", "depth"},
				},
				"communication": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"story": {Type: genai.TypeString},
						"pov":   {Type: genai.TypeString},
					},
					Required: []string{"story", "pov"},
				},
				"light": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"type":        {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
					},
					Required: []string{"type", "description"},
				},
				"identity": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"signature":  {Type: genai.TypeString},
						"uniqueness": {Type: genai.TypeString},
					},
					Required: []string{"signature", "uniqueness"},
				},
			},
			Required: []string{"technical", "emotional", "communication", "light", "identity"},
		},
		"painProfile": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"name":   {Type: genai.TypeString},
				"reason": {Type: genai.TypeString},
			},
			Required: []string{"name", "reason"},
		},
		"finalFeedback": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"hook":     {Type: genai.TypeString},
				"insight":  {Type: genai.TypeString},
				"solution": {Type: genai.TypeString},
			},
			Required: []string{"hook", "insight", "solution"},
		},
	},
	Required: []string{"initialImpression", "layers", "painProfile", "finalFeedback"},
}
