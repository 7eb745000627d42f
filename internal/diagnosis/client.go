package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/photoactive-studio/photoactive/internal/auth"
	"github.com/photoactive-studio/photoactive/internal/imaging"
	"github.com/photoactive-studio/photoactive/internal/locale"
)

// DefaultModel is the Gemini model used for analysis. Multimodal reasoning
// quality matters more than latency here.
const DefaultModel = "gemini-3-pro-preview"

// maxOutputTokens bounds the report size. Reports are a page of text per
// layer at most; anything larger is the model rambling.
const maxOutputTokens = 8192

// ModelName returns the model to use, resolved from the PHOTOACTIVE_MODEL
// environment variable when set.
func ModelName() string {
	if env := os.Getenv("PHOTOACTIVE_MODEL"); env != "" {
		return env
	}
	return DefaultModel
}

// generateFunc issues one GenerateContent call. Swapped out in tests so the
// contract around the call is testable without a network.
type generateFunc func(ctx context.Context, apiKey, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Analyzer sends photographs to Gemini and returns validated reports. It is
// stateless per call: the credential is resolved and the provider client is
// built fresh on every Analyze, so a rotated key takes effect immediately.
type Analyzer struct {
	credentials auth.CredentialProvider
	model       string
	generate    generateFunc
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithModel overrides the resolved model name.
func WithModel(model string) Option {
	return func(a *Analyzer) {
		if model != "" {
			a.model = model
		}
	}
}

// NewAnalyzer builds an Analyzer around a credential provider.
func NewAnalyzer(credentials auth.CredentialProvider, opts ...Option) *Analyzer {
	a := &Analyzer{
		credentials: credentials,
		model:       ModelName(),
		generate:    generateContent,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze performs one analysis: exactly one outbound call, then parse and
// validate. All failures come back as *Error with a Kind; no retries happen
// here, every retry is a fresh user action.
func (a *Analyzer) Analyze(ctx context.Context, img *imaging.ImageInput, lang locale.Tag, title string) (*Report, error) {
	if img == nil || len(img.Data) == 0 || !strings.HasPrefix(img.MIMEType, "image/") {
		return nil, newError(KindInvalidInput, imaging.ErrNotImage)
	}
	if !lang.Valid() {
		lang = locale.Default
	}

	apiKey, err := a.credentials()
	if err != nil || apiKey == "" {
		return nil, newError(KindMissingCredential, err)
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: img.Data}},
			{Text: buildPrompt(lang, title, img.Meta)},
		},
	}}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction(lang)}},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema:   reportSchema,
		MaxOutputTokens:  maxOutputTokens,
	}

	log.Debug().
		Str("model", a.model).
		Str("language", string(lang)).
		Str("mime_type", img.MIMEType).
		Int("image_bytes", len(img.Data)).
		Msg("Starting photo analysis")

	start := time.Now()
	resp, err := a.generate(ctx, apiKey, a.model, contents, cfg)
	elapsed := time.Since(start)

	if err != nil {
		kind := classifyCallError(err)
		log.Error().Err(err).Str("kind", kind.String()).Dur("duration", elapsed).Msg("Analysis call failed")
		return nil, newError(kind, err)
	}

	if reason, rejected := rejectionReason(resp); rejected {
		log.Warn().Str("reason", reason).Dur("duration", elapsed).Msg("Provider rejected the analysis request")
		return nil, newError(KindProviderRejected, fmt.Errorf("provider rejected request: %s", reason))
	}

	text := resp.Text()
	if text == "" {
		log.Warn().Dur("duration", elapsed).Msg("Received empty response")
		return nil, newError(KindEmptyResponse, fmt.Errorf("no text in response"))
	}

	report, err := decodeReport(text)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("model", a.model).
		Float64("technical_score", report.Layers.Technical.Score).
		Str("pain_profile", report.PainProfile.Name).
		Dur("duration", elapsed).
		Msg("Photo analysis complete")

	return report, nil
}

// decodeReport parses and validates raw response text.
func decodeReport(text string) (*Report, error) {
	report, err := parseReport(text)
	if err != nil {
		log.Error().Err(err).Int("response_length", len(text)).Msg("Failed to parse analysis response")
		return nil, newError(KindMalformedJSON, err)
	}
	if err := report.Validate(); err != nil {
		log.Error().Err(err).Msg("Analysis response missing required fields")
		return nil, newError(KindSchemaMismatch, err)
	}
	return report, nil
}

// generateContent is the real provider call: a fresh client per invocation
// keyed by the just-resolved credential.
func generateContent(ctx context.Context, apiKey, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client.Models.GenerateContent(ctx, model, contents, cfg)
}

// classifyCallError maps transport-level failures onto the taxonomy.
// 4xx statuses that indicate the provider declined the request (bad argument,
// permission, safety) become ProviderRejected; everything else is generic.
func classifyCallError(err error) Kind {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound:
			return KindProviderRejected
		}
	}
	return KindProviderError
}

// rejectionReason reports whether the provider declined to answer: a blocked
// prompt or a candidate cut off for safety or recitation.
func rejectionReason(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil {
		return "", false
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockedReasonUnspecified && fb.BlockReason != "" {
		return fmt.Sprintf("prompt blocked: %s", fb.BlockReason), true
	}
	for _, c := range resp.Candidates {
		switch c.FinishReason {
		case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonProhibitedContent, genai.FinishReasonImageSafety:
			return fmt.Sprintf("finish reason: %s", c.FinishReason), true
		}
	}
	return "", false
}
