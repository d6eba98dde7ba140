package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	explanationPrompt = `You are a vocabulary tutor. Explain the %s word or phrase %q
in simple %s, in at most two sentences, without using the word itself.%s
Reply with the explanation only.`

	baseFormPrompt = `Give the dictionary (base) form of the %s word %q.
Reply with the base form only, no punctuation or commentary.`

	translatePrompt = `Translate the following %s text into %s.
Reply with the translation only.

%s`
)

// Gemini implements Generator on top of the Google generative AI API.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini creates a client for the given model.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, timeout: timeout}, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) GenerateExplanation(ctx context.Context, word, language, usage string) (string, error) {
	hint := ""
	if usage != "" {
		hint = fmt.Sprintf("\nThe word was seen in this context: %q.", usage)
	}
	return g.generate(ctx, fmt.Sprintf(explanationPrompt, language, word, language, hint))
}

func (g *Gemini) GenerateBaseForm(ctx context.Context, word, language string) (string, error) {
	return g.generate(ctx, fmt.Sprintf(baseFormPrompt, language, word))
}

func (g *Gemini) Translate(ctx context.Context, text, srcLang, dstLang string) (string, error) {
	return g.generate(ctx, fmt.Sprintf(translatePrompt, srcLang, dstLang, text))
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no usable candidates")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("gemini returned a non-text part")
	}
	return strings.TrimSpace(string(text)), nil
}
