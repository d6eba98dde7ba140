// Package llm is the boundary to the text-generation collaborator. It
// is fallible and possibly slow; callers must degrade on error and
// never let a failure touch scheduling state.
package llm

import "context"

// Generator produces study texts for words. Implementations must be
// safe for concurrent use.
type Generator interface {
	// GenerateExplanation writes a short learner-friendly explanation
	// of word in the target language. A usage context may be empty.
	GenerateExplanation(ctx context.Context, word, language, usage string) (string, error)
	// GenerateBaseForm reduces an inflected word to its dictionary form.
	GenerateBaseForm(ctx context.Context, word, language string) (string, error)
	// Translate renders text from srcLang into dstLang.
	Translate(ctx context.Context, text, srcLang, dstLang string) (string, error)
}
