// Package service orchestrates the core: note creation, due-card
// selection, review recording and the session policy. It is the only
// writer of card memory state.
package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/analiz-sintez/begriff/internal/config"
	"github.com/analiz-sintez/begriff/internal/llm"
	"github.com/analiz-sintez/begriff/internal/srs"
	"github.com/analiz-sintez/begriff/internal/storage"
)

// Service wires the store, the memory model, the scheduling knobs and
// the text-generation collaborator together.
type Service struct {
	db       *storage.DB
	params   *srs.Params
	cfg      config.SRS
	gen      llm.Generator // may be nil: explanations are then left empty
	validate *validator.Validate
	inject   *noteCache
}

// New creates a service. gen may be nil when no text-generation
// collaborator is configured.
func New(db *storage.DB, params *srs.Params, cfg config.SRS, gen llm.Generator) *Service {
	return &Service{
		db:       db,
		params:   params,
		cfg:      cfg,
		gen:      gen,
		validate: validator.New(),
		inject:   newNoteCache(injectCacheTTL, injectCacheSize),
	}
}

// DB exposes the underlying store for read-side collaborators such as
// the importer and transport adapters.
func (s *Service) DB() *storage.DB {
	return s.db
}
