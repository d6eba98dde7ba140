package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/analiz-sintez/begriff/internal/apperr"
	"github.com/analiz-sintez/begriff/internal/service"
)

// Importer reconciles word-list sources into a user's notes.
type Importer struct {
	svc      *service.Service
	reposDir string
}

// New creates an importer that checks out git sources under reposDir.
func New(svc *service.Service, reposDir string) *Importer {
	return &Importer{svc: svc, reposDir: reposDir}
}

// Result summarizes one import run.
type Result struct {
	Created int
	Updated int
	Skipped int
	Errors  []error
}

// ImportSource imports every word-list file (.md or .txt) found under
// the source, which is either a local directory or a git URL. Entries
// without an L: directive fall back to defaultLanguage. Entries whose
// fingerprint matches the previous import are skipped; changed entries
// update the note's explanation.
func (im *Importer) ImportSource(ctx context.Context, userID int64, source, defaultLanguage string) (*Result, error) {
	root := source
	if isGitURL(source) {
		if err := os.MkdirAll(im.reposDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create repos directory: %w", err)
		}
		localPath, err := repoLocalPath(im.reposDir, source)
		if err != nil {
			return nil, err
		}
		if err := syncRepo(source, localPath); err != nil {
			return nil, err
		}
		root = localPath
	}

	result := &Result{}
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isWordListFile(d.Name()) {
			return nil
		}
		entries, err := ParseFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			return nil
		}
		for _, entry := range entries {
			if err := im.importEntry(ctx, userID, entry, defaultLanguage, result); err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("%s: %q: %w", path, entry.Word, err))
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("failed to walk source %s: %w", source, walkErr)
	}

	slog.Info("import complete",
		"source", source,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

func (im *Importer) importEntry(ctx context.Context, userID int64, entry Entry, defaultLanguage string, result *Result) error {
	languageName := entry.Language
	if languageName == "" {
		languageName = defaultLanguage
	}
	if languageName == "" {
		return fmt.Errorf("no language directive and no default language")
	}

	db := im.svc.DB()
	language, err := db.GetOrCreateLanguage(languageName)
	if errors.Is(err, apperr.ErrConflict) {
		// Lost a get-or-create race; the row exists now.
		language, err = db.GetOrCreateLanguage(languageName)
	}
	if err != nil {
		return err
	}

	fingerprint := Fingerprint(entry)
	existing, err := db.FindNoteByText(userID, language.ID, entry.Word)
	if err != nil {
		return err
	}

	if existing != nil {
		if existing.Options.String("import/hash", "") == fingerprint {
			result.Skipped++
			return nil
		}
		if entry.Explanation != "" {
			existing.Field2 = entry.Explanation
		}
		if err := existing.Options.Set("import/hash", fingerprint); err != nil {
			return err
		}
		if err := db.UpdateNote(existing); err != nil {
			return err
		}
		result.Updated++
		return nil
	}

	note, err := im.svc.CreateNote(ctx, userID, language.ID, entry.Word, entry.Explanation)
	if err != nil {
		return err
	}
	if err := im.svc.SetNoteOption(note.ID, "import/hash", fingerprint); err != nil {
		return err
	}
	result.Created++
	return nil
}

func isWordListFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".txt")
}
