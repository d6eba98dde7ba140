package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/analiz-sintez/begriff/internal/config"
	"github.com/analiz-sintez/begriff/internal/service"
	"github.com/analiz-sintez/begriff/internal/srs"
	"github.com/analiz-sintez/begriff/internal/storage"
)

func newTestImporter(t *testing.T) (*Importer, *storage.DB, int64) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Default().SRS
	svc := service.New(db, srs.DefaultParams(), cfg, nil)
	user, err := db.GetOrCreateUser("importer")
	if err != nil {
		t.Fatal(err)
	}
	return New(svc, t.TempDir()), db, user.ID
}

func writeWordList(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestImportLocalDirectory(t *testing.T) {
	imp, db, userID := newTestImporter(t)
	src := t.TempDir()
	writeWordList(t, src, "german.md", `L: German
W: der Hund
E: dog
---
W: die Katze
E: cat
`)
	writeWordList(t, src, "notes.pdf", "not a word list")

	result, err := imp.ImportSource(context.Background(), userID, src, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Created != 2 || result.Updated != 0 || result.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	language, err := db.GetOrCreateLanguage("German")
	if err != nil {
		t.Fatal(err)
	}
	note, err := db.FindNoteByText(userID, language.ID, "der Hund")
	if err != nil {
		t.Fatal(err)
	}
	if note == nil {
		t.Fatal("imported note not found")
	}
	if note.Field2 != "dog" {
		t.Errorf("explanation = %q, want dog", note.Field2)
	}
	if note.Options.String("import/hash", "") == "" {
		t.Error("imported note carries no fingerprint")
	}
	cards, err := db.GetCardsByNoteID(note.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 2 {
		t.Errorf("imported note has %d cards, want 2", len(cards))
	}
}

func TestImportIsIdempotent(t *testing.T) {
	imp, _, userID := newTestImporter(t)
	src := t.TempDir()
	writeWordList(t, src, "words.txt", `L: German
W: der Hund
E: dog
`)

	if _, err := imp.ImportSource(context.Background(), userID, src, ""); err != nil {
		t.Fatal(err)
	}
	result, err := imp.ImportSource(context.Background(), userID, src, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Created != 0 || result.Updated != 0 || result.Skipped != 1 {
		t.Errorf("re-import should skip the unchanged entry, got %+v", result)
	}
}

func TestImportUpdatesChangedExplanation(t *testing.T) {
	imp, db, userID := newTestImporter(t)
	src := t.TempDir()
	writeWordList(t, src, "words.txt", `L: German
W: der Hund
E: dog
`)
	if _, err := imp.ImportSource(context.Background(), userID, src, ""); err != nil {
		t.Fatal(err)
	}

	writeWordList(t, src, "words.txt", `L: German
W: der Hund
E: dog, hound
`)
	result, err := imp.ImportSource(context.Background(), userID, src, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Updated != 1 || result.Created != 0 {
		t.Fatalf("expected one update, got %+v", result)
	}

	language, _ := db.GetOrCreateLanguage("German")
	note, err := db.FindNoteByText(userID, language.ID, "der Hund")
	if err != nil {
		t.Fatal(err)
	}
	if note.Field2 != "dog, hound" {
		t.Errorf("explanation = %q, want the updated one", note.Field2)
	}
}

func TestImportDefaultLanguage(t *testing.T) {
	imp, db, userID := newTestImporter(t)
	src := t.TempDir()
	writeWordList(t, src, "words.txt", `W: chien
E: dog
`)

	result, err := imp.ImportSource(context.Background(), userID, src, "French")
	if err != nil {
		t.Fatal(err)
	}
	if result.Created != 1 {
		t.Fatalf("expected one created entry, got %+v", result)
	}

	language, _ := db.GetOrCreateLanguage("French")
	note, err := db.FindNoteByText(userID, language.ID, "chien")
	if err != nil {
		t.Fatal(err)
	}
	if note == nil {
		t.Error("note was not filed under the default language")
	}
}

func TestImportEntryWithoutLanguageIsAnError(t *testing.T) {
	imp, _, userID := newTestImporter(t)
	src := t.TempDir()
	writeWordList(t, src, "words.txt", `W: orphan
E: no language anywhere
`)

	result, err := imp.ImportSource(context.Background(), userID, src, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected one entry error, got %+v", result)
	}
	if result.Created != 0 {
		t.Errorf("nothing should be created, got %+v", result)
	}
}

func TestIsGitURL(t *testing.T) {
	for _, url := range []string{
		"https://github.com/owner/words.git",
		"git@github.com:owner/words.git",
		"ssh://git@github.com/owner/words.git",
	} {
		if !isGitURL(url) {
			t.Errorf("isGitURL(%q) = false", url)
		}
	}
	for _, path := range []string{"/home/user/words", "./words", "words"} {
		if isGitURL(path) {
			t.Errorf("isGitURL(%q) = true", path)
		}
	}
}
