// Package importer loads word lists into a user's collection from
// local directories or git repositories.
package importer

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Word-list files are plain text with prefixed lines:
//
//	L: German
//	W: der Begriff
//	E: concept, notion
//	---
//	W: die Ahnung
//
// L: switches the language for the entries that follow. E: is optional;
// missing explanations can be filled by the generator at import time.
const (
	languagePrefix    = "L:"
	wordPrefix        = "W:"
	explanationPrefix = "E:"
)

// Entry is one parsed word-list item.
type Entry struct {
	Language    string
	Word        string
	Explanation string
}

type parseState int

const (
	seeking parseState = iota
	readingWord
	readingExplanation
)

// ParseFile reads a word-list file from the given path.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads word-list entries from r. Entries without a word are
// dropped; entries inherit the most recent L: directive.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)

	var (
		entries      []Entry
		current      Entry
		currentBlock []string
		language     string
		state        = seeking
	)

	flushBlock := func() {
		if len(currentBlock) == 0 {
			return
		}
		content := strings.Join(currentBlock, "\n")
		switch state {
		case readingWord:
			current.Word = content
		case readingExplanation:
			current.Explanation = content
		}
		currentBlock = nil
	}

	finishEntry := func() {
		flushBlock()
		if current.Word != "" {
			current.Language = language
			entries = append(entries, current)
		}
		current = Entry{}
		state = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "---":
			finishEntry()
		case strings.HasPrefix(line, languagePrefix):
			finishEntry()
			language = strings.TrimSpace(line[len(languagePrefix):])
		case strings.HasPrefix(line, wordPrefix):
			// A new word always starts a new entry.
			if state != seeking {
				finishEntry()
			}
			state = readingWord
			currentBlock = append(currentBlock, trimPrefix(line, wordPrefix))
		case strings.HasPrefix(line, explanationPrefix):
			flushBlock()
			state = readingExplanation
			currentBlock = append(currentBlock, trimPrefix(line, explanationPrefix))
		case state != seeking:
			currentBlock = append(currentBlock, line)
		}
	}
	finishEntry()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	return strings.TrimPrefix(content, " ")
}
