// Package importer parses card files: plain-text files in which each block
// declares one note, todo or flashcard. Blocks are separated by "---" or by
// the next card-opening prefix.
//
//	note: Water the plants
//	tags: home, plants
//	---
//	todo: Rotate the API keys
//	priority: high
//	---
//	front: What does WAL stand for?
//	back: Write-ahead logging, sqlite's
//	concurrent journal mode.
//
// Unprefixed lines continue the preceding field.
package importer

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/dermotcahill/recur/internal/domain"
)

const (
	notePrefix     = "note:"
	todoPrefix     = "todo:"
	frontPrefix    = "front:"
	backPrefix     = "back:"
	tagsPrefix     = "tags:"
	priorityPrefix = "priority:"
	separator      = "---"
)

// ParsedCard is one card block lifted out of a card file.
type ParsedCard struct {
	Category domain.Category
	Text     string
	Answer   string
	Tags     []string
	Priority domain.Priority
}

type field int

const (
	none field = iota
	text
	answer
)

// ParseFile reads a card file from the given path and extracts all cards.
func ParseFile(path string) ([]ParsedCard, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads card blocks from r. Blocks without body text are dropped;
// unknown priorities fall back to none.
func Parse(r io.Reader) ([]ParsedCard, error) {
	scanner := bufio.NewScanner(r)

	var cards []ParsedCard
	var current ParsedCard
	var block []string
	active := none

	flushField := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch active {
		case text:
			current.Text = content
		case answer:
			current.Answer = content
		}
		block = nil
	}

	finishCard := func() {
		flushField()
		if current.Text != "" && current.Category != "" {
			cards = append(cards, current)
		}
		current = ParsedCard{}
		active = none
	}

	startCard := func(cat domain.Category, rest string) {
		if active != none {
			finishCard()
		}
		current.Category = cat
		active = text
		block = append(block, rest)
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.TrimSpace(line) == separator:
			finishCard()
		case strings.HasPrefix(line, notePrefix):
			startCard(domain.Note, strings.TrimPrefix(line, notePrefix))
		case strings.HasPrefix(line, todoPrefix):
			startCard(domain.Todo, strings.TrimPrefix(line, todoPrefix))
		case strings.HasPrefix(line, frontPrefix):
			startCard(domain.Flashcard, strings.TrimPrefix(line, frontPrefix))
		case strings.HasPrefix(line, backPrefix):
			flushField()
			active = answer
			block = append(block, strings.TrimPrefix(line, backPrefix))
		case strings.HasPrefix(line, tagsPrefix):
			flushField()
			active = none
			current.Tags = splitTags(strings.TrimPrefix(line, tagsPrefix))
		case strings.HasPrefix(line, priorityPrefix):
			flushField()
			active = none
			if p, err := domain.ParsePriority(strings.TrimSpace(strings.TrimPrefix(line, priorityPrefix))); err == nil {
				current.Priority = p
			}
		case active != none:
			block = append(block, line)
		}
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
