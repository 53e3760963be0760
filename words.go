package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
)

//go:embed words.json
var embeddedWords []byte

// WordEntry is a single candidate secret word, with optional hint text
// shown to impostors when hinting is enabled.
type WordEntry struct {
	Word string `json:"word"`
	Hint string `json:"hint,omitempty"`
}

// WordBank maps category names to candidate words. Loaded once at
// startup and read-only afterwards.
type WordBank struct {
	categories map[string][]WordEntry
	names      []string
}

func parseWordBank(data []byte) (*WordBank, error) {
	categories := make(map[string][]WordEntry)
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("parsing word bank: %w", err)
	}

	names := make([]string, 0, len(categories))
	for name, entries := range categories {
		if name == "" {
			return nil, fmt.Errorf("word bank contains an unnamed category")
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("word bank category %q has no words", name)
		}
		for _, e := range entries {
			if e.Word == "" {
				return nil, fmt.Errorf("word bank category %q contains an empty word", name)
			}
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("word bank contains no categories")
	}
	sort.Strings(names)

	return &WordBank{categories: categories, names: names}, nil
}

// loadWordBank returns the bank from --words if given, falling back to
// the embedded bank (with a logged warning) when the override cannot be
// used. A broken embedded bank aborts startup.
func loadWordBank(cfg *Config) (*WordBank, error) {
	var bank *WordBank

	if cfg.wordsFile != "" {
		data, err := os.ReadFile(cfg.wordsFile)
		if err == nil {
			bank, err = parseWordBank(data)
			if err == nil {
				logf(cfg, "WORDS: Loaded %d categories from %s", len(bank.names), cfg.wordsFile)
			}
		}
		if err != nil {
			bank = nil
			logf(cfg, "WORDS: Falling back to embedded word bank: %v", err)
		}
	}

	if bank == nil {
		var err error
		bank, err = parseWordBank(embeddedWords)
		if err != nil {
			return nil, fmt.Errorf("embedded word bank is unusable: %w", err)
		}
	}

	if cfg.category != "" {
		if _, ok := bank.categories[cfg.category]; !ok {
			return nil, fmt.Errorf("--category %q is not present in the word bank", cfg.category)
		}
	}

	return bank, nil
}

// Categories returns the category names in sorted order.
func (b *WordBank) Categories() []string {
	return b.names
}

// Pick selects a category uniformly at random (or the fixed one, when
// non-empty) and then one word uniformly at random from it.
func (b *WordBank) Pick(fixedCategory string) (string, WordEntry) {
	category := fixedCategory
	if _, ok := b.categories[category]; !ok {
		category = b.names[rand.Intn(len(b.names))]
	}

	entries := b.categories[category]

	return category, entries[rand.Intn(len(entries))]
}

// HintFor returns the entry's hint text, or the category name when the
// entry carries none.
func (b *WordBank) HintFor(category string, e WordEntry) string {
	if e.Hint != "" {
		return e.Hint
	}
	return category
}
