// Package words owns the drawing word bank, per-word difficulty tiers,
// and word masking.
package words

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultTier applies to any word without a tier table entry.
	DefaultTier = 3

	MinTier = 1
	MaxTier = 5
)

// Bank is an immutable word list with difficulty tiers. Safe for
// concurrent readers once built.
type Bank struct {
	words []string
	tiers map[string]int
}

// NewBank builds a bank from words and an optional tier table. Tiers
// outside [MinTier, MaxTier] are clamped.
func NewBank(list []string, tiers map[string]int) *Bank {
	b := &Bank{
		words: make([]string, 0, len(list)),
		tiers: make(map[string]int, len(tiers)),
	}
	for _, w := range list {
		w = normalize(w)
		if w != "" {
			b.words = append(b.words, w)
		}
	}
	for w, t := range tiers {
		b.tiers[normalize(w)] = clampTier(t)
	}
	return b
}

// Default returns the built-in bank.
func Default() *Bank {
	return NewBank(defaultWords, defaultTiers)
}

// LoadCSV reads "word,tier" rows and returns a bank built from them.
// Rows with an unparsable tier fall back to DefaultTier.
func LoadCSV(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse word list %s: %w", path, err)
	}

	list := make([]string, 0, len(records))
	tiers := make(map[string]int, len(records))
	for _, rec := range records {
		if len(rec) == 0 || normalize(rec[0]) == "" {
			continue
		}
		word := normalize(rec[0])
		list = append(list, word)
		if len(rec) > 1 {
			if tier, err := strconv.Atoi(strings.TrimSpace(rec[1])); err == nil {
				tiers[word] = clampTier(tier)
			}
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("word list %s is empty", path)
	}
	return NewBank(list, tiers), nil
}

// Pick returns a pseudo-random word from the bank.
func (b *Bank) Pick() string {
	return b.words[rand.IntN(len(b.words))]
}

// Tier returns the difficulty tier for a word.
func (b *Bank) Tier(word string) int {
	if t, ok := b.tiers[normalize(word)]; ok {
		return t
	}
	return DefaultTier
}

func (b *Bank) Len() int { return len(b.words) }

// Mask replaces every non-space rune with an underscore, preserving
// word length and spacing so clients can render letter slots.
func Mask(word string) string {
	var sb strings.Builder
	for _, r := range word {
		if r == ' ' {
			sb.WriteRune(' ')
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func normalize(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}

func clampTier(t int) int {
	if t < MinTier {
		return MinTier
	}
	if t > MaxTier {
		return MaxTier
	}
	return t
}

var defaultWords = []string{
	"cat", "dog", "house", "tree", "car", "sun", "moon", "star", "flower", "bird",
	"fish", "book", "phone", "computer", "guitar", "piano", "camera", "bicycle",
	"umbrella", "chair", "table", "cup", "bottle", "shoe", "hat", "clock",
	"butterfly", "rainbow", "mountain", "beach", "ocean", "river", "bridge",
	"castle", "rocket", "airplane", "boat", "train", "pizza", "burger", "ice cream",
	"cake", "apple", "banana", "carrot", "elephant", "giraffe", "lion", "tiger",
	"penguin", "dolphin", "whale", "octopus", "spider", "snowman",
	"campfire", "tent", "backpack", "glasses", "crown", "sword", "shield",
}

var defaultTiers = map[string]int{
	"cat": 1, "dog": 1, "sun": 1, "car": 1, "hat": 1, "cup": 1,
	"tree": 2, "fish": 2, "book": 2, "star": 2, "moon": 2, "boat": 2,
	"bicycle": 4, "umbrella": 4, "butterfly": 4, "campfire": 4,
	"octopus": 5, "constellation": 5,
}
