package preprocess

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
	porterstemmer "github.com/kiteco/go-porterstemmer"
	"github.com/samber/lo"
)

// Lemmatizer names.
const (
	LemmatizerDictionary = "dictionary"
	LemmatizerSnowball   = "snowball"
	LemmatizerPorter     = "porter"
)

// maxStemPasses bounds the fixed-point iteration. Stemmers and dictionary
// lookups settle on real words in two or three passes.
const maxStemPasses = 8

// Lemmatizer reduces a lower-case word to its base form. Implementations must
// be deterministic and idempotent: Lemma(Lemma(w)) == Lemma(w).
type Lemmatizer interface {
	Lemma(word string) string
}

// LemmatizerByName returns the lemmatizer registered under name.
func LemmatizerByName(name string) (Lemmatizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", LemmatizerDictionary:
		return NewDictionaryLemmatizer()
	case LemmatizerSnowball:
		return SnowballLemmatizer{}, nil
	case LemmatizerPorter:
		return PorterLemmatizer{}, nil
	default:
		return nil, fmt.Errorf("unknown lemmatizer %q (expected %q, %q or %q)",
			name, LemmatizerDictionary, LemmatizerSnowball, LemmatizerPorter)
	}
}

var (
	englishDictOnce sync.Once
	englishDict     *golem.Lemmatizer
	englishDictErr  error
)

// DictionaryLemmatizer maps inflected English words to their dictionary base
// form ("ponies" -> "pony"). Words missing from the dictionary are returned
// unchanged.
type DictionaryLemmatizer struct {
	dict *golem.Lemmatizer
}

// NewDictionaryLemmatizer returns a lemmatizer backed by the embedded English
// dictionary. The dictionary is decoded once per process and shared.
func NewDictionaryLemmatizer() (*DictionaryLemmatizer, error) {
	englishDictOnce.Do(func() {
		englishDict, englishDictErr = golem.New(en.New())
	})
	if englishDictErr != nil {
		return nil, fmt.Errorf("load english dictionary: %w", englishDictErr)
	}
	return &DictionaryLemmatizer{dict: englishDict}, nil
}

// Lemma implements Lemmatizer. Dictionary entries with characters the
// normalizer would strip (hyphens, spaces, apostrophes) are not used.
func (l *DictionaryLemmatizer) Lemma(word string) string {
	return fixedPoint(word, func(w string) string {
		lemma := l.dict.Lemma(w)
		if !isLowerAlpha(lemma) {
			return w
		}
		return lemma
	})
}

func isLowerAlpha(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// SnowballLemmatizer uses the English (Porter2) snowball stemmer.
type SnowballLemmatizer struct{}

// Lemma implements Lemmatizer.
func (SnowballLemmatizer) Lemma(word string) string {
	return fixedPoint(word, func(w string) string {
		env := snowballstem.NewEnv(w)
		english.Stem(env)
		return env.Current()
	})
}

// PorterLemmatizer uses the original Porter stemming algorithm.
type PorterLemmatizer struct{}

// Lemma implements Lemmatizer.
func (PorterLemmatizer) Lemma(word string) string {
	return fixedPoint(word, porterstemmer.StemString)
}

// fixedPoint applies stem until the word stops changing. A dictionary can map
// words onto each other in a cycle; the cycle's smallest member is returned so
// every entry point settles on the same word.
func fixedPoint(word string, stem func(string) string) string {
	if word == "" {
		return ""
	}
	seen := []string{word}
	current := word
	for i := 0; i < maxStemPasses; i++ {
		next := stem(current)
		if next == current || next == "" {
			break
		}
		if idx := lo.IndexOf(seen, next); idx >= 0 {
			return lo.Min(seen[idx:])
		}
		seen = append(seen, next)
		current = next
	}
	return current
}
