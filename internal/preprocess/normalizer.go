// Package preprocess turns raw user text into the cleaned token stream the
// classifier is trained on. Cleaning is pure and deterministic: the same input
// always yields the same output and nothing here can fail.
package preprocess

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var (
	urlPattern     = regexp.MustCompile(`http\S+|www\S+|https\S+`)
	mentionPattern = regexp.MustCompile(`@\w+|#`)
	nonAlphaSpace  = regexp.MustCompile(`[^a-z\s]`)
)

// Normalizer cleans raw text: lower-casing, URL and mention removal, stop word
// filtering and lemmatization. A Normalizer is safe for concurrent use.
type Normalizer struct {
	stopWords  map[string]struct{}
	lemmatizer Lemmatizer
}

// New creates a Normalizer with the English stop word set and the given
// lemmatizer. A nil lemmatizer defaults to the snowball stemmer, which needs no
// dictionary; NewNamed("") selects the dictionary lemmatizer.
func New(lemmatizer Lemmatizer) *Normalizer {
	if lemmatizer == nil {
		lemmatizer = SnowballLemmatizer{}
	}
	return &Normalizer{
		stopWords:  englishStopWords,
		lemmatizer: lemmatizer,
	}
}

// NewNamed creates a Normalizer using the lemmatizer registered under name.
func NewNamed(name string) (*Normalizer, error) {
	lemmatizer, err := LemmatizerByName(name)
	if err != nil {
		return nil, err
	}
	return New(lemmatizer), nil
}

// Normalize cleans a single text. Mentions (@user) are dropped as whole
// tokens while hashtags only lose the '#' marker and keep their word.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = nonAlphaSpace.ReplaceAllString(text, "")

	tokens := strings.Fields(text)
	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if n.isStopWord(token) {
			continue
		}
		lemma := n.lemmatizer.Lemma(token)
		// a lemma can collapse onto a stop word ("hes" -> "he")
		if lemma == "" || n.isStopWord(lemma) {
			continue
		}
		cleaned = append(cleaned, lemma)
	}

	return strings.Join(cleaned, " ")
}

// NormalizeBatch cleans every text, preserving order and length.
func (n *Normalizer) NormalizeBatch(texts []string) []string {
	return lo.Map(texts, func(text string, _ int) string {
		return n.Normalize(text)
	})
}

// IsStopWord reports whether word is in the stop word set.
func (n *Normalizer) IsStopWord(word string) bool {
	return n.isStopWord(word)
}

func (n *Normalizer) isStopWord(word string) bool {
	_, ok := n.stopWords[word]
	return ok
}
