// Package features converts cleaned text into TF-IDF vectors.
package features

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Vectorizer defaults.
const (
	DefaultMaxFeatures = 10000
	DefaultNGramMin    = 1
	DefaultNGramMax    = 2
)

// ErrEmptyVocabulary is returned by Fit when no term survives tokenisation.
var ErrEmptyVocabulary = errors.New("empty vocabulary: training texts contain no usable terms")

// tokens of two or more word characters
var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// SparseVector holds the non-zero entries of a feature row, indices ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product with a dense weight vector. Indices outside w
// are ignored.
func (v SparseVector) Dot(w []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		if idx < len(w) {
			sum += v.Values[i] * w[idx]
		}
	}
	return sum
}

// NNZ is the number of stored entries.
func (v SparseVector) NNZ() int { return len(v.Indices) }

// VectorizerConfig controls vocabulary construction.
type VectorizerConfig struct {
	MaxFeatures int `json:"max_features"`
	NGramMin    int `json:"ngram_min"`
	NGramMax    int `json:"ngram_max"`
}

// DefaultVectorizerConfig returns unigrams and bigrams capped at 10000 terms.
func DefaultVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{
		MaxFeatures: DefaultMaxFeatures,
		NGramMin:    DefaultNGramMin,
		NGramMax:    DefaultNGramMax,
	}
}

// Validate checks the configuration ranges.
func (c VectorizerConfig) Validate() error {
	if c.MaxFeatures <= 0 {
		return fmt.Errorf("max features must be positive, got %d", c.MaxFeatures)
	}
	if c.NGramMin < 1 || c.NGramMax < c.NGramMin {
		return fmt.Errorf("invalid n-gram range [%d, %d]", c.NGramMin, c.NGramMax)
	}
	return nil
}

// Vectorizer maps texts to L2-normalised TF-IDF rows. A fitted Vectorizer is
// never mutated again, so Transform is safe for concurrent use.
type Vectorizer struct {
	cfg   VectorizerConfig
	vocab map[string]int
	terms []string
	idf   []float64
}

// NewVectorizer creates an unfitted vectorizer.
func NewVectorizer(cfg VectorizerConfig) (*Vectorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Vectorizer{cfg: cfg}, nil
}

// Fit builds the vocabulary and IDF weights from texts. Terms are ranked by
// corpus term frequency, ties broken lexicographically, and the kept terms are
// indexed in lexicographic order.
func (v *Vectorizer) Fit(texts []string) error {
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, term := range v.analyze(text) {
			termFreq[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}

	if len(termFreq) == 0 {
		return ErrEmptyVocabulary
	}

	ranked := make([]string, 0, len(termFreq))
	for term := range termFreq {
		ranked = append(ranked, term)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if termFreq[a] != termFreq[b] {
			return termFreq[a] > termFreq[b]
		}
		return a < b
	})
	if len(ranked) > v.cfg.MaxFeatures {
		ranked = ranked[:v.cfg.MaxFeatures]
	}
	sort.Strings(ranked)

	n := float64(len(texts))
	vocab := make(map[string]int, len(ranked))
	idf := make([]float64, len(ranked))
	for i, term := range ranked {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	v.vocab = vocab
	v.terms = ranked
	v.idf = idf
	return nil
}

// Transform vectorises texts against the fitted vocabulary. Unknown n-grams
// contribute nothing; a text with no known n-gram yields the zero vector.
func (v *Vectorizer) Transform(texts []string) []SparseVector {
	rows := make([]SparseVector, len(texts))
	for i, text := range texts {
		rows[i] = v.transformOne(text)
	}
	return rows
}

// FitTransform fits on texts and returns their vectors.
func (v *Vectorizer) FitTransform(texts []string) ([]SparseVector, error) {
	if err := v.Fit(texts); err != nil {
		return nil, err
	}
	return v.Transform(texts), nil
}

// Dim is the vocabulary size and thus the feature dimensionality.
func (v *Vectorizer) Dim() int { return len(v.terms) }

// Fitted reports whether a vocabulary has been built.
func (v *Vectorizer) Fitted() bool { return len(v.terms) > 0 }

// Config returns the configuration the vectorizer was created with.
func (v *Vectorizer) Config() VectorizerConfig { return v.cfg }

// Vocabulary returns a copy of the term to index mapping.
func (v *Vectorizer) Vocabulary() map[string]int {
	out := make(map[string]int, len(v.vocab))
	for term, idx := range v.vocab {
		out[term] = idx
	}
	return out
}

// IDF returns a copy of the per-feature inverse document frequencies.
func (v *Vectorizer) IDF() []float64 {
	return append([]float64(nil), v.idf...)
}

func (v *Vectorizer) transformOne(text string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range v.analyze(text) {
		if idx, ok := v.vocab[term]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	indices := make([]int, 0, len(counts))
	for idx := range counts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	for i, idx := range indices {
		values[i] = counts[idx] * v.idf[idx]
	}
	if norm := floats.Norm(values, 2); norm > 0 {
		floats.Scale(1/norm, values)
	}
	return SparseVector{Indices: indices, Values: values}
}

// analyze returns every n-gram of text within the configured range.
func (v *Vectorizer) analyze(text string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return nil
	}

	var grams []string
	for n := v.cfg.NGramMin; n <= v.cfg.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				grams = append(grams, tokens[i])
				continue
			}
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

// VectorizerState is the serialisable form of a fitted Vectorizer.
type VectorizerState struct {
	Config VectorizerConfig `json:"config"`
	Terms  []string         `json:"terms"`
	IDF    []float64        `json:"idf"`
}

// State exports the fitted vocabulary and weights.
func (v *Vectorizer) State() VectorizerState {
	return VectorizerState{
		Config: v.cfg,
		Terms:  append([]string(nil), v.terms...),
		IDF:    v.IDF(),
	}
}

// VectorizerFromState rebuilds a fitted Vectorizer, rejecting inconsistent
// state.
func VectorizerFromState(state VectorizerState) (*Vectorizer, error) {
	if err := state.Config.Validate(); err != nil {
		return nil, err
	}
	if len(state.Terms) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if len(state.Terms) != len(state.IDF) {
		return nil, fmt.Errorf("vocabulary has %d terms but %d idf weights", len(state.Terms), len(state.IDF))
	}
	if len(state.Terms) > state.Config.MaxFeatures {
		return nil, fmt.Errorf("vocabulary size %d exceeds max features %d", len(state.Terms), state.Config.MaxFeatures)
	}

	vocab := make(map[string]int, len(state.Terms))
	for i, term := range state.Terms {
		if i > 0 && state.Terms[i-1] >= term {
			return nil, fmt.Errorf("vocabulary not strictly sorted at index %d", i)
		}
		if w := state.IDF[i]; math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return nil, fmt.Errorf("invalid idf weight %v for term %q", w, term)
		}
		vocab[term] = i
	}

	return &Vectorizer{
		cfg:   state.Config,
		vocab: vocab,
		terms: append([]string(nil), state.Terms...),
		idf:   append([]float64(nil), state.IDF...),
	}, nil
}
