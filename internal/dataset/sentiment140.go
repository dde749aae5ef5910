// Package dataset loads labelled training corpora.
package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/charmap"

	"sentiment-service/internal/ml"
)

// sentiment140Header names the six columns of the Sentiment140 export, which
// ships without a header row.
const sentiment140Header = "target,ids,date,flag,user,text\n"

type sentiment140Row struct {
	Target string `csv:"target"`
	IDs    string `csv:"ids"`
	Date   string `csv:"date"`
	Flag   string `csv:"flag"`
	User   string `csv:"user"`
	Text   string `csv:"text"`
}

// Options controls CSV decoding.
type Options struct {
	// HasHeader skips the first line of the file.
	HasHeader bool
	// UTF8 reads the file as UTF-8 instead of Latin-1.
	UTF8 bool
}

// Dataset is a list of texts with one label each.
type Dataset struct {
	Texts  []string
	Labels []string
}

// Len returns the number of samples.
func (d Dataset) Len() int { return len(d.Texts) }

// Counts returns the number of positive and negative labels.
func (d Dataset) Counts() (positive, negative int) {
	for _, label := range d.Labels {
		if label == ml.LabelPositive {
			positive++
		} else {
			negative++
		}
	}
	return positive, negative
}

// Sample draws n samples without replacement, reproducibly for a given seed.
// n <= 0 or n >= Len returns the whole dataset.
func (d Dataset) Sample(n int, seed int64) Dataset {
	if n <= 0 || n >= d.Len() {
		return d
	}

	perm := rand.New(rand.NewSource(seed)).Perm(d.Len())[:n]
	out := Dataset{Texts: make([]string, n), Labels: make([]string, n)}
	for i, idx := range perm {
		out.Texts[i] = d.Texts[idx]
		out.Labels[i] = d.Labels[idx]
	}
	return out
}

// LoadSentiment140 reads a Sentiment140 CSV file.
func LoadSentiment140(path string, opts Options) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := ReadSentiment140(f, opts)
	if err != nil {
		return Dataset{}, fmt.Errorf("read %s: %w", path, err)
	}

	positive, negative := ds.Counts()
	log.Info().
		Str("path", path).
		Int("samples", ds.Len()).
		Int("positive", positive).
		Int("negative", negative).
		Msg("Dataset loaded")
	return ds, nil
}

// ReadSentiment140 decodes Sentiment140 rows from r. Target 4 (or 1) maps to
// "positive", every other target to "negative".
func ReadSentiment140(r io.Reader, opts Options) (Dataset, error) {
	if !opts.UTF8 {
		r = charmap.ISO8859_1.NewDecoder().Reader(r)
	}

	br := bufio.NewReader(r)
	if opts.HasHeader {
		if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
			return Dataset{}, fmt.Errorf("skip header: %w", err)
		}
	}

	reader := csv.NewReader(io.MultiReader(strings.NewReader(sentiment140Header), br))
	reader.LazyQuotes = true

	var rows []*sentiment140Row
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return Dataset{}, fmt.Errorf("decode csv: %w", err)
	}

	ds := Dataset{
		Texts:  make([]string, 0, len(rows)),
		Labels: make([]string, 0, len(rows)),
	}
	for _, row := range rows {
		ds.Texts = append(ds.Texts, row.Text)
		ds.Labels = append(ds.Labels, labelFor(row.Target))
	}
	return ds, nil
}

func labelFor(target string) string {
	switch strings.TrimSpace(target) {
	case "4", "1":
		return ml.LabelPositive
	default:
		return ml.LabelNegative
	}
}
