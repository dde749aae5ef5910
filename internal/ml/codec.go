package ml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"sentiment-service/internal/features"
)

// Artifact layout: magic, one format byte, zstd-compressed JSON snapshot.
const (
	artifactMagic   = "SNTPIPE"
	artifactFormat  = byte(1)
	maxArtifactSize = 512 << 20
)

type snapshot struct {
	ModelType        string                   `json:"model_type"`
	Trained          bool                     `json:"trained"`
	LabelPolicy      LabelPolicy              `json:"label_policy"`
	Vectorizer       features.VectorizerState `json:"vectorizer"`
	Classifier       ClassifierState          `json:"classifier"`
	TrainingAccuracy float64                  `json:"training_accuracy"`
	TrainingSamples  int                      `json:"training_samples"`
	TrainedAt        time.Time                `json:"trained_at"`
}

func snapshotOf(m *trainedModel) snapshot {
	return snapshot{
		ModelType:        ModelType,
		Trained:          true,
		LabelPolicy:      m.policy,
		Vectorizer:       m.vectorizer.State(),
		Classifier:       m.classifier.State(),
		TrainingAccuracy: m.accuracy,
		TrainingSamples:  m.samples,
		TrainedAt:        m.trainedAt,
	}
}

func encodeSnapshot(s snapshot) ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Close()

	out := make([]byte, 0, len(artifactMagic)+1+len(payload)/4)
	out = append(out, artifactMagic...)
	out = append(out, artifactFormat)
	return encoder.EncodeAll(payload, out), nil
}

func decodeSnapshot(data []byte) (snapshot, error) {
	var s snapshot

	header := len(artifactMagic) + 1
	if len(data) < header || !bytes.Equal(data[:len(artifactMagic)], []byte(artifactMagic)) {
		return s, fmt.Errorf("%w: not a sentiment pipeline artifact", ErrDeserialization)
	}
	if format := data[len(artifactMagic)]; format != artifactFormat {
		return s, fmt.Errorf("%w: unsupported artifact format %d", ErrDeserialization, format)
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxArtifactSize))
	if err != nil {
		return s, err
	}
	defer decoder.Close()

	payload, err := decoder.DecodeAll(data[header:], nil)
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	if err := json.Unmarshal(payload, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	return s, nil
}

func modelFromSnapshot(s snapshot) (*trainedModel, error) {
	if s.ModelType != ModelType {
		return nil, fmt.Errorf("%w: unexpected model type %q", ErrDeserialization, s.ModelType)
	}
	if !s.Trained {
		return nil, fmt.Errorf("%w: artifact holds an untrained model", ErrDeserialization)
	}

	policy, err := ParseLabelPolicy(string(s.LabelPolicy))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}

	vectorizer, err := features.VectorizerFromState(s.Vectorizer)
	if err != nil {
		return nil, fmt.Errorf("%w: vectorizer: %v", ErrDeserialization, err)
	}
	classifier, err := LogisticRegressionFromState(s.Classifier)
	if err != nil {
		return nil, fmt.Errorf("%w: classifier: %v", ErrDeserialization, err)
	}
	if classifier.Dim() != vectorizer.Dim() {
		return nil, fmt.Errorf("%w: classifier has %d weights for %d features",
			ErrDeserialization, classifier.Dim(), vectorizer.Dim())
	}

	return &trainedModel{
		vectorizer: vectorizer,
		classifier: classifier,
		accuracy:   s.TrainingAccuracy,
		samples:    s.TrainingSamples,
		trainedAt:  s.TrainedAt,
		policy:     policy,
	}, nil
}

func readArtifact(path string) (*trainedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	s, err := decodeSnapshot(data)
	if err != nil {
		return nil, err
	}
	return modelFromSnapshot(s)
}

// writeFileAtomic writes data to a temporary file in the target directory and
// renames it over path, so readers never see a partial artifact.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
