// Package mlmodel adapts the trained FHI regression model as a scoring
// capability. The offline training job exports the model as a JSON artifact
// (ordered feature list, intercept and per-feature weights); this package
// loads it once from disk or GCS and serves predictions from memory.
//
// Prediction aligns the incoming feature mapping to the artifact's feature
// list: features the model was trained on but the caller did not supply are
// filled with 0.0, and extra features are ignored. The returned value is the
// raw prediction; clamping to [0,100] is the caller's concern (see
// internal/fhi).
package mlmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/finnut/finnut/internal/gcsstore"
)

// Artifact is the on-disk model format written by the training job.
type Artifact struct {
	ModelVersion string             `json:"model_version"`
	Features     []string           `json:"features"`
	Intercept    float64            `json:"intercept"`
	Weights      map[string]float64 `json:"weights"`
}

// Model is a loaded, immutable scoring model. It holds no mutable state and
// is safe to share across goroutines.
type Model struct {
	artifact Artifact
}

// Load reads a model artifact from a local file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: reading artifact %q: %w", path, err)
	}
	return fromBytes(data)
}

// LoadFromGCS reads a model artifact from a gs:// URI.
func LoadFromGCS(ctx context.Context, store gcsstore.StorageService, gcsURI string) (*Model, error) {
	data, err := store.Fetch(ctx, gcsURI)
	if err != nil {
		return nil, fmt.Errorf("LoadFromGCS: fetching artifact %q: %w", gcsURI, err)
	}
	return fromBytes(data)
}

func fromBytes(data []byte) (*Model, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("mlmodel: decoding artifact: %w", err)
	}
	if len(a.Features) == 0 {
		return nil, fmt.Errorf("mlmodel: artifact has no feature list")
	}
	return &Model{artifact: a}, nil
}

// Version returns the artifact's model version tag.
func (m *Model) Version() string {
	return m.artifact.ModelVersion
}

// FeatureNames returns the training-time feature list in artifact order.
func (m *Model) FeatureNames() []string {
	names := make([]string, len(m.artifact.Features))
	copy(names, m.artifact.Features)
	return names
}

// Predict computes the model output for a feature mapping. Missing features
// contribute 0.0.
func (m *Model) Predict(features map[string]float64) (float64, error) {
	pred := m.artifact.Intercept
	for _, name := range m.artifact.Features {
		pred += m.artifact.Weights[name] * features[name]
	}
	return pred, nil
}
