package pricing

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestFile optionally renames the artifact files within a directory.
const ManifestFile = "artifacts.yaml"

// Manifest names the four artifact files relative to the artifact
// directory.
type Manifest struct {
	ModelYoung  string `yaml:"model_young"`
	ModelRest   string `yaml:"model_rest"`
	ScalerYoung string `yaml:"scaler_young"`
	ScalerRest  string `yaml:"scaler_rest"`
}

// DefaultManifest returns the file names used when no manifest exists.
func DefaultManifest() Manifest {
	return Manifest{
		ModelYoung:  "model_young.json",
		ModelRest:   "model_rest.json",
		ScalerYoung: "scaler_young.json",
		ScalerRest:  "scaler_rest.json",
	}
}

// ArtifactStore loads fitted artifacts from a directory
type ArtifactStore struct {
	dataDir string
}

// NewArtifactStore creates a store rooted at dataDir
func NewArtifactStore(dataDir string) *ArtifactStore {
	return &ArtifactStore{dataDir: dataDir}
}

// Dir returns the directory artifacts are read from.
func (s *ArtifactStore) Dir() string {
	return s.dataDir
}

// LoadManifest reads the manifest, filling unset entries with defaults.
func (s *ArtifactStore) LoadManifest() (Manifest, error) {
	manifest := DefaultManifest()

	data, err := os.ReadFile(filepath.Join(s.dataDir, ManifestFile))
	if os.IsNotExist(err) {
		return manifest, nil
	}
	if err != nil {
		return manifest, fmt.Errorf("failed to read manifest: %w", err)
	}

	var override Manifest
	if err := yaml.Unmarshal(data, &override); err != nil {
		return manifest, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if override.ModelYoung != "" {
		manifest.ModelYoung = override.ModelYoung
	}
	if override.ModelRest != "" {
		manifest.ModelRest = override.ModelRest
	}
	if override.ScalerYoung != "" {
		manifest.ScalerYoung = override.ScalerYoung
	}
	if override.ScalerRest != "" {
		manifest.ScalerRest = override.ScalerRest
	}
	return manifest, nil
}

// LoadAll loads both scalers and both models.
func (s *ArtifactStore) LoadAll() (*Artifacts, error) {
	manifest, err := s.LoadManifest()
	if err != nil {
		return nil, err
	}

	scalerYoung, err := s.LoadScaler(manifest.ScalerYoung)
	if err != nil {
		return nil, err
	}
	scalerRest, err := s.LoadScaler(manifest.ScalerRest)
	if err != nil {
		return nil, err
	}
	modelYoung, err := s.LoadModel(manifest.ModelYoung)
	if err != nil {
		return nil, err
	}
	modelRest, err := s.LoadModel(manifest.ModelRest)
	if err != nil {
		return nil, err
	}

	slog.Info("Artifacts loaded",
		"dir", s.dataDir,
		"scaler_young", manifest.ScalerYoung,
		"scaler_rest", manifest.ScalerRest,
		"model_young", manifest.ModelYoung,
		"model_rest", manifest.ModelRest)

	return &Artifacts{
		ScalerYoung: scalerYoung,
		ScalerRest:  scalerRest,
		ModelYoung:  modelYoung,
		ModelRest:   modelRest,
	}, nil
}

type scalerFile struct {
	ColsToScale []string        `json:"cols_to_scale"`
	Scaler      json.RawMessage `json:"scaler"`
}

type typedParams struct {
	Type string `json:"type"`
}

// LoadScaler reads a scaler artifact and validates its structure.
func (s *ArtifactStore) LoadScaler(name string) (*ScalerArtifact, error) {
	var file scalerFile
	if err := s.decode(name, &file); err != nil {
		return nil, err
	}
	if file.ColsToScale == nil || len(file.Scaler) == 0 || string(file.Scaler) == "null" {
		return nil, fmt.Errorf("%s: %w", name, ErrInvalidScaler)
	}

	var params typedParams
	if err := json.Unmarshal(file.Scaler, &params); err != nil {
		return nil, fmt.Errorf("%s: failed to decode scaler: %w", name, err)
	}

	var transformer Transformer
	var width int
	switch params.Type {
	case "minmax", "":
		var m MinMaxScaler
		if err := json.Unmarshal(file.Scaler, &m); err != nil {
			return nil, fmt.Errorf("%s: failed to decode minmax scaler: %w", name, err)
		}
		if len(m.Min) != len(m.Scale) {
			return nil, fmt.Errorf("%s: minmax scaler has %d minimums and %d scales", name, len(m.Min), len(m.Scale))
		}
		transformer, width = &m, len(m.Scale)
	case "standard":
		var st StandardScaler
		if err := json.Unmarshal(file.Scaler, &st); err != nil {
			return nil, fmt.Errorf("%s: failed to decode standard scaler: %w", name, err)
		}
		if len(st.Mean) != len(st.Scale) {
			return nil, fmt.Errorf("%s: standard scaler has %d means and %d scales", name, len(st.Mean), len(st.Scale))
		}
		transformer, width = &st, len(st.Scale)
	default:
		return nil, fmt.Errorf("%s: unsupported scaler type %q", name, params.Type)
	}

	if width != len(file.ColsToScale) {
		return nil, fmt.Errorf("%s: scaler fitted on %d columns but cols_to_scale lists %d", name, width, len(file.ColsToScale))
	}

	artifact := &ScalerArtifact{Columns: file.ColsToScale, Scaler: transformer}
	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return artifact, nil
}

type modelFile struct {
	Type     string   `json:"type"`
	Features []string `json:"features"`
	LinearModel
	TreeEnsemble
}

// LoadModel reads a model artifact.
func (s *ArtifactStore) LoadModel(name string) (Model, error) {
	var file modelFile
	if err := s.decode(name, &file); err != nil {
		return nil, err
	}

	if file.Features != nil {
		if err := checkFeatureOrder(file.Features); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	switch file.Type {
	case "linear":
		if len(file.Coefficients) != len(Schema) {
			return nil, fmt.Errorf("%s: linear model has %d coefficients, schema has %d columns", name, len(file.Coefficients), len(Schema))
		}
		m := file.LinearModel
		return &m, nil
	case "gbtree":
		if len(file.Trees) == 0 {
			return nil, fmt.Errorf("%s: tree ensemble has no trees", name)
		}
		e := file.TreeEnsemble
		return &e, nil
	default:
		return nil, fmt.Errorf("%s: unsupported model type %q", name, file.Type)
	}
}

func checkFeatureOrder(features []string) error {
	if len(features) != len(Schema) {
		return fmt.Errorf("model trained on %d features, schema has %d", len(features), len(Schema))
	}
	for i, name := range features {
		if name != Schema[i].Name {
			return fmt.Errorf("feature %d is %q, schema expects %q", i, name, Schema[i].Name)
		}
	}
	return nil
}

func (s *ArtifactStore) decode(name string, v any) error {
	filePath := filepath.Join(s.dataDir, name)

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", name, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		return fmt.Errorf("failed to decode artifact %s: %w", name, err)
	}
	return nil
}
