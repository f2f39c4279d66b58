package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ArtifactMeta identifies a persisted model artifact. SchemaVersion
// guards against loading a blob written by an incompatible build.
type ArtifactMeta struct {
	ArtifactID    string    `json:"artifact_id"`
	Model         string    `json:"model"`
	SchemaVersion int       `json:"schema_version"`
	TrainedAt     time.Time `json:"trained_at"`
}

// NewArtifactMeta stamps a fresh artifact for the named model.
func NewArtifactMeta(model string, schemaVersion int) ArtifactMeta {
	return ArtifactMeta{
		ArtifactID:    uuid.NewString(),
		Model:         model,
		SchemaVersion: schemaVersion,
		TrainedAt:     time.Now().UTC(),
	}
}

// SaveArtifact serializes v as JSON at path, creating the directory if
// needed. The write goes through a temp file and rename so a crashed
// save never leaves a truncated artifact behind.
func SaveArtifact(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to publish artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads the JSON blob at path into v. Missing or
// unreadable blobs come back as *ArtifactError.
func LoadArtifact(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ArtifactError{Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ArtifactError{Path: path, Err: err}
	}
	return nil
}

// CheckMeta validates a loaded artifact's identity and version.
func CheckMeta(path string, meta ArtifactMeta, model string, schemaVersion int) error {
	if meta.Model != model {
		return &ArtifactError{Path: path, Err: fmt.Errorf("artifact is for model %q, want %q", meta.Model, model)}
	}
	if meta.SchemaVersion != schemaVersion {
		return &ArtifactError{Path: path, Err: fmt.Errorf("artifact schema version %d, want %d", meta.SchemaVersion, schemaVersion)}
	}
	return nil
}
