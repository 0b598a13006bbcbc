package ml

import "errors"

var (
	// ErrArtifactNotFound means no readable artifact exists in the store.
	ErrArtifactNotFound = errors.New("model artifact not found")
	// ErrArtifactIncompatible means the artifact was written with another schema version.
	ErrArtifactIncompatible = errors.New("model artifact schema is incompatible")
	// ErrArtifactCorrupt means the artifact exists but cannot be decoded, or
	// its scaler and model do not belong together.
	ErrArtifactCorrupt = errors.New("model artifact is corrupt")
)
