package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// writeFileAtomic writes through a temp file in the same directory and renames
// it over path, so readers never see a half-written file.
func writeFileAtomic(path string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func writeCompressedJSON(path string, v any) error {
	return writeFileAtomic(path, func(f *os.File) error {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		if err := json.NewEncoder(enc).Encode(v); err != nil {
			enc.Close()
			return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
		}
		return nil
	})
}

func writeJSON(path string, v any) error {
	return writeFileAtomic(path, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
		}
		return nil
	})
}

// readCompressedJSON decodes a zstd-compressed JSON file into v. Open failures
// are reported as ErrArtifactNotFound; anything after a successful open as
// ErrArtifactCorrupt.
func readCompressedJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArtifactNotFound, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("%w: zstd reader for %s: %w", ErrArtifactCorrupt, filepath.Base(path), err)
	}
	defer dec.Close()

	if err := json.NewDecoder(dec).Decode(v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrArtifactCorrupt, filepath.Base(path), err)
	}
	return nil
}
