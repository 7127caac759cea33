package tagbuild

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteBuild writes a build as a flat JSON document
func WriteBuild(w io.Writer, build TagBuild) error {
	return writeDocument(w, build)
}

// ReadBuild reads a flat JSON build document
func ReadBuild(r io.Reader) (TagBuild, error) {
	var build TagBuild
	if err := json.NewDecoder(r).Decode(&build); err != nil {
		return TagBuild{}, fmt.Errorf("decoding build document: %w", err)
	}
	return build, nil
}

// WriteSnapshot writes a snapshot document. Absent entries are written as
// null so the document always carries all three keys.
func WriteSnapshot(w io.Writer, snapshot BuildSnapshot) error {
	return writeDocument(w, snapshot)
}

// ReadSnapshot reads a snapshot document
func ReadSnapshot(r io.Reader) (BuildSnapshot, error) {
	var snapshot BuildSnapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return BuildSnapshot{}, fmt.Errorf("decoding snapshot document: %w", err)
	}
	return snapshot, nil
}

func writeDocument(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return nil
}
