// Package irenc serializes IR modules with msgpack. Files carry a
// schema version so stale artifacts are rejected instead of being
// misread after a format change.
package irenc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"crest/internal/ir"
)

// SchemaVersion is the current on-disk format. Increment when the IR
// data model changes shape.
const SchemaVersion uint16 = 1

// ErrSchema reports a module file written by a different schema version.
var ErrSchema = errors.New("module file schema mismatch")

type filePayload struct {
	Schema uint16
	Module *ir.Module
}

// EncodeModule writes m to w in the current schema.
func EncodeModule(w io.Writer, m *ir.Module) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(&filePayload{Schema: SchemaVersion, Module: m}); err != nil {
		return fmt.Errorf("encode module: %w", err)
	}
	return nil
}

// DecodeModule reads a module from r, rejecting other schema versions
// with ErrSchema.
func DecodeModule(r io.Reader) (*ir.Module, error) {
	var payload filePayload
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	if payload.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: file has %d, want %d", ErrSchema, payload.Schema, SchemaVersion)
	}
	if payload.Module == nil {
		return nil, errors.New("decode module: empty payload")
	}
	return payload.Module, nil
}

// WriteFile encodes m to path via a temp file and atomic rename, so a
// crash never leaves a half-written module behind.
func WriteFile(path string, m *ir.Module) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := EncodeModule(f, m); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// ReadFile decodes the module at path.
func ReadFile(path string) (*ir.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	m, err := DecodeModule(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
