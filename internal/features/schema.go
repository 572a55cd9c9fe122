package features

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
)

// SchemaVersion is written into every schema this package produces.
const SchemaVersion = 1

var (
	// ErrSchemaInvalid means the schema file is absent, unreadable or malformed.
	ErrSchemaInvalid = errors.New("invalid feature schema")
	// ErrSchemaMismatch means a schema does not match the hash it is checked against.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
)

// nonFeature columns travel through alignment but are never model input.
var nonFeature = []string{ColGame, ColSeason, ColWinner}

// Schema is the ordered column list frozen when an overtime model was trained.
type Schema struct {
	Version int      `json:"version"`
	Columns []string `json:"columns"`
	SHA256  string   `json:"sha256,omitempty"`
}

// NewSchema freezes cols, stamping the current version and the column hash.
func NewSchema(cols []string) (*Schema, error) {
	s := &Schema{Version: SchemaVersion, Columns: slices.Clone(cols)}
	if err := s.validate(); err != nil {
		return nil, err
	}
	s.SHA256 = HashColumns(s.Columns)
	return s, nil
}

// BuildSchema derives a schema from an encoded training frame.
func BuildSchema(encoded *Frame) (*Schema, error) {
	return NewSchema(encoded.Columns)
}

// HashColumns returns the hex SHA-256 of the newline-joined column names.
func HashColumns(cols []string) string {
	sum := sha256.Sum256([]byte(strings.Join(cols, "\n")))
	return hex.EncodeToString(sum[:])
}

// LoadSchema reads a schema file. Both the versioned object written by Save
// and a bare JSON array of column names are accepted.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	s, err := ParseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseSchema decodes schema JSON and verifies its hash when one is present.
func ParseSchema(data []byte) (*Schema, error) {
	data = bytes.TrimSpace(data)
	var s Schema
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &s.Columns); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
		}
	} else if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.Version > SchemaVersion {
		return nil, fmt.Errorf("%w: version %d is newer than supported %d", ErrSchemaInvalid, s.Version, SchemaVersion)
	}
	if s.SHA256 != "" {
		if got := HashColumns(s.Columns); got != s.SHA256 {
			return nil, fmt.Errorf("%w: columns hash to %s, file says %s", ErrSchemaMismatch, got, s.SHA256)
		}
	} else {
		s.SHA256 = HashColumns(s.Columns)
	}
	return &s, nil
}

// Save writes the schema as indented JSON.
func (s *Schema) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	return nil
}

// FeatureColumns is the schema minus the identity and label columns: the
// positional input layout of the model.
func (s *Schema) FeatureColumns() []string {
	out := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if !slices.Contains(nonFeature, c) {
			out = append(out, c)
		}
	}
	return out
}

// CheckCompatible fails with ErrSchemaMismatch unless hash identifies this schema.
func (s *Schema) CheckCompatible(hash string) error {
	if hash != s.SHA256 {
		return fmt.Errorf("%w: model expects %s, loaded schema is %s", ErrSchemaMismatch, short(hash), short(s.SHA256))
	}
	return nil
}

func (s *Schema) validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrSchemaInvalid)
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if c == "" {
			return fmt.Errorf("%w: empty column name", ErrSchemaInvalid)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrSchemaInvalid, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

func short(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
