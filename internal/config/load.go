package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tenure/internal/commitment"
)

//go:embed schema.cue
var schemaSource string

// Format of a configuration document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// FormatOf infers the format from a file extension. Unknown extensions
// are read as YAML, which also accepts JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return FormatCUE
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Load reads, overlays and validates a configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, FormatOf(path))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse overlays a document on Default and validates the result.
func Parse(data []byte, format Format) (Config, error) {
	return Overlay(Default(), data, format)
}

// Overlay decodes a document onto base and validates the result. Fields
// absent from the document keep base's values; map entries are merged.
func Overlay(base Config, data []byte, format Format) (Config, error) {
	cfg := base.clone()
	var err error
	switch format {
	case FormatCUE:
		err = decodeCUE(data, &cfg)
	case FormatJSON:
		err = decodeJSON(data, &cfg)
	default:
		err = decodeYAML(data, &cfg)
	}
	if err != nil {
		return Config{}, err
	}
	if err := CheckSchema(cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse yaml config: %w", err)
	}
	return nil
}

func decodeJSON(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse json config: %w", err)
	}
	return nil
}

// decodeCUE evaluates a CUE document, which must be concrete, and decodes
// it through JSON so absent fields keep their base values.
func decodeCUE(data []byte, cfg *Config) error {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename("config.cue"))
	if err := v.Err(); err != nil {
		return fmt.Errorf("compile cue config: %s", cueerrors.Details(err, nil))
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("cue config is not concrete: %s", cueerrors.Details(err, nil))
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("export cue config: %w", err)
	}
	return decodeJSON(raw, cfg)
}

// CheckSchema unifies cfg with the embedded #Config schema.
func CheckSchema(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.Encode(cfg)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Field: "schema", Message: strings.TrimSpace(cueerrors.Details(err, nil))}
	}
	return nil
}

func (c Config) clone() Config {
	out := c
	out.RentFractions = make(map[string]float64, len(c.RentFractions))
	for k, v := range c.RentFractions {
		out.RentFractions[k] = v
	}
	out.CandidateWeights = make(map[string]int, len(c.CandidateWeights))
	for k, v := range c.CandidateWeights {
		out.CandidateWeights[k] = v
	}
	out.Commitments = append([]commitment.Spec(nil), c.Commitments...)
	return out
}
