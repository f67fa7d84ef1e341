package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	schemagen "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
)

const schemaURL = "https://phosra.local/schemas/manifest.schema.json"

// compatible is the range of schema versions this build can read.
const compatible = "^1.0.0"

var (
	schemaOnce     sync.Once
	schemaJSON     []byte
	schemaCompiled *jsonschema.Schema
	schemaErr      error
)

func loadSchema() {
	r := &schemagen.Reflector{ExpandedStruct: true}
	s := r.Reflect(&Document{})
	s.ID = schemagen.ID(schemaURL)
	s.Title = "Phosra enforcement manifest"

	schemaJSON, schemaErr = json.MarshalIndent(s, "", "  ")
	if schemaErr != nil {
		return
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if schemaErr = c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); schemaErr != nil {
		return
	}
	schemaCompiled, schemaErr = c.Compile(schemaURL)
}

// Schema returns the JSON Schema of Document.
func Schema() ([]byte, error) {
	schemaOnce.Do(loadSchema)
	if schemaErr != nil {
		return nil, errors.NewInternal(fmt.Errorf("manifest schema: %w", schemaErr))
	}
	return append([]byte(nil), schemaJSON...), nil
}

// Validate checks raw manifest JSON against the schema.
func Validate(data []byte) error {
	schemaOnce.Do(loadSchema)
	if schemaErr != nil {
		return errors.NewInternal(fmt.Errorf("manifest schema: %w", schemaErr))
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("manifest is not valid JSON: %v", err))
	}
	if err := schemaCompiled.Validate(v); err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("manifest does not match schema: %v", err))
	}
	return nil
}

// Parse validates and decodes a manifest. Documents from an incompatible
// schema major version are rejected.
func Parse(data []byte) (Document, error) {
	if err := Validate(data); err != nil {
		return Document{}, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.NewInvalidRequest(fmt.Sprintf("decode manifest: %v", err))
	}

	v, err := semver.NewVersion(doc.SchemaVersion)
	if err != nil {
		return Document{}, errors.NewInvalidRequest(fmt.Sprintf("invalid schema_version %q", doc.SchemaVersion))
	}
	c, err := semver.NewConstraint(compatible)
	if err != nil {
		return Document{}, errors.NewInternal(err)
	}
	if !c.Check(v) {
		return Document{}, errors.NewInvalidRequest(
			fmt.Sprintf("unsupported schema_version %s (want %s)", doc.SchemaVersion, compatible))
	}
	return doc, nil
}
