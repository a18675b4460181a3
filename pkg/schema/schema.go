package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/schemalayout/pkg/errors"
)

// Input formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Schema is an ordered list of objects.
type Schema struct {
	Objects []Object `json:"objects" yaml:"objects"`
}

// Object is one entity of the schema.
type Object struct {
	Name         string   `json:"name" yaml:"name"`
	InheritsFrom []string `json:"inherits_from,omitempty" yaml:"inherits_from,omitempty"`
	Links        []Link   `json:"links,omitempty" yaml:"links,omitempty"`
}

// Link is a named relation from an object to one or more objects.
type Link struct {
	Name        string   `json:"name" yaml:"name"`
	TargetNames []string `json:"targetNames" yaml:"targetNames"`
	Properties  []string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// DetectFormat returns the format implied by the file extension of path.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported schema file %q (want .json, .yaml or .yml)", path)
}

// Read decodes a schema in the given format. The objects may be given as a
// top-level list or under an "objects" key.
func Read(r io.Reader, format string) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read schema")
	}

	var s Schema
	switch format {
	case FormatJSON:
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &s.Objects)
		} else {
			err = json.Unmarshal(data, &s)
		}
	case FormatYAML:
		var doc yaml.Node
		if err = yaml.Unmarshal(data, &doc); err == nil && len(doc.Content) > 0 {
			if doc.Content[0].Kind == yaml.SequenceNode {
				err = doc.Content[0].Decode(&s.Objects)
			} else {
				err = doc.Content[0].Decode(&s)
			}
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported schema format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "decode %s schema", format)
	}
	return &s, nil
}

// ReadFile reads a schema file, choosing the format from its extension.
func ReadFile(path string) (*Schema, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "schema file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, format)
}
