package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360/logstreams/errors"
)

// Format selects the configuration document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// node is the serialized form of one directive.
type node struct {
	Name     string            `json:"name"               yaml:"name"`
	Arg      string            `json:"arg,omitempty"      yaml:"arg,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"    yaml:"attrs,omitempty"`
	Children []node            `json:"children,omitempty" yaml:"children,omitempty"`
}

// Load reads a configuration document and builds the element tree. The format
// is chosen by file extension: .json, .yaml or .yml.
func Load(path string) (*Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Config", "Load", "read config file")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return Parse(data, FormatJSON)
	case ".yaml", ".yml":
		return Parse(data, FormatYAML)
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("unsupported config file extension %q: %w", filepath.Ext(path), errors.ErrInvalidConfig),
			"Config", "Load", "detect config format")
	}
}

// Parse builds the element tree from a configuration document. The document
// is a list of top-level directives; the returned element is the synthetic
// ROOT holding them as children.
func Parse(data []byte, format Format) (*Element, error) {
	var nodes []node
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &nodes); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Parse", "decode json config")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &nodes); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Parse", "decode yaml config")
		}
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("unsupported config format %q: %w", format, errors.ErrInvalidConfig),
			"Config", "Parse", "select config format")
	}

	children := make([]*Element, 0, len(nodes))
	for i := range nodes {
		el, err := nodes[i].element()
		if err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Parse", "build element tree")
		}
		children = append(children, el)
	}
	return NewElement("ROOT", "", nil, children), nil
}

func (n *node) element() (*Element, error) {
	if strings.TrimSpace(n.Name) == "" {
		return nil, fmt.Errorf("directive with empty name: %w", errors.ErrInvalidConfig)
	}
	var children []*Element
	for i := range n.Children {
		child, err := n.Children[i].element()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return NewElement(n.Name, n.Arg, n.Attrs, children), nil
}
