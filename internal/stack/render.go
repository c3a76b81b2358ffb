package stack

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ToJSON serializes the template as indented JSON.
func ToJSON(t *Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template as block-style YAML. Intrinsics only know
// how to marshal to JSON, so the JSON form is re-read as a YAML node tree,
// which keeps key order.
func ToYAML(t *Template) ([]byte, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("re-read template json: %w", err)
	}
	blockStyle(&doc)
	return yaml.Marshal(&doc)
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// Render dispatches on format: "json" or "yaml".
func Render(t *Template, format string) ([]byte, error) {
	switch format {
	case "json", "":
		return ToJSON(t)
	case "yaml", "yml":
		return ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown template format %q", format)
	}
}
