package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultAudienceKey is the mandatory fallback entry in the weight config,
// used for audiences without their own table.
const DefaultAudienceKey = "default"

// WeightKind distinguishes how a feature weight contributes to the combined
// score: weighted entries are normalized to a linear blend, additive entries
// land as a flat bonus on top.
type WeightKind int

const (
	// Weighted contributes value/sum(weighted values) * feature.
	Weighted WeightKind = iota
	// Additive contributes value * feature without normalization.
	Additive
)

// FeatureWeight is one resolved weight entry.
type FeatureWeight struct {
	Kind  WeightKind
	Value float64
}

// WeightTable maps feature name to its weight for one audience.
type WeightTable map[string]FeatureWeight

// WeightConfig holds the per-audience weight tables, resolved once at load
// time and immutable afterwards.
type WeightConfig struct {
	tables map[string]WeightTable
}

// TableFor resolves the weight table for an audience, falling back to the
// default table when the audience has no entry of its own.
func (c *WeightConfig) TableFor(audience string) WeightTable {
	if t, ok := c.tables[audience]; ok {
		return t
	}

	return c.tables[DefaultAudienceKey]
}

// LoadWeightConfig reads and parses the YAML weight configuration at path.
func LoadWeightConfig(path string) (*WeightConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weight config: %w", err)
	}

	return ParseWeightConfig(data)
}

// ParseWeightConfig parses the YAML weight configuration. Each audience maps
// either to a flat feature-weight table or to a version-keyed history of
// tables, in which case the last version in the file wins. A "default"
// audience entry is mandatory.
func ParseWeightConfig(data []byte) (*WeightConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse weight config: %w", err)
	}

	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("weight config: expected a top-level mapping")
	}

	root := doc.Content[0]
	tables := make(map[string]WeightTable)

	for i := 0; i+1 < len(root.Content); i += 2 {
		audience := root.Content[i].Value
		node := root.Content[i+1]

		table, err := parseAudienceNode(audience, node)
		if err != nil {
			return nil, err
		}

		tables[audience] = table
	}

	if _, ok := tables[DefaultAudienceKey]; !ok {
		return nil, fmt.Errorf("weight config: missing mandatory %q entry", DefaultAudienceKey)
	}

	return &WeightConfig{tables: tables}, nil
}

// parseAudienceNode handles both flat tables and version histories. A child
// mapping is a feature entry when it carries a "value" key; when all children
// are version buckets, the last one in document order wins.
func parseAudienceNode(audience string, node *yaml.Node) (WeightTable, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("weight config: audience %q must map to a table", audience)
	}

	if isVersionHistory(node) {
		// Last version key in document order is the latest.
		latest := node.Content[len(node.Content)-1]

		return parseWeightTable(audience, latest)
	}

	return parseWeightTable(audience, node)
}

func isVersionHistory(node *yaml.Node) bool {
	if len(node.Content) == 0 {
		return false
	}

	for i := 1; i < len(node.Content); i += 2 {
		child := node.Content[i]
		if child.Kind != yaml.MappingNode || isFeatureEntry(child) {
			return false
		}
	}

	return true
}

func isFeatureEntry(node *yaml.Node) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "value" {
			return true
		}
	}

	return false
}

func parseWeightTable(audience string, node *yaml.Node) (WeightTable, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("weight config: audience %q version must map to a table", audience)
	}

	table := make(WeightTable, len(node.Content)/2)

	for i := 0; i+1 < len(node.Content); i += 2 {
		feature := node.Content[i].Value

		fw, err := parseFeatureWeight(node.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("weight config: audience %q feature %q: %w", audience, feature, err)
		}

		table[feature] = fw
	}

	return table, nil
}

// parseFeatureWeight accepts either a bare number (weighted) or a
// {type, value} mapping. Unknown types default to weighted, matching the
// forgiving behavior operators rely on when adding entries.
func parseFeatureWeight(node *yaml.Node) (FeatureWeight, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return FeatureWeight{}, fmt.Errorf("invalid weight value: %w", err)
		}

		return FeatureWeight{Kind: Weighted, Value: v}, nil
	case yaml.MappingNode:
		var entry struct {
			Type  string  `yaml:"type"`
			Value float64 `yaml:"value"`
		}

		if err := node.Decode(&entry); err != nil {
			return FeatureWeight{}, fmt.Errorf("invalid weight entry: %w", err)
		}

		kind := Weighted
		if entry.Type == "additive" {
			kind = Additive
		}

		return FeatureWeight{Kind: kind, Value: entry.Value}, nil
	default:
		return FeatureWeight{}, fmt.Errorf("weight entry must be a number or mapping")
	}
}
