package rewrite

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ezenkico/deploy-commander/devmount/models"
)

var ErrNotMapping = errors.New("compose document is not a mapping")

// RewriteStructural applies the same keep/drop/annotate rule as Rewrite on the
// parsed YAML tree. Quoted and long-form entries of target services are kept
// as they are.
func RewriteStructural(doc []byte, targets models.TargetSet, mode models.ConsistencyMode) ([]byte, error) {
	if mode == "" {
		mode = models.ConsistencyDelegated
	}

	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("parse compose document: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return doc, nil
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	services := mappingValue(top, "services")
	if services == nil || services.Kind != yaml.MappingNode {
		return doc, nil
	}

	for i := 0; i+1 < len(services.Content); i += 2 {
		name := services.Content[i].Value
		svc := services.Content[i+1]
		if svc.Kind != yaml.MappingNode {
			continue
		}

		idx := mappingIndex(svc, "volumes")
		if idx < 0 {
			continue
		}

		if !targets.Has(name) {
			svc.Content = append(svc.Content[:idx], svc.Content[idx+2:]...)
			continue
		}

		vols := svc.Content[idx+1]
		if vols.Kind != yaml.SequenceNode {
			continue
		}
		for _, v := range vols.Content {
			if v.Kind != yaml.ScalarNode || v.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
				continue
			}
			if out, changed := models.MountSpec(v.Value).WithMode(mode); changed {
				v.Value = string(out)
			}
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return nil, fmt.Errorf("encode compose document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode compose document: %w", err)
	}

	return buf.Bytes(), nil
}

func mappingIndex(m *yaml.Node, key string) int {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return i
		}
	}
	return -1
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	if i := mappingIndex(m, key); i >= 0 {
		return m.Content[i+1]
	}
	return nil
}
