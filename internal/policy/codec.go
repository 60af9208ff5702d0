package policy

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fieldpatch/fieldpatch/internal/patch"
)

// policyDoc is the string-keyed shape policy documents use on disk.
type policyDoc struct {
	Rules         map[string]*Rule `json:"rules" yaml:"rules"`
	AutoTimestamp bool             `json:"autoTimestamp" yaml:"autoTimestamp"`
	AutoVersion   bool             `json:"autoVersion" yaml:"autoVersion"`
	FailOnError   bool             `json:"failOnError" yaml:"failOnError"`
}

func (p *Policy) fromDoc(doc policyDoc) error {
	p.AutoTimestamp = doc.AutoTimestamp
	p.AutoVersion = doc.AutoVersion
	p.FailOnError = doc.FailOnError
	if doc.Rules == nil {
		p.Rules = nil
		return nil
	}
	p.Rules = make(map[patch.Action]*Rule, len(doc.Rules))
	for name, rule := range doc.Rules {
		action, ok := patch.ParseAction(name)
		if !ok {
			return fmt.Errorf("unknown action %q in policy rules", name)
		}
		p.Rules[action] = rule
	}
	return nil
}

func (p *Policy) toDoc() policyDoc {
	doc := policyDoc{
		AutoTimestamp: p.AutoTimestamp,
		AutoVersion:   p.AutoVersion,
		FailOnError:   p.FailOnError,
	}
	if p.Rules != nil {
		doc.Rules = make(map[string]*Rule, len(p.Rules))
		for action, rule := range p.Rules {
			doc.Rules[action.String()] = rule
		}
	}
	return doc
}

// UnmarshalYAML implements yaml.Unmarshaler for Policy.
func (p *Policy) UnmarshalYAML(node *yaml.Node) error {
	var doc policyDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	return p.fromDoc(doc)
}

// UnmarshalJSON implements json.Unmarshaler for Policy.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var doc policyDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return p.fromDoc(doc)
}

// MarshalJSON implements json.Marshaler for Policy.
func (p Policy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toDoc())
}
