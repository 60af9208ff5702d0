// Package cueload loads policy documents written in CUE.
//
// A policy document is a CUE file (or package directory) with a top-level
// "policy" struct:
//
//	policy: {
//		failOnError:   true
//		autoTimestamp: true
//		rules: {
//			assign: {allowAll: true}
//			remove: {whitelist: ["draft", "notes"]}
//		}
//	}
package cueload

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/fieldpatch/fieldpatch/internal/patch"
	"github.com/fieldpatch/fieldpatch/internal/policy"
)

// policyDoc mirrors the on-disk shape with string action keys.
type policyDoc struct {
	Rules         map[string]*policy.Rule `json:"rules"`
	AutoTimestamp bool                    `json:"autoTimestamp"`
	AutoVersion   bool                    `json:"autoVersion"`
	FailOnError   bool                    `json:"failOnError"`
}

// LoadPolicy reads the policy document at path, which may be a single CUE
// file or a directory forming a CUE package. A document without a policy
// struct, or one naming an unknown action, is a load error; a document
// whose policy has no rules loads fine and fails later as a configuration
// error, which keeps that contract in one place.
func LoadPolicy(path string) (*policy.Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("policy document: %w", err)
	}

	ctx := cuecontext.New()
	var value cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, fmt.Errorf("policy document: no CUE instances in %s", path)
		}
		if instances[0].Err != nil {
			return nil, fmt.Errorf("policy document: %w", instances[0].Err)
		}
		value = ctx.BuildInstance(instances[0])
	} else {
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("policy document: %w", err)
		}
		value = ctx.CompileBytes(source, cue.Filename(path))
	}
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("policy document: %w", err)
	}

	return extractPolicy(value)
}

// extractPolicy pulls the policy struct out of a built CUE value.
func extractPolicy(value cue.Value) (*policy.Policy, error) {
	policyVal := value.LookupPath(cue.ParsePath("policy"))
	if !policyVal.Exists() {
		return nil, fmt.Errorf("policy document: missing top-level policy struct")
	}

	var doc policyDoc
	if err := policyVal.Decode(&doc); err != nil {
		return nil, fmt.Errorf("policy document: %w", err)
	}

	pol := &policy.Policy{
		AutoTimestamp: doc.AutoTimestamp,
		AutoVersion:   doc.AutoVersion,
		FailOnError:   doc.FailOnError,
	}
	if doc.Rules != nil {
		pol.Rules = make(map[patch.Action]*policy.Rule, len(doc.Rules))
		for name, rule := range doc.Rules {
			action, ok := patch.ParseAction(name)
			if !ok {
				return nil, fmt.Errorf("policy document: unknown action %q", name)
			}
			pol.Rules[action] = rule
		}
	}
	return pol, nil
}
