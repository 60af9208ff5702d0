// Package batch drives whole mutation batches through classification,
// policy validation, and expression compilation, and applies the
// batch-level failure policy.
package batch

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldpatch/fieldpatch/internal/attr"
	"github.com/fieldpatch/fieldpatch/internal/exprc"
	"github.com/fieldpatch/fieldpatch/internal/patch"
	"github.com/fieldpatch/fieldpatch/internal/policy"
)

// Compiler compiles request batches. Zero configuration beyond the clock,
// which tests replace to pin the auto-injected timestamp.
type Compiler struct {
	// Now supplies the auto-timestamp value. Defaults to time.Now.
	Now func() time.Time
}

// NewCompiler returns a Compiler using the wall clock.
func NewCompiler() *Compiler {
	return &Compiler{Now: time.Now}
}

// Failure records one request dropped from a collect-and-skip batch.
type Failure struct {
	// Index is the request's position in the input batch.
	Index int `json:"index"`
	// Err is the validation failure that excluded it.
	Err error `json:"error"`
}

// Result is the outcome of one batch compile call.
type Result struct {
	// Token correlates this compile run in caller-side audit records.
	Token string `json:"token"`
	// Operations holds the compiled descriptors, preserving the relative
	// input order of the requests that succeeded.
	Operations []*exprc.Operation `json:"operations"`
	// Skipped lists per-request failures in collect-and-skip mode. Empty
	// when FailOnError is set: that mode aborts instead.
	Skipped []Failure `json:"skipped,omitempty"`
}

// Compile validates and compiles every request in the batch against the
// policy. The policy must carry action rules; a policy without them fails
// the whole call before any request is touched. With FailOnError set, the
// first per-request failure aborts the call with no partial results;
// otherwise failing requests are recorded in Result.Skipped and omitted
// from the output while the rest of the batch proceeds.
//
// Auto-field injection happens in place on the requests, uniformly across
// the batch, before any per-request validation: a caller-supplied field
// named like an auto field is cleared from every bucket first, so the two
// can never collide silently.
func (c *Compiler) Compile(table string, requests []patch.Request, pol *policy.Policy) (*Result, error) {
	if err := pol.Check(); err != nil {
		return nil, err
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	if pol.AutoTimestamp || pol.AutoVersion {
		stamp := attr.NumberFromInt(now().UnixMilli())
		for i := range requests {
			injectAutoFields(&requests[i], pol, stamp)
		}
	}

	eff := pol.Effective()
	result := &Result{Token: uuid.NewString()}

	for i := range requests {
		req := &requests[i]
		op, err := compileOne(table, req, eff)
		if err != nil {
			if pol.FailOnError {
				return nil, err
			}
			result.Skipped = append(result.Skipped, Failure{Index: i, Err: err})
			continue
		}
		result.Operations = append(result.Operations, op)
	}

	return result, nil
}

// compileOne runs one request through classifier, validator, and compiler.
func compileOne(table string, req *patch.Request, eff *policy.Policy) (*exprc.Operation, error) {
	classified := patch.Classify(req)
	if verr := policy.Validate(classified, req, eff); verr != nil {
		return nil, verr
	}
	return exprc.Compile(table, classified, req)
}

// injectAutoFields clears and re-inserts the bookkeeping fields mandated
// by the policy. Idempotent: re-running it leaves exactly one entry per
// auto field.
func injectAutoFields(req *patch.Request, pol *policy.Policy, stamp attr.Number) {
	if pol.AutoTimestamp {
		req.ClearField(policy.FieldLastUpdated)
		if req.Assign == nil {
			req.Assign = attr.Map{}
		}
		req.Assign[policy.FieldLastUpdated] = stamp
	}
	if pol.AutoVersion {
		req.ClearField(policy.FieldVersion)
		if req.Increment == nil {
			req.Increment = attr.Map{}
		}
		req.Increment[policy.FieldVersion] = attr.NumberFromInt(1)
	}
}
