// Package policy holds the per-field permission configuration and the
// validator that enforces it against classified mutation requests.
//
// Two error classes come out of this package. ConfigError means the policy
// object itself is unusable and always aborts the whole batch call.
// ValidationError is a per-request outcome with a machine-checkable code;
// whether it aborts the batch is the orchestrator's FailOnError decision.
package policy
