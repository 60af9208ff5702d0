package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldpatch/fieldpatch/internal/batch"
	"github.com/fieldpatch/fieldpatch/internal/exprc"
	"github.com/fieldpatch/fieldpatch/internal/policy"
	"github.com/fieldpatch/fieldpatch/internal/store"
)

// FixedTime pins the auto-timestamp so snapshots are stable across runs.
var FixedTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// Snapshot is the deterministic outcome of one scenario run. The batch
// token is deliberately absent: it is random per run.
type Snapshot struct {
	ScenarioName string             `json:"scenario_name"`
	Operations   []*exprc.Operation `json:"operations"`
	Skipped      []SkippedRequest   `json:"skipped,omitempty"`
	FinalState   []RecordState      `json:"final_state,omitempty"`
	ApplyErrors  []string           `json:"apply_errors,omitempty"`
}

// SkippedRequest records one request excluded by collect-and-skip mode.
type SkippedRequest struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// RecordState is a record's attributes after the batch was applied,
// reported in seed order.
type RecordState struct {
	Key   string `json:"key"`
	Attrs string `json:"attrs"`
}

// Run compiles the scenario's batch with a pinned clock, applies it to an
// in-memory reference store when seed records are declared, and returns
// the snapshot.
func Run(scenario *Scenario) (*Snapshot, error) {
	pol := scenario.Policy
	if pol == nil {
		pol = policy.Default()
	}

	compiler := &batch.Compiler{Now: func() time.Time { return FixedTime }}
	result, err := compiler.Compile(scenario.Table, scenario.Requests, pol)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		ScenarioName: scenario.Name,
		Operations:   result.Operations,
	}
	for _, skipped := range result.Skipped {
		snapshot.Skipped = append(snapshot.Skipped, SkippedRequest{
			Index: skipped.Index,
			Error: skipped.Err.Error(),
		})
	}

	if len(scenario.Seed) == 0 {
		return snapshot, nil
	}

	ctx := context.Background()
	db, err := store.Open(":memory:")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	for _, seed := range scenario.Seed {
		if err := db.Put(ctx, scenario.Table, seed.Key, seed.Attrs); err != nil {
			return nil, err
		}
	}

	for i, applyErr := range db.ApplyAll(ctx, result.Operations) {
		if applyErr != nil {
			op := result.Operations[i]
			snapshot.ApplyErrors = append(snapshot.ApplyErrors,
				fmt.Sprintf("%s/%s: %v", op.Key.Partition, op.Key.Sort, applyErr))
		}
	}

	for _, seed := range scenario.Seed {
		attrs, err := db.Get(ctx, scenario.Table, seed.Key)
		if err != nil {
			return nil, err
		}
		encoded, err := attrs.MarshalJSON()
		if err != nil {
			return nil, err
		}
		snapshot.FinalState = append(snapshot.FinalState, RecordState{
			Key:   seed.Key.Partition + "/" + seed.Key.Sort,
			Attrs: string(encoded),
		})
	}

	return snapshot, nil
}
