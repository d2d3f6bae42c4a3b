// Package runstore archives finished runs so the HTTP API can serve them
// back by id.
package runstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/katalvlaran/reservoir/plan"
)

var (
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("runstore: not found")
	// ErrDuplicate is returned by Save when the id is already archived.
	ErrDuplicate = errors.New("runstore: duplicate id")
)

// Kind names the operation that produced a run.
type Kind string

const (
	KindOptimize   Kind = "optimize"
	KindSimulate   Kind = "simulate"
	KindComparison Kind = "comparison"
)

// Run is one archived request and its plans.
type Run struct {
	ID        uuid.UUID    `json:"id"`
	Kind      Kind         `json:"kind"`
	Scenario  string       `json:"scenario,omitempty"`
	Plans     []*plan.Plan `json:"plans"`
	CreatedAt time.Time    `json:"created_at"`
}

// Store persists runs.
type Store interface {
	Save(ctx context.Context, run Run) (Run, error)
	Get(ctx context.Context, id uuid.UUID) (Run, error)
	List(ctx context.Context, limit int) ([]Run, error)
	Ping(ctx context.Context) error
}

// DefaultListLimit applies when List is called with limit <= 0.
const DefaultListLimit = 50

func prepare(run Run) Run {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	return run
}

func encodePlans(plans []*plan.Plan) ([]byte, error) {
	if plans == nil {
		plans = []*plan.Plan{}
	}
	b, err := json.Marshal(plans)
	if err != nil {
		return nil, fmt.Errorf("runstore: encode plans: %w", err)
	}

	return b, nil
}

func decodePlans(raw []byte) ([]*plan.Plan, error) {
	var plans []*plan.Plan
	if err := json.Unmarshal(raw, &plans); err != nil {
		return nil, fmt.Errorf("runstore: decode plans: %w", err)
	}

	return plans, nil
}
