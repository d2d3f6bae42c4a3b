// Package solver_test benchmarks for the simplex adapter.
// Scope:
//   - Pure LP: the twelve-month storage-maximizing model.
//   - MILP: the benefit-cost model with one violation binary per month.
//
// Policy:
//   - Models are built once outside the timer; only Solve is measured.
package solver_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/reservoir/internal/refdata"
	"github.com/katalvlaran/reservoir/lp"
	"github.com/katalvlaran/reservoir/model"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
	"github.com/katalvlaran/reservoir/solver"
)

func benchModel(b *testing.B, in series.Inputs, mode policy.Mode) *lp.Model {
	b.Helper()
	cfg, err := policy.New(mode)
	if err != nil {
		b.Fatal(err)
	}
	pr, err := model.Build(refdata.MustTable(in), cfg)
	if err != nil {
		b.Fatal(err)
	}

	return pr.Model
}

func benchSolve(b *testing.B, m *lp.Model) {
	s := solver.NewSimplex()
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if sol := s.Solve(ctx, m); !sol.IsOptimal() {
			b.Fatalf("status %s: %v", sol.Status, sol.Err)
		}
	}
}

// BenchmarkSolve_MinShortage measures the 48-variable LP.
func BenchmarkSolve_MinShortage(b *testing.B) {
	benchSolve(b, benchModel(b, refdata.Shortage(), policy.MinShortage))
}

// BenchmarkSolve_BenefitCost measures branch-and-bound over 12 binaries.
func BenchmarkSolve_BenefitCost(b *testing.B) {
	benchSolve(b, benchModel(b, refdata.BenefitCost(), policy.BenefitCost))
}
