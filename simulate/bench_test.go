package simulate_test

import (
	"testing"

	"github.com/katalvlaran/reservoir/internal/refdata"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/simulate"
)

// BenchmarkRun_Reference measures one twelve-month greedy pass.
func BenchmarkRun_Reference(b *testing.B) {
	tab := refdata.MustTable(refdata.BenefitCost())
	cfg, err := policy.New(policy.MinShortage)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := simulate.Run(tab, cfg); err != nil {
			b.Fatal(err)
		}
	}
}
