package model_test

import (
	"fmt"
	"os"

	"github.com/katalvlaran/reservoir/model"
	"github.com/katalvlaran/reservoir/policy"
	"github.com/katalvlaran/reservoir/series"
)

// ExampleBuild prints a single-period storage-maximizing model.
func ExampleBuild() {
	tab, _ := series.NewTable(series.Inputs{
		Inflow:         []float64{5},
		Outflow:        []float64{1},
		Demand:         [series.NumSectors][]float64{{1}, {2}, {0.5}},
		Capacity:       10,
		InitialStorage: 4,
	})
	cfg, _ := policy.New(policy.MinShortage)

	pr, err := model.Build(tab, cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(pr.Model.NumVars(), "variables,", pr.Model.NumConstraints(), "constraints")
	_ = pr.Model.WriteLP(os.Stdout)
	// Output:
	// 4 variables, 5 constraints
	// \ Model: min-storage-shortage
	// Maximize
	//  obj: + 1 S_1
	// Subject To
	//  balance_1: + 1 S_1 + 1 R_urban_1 + 1 R_agricultural_1 + 1 R_hydropower_1 = 8
	//  capacity_1: + 1 S_1 <= 10
	//  demand_urban_1: + 1 R_urban_1 >= 1
	//  demand_agricultural_1: + 1 R_agricultural_1 >= 2
	//  demand_hydropower_1: + 1 R_hydropower_1 >= 0.5
	// Bounds
	//  0 <= S_1 <= 10
	//  R_urban_1 >= 0
	//  R_agricultural_1 >= 0
	//  R_hydropower_1 >= 0
	// End
}
