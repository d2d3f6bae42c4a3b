// Package lp is a solver-neutral description of a linear / mixed-integer
// program: bounded variables, linear expressions, constraints and an
// objective with its sense.
//
// The package has no solving logic. It is the contract between the model
// builder (which only appends) and a solver adapter (which only reads).
//
// Constraints come in two kinds:
//
//	Linear                 Σ coef·x  (≤ | ≥ | =)  rhs
//	ConditionalLowerBound  x[Indicator] = 1  ⇒  x[Target] ≥ Bound
//
// The conditional kind is kept tagged in the Model so an adapter with native
// indicator support can consume it directly. Lower() rewrites every
// conditional into its linear relaxation
//
//	x[Target] − Bound·x[Indicator] ≥ 0
//
// which is exact for a binary indicator and a non-negative target.
//
// WriteLP renders the model as CPLEX-LP text. Output depends only on the
// order of AddVar / AddConstraint calls and the coefficients, so two models
// built from the same inputs produce byte-identical text; Fingerprint hashes
// that text.
package lp
