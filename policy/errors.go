package policy

import "errors"

// Sentinels returned by ParseMode, ParseObjective and Config.Validate.
// Messages are prefixed "policy:"; wrap with fmt.Errorf("ctx: %w", ...) when
// more context is needed, callers match with errors.Is.
var (
	ErrUnknownMode      = errors.New("policy: unknown mode")
	ErrUnknownObjective = errors.New("policy: unknown objective")
	ErrBadPriority      = errors.New("policy: priority order must list each sector once")
	ErrBadCoverage      = errors.New("policy: coverage fraction must be in [0, 1] with valid sector and periods")
	ErrBadEconomics     = errors.New("policy: economic coefficients must be finite, shares non-negative")
	ErrBadSpillCap      = errors.New("policy: spill cap must be non-negative")
)
