package orchestrator

import "github.com/fyrsmithlabs/wizz/internal/config"

// ClampTaskCap returns min(MaxTaskCeiling, max(MinTaskCap, c)).
func ClampTaskCap(c int) int {
	if c < config.MinTaskCap {
		return config.MinTaskCap
	}
	if c > config.MaxTaskCeiling {
		return config.MaxTaskCeiling
	}
	return c
}

// EffectiveTaskCap resolves the task cap of a request. Default mode always
// allows the ceiling. Build modes use the requested cap, or def when none
// was requested, clamped into range.
func EffectiveTaskCap(mode Mode, requested *int, def int) int {
	if !mode.Builds() {
		return config.MaxTaskCeiling
	}
	if requested == nil {
		return ClampTaskCap(def)
	}
	return ClampTaskCap(*requested)
}
