package importance

import "github.com/sebhaan/selectio/internal/cfg"

// OptionsFromSettings maps loaded configuration onto scorer options. The
// result still goes through Validate in NewScorer.
func OptionsFromSettings(s cfg.Settings) Options {
	return Options{
		Alpha:              s.Alpha,
		SubsampleThreshold: s.SubsampleThreshold,
		Permutations:       s.Permutations,
		Estimator:          Estimator(s.Estimator),
		Workers:            s.Workers,
		Seed:               s.Seed,
	}
}
