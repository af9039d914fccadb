package match

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FilterConfig tunes the two-stage correspondence filter. The defaults are
// calibrated for Hamming-style descriptor distances in the 0..100 range; a
// detector reporting a different distance metric should supply its own
// constants rather than rely on these.
type FilterConfig struct {
	// DistanceCap is the absolute ceiling on the stage-one threshold,
	// guarding against a degenerate median on noisy correspondence sets.
	DistanceCap float64 `mapstructure:"distance_cap" yaml:"distance_cap"`

	// MedianFactor scales the median distance to form the stage-one
	// threshold: keep correspondences strictly below
	// min(DistanceCap, MedianFactor*median).
	MedianFactor float64 `mapstructure:"median_factor" yaml:"median_factor"`

	// SigmaFactor sets the stage-two cut: among stage-one survivors, drop
	// anything at or beyond mean + SigmaFactor*popstddev.
	SigmaFactor float64 `mapstructure:"sigma_factor" yaml:"sigma_factor"`
}

// DefaultFilterConfig returns the filter constants tuned for Hamming
// descriptor distances.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		DistanceCap:  50,
		MedianFactor: 0.8,
		SigmaFactor:  2.0,
	}
}

// Filter removes weak and statistically outlying correspondences. It is a
// two-stage robust filter, not RANSAC: it assumes most correspondences are
// inliers and strips globally weak matches first, then statistically extreme
// survivors. The output is never larger than the input, and input order is
// preserved among survivors.
func Filter(corrs []Correspondence, cfg FilterConfig) []Correspondence {
	if len(corrs) == 0 {
		return nil
	}

	kept := filterByMedian(corrs, cfg)
	return filterByStdDev(kept, cfg)
}

// filterByMedian keeps correspondences strictly below
// min(DistanceCap, MedianFactor*median). When the set carries no
// discriminating signal (every distance at or above the threshold, e.g. all
// distances identical), the threshold would empty the set; the stage then
// passes the input through untouched and leaves outlier removal to stage two.
func filterByMedian(corrs []Correspondence, cfg FilterConfig) []Correspondence {
	dists := make([]float64, len(corrs))
	for i, c := range corrs {
		dists[i] = c.Distance
	}
	sort.Float64s(dists)
	median := stat.Quantile(0.5, stat.Empirical, dists, nil)

	threshold := cfg.MedianFactor * median
	if threshold > cfg.DistanceCap {
		threshold = cfg.DistanceCap
	}

	kept := make([]Correspondence, 0, len(corrs))
	for _, c := range corrs {
		if c.Distance < threshold {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return corrs
	}
	return kept
}

// filterByStdDev drops correspondences at or beyond mean + SigmaFactor*sigma,
// with sigma the population standard deviation over the kept set. A zero
// sigma means every distance is identical, so nothing is an outlier.
func filterByStdDev(corrs []Correspondence, cfg FilterConfig) []Correspondence {
	if len(corrs) == 0 {
		return nil
	}

	dists := make([]float64, len(corrs))
	for i, c := range corrs {
		dists[i] = c.Distance
	}
	mean := stat.Mean(dists, nil)
	sigma := stat.PopStdDev(dists, nil)
	if sigma == 0 {
		return corrs
	}

	cut := mean + cfg.SigmaFactor*sigma
	kept := make([]Correspondence, 0, len(corrs))
	for _, c := range corrs {
		if c.Distance < cut {
			kept = append(kept, c)
		}
	}
	return kept
}
