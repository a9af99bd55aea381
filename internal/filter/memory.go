package filter

import (
	"encoding/json"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/task"
)

// RiskTier classifies an estimated client-side evaluation footprint.
type RiskTier string

const (
	TierLow    RiskTier = "Low"
	TierMedium RiskTier = "Medium"
	TierHigh   RiskTier = "High"
)

// Estimate is the memory footprint projection for one evaluation. It is
// produced fresh per call and never cached: item shapes vary between
// fetches, so a stale estimate would be meaningless.
type Estimate struct {
	EstimatedBytes   int64
	Tier             RiskTier
	ItemCountSampled int
	MarginMultiplier float64
}

// Estimator projects the in-memory footprint of a candidate item set from
// a bounded sample. It is deliberately approximate: its job is early
// rejection of pathological filters over huge collections, not exact
// accounting. Stateless and safe for concurrent use.
type Estimator struct {
	SampleSize     int
	Margin         float64
	LowWaterBytes  int64
	HighWaterBytes int64
}

// NewEstimator builds an Estimator from configured watermarks in MB.
func NewEstimator(sampleSize int, margin float64, lowWaterMB, highWaterMB int) Estimator {
	return Estimator{
		SampleSize:     sampleSize,
		Margin:         margin,
		LowWaterBytes:  int64(lowWaterMB) << 20,
		HighWaterBytes: int64(highWaterMB) << 20,
	}
}

// Estimate serializes at most SampleSize items to measure a representative
// per-item footprint, scales it to projectedTotal, and applies the safety
// margin to cover runtime overhead of decoded records.
func (e Estimator) Estimate(sample []task.Task, projectedTotal int) Estimate {
	est := Estimate{MarginMultiplier: e.Margin}
	if len(sample) == 0 || projectedTotal <= 0 {
		est.Tier = TierLow
		return est
	}

	n := len(sample)
	if e.SampleSize > 0 && n > e.SampleSize {
		n = e.SampleSize
	}

	var sampledBytes int64
	for i := 0; i < n; i++ {
		data, err := json.Marshal(&sample[i])
		if err != nil {
			// Task is a plain struct; marshal cannot realistically fail.
			// Treat a failure as an oversized item rather than undercounting.
			sampledBytes += 1 << 10
			continue
		}
		sampledBytes += int64(len(data))
	}

	perItem := float64(sampledBytes) / float64(n)
	est.ItemCountSampled = n
	est.EstimatedBytes = int64(perItem * float64(projectedTotal) * e.Margin)

	switch {
	case est.EstimatedBytes < e.LowWaterBytes:
		est.Tier = TierLow
	case est.EstimatedBytes < e.HighWaterBytes:
		est.Tier = TierMedium
	default:
		est.Tier = TierHigh
	}
	return est
}

// Gate decides whether client-side evaluation may proceed. High-tier
// estimates are denied unless the caller explicitly opted into a relaxed
// ceiling.
func (e Estimator) Gate(est Estimate, allowHigh bool) error {
	if est.Tier == TierHigh && !allowHigh {
		return errors.NewMemoryLimit(string(est.Tier), est.EstimatedBytes)
	}
	return nil
}
