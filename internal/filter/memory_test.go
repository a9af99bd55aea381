package filter

import (
	"strings"
	"testing"

	"github.com/jmhooper/vikunja-mcp/internal/errors"
	"github.com/jmhooper/vikunja-mcp/internal/task"
)

// taskOfSize builds a task whose JSON encoding is close to n bytes.
func taskOfSize(n int) task.Task {
	return task.Task{ID: 1, Description: strings.Repeat("x", n)}
}

func TestEstimate_Tiers(t *testing.T) {
	est := NewEstimator(50, 2.5, 25, 100)

	cases := []struct {
		name      string
		perItem   int
		projected int
		want      RiskTier
	}{
		// 1KB x 100 x 2.5 ≈ 250KB
		{"small set is Low", 1 << 10, 100, TierLow},
		// 1KB x 20000 x 2.5 ≈ 50MB
		{"mid set is Medium", 1 << 10, 20000, TierMedium},
		// 10KB x 10000 x 2.5 ≈ 250MB
		{"large set is High", 10 << 10, 10000, TierHigh},
	}
	for _, tc := range cases {
		sample := []task.Task{taskOfSize(tc.perItem)}
		got := est.Estimate(sample, tc.projected)
		if got.Tier != tc.want {
			t.Errorf("%s: tier = %s (%d bytes), want %s", tc.name, got.Tier, got.EstimatedBytes, tc.want)
		}
	}
}

func TestEstimate_SampleBounded(t *testing.T) {
	est := NewEstimator(50, 2.5, 25, 100)

	sample := make([]task.Task, 200)
	for i := range sample {
		sample[i] = taskOfSize(100)
	}
	got := est.Estimate(sample, 200)
	if got.ItemCountSampled != 50 {
		t.Errorf("ItemCountSampled = %d, want 50", got.ItemCountSampled)
	}
}

func TestEstimate_EmptyInput(t *testing.T) {
	est := NewEstimator(50, 2.5, 25, 100)

	got := est.Estimate(nil, 0)
	if got.Tier != TierLow || got.EstimatedBytes != 0 {
		t.Errorf("empty estimate = %+v, want Low/0", got)
	}
}

func TestGate_DeniesHighByDefault(t *testing.T) {
	est := NewEstimator(50, 2.5, 25, 100)

	// ~10KB per item x 6000 items x 2.5 ≈ 150MB, over the 100MB mark.
	sample := []task.Task{taskOfSize(10 << 10)}
	e := est.Estimate(sample, 6000)
	if e.Tier != TierHigh {
		t.Fatalf("tier = %s, want High", e.Tier)
	}

	err := est.Gate(e, false)
	if !errors.Is(err, errors.ErrMemoryLimit) {
		t.Fatalf("Gate = %v, want MEMORY_LIMIT_EXCEEDED", err)
	}
	mErr := err.(*errors.MCPError)
	if mErr.Details["tier"] != "High" {
		t.Errorf("details tier = %v, want High", mErr.Details["tier"])
	}

	if err := est.Gate(e, true); err != nil {
		t.Errorf("Gate with allowHigh = %v, want nil", err)
	}
}

func TestGate_AllowsLowAndMedium(t *testing.T) {
	est := NewEstimator(50, 2.5, 25, 100)
	for _, e := range []Estimate{{Tier: TierLow}, {Tier: TierMedium}} {
		if err := est.Gate(e, false); err != nil {
			t.Errorf("Gate(%s) = %v, want nil", e.Tier, err)
		}
	}
}
