package filter

import (
	"testing"
	"time"

	"github.com/jmhooper/vikunja-mcp/internal/task"
)

func sampleTasks() []task.Task {
	due := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return []task.Task{
		{ID: 1, Title: "Release v1", Description: "ship the release", Done: false, Priority: 5, PercentDone: 0.8, DueDate: due("2026-03-01"), Labels: []string{"urgent"}},
		{ID: 2, Title: "Fix login bug", Description: "wip, needs review", Done: false, Priority: 3, PercentDone: 0.2, DueDate: due("2026-05-10"), Labels: []string{"bug", "auth"}},
		{ID: 3, Title: "Write docs", Description: "", Done: true, Priority: 1, PercentDone: 1, DueDate: due("2025-12-01")},
		{ID: 4, Title: "Plan roadmap", Description: "WIP draft", Done: false, Priority: 3, PercentDone: 0, DueDate: due("2026-07-20"), Labels: []string{"planning"}},
	}
}

func evalIDs(t *testing.T, raw string, opts EvalOptions) []int64 {
	t.Helper()
	expr := mustParse(t, raw)
	matched := Evaluate(expr, sampleTasks(), opts)
	ids := make([]int64, len(matched))
	for i, m := range matched {
		ids[i] = m.ID
	}
	return ids
}

func assertIDs(t *testing.T, got []int64, want ...int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("matched ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("matched ids = %v, want %v", got, want)
		}
	}
}

func TestEvaluate_Comparisons(t *testing.T) {
	assertIDs(t, evalIDs(t, "priority >= 3", EvalOptions{}), 1, 2, 4)
	assertIDs(t, evalIDs(t, "priority = 3 AND done = false", EvalOptions{}), 2, 4)
	assertIDs(t, evalIDs(t, "priority < 3 OR done = true", EvalOptions{}), 3)
	assertIDs(t, evalIDs(t, "percent_done != 0", EvalOptions{}), 1, 2, 3)
}

func TestEvaluate_LikeCaseInsensitiveByDefault(t *testing.T) {
	assertIDs(t, evalIDs(t, "description like 'wip'", EvalOptions{}), 2, 4)
	assertIDs(t, evalIDs(t, "description CONTAINS 'wip'", EvalOptions{}), 2, 4)
}

func TestEvaluate_LikeCaseSensitiveOption(t *testing.T) {
	assertIDs(t, evalIDs(t, "description like 'WIP'", EvalOptions{LikeCaseSensitive: true}), 4)
}

func TestEvaluate_DateComparison(t *testing.T) {
	assertIDs(t, evalIDs(t, "due_date < '2026-01-01'", EvalOptions{}), 3)
	assertIDs(t, evalIDs(t, "due_date between '2026-01-01' and '2026-06-01'", EvalOptions{}), 1, 2)
}

func TestEvaluate_BetweenInclusive(t *testing.T) {
	// Both bounds are inclusive.
	assertIDs(t, evalIDs(t, "priority between 3 and 5", EvalOptions{}), 1, 2, 4)
	assertIDs(t, evalIDs(t, "priority between 1 and 1", EvalOptions{}), 3)
}

func TestEvaluate_InAndNotIn(t *testing.T) {
	assertIDs(t, evalIDs(t, "priority in (1, 5)", EvalOptions{}), 1, 3)
	assertIDs(t, evalIDs(t, "priority not in (1, 5)", EvalOptions{}), 2, 4)
}

func TestEvaluate_ListMembership(t *testing.T) {
	assertIDs(t, evalIDs(t, "labels in ('urgent', 'planning')", EvalOptions{}), 1, 4)
	// not in matches tasks with no overlapping label, including label-less ones.
	assertIDs(t, evalIDs(t, "labels not in ('urgent', 'planning')", EvalOptions{}), 2, 3)
}

func TestEvaluate_NestedGroups(t *testing.T) {
	raw := "(priority = 3 OR priority = 5) AND (done = false AND description like 'wip')"
	assertIDs(t, evalIDs(t, raw, EvalOptions{}), 2, 4)
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	tasks := sampleTasks()

	// AND stops at the first false child: for tasks that fail the first
	// condition, the second is never evaluated.
	expr := mustParse(t, "done = true AND priority > 0")
	stats := &evalStats{}
	for i := range tasks {
		evalNode(expr.Root, &tasks[i], EvalOptions{}, stats)
	}
	// 4 first-condition evaluations, but only task 3 reaches the second.
	if stats.conditions != 5 {
		t.Errorf("AND condition evaluations = %d, want 5", stats.conditions)
	}

	// OR stops at the first true child.
	expr = mustParse(t, "done = false OR priority > 0")
	stats = &evalStats{}
	for i := range tasks {
		evalNode(expr.Root, &tasks[i], EvalOptions{}, stats)
	}
	// Tasks 1, 2, 4 satisfy the first condition; only task 3 reaches the second.
	if stats.conditions != 5 {
		t.Errorf("OR condition evaluations = %d, want 5", stats.conditions)
	}
}

func TestEvaluate_EmptyInput(t *testing.T) {
	expr := mustParse(t, "priority >= 3")
	matched := Evaluate(expr, nil, EvalOptions{})
	if len(matched) != 0 {
		t.Errorf("matched = %d, want 0", len(matched))
	}
	if matched == nil {
		t.Error("Evaluate should return an empty slice, not nil")
	}
}
