package ops

import (
	"github.com/jmhooper/vikunja-mcp/internal/config"
	"github.com/jmhooper/vikunja-mcp/internal/filter"
	"github.com/jmhooper/vikunja-mcp/internal/remote"
	"github.com/jmhooper/vikunja-mcp/internal/session"
	"github.com/jmhooper/vikunja-mcp/internal/task"
)

// Provenance reports where a filter result was evaluated.
const (
	ProvenanceServer = "server"        // fully evaluated by the remote API
	ProvenanceClient = "client"        // fully evaluated locally
	ProvenanceHybrid = "hybrid-merged" // server prefilter plus local remainder
)

// Deps bundles the collaborators every operation needs. Built once at
// startup; tests assemble it with fakes.
type Deps struct {
	Cfg    *config.Config
	Remote remote.Client
	Store  *session.Store
	Schema task.Schema
}

// Limits derives the parse-time ceilings from config.
func (d *Deps) Limits() filter.Limits {
	return filter.Limits{
		MaxLength:     d.Cfg.MaxFilterLength,
		MaxDepth:      d.Cfg.MaxFilterDepth,
		MaxConditions: d.Cfg.MaxFilterConditions,
	}
}

// Estimator derives the memory estimator from config.
func (d *Deps) Estimator() filter.Estimator {
	return filter.NewEstimator(
		d.Cfg.SampleSize,
		d.Cfg.MarginMultiplier,
		d.Cfg.MemoryLowWaterMB,
		d.Cfg.MemoryHighWaterMB,
	)
}
