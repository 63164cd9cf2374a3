package tools

import (
	"github.com/usestring/powhttp-sdkgen/internal/catalog"
	"github.com/usestring/powhttp-sdkgen/internal/config"
	"github.com/usestring/powhttp-sdkgen/internal/ingest"
	"github.com/usestring/powhttp-sdkgen/internal/pipeline"
	"github.com/usestring/powhttp-sdkgen/pkg/client"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Loader   *ingest.Loader
	Runs     *catalog.RunStore
	// Client is optional; without it session tools report POWHTTP_ERROR.
	Client *client.Client
}

// ResolveRun returns the run with the given ID, or the most recent run when
// id is empty.
func (d *Deps) ResolveRun(id string) (*catalog.Run, error) {
	if id == "" {
		runs := d.Runs.List()
		if len(runs) == 0 {
			return nil, ErrNotFound("run", "(none yet, call sdkgen_analyze first)")
		}
		return runs[0], nil
	}
	run, ok := d.Runs.Get(id)
	if !ok {
		return nil, ErrNotFound("run", id)
	}
	return run, nil
}
