package archon

import (
	"io"

	"github.com/rs/zerolog"
)

// newDisabledLogger returns a zerolog.Logger that drops everything, the
// default for a freshly constructed World: archon stays silent unless a
// caller opts in with World.SetLogger. This is the soft-error sink for
// deferred-action failures (an insert or remove aimed at a dead entity) —
// those never propagate, they only get logged here. A deferred despawn of a
// dead entity is a silent no-op and is not logged.
func newDisabledLogger() zerolog.Logger {
	return zerolog.New(io.Discard).Level(zerolog.Disabled)
}
