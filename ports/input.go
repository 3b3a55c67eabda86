package ports

import (
	"context"

	"gohypo/domain/bias"
)

// InputLoader loads one integrated dataset record for a given date key
// (spec §3, §6: "an input loader returning one merged dictionary per
// date"). Implementations may read from a local filesystem path or an
// object store; the engine only depends on this interface.
type InputLoader interface {
	Load(ctx context.Context, date string) (*bias.IntegratedRecord, error)
}
