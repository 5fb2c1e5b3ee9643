// Package mastercache is a read-through cache over the most expensive
// aggregate query: resolving the global master tariff. Readers may see a
// stale master list between a mutating write and the next Invalidate
// call; mutation paths are required to invalidate synchronously after
// commit, before acknowledging the caller.
package mastercache

import (
	"context"

	"github.com/bwmarrin/snowflake"
	pricelistdomain "github.com/spediralabs/spedira/internal/pricelist/domain"
)

// Loader rebuilds the master list from the tariff store on a miss.
type Loader func(ctx context.Context, workspaceID snowflake.ID) (*pricelistdomain.PriceList, error)

// Cache exposes exactly two operations. Invalidation is global: the
// master list is a single aggregate rebuilt wholesale, not per-key.
type Cache interface {
	Get(ctx context.Context, workspaceID snowflake.ID) (*pricelistdomain.PriceList, error)
	Invalidate(ctx context.Context) error
}
