package outbound

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PriceCache is a minimal get/set-with-TTL cache in front of the price
// store. Get reports a miss via ok=false; a miss is not an error. Entries
// expire by TTL only, there is no proactive invalidation.
type PriceCache interface {
	Get(ctx context.Context, key string) (value decimal.Decimal, ok bool, err error)
	Set(ctx context.Context, key string, value decimal.Decimal, ttl time.Duration) error
}
