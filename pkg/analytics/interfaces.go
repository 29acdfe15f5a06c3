package analytics

import (
	"context"

	dashboard "github.com/goliatone/go-kalakaart/components/dashboard"
)

// StatisticsClient fetches the artisan statistics summary from the data service.
type StatisticsClient interface {
	GetStatistics(ctx context.Context) (dashboard.StatisticsResponse, error)
}
