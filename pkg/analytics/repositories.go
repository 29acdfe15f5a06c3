package analytics

import (
	"context"
	"time"

	dashboard "github.com/goliatone/go-kalakaart/components/dashboard"
	"go.uber.org/zap"
)

// NewStatisticsService adapts a statistics client into the dashboard service
// contract and logs each fetch.
func NewStatisticsService(client StatisticsClient, logger *zap.Logger) dashboard.StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &statisticsRepository{client: client, logger: logger.Named("analytics")}
}

type statisticsRepository struct {
	client StatisticsClient
	logger *zap.Logger
}

func (r *statisticsRepository) GetStatistics(ctx context.Context) (dashboard.StatisticsResponse, error) {
	started := time.Now()
	resp, err := r.client.GetStatistics(ctx)
	if err != nil {
		r.logger.Warn("statistics fetch failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return dashboard.StatisticsResponse{}, err
	}
	r.logger.Debug("statistics fetched", zap.Duration("elapsed", time.Since(started)))
	return resp, nil
}
