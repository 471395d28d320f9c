package app

import (
	"context"
	"time"

	"github.com/campgrid/auth-service/internal/repository"
	"go.uber.org/zap"
)

const pruneInterval = time.Hour

// startPruning periodically deletes expired refresh and single-use token
// rows. Expired rows are already unusable; pruning only keeps the tables
// from growing without bound.
func startPruning(ctx context.Context, repos *repository.Repositories, logger *zap.Logger) {
	go func() {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := repos.RefreshToken.DeleteExpired(ctx); err != nil {
					logger.Warn("Failed to prune expired refresh tokens", zap.Error(err))
				}
				if err := repos.SingleUse.DeleteExpired(ctx); err != nil {
					logger.Warn("Failed to prune expired single-use tokens", zap.Error(err))
				}
			}
		}
	}()
}
