package affiliate

import (
	"context"
	"fmt"
	"github.com/csr-ugra/petads-pipeline/internal/db"
)

// PublishScheduled publishes every unpublished content row whose publish time
// has passed and returns how many rows changed.
func (s *Service) PublishScheduled(ctx context.Context) (int, error) {
	if s.dryRun {
		return 0, nil
	}

	count, err := db.PublishDueContent(ctx, s.connection, s.now())
	if err != nil {
		return 0, fmt.Errorf("error publishing scheduled content: %w", err)
	}

	s.logger.WithField("PublishedCount", count).Info("published {PublishedCount} content rows")

	return count, nil
}
