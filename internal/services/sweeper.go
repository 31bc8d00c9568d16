package services

import (
	"context"
	"log"
	"time"

	"alfredoptarigan/career-reviewer/internal/repositories"
)

// StaleReviewSweeper fails documents left in reviewing by a process that died
// before it could record the outcome.
type StaleReviewSweeper interface {
	Sweep(ctx context.Context) (int64, error)
	Run(ctx context.Context)
}

type staleReviewSweeper struct {
	docRepo    repositories.DocumentRepository
	staleAfter time.Duration
	interval   time.Duration
	now        func() time.Time
}

// NewStaleReviewSweeper treats a review as abandoned once it has been in
// reviewing for longer than staleAfter, which must exceed the longest review.
func NewStaleReviewSweeper(docRepo repositories.DocumentRepository, staleAfter, interval time.Duration) StaleReviewSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &staleReviewSweeper{
		docRepo:    docRepo,
		staleAfter: staleAfter,
		interval:   interval,
		now:        time.Now,
	}
}

// Sweep implements StaleReviewSweeper.
func (s *staleReviewSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.docRepo.FailStaleReviews(ctx, s.now().Add(-s.staleAfter))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("🧹 Marked %d abandoned review(s) as failed\n", n)
	}
	return n, nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *staleReviewSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			log.Printf("⚠️  Stale review sweep failed: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
