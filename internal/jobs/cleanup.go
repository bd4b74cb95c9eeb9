package jobs

import (
	"time"

	"github.com/rs/zerolog/log"
)

// CleanupJob periodically evicts idle conversations, expires stale pairing
// material and prunes idle rate-limit records. All of it is advisory
// housekeeping; correctness never depends on it running.
type CleanupJob struct {
	conversationTTL time.Duration
	rateLimitTTL    time.Duration
	conversations   interface{ EvictIdle(time.Duration) int }
	limiter         interface{ PruneIdle(time.Duration) int }
	registry        interface{ ExpirePairings() int }
	interval        time.Duration
	done            chan struct{}
}

func NewCleanupJob(
	conversations interface{ EvictIdle(time.Duration) int },
	limiter interface{ PruneIdle(time.Duration) int },
	registry interface{ ExpirePairings() int },
	conversationTTL time.Duration,
	rateLimitTTL time.Duration,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		conversationTTL: conversationTTL,
		rateLimitTTL:    rateLimitTTL,
		conversations:   conversations,
		limiter:         limiter,
		registry:        registry,
		interval:        interval,
		done:            make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	j.report("idle conversations", j.conversations.EvictIdle(j.conversationTTL))
	j.report("rate limit records", j.limiter.PruneIdle(j.rateLimitTTL))
	j.report("expired pairings", j.registry.ExpirePairings())
}

func (j *CleanupJob) report(name string, count int) {
	if count > 0 {
		log.Info().Int("count", count).Msgf("cleaned up %s", name)
	}
}
