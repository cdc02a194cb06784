// Package selector draws the clips and background track for each output job
// from explicit seeded generators, so a run can be reproduced from its seed
// and concurrent jobs cannot perturb each other's sequences.
package selector

import (
	"fmt"
	"math/rand"
	"time"

	"mixer/models"
)

// Selector wraps one seeded pseudo-random stream. Each output job gets its
// own Selector; the zero value is unusable, construct with New.
type Selector struct {
	rng *rand.Rand
}

// New creates a Selector over the given seed.
func New(seed int64) *Selector {
	return &Selector{rng: rand.New(rand.NewSource(seed))}
}

// JobSeed derives the per-job seed from the run seed, keeping sibling jobs
// on distinct but reproducible streams.
func JobSeed(runSeed int64, jobIndex int) int64 {
	return runSeed + int64(jobIndex)
}

// AutoSeed derives a fresh run seed from the clock, bounded to a friendly
// printable range so users can repeat the run by passing it back in.
func AutoSeed() int64 {
	return time.Now().UnixNano() % (1<<31 - 1)
}

// Select draws count clips from the pool and pairs each with the run trim.
// When count is at most the pool size the draw is a shuffled subset without
// replacement; a larger count samples with replacement, so duplicates are
// expected rather than an error.
func (s *Selector) Select(pool []*models.SourceAsset, count int, trim models.TrimSpec) (models.SegmentSelection, error) {
	if len(pool) == 0 {
		return nil, fmt.Errorf("selection pool is empty")
	}
	if count <= 0 {
		return nil, fmt.Errorf("selection count must be positive, got %d", count)
	}

	picks := make([]*models.SourceAsset, 0, count)
	if count <= len(pool) {
		perm := s.rng.Perm(len(pool))
		for _, idx := range perm[:count] {
			picks = append(picks, pool[idx])
		}
	} else {
		for i := 0; i < count; i++ {
			picks = append(picks, pool[s.rng.Intn(len(pool))])
		}
	}

	selection := make(models.SegmentSelection, len(picks))
	for i, asset := range picks {
		selection[i] = models.Segment{Asset: asset, Trim: trim}
	}
	return selection, nil
}

// PickBGM draws one track uniformly from the same seed stream, after the
// clip draws.
func (s *Selector) PickBGM(tracks []string) (string, error) {
	if len(tracks) == 0 {
		return "", fmt.Errorf("bgm list is empty")
	}
	return tracks[s.rng.Intn(len(tracks))], nil
}
