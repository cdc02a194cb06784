package selector

import (
	"context"
	"math"
	"sort"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"mixer/models"
)

// MinGroupSize is the member count a resolution group must exceed to qualify
// for grouped selection; smaller groups fall back to the full pool.
const MinGroupSize = 20

// MediaProber supplies probed attributes for one file; satisfied by
// ffprobe.Prober.
type MediaProber interface {
	MediaInfo(ctx context.Context, path string) (models.MediaInfo, error)
}

// GroupByResolution probes every asset's native resolution with bounded
// concurrency and partitions the catalog by it. Assets whose probe fails are
// left out of every group rather than failing the scan; only a cancelled
// context aborts.
func GroupByResolution(ctx context.Context, prober MediaProber, assets []*models.SourceAsset, limit int) (map[string][]*models.SourceAsset, error) {
	g, gctx := errgroup.WithContext(ctx)
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, asset := range assets {
		asset := asset
		g.Go(func() error {
			// A failed probe is sticky on the asset; the partition below
			// just skips it
			_ = asset.EnsureProbed(func() (models.MediaInfo, error) {
				return prober.MediaInfo(gctx, asset.Path)
			})
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups := make(map[string][]*models.SourceAsset)
	for _, asset := range assets {
		if res := asset.Resolution(); res != "" {
			groups[res] = append(groups[res], asset)
		}
	}
	return groups, nil
}

// QualifiedGroups keeps only groups large enough for grouped selection.
func QualifiedGroups(groups map[string][]*models.SourceAsset) map[string][]*models.SourceAsset {
	return lo.PickBy(groups, func(_ string, members []*models.SourceAsset) bool {
		return len(members) > MinGroupSize
	})
}

// GroupAllocation is one resolution group's share of the run's outputs.
type GroupAllocation struct {
	Resolution string
	Pool       []*models.SourceAsset
	Outputs    int
}

// AllocateOutputs splits the requested output count across groups
// proportionally to group size, by largest remainder. Ordering is
// deterministic: bigger groups first, resolution string as tiebreak; groups
// allocated zero outputs are dropped.
func AllocateOutputs(groups map[string][]*models.SourceAsset, outputs int) []GroupAllocation {
	if outputs <= 0 || len(groups) == 0 {
		return nil
	}

	keys := lo.Keys(groups)
	sort.Slice(keys, func(i, j int) bool {
		si, sj := len(groups[keys[i]]), len(groups[keys[j]])
		if si != sj {
			return si > sj
		}
		return keys[i] < keys[j]
	})

	total := lo.SumBy(keys, func(k string) int { return len(groups[k]) })

	allocs := make([]GroupAllocation, len(keys))
	fracs := make([]float64, len(keys))
	assigned := 0
	for i, k := range keys {
		exact := float64(outputs) * float64(len(groups[k])) / float64(total)
		base := int(math.Floor(exact))
		allocs[i] = GroupAllocation{Resolution: k, Pool: groups[k], Outputs: base}
		fracs[i] = exact - float64(base)
		assigned += base
	}

	// Hand the leftover outputs to the largest remainders; keys are already
	// ordered size-then-resolution so ties stay deterministic
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fracs[order[a]] > fracs[order[b]]
	})
	for i := 0; assigned < outputs; i = (i + 1) % len(order) {
		allocs[order[i]].Outputs++
		assigned++
	}

	return lo.Filter(allocs, func(a GroupAllocation, _ int) bool {
		return a.Outputs > 0
	})
}
