package exportcache

import (
	"context"
	"sort"

	"github.com/safeplate/haccp/internal/blob"
)

// PruneArtifacts deletes all but the retain most recently written artifacts
// for one plan and returns the number deleted. It runs out-of-band, never on
// the export hot path; retain <= 0 prunes nothing.
func PruneArtifacts(ctx context.Context, store blob.Store, planID string, retain int) (int, error) {
	if retain <= 0 {
		return 0, nil
	}

	objects, err := store.List(ctx, PlanExportPrefix(planID))
	if err != nil {
		return 0, err
	}
	if len(objects) <= retain {
		return 0, nil
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].ModTime.After(objects[j].ModTime)
	})

	deleted := 0
	for _, obj := range objects[retain:] {
		if err := store.Delete(ctx, obj.Path); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
