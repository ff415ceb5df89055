package savedgames

import (
	"fmt"

	"github.com/mcoot/savebridge/internal/model"
)

// Resolve picks the snapshot that survives when a slot holds two divergent versions.
// original is the slot head; unmerged is the commit that was made against an older head.
// Ties always keep original.
func Resolve(strategy model.ConflictStrategy, original, unmerged model.Snapshot) (model.Snapshot, error) {
	switch strategy {
	case model.UseLongestPlaytime:
		if c := comparePlaytime(original, unmerged); c != 0 {
			return pick(c, original, unmerged), nil
		}
		return pick(compareModified(original, unmerged), original, unmerged), nil
	case model.UseMostRecentlySaved:
		if c := compareModified(original, unmerged); c != 0 {
			return pick(c, original, unmerged), nil
		}
		return pick(comparePlaytime(original, unmerged), original, unmerged), nil
	case model.UseOriginal:
		return original, nil
	case model.UseUnmerged:
		return unmerged, nil
	}
	return model.Snapshot{}, fmt.Errorf("%w: %q", model.ErrUnknownStrategy, strategy)
}

// pick returns unmerged only when it compared strictly greater
func pick(c int, original, unmerged model.Snapshot) model.Snapshot {
	if c < 0 {
		return unmerged
	}
	return original
}

func comparePlaytime(a, b model.Snapshot) int {
	switch {
	case a.PlayedTime > b.PlayedTime:
		return 1
	case a.PlayedTime < b.PlayedTime:
		return -1
	}
	return 0
}

func compareModified(a, b model.Snapshot) int {
	return a.LastModified.Compare(b.LastModified)
}
