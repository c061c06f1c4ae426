package idea

import (
	"fmt"
	"time"
)

// --- Version tracking ---
//
// An idea's evolution is append-only. Version numbers for a given idea
// form the exact sequence 1..n: never repeated, never skipped. The
// functions here are the only way versions are produced, so the
// invariant holds everywhere by construction.

// LatestVersion returns the highest version number recorded for the idea,
// or 0 if the idea has no evolution history yet.
func LatestVersion(i *ExtractedIdea) int {
	if len(i.Evolution) == 0 {
		return 0
	}
	return i.Evolution[len(i.Evolution)-1].Version
}

// NextVersion returns the version number the next change must carry.
func NextVersion(i *ExtractedIdea) int {
	return LatestVersion(i) + 1
}

// AppendVersion records a new version of the idea's content and returns
// the audit record for it. The idea's current content is replaced by the
// new snapshot; the previous content remains in the evolution history.
func AppendVersion(i *ExtractedIdea, content Content, changedBy ChangedBy, changeType, reasoning string) (VersionRecord, error) {
	prev := LatestVersion(i)

	// Guard against corrupted history: entries must already be 1..prev.
	for idx, v := range i.Evolution {
		if v.Version != idx+1 {
			return VersionRecord{}, fmt.Errorf("idea %q has corrupted version history: entry %d carries version %d", i.ID, idx, v.Version)
		}
	}

	next := prev + 1
	now := timeNow().UTC().Format(time.RFC3339)

	i.Evolution = append(i.Evolution, Version{
		Version:   next,
		Content:   content,
		Timestamp: now,
		ChangedBy: changedBy,
	})
	i.Idea = content

	return VersionRecord{
		ItemID:          i.ID,
		VersionNumber:   next,
		Content:         content,
		ChangeType:      changeType,
		Reasoning:       reasoning,
		TriggeredBy:     changedBy,
		PreviousVersion: prev,
	}, nil
}
