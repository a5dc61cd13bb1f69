package app

import (
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffSummary reports how much a rewrite changed: characters inserted and
// deleted between the old and new body.
func DiffSummary(before, after string) string {
	if before == after {
		return "no changes"
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var inserted, deleted int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += len(d.Text)
		case diffmatchpatch.DiffDelete:
			deleted += len(d.Text)
		}
	}
	return fmt.Sprintf("+%d/-%d characters", inserted, deleted)
}
