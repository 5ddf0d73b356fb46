package service

import (
	"fmt"
	"strings"

	"github.com/OlogyCrew/ologywoodv3/model"
)

// Change types
const (
	ChangeAdded    = "added"
	ChangeRemoved  = "removed"
	ChangeModified = "modified"
)

// VersionDiff is one changed field, or one changed line of the terms.
type VersionDiff struct {
	Field      string `json:"field"`
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
	ChangeType string `json:"change_type"`
}

// Comparison is the result of comparing two versions of the same contract.
type Comparison struct {
	Version1     *model.ContractVersion `json:"version1"`
	Version2     *model.ContractVersion `json:"version2"`
	Differences  []VersionDiff          `json:"differences"`
	TotalChanges int                    `json:"total_changes"`
}

// Compare returns the differences going from a to b.
//
// Scalar fields are compared for strict equality. Terms are split on newlines
// and compared index by index; an empty line counts as absent, so a line that
// only exists on one side is reported as added or removed. Insertions that
// shift later lines show up as a run of modifications.
func Compare(a, b model.Snapshot) []VersionDiff {
	diffs := []VersionDiff{}

	scalar := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			diffs = append(diffs, VersionDiff{
				Field:      field,
				OldValue:   oldValue,
				NewValue:   newValue,
				ChangeType: ChangeModified,
			})
		}
	}
	scalar("Title", a.Title, b.Title)
	scalar("Description", a.Description, b.Description)
	scalar("Contract Type", a.ContractType, b.ContractType)

	lines1 := strings.Split(a.Terms, "\n")
	lines2 := strings.Split(b.Terms, "\n")
	n := max(len(lines1), len(lines2))
	for i := 0; i < n; i++ {
		line1 := lineAt(lines1, i)
		line2 := lineAt(lines2, i)
		if line1 == line2 {
			continue
		}

		d := VersionDiff{
			Field:    fmt.Sprintf("Terms (Line %d)", i+1),
			OldValue: line1,
			NewValue: line2,
		}
		switch {
		case line1 == "":
			d.ChangeType = ChangeAdded
		case line2 == "":
			d.ChangeType = ChangeRemoved
		default:
			d.ChangeType = ChangeModified
		}
		diffs = append(diffs, d)
	}
	return diffs
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}

// CompareVersions wraps Compare with the versions being compared.
func CompareVersions(v1, v2 *model.ContractVersion) *Comparison {
	diffs := Compare(v1.Snapshot(), v2.Snapshot())
	return &Comparison{
		Version1:     v1,
		Version2:     v2,
		Differences:  diffs,
		TotalChanges: len(diffs),
	}
}

// Summarize describes the first three differences, e.g.
// "Modified: Title, Added: Terms (Line 4), and 2 more changes".
func Summarize(diffs []VersionDiff) string {
	if len(diffs) == 0 {
		return "No changes"
	}

	parts := make([]string, 0, 3)
	for _, d := range diffs[:min(3, len(diffs))] {
		switch d.ChangeType {
		case ChangeModified:
			parts = append(parts, "Modified: "+d.Field)
		case ChangeAdded:
			parts = append(parts, "Added: "+d.Field)
		default:
			parts = append(parts, "Removed: "+d.Field)
		}
	}

	summary := strings.Join(parts, ", ")
	if len(diffs) > 3 {
		summary = fmt.Sprintf("%s, and %d more changes", summary, len(diffs)-3)
	}
	return summary
}
