package service

import (
	"testing"

	"github.com/OlogyCrew/ologywoodv3/model"
	"github.com/stretchr/testify/assert"
)

func TestCompareTermsLineByLine(t *testing.T) {
	a := model.Snapshot{Title: "Show", Terms: "A\nB\nC", ContractType: model.TypeRider}
	b := model.Snapshot{Title: "Show", Terms: "A\nX\nC\nD", ContractType: model.TypeRider}

	diffs := Compare(a, b)

	assert.Equal(t, []VersionDiff{
		{Field: "Terms (Line 2)", OldValue: "B", NewValue: "X", ChangeType: ChangeModified},
		{Field: "Terms (Line 4)", OldValue: "", NewValue: "D", ChangeType: ChangeAdded},
	}, diffs)
	assert.Equal(t, "Modified: Terms (Line 2), Added: Terms (Line 4)", Summarize(diffs))
}

func TestCompareScalarFields(t *testing.T) {
	a := model.Snapshot{Title: "Old", Description: "d", ContractType: model.TypeRider}
	b := model.Snapshot{Title: "New", Description: "", ContractType: model.TypeOther}

	diffs := Compare(a, b)

	assert.Len(t, diffs, 3)
	assert.Equal(t, "Title", diffs[0].Field)
	assert.Equal(t, "Description", diffs[1].Field)
	assert.Equal(t, ChangeModified, diffs[1].ChangeType, "scalar fields are always reported as modified")
	assert.Equal(t, "Contract Type", diffs[2].Field)
}

func TestCompareRemovedAndBlankLines(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		want     []VersionDiff
	}{
		{
			name: "trailing line removed",
			from: "A\nB",
			to:   "A",
			want: []VersionDiff{{Field: "Terms (Line 2)", OldValue: "B", ChangeType: ChangeRemoved}},
		},
		{
			name: "line blanked counts as removed",
			from: "A\nB\nC",
			to:   "A\n\nC",
			want: []VersionDiff{{Field: "Terms (Line 2)", OldValue: "B", ChangeType: ChangeRemoved}},
		},
		{
			name: "blank line filled counts as added",
			from: "A\n\nC",
			to:   "A\nB\nC",
			want: []VersionDiff{{Field: "Terms (Line 2)", NewValue: "B", ChangeType: ChangeAdded}},
		},
		{
			name: "trailing blank line is not a change",
			from: "A",
			to:   "A\n",
			want: []VersionDiff{},
		},
		{
			name: "insertion shifts later lines",
			from: "A\nB",
			to:   "X\nA\nB",
			want: []VersionDiff{
				{Field: "Terms (Line 1)", OldValue: "A", NewValue: "X", ChangeType: ChangeModified},
				{Field: "Terms (Line 2)", OldValue: "B", NewValue: "A", ChangeType: ChangeModified},
				{Field: "Terms (Line 3)", OldValue: "", NewValue: "B", ChangeType: ChangeAdded},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(model.Snapshot{Terms: tt.from}, model.Snapshot{Terms: tt.to})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareIdentical(t *testing.T) {
	s := model.Snapshot{Title: "T", Description: "D", Terms: "1\n2\n\n4", ContractType: model.TypeRider}

	diffs := Compare(s, s)

	assert.Empty(t, diffs)
	assert.Equal(t, "No changes", Summarize(diffs))
}

func TestSummarizeTruncates(t *testing.T) {
	diffs := []VersionDiff{
		{Field: "Title", ChangeType: ChangeModified},
		{Field: "Terms (Line 1)", ChangeType: ChangeAdded},
		{Field: "Terms (Line 2)", ChangeType: ChangeRemoved},
		{Field: "Terms (Line 3)", ChangeType: ChangeAdded},
		{Field: "Terms (Line 4)", ChangeType: ChangeAdded},
	}

	assert.Equal(t,
		"Modified: Title, Added: Terms (Line 1), Removed: Terms (Line 2), and 2 more changes",
		Summarize(diffs))
	assert.Equal(t, "Modified: Title, Added: Terms (Line 1), Removed: Terms (Line 2)", Summarize(diffs[:3]))
}
