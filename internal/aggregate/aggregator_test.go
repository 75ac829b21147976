package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newstrace/internal/extract"
	"newstrace/internal/types"
)

func rec(name, beat, title, date string) types.RawProfileRecord {
	return types.RawProfileRecord{
		Name:         name,
		RawBeat:      beat,
		ArticleTitle: title,
		ArticleDate:  date,
		SourceURL:    "https://example.com/news/" + title,
	}
}

func TestMergeCountsDistinctTitles(t *testing.T) {
	a := New()

	assert.True(t, a.Merge(rec("Jane Doe", "World", "Summit ends", "2024-05-17")))
	assert.True(t, a.Merge(rec("Jane Doe", "World", "Talks resume", "2024-05-10")))

	profiles := a.Snapshot()
	require.Len(t, profiles, 1)
	assert.Equal(t, 2, profiles[0].ArticlesCount)
	assert.Equal(t, "Jane Doe", profiles[0].Name)
}

func TestMergeIdempotent(t *testing.T) {
	a := New()
	r := rec("Jane Doe", "World", "Summit ends", "2024-05-17")

	assert.True(t, a.Merge(r))
	before := a.Snapshot()

	// Replaying the same record changes nothing.
	assert.False(t, a.Merge(r))
	assert.Equal(t, before, a.Snapshot())
}

func TestMergeBeatFollowsNewestArticle(t *testing.T) {
	a := New()
	a.Merge(rec("Jane Doe", "World", "Old story", "2024-01-01"))
	a.Merge(rec("Jane Doe", "Politics", "New story", "2024-06-01"))

	profiles := a.Snapshot()
	require.Len(t, profiles, 1)
	assert.Equal(t, extract.BeatPolitics, profiles[0].Beat)
	assert.Equal(t, "New story", profiles[0].LatestArticle)
	assert.Equal(t, "2024-06-01", profiles[0].PublicationDate)
	assert.Equal(t, 2, profiles[0].ArticlesCount)
}

func TestMergeOlderArticleDoesNotDisplaceLatest(t *testing.T) {
	a := New()
	a.Merge(rec("Jane Doe", "World", "New story", "2024-06-01"))
	a.Merge(rec("Jane Doe", "Politics", "Old story", "2024-01-01"))

	profiles := a.Snapshot()
	require.Len(t, profiles, 1)
	assert.Equal(t, extract.BeatWorld, profiles[0].Beat)
	assert.Equal(t, "New story", profiles[0].LatestArticle)
	assert.Equal(t, 2, profiles[0].ArticlesCount)
}

func TestMergeUnparseableDateNeverOverwrites(t *testing.T) {
	a := New()
	a.Merge(rec("Jane Doe", "World", "Dated story", "2024-05-17"))
	a.Merge(rec("Jane Doe", "Sports", "Undated story", ""))

	profiles := a.Snapshot()
	require.Len(t, profiles, 1)
	assert.Equal(t, "2024-05-17", profiles[0].PublicationDate)
	assert.Equal(t, "Dated story", profiles[0].LatestArticle)
	// The undated article still counts.
	assert.Equal(t, 2, profiles[0].ArticlesCount)
}

func TestMergeDateReplacesUndated(t *testing.T) {
	a := New()
	a.Merge(rec("Jane Doe", "World", "Undated story", ""))
	a.Merge(rec("Jane Doe", "Politics", "Dated story", "2024-05-17"))

	profiles := a.Snapshot()
	require.Len(t, profiles, 1)
	assert.Equal(t, "2024-05-17", profiles[0].PublicationDate)
	assert.Equal(t, "Dated story", profiles[0].LatestArticle)
}

func TestMergeFoldsNameCaseAndSpacing(t *testing.T) {
	a := New()

	assert.True(t, a.Merge(rec("Jane Doe", "World", "First story", "2024-01-01")))
	assert.True(t, a.Merge(rec("JANE  DOE", "World", "Second story", "2024-02-01")))

	profiles := a.Snapshot()
	require.Len(t, profiles, 1)
	// The first-seen display form wins.
	assert.Equal(t, "Jane Doe", profiles[0].Name)
	assert.Equal(t, 2, profiles[0].ArticlesCount)
	assert.Equal(t, "Second story", profiles[0].LatestArticle)

	// A known title under a different casing is still a duplicate.
	assert.False(t, a.Merge(rec("jane doe", "World", "Second story", "2024-02-01")))
}

func TestMergeRejectsEmptyAndUnknown(t *testing.T) {
	a := New()
	assert.False(t, a.Merge(rec("", "World", "A story", "2024-05-17")))
	assert.False(t, a.Merge(rec("Unknown", "World", "A story", "2024-05-17")))
	assert.False(t, a.Merge(rec("Jane Doe", "World", "", "2024-05-17")))
	assert.Equal(t, 0, a.Count())
}

func TestSnapshotOrdering(t *testing.T) {
	a := New()
	a.Merge(rec("Bob One", "World", "s1", "2024-01-01"))
	a.Merge(rec("Ann Two", "World", "s2", "2024-01-02"))
	a.Merge(rec("Ann Two", "World", "s3", "2024-01-03"))
	a.Merge(rec("Cal Three", "World", "s4", "2024-01-04"))

	profiles := a.Snapshot()
	require.Len(t, profiles, 3)
	// Highest article count first, ties broken by name.
	assert.Equal(t, "Ann Two", profiles[0].Name)
	assert.Equal(t, "Bob One", profiles[1].Name)
	assert.Equal(t, "Cal Three", profiles[2].Name)
}

func TestSnapshotNeverNil(t *testing.T) {
	a := New()
	profiles := a.Snapshot()
	assert.NotNil(t, profiles)
	assert.Empty(t, profiles)
}
