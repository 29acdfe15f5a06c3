package artisans

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics(t *testing.T) {
	stats, err := loadFixture(t).Statistics()
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalArtisans)
	assert.Equal(t, map[string]int{"Pottery": 3, "Weaving": 1, "Embroidery": 1}, stats.CraftTypes)
	assert.Equal(t, 3, stats.States["Rajasthan"])
	assert.Equal(t, 2, stats.Districts["Jaipur"])
	assert.Equal(t, 3, stats.Genders["Female"])
	require.NotNil(t, stats.UniqueCrafts)
	assert.Equal(t, 3, *stats.UniqueCrafts)
	require.NotNil(t, stats.UniqueStates)
	assert.Equal(t, 3, *stats.UniqueStates)

	require.NotNil(t, stats.AgeStatistics)
	assert.Equal(t, 39.0, stats.AgeStatistics.Average)
	assert.Equal(t, 37.5, stats.AgeStatistics.Median)
	assert.Equal(t, 29, stats.AgeStatistics.Min)
	assert.Equal(t, 52, stats.AgeStatistics.Max)
}

func TestStatisticsEmptyDataset(t *testing.T) {
	_, err := (&Dataset{}).Statistics()
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTopCountsKeepsTen(t *testing.T) {
	ds := &Dataset{index: map[string]bool{"state": true}}
	for i := 0; i < 12; i++ {
		ds.records = append(ds.records, Record{fields: map[string]string{"state": string(rune('A' + i))}})
	}
	assert.Len(t, ds.topCounts("state"), 10)
	assert.Nil(t, ds.topCounts("craft_type"))
}

func TestExtractEntities(t *testing.T) {
	e := ExtractEntities("Find pottery artists in Rajasthan")
	assert.Equal(t, Entities{CraftType: "pottery", Location: "rajasthan"}, e)

	e = ExtractEntities("jewelers from Tamil Nadu")
	assert.Equal(t, "jewelers", e.CraftType)
	assert.Equal(t, "tamil nadu", e.Location)

	assert.Equal(t, Entities{}, ExtractEntities("potteryx"))
}

func TestSearchByEntities(t *testing.T) {
	ds := loadFixture(t)
	results := ds.Search("show pottery in rajasthan", 10)
	require.Len(t, results, 3)
	assert.Equal(t, "A1", results[0].ArtisanID)
	require.NotNil(t, results[0].Age)
	assert.Equal(t, 34, *results[0].Age)
	assert.Nil(t, results[2].Age)
	assert.True(t, results[0].PhoneAvailable)
	assert.False(t, results[1].PhoneAvailable)
	assert.Equal(t, "Not available", results[1].Phone)

	assert.Len(t, ds.Search("pottery", 2), 2)
}

func TestSearchFallsBackToKeywords(t *testing.T) {
	ds := loadFixture(t)
	results := ds.Search("find lakshmi", 10)
	require.Len(t, results, 1)
	assert.Equal(t, "A3", results[0].ArtisanID)
	assert.Equal(t, "Tamil", results[0].Languages)

	assert.Empty(t, ds.Search("find a", 10))
	assert.Empty(t, ds.Search("nothing matches here", 10))
}

func TestFilter(t *testing.T) {
	ds := loadFixture(t)
	results := ds.Filter(map[string]string{"state": "rajasthan", "district": "JAIPUR", "unknown": "x"})
	require.Len(t, results, 2)
	assert.Equal(t, "Meera Devi", results[0].Name)
	assert.Equal(t, "Female", results[0].Gender)

	assert.Len(t, ds.Filter(nil), 5)
}

func TestSimilar(t *testing.T) {
	ds := loadFixture(t)
	result, err := ds.Similar("A1", 5)
	require.NoError(t, err)
	assert.Equal(t, "A1", result.Reference.ArtisanID)
	assert.Equal(t, "Pottery", result.Reference.CraftType)
	require.Len(t, result.SimilarArtists, 2)
	assert.Equal(t, "A2", result.SimilarArtists[0].ArtisanID)

	result, err = ds.Similar("A1", 1)
	require.NoError(t, err)
	assert.Len(t, result.SimilarArtists, 1)

	_, err = ds.Similar("missing", 5)
	assert.ErrorIs(t, err, ErrArtisanNotFound)
}

func TestUniqueValues(t *testing.T) {
	ds := loadFixture(t)
	values, ok := ds.UniqueValues("state")
	require.True(t, ok)
	assert.Equal(t, []string{"Rajasthan", "Tamil Nadu", "Gujarat"}, values)

	values, ok = ds.UniqueValues("nope")
	assert.False(t, ok)
	assert.Empty(t, values)
}

func TestStatisticsSource(t *testing.T) {
	resp, err := StatisticsSource{Dataset: loadFixture(t)}.GetStatistics(context.Background())
	require.NoError(t, err)
	require.NotNil(t, resp.Stats.TotalArtisans)
	assert.Equal(t, 5, *resp.Stats.TotalArtisans)
	assert.Equal(t, 3, *resp.Stats.UniqueCrafts)
	assert.Equal(t, 3, resp.Stats.CraftTypes["Pottery"])

	_, err = StatisticsSource{Dataset: &Dataset{}}.GetStatistics(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
}
