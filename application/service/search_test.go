package service

import (
	"context"
	"errors"
	"testing"

	"github.com/helixml/stepsearch/domain/keyword"
	"github.com/helixml/stepsearch/domain/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ingest(t, f, "m", "", "P",
		keyword.NewEntry("e1", keyword.CategoryOutcome, "the light is green", "traffic signal state"))

	results, err := f.search.Search(ctx, "m", "", "P", keyword.CategoryOutcome, "the light is green", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "e1", r.ID)
	assert.Equal(t, keyword.MatchKeyword, r.Match)
	require.NotNil(t, r.Keyword)
	assert.Equal(t, "the light is green", *r.Keyword)
	require.NotNil(t, r.Description)
	assert.Equal(t, "traffic signal state", *r.Description)
	require.NotNil(t, r.KeywordDistance)
	assert.InDelta(t, 0, *r.KeywordDistance, 1e-9)
	assert.Nil(t, r.DescriptionDistance, "description was not among the hits")
}

func TestSearch_NoDescriptionStaysAbsent(t *testing.T) {
	f := newFixture(t)
	ingest(t, f, "m", "", "P",
		keyword.NewEntry("e2", keyword.CategoryContext, "user is logged in", ""))

	results, err := f.search.Search(context.Background(), "m", "", "P", keyword.CategoryContext, "user is logged in", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Description)
	assert.Nil(t, results[0].DescriptionDistance)
}

func TestSearch_BothSidesRank(t *testing.T) {
	f := newFixture(t)
	ingest(t, f, "m", "", "P",
		keyword.NewEntry("e1", keyword.CategoryAction, "the user opens the door", "the door opens"),
		keyword.NewEntry("e2", keyword.CategoryAction, "a cat sleeps", ""))

	results, err := f.search.Search(context.Background(), "m", "", "P", keyword.CategoryAction, "the door opens", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// The description is an exact match, so it ranks first.
	first := results[0]
	assert.Equal(t, "e1", first.ID)
	assert.Equal(t, keyword.MatchDescription, first.Match)
	assert.Equal(t, "the user opens the door", *first.Keyword)
	require.NotNil(t, first.KeywordDistance)
	require.NotNil(t, first.DescriptionDistance)
	assert.InDelta(t, 0, *first.DescriptionDistance, 1e-9)

	second := results[1]
	assert.Equal(t, "e1", second.ID, "no dedupe by external id")
	assert.Equal(t, keyword.MatchKeyword, second.Match)
	assert.Equal(t, *first.KeywordDistance, *second.KeywordDistance)
	assert.Equal(t, *first.DescriptionDistance, *second.DescriptionDistance)

	assert.Equal(t, "e2", results[2].ID)
}

func TestSearch_UnknownModel(t *testing.T) {
	f := newFixture(t)
	_, err := f.search.Search(context.Background(), "unknown-model", "", "P", keyword.CategoryOutcome, "x", 3)
	require.ErrorIs(t, err, keyword.ErrUnknownModel)

	models, err := f.registry.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models, "search must not register models")
}

func TestSearch_UnknownPartition(t *testing.T) {
	f := newFixture(t)
	ingest(t, f, "m", "", "P", keyword.NewEntry("e1", keyword.CategoryOutcome, "x", ""))

	_, err := f.search.Search(context.Background(), "m", "", "Other", keyword.CategoryOutcome, "x", 3)
	require.ErrorIs(t, err, keyword.ErrUnknownPartition)

	_, err = f.search.Search(context.Background(), "m", "", "P", keyword.CategoryAction, "x", 3)
	require.ErrorIs(t, err, keyword.ErrUnknownPartition)

	names, err := f.store.Partitions(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 1, "search must not create partitions")
}

func TestSearch_HostIsPartOfIdentity(t *testing.T) {
	f := newFixture(t)
	ingest(t, f, "m", "", "P", keyword.NewEntry("e1", keyword.CategoryOutcome, "x", ""))

	_, err := f.search.Search(context.Background(), "m", "Cohere", "P", keyword.CategoryOutcome, "x", 3)
	require.ErrorIs(t, err, keyword.ErrUnknownModel)
}

func TestSearch_Validation(t *testing.T) {
	f := newFixture(t)
	ingest(t, f, "m", "", "P", keyword.NewEntry("e1", keyword.CategoryOutcome, "x", ""))
	ctx := context.Background()

	_, err := f.search.Search(ctx, "m", "", "bad-project", keyword.CategoryOutcome, "x", 3)
	require.ErrorIs(t, err, keyword.ErrValidation)

	_, err = f.search.Search(ctx, "m", "", "P", keyword.Category("Given"), "x", 3)
	require.ErrorIs(t, err, keyword.ErrValidation)

	_, err = f.search.Search(ctx, "m", "", "P", keyword.CategoryOutcome, "x", 0)
	require.ErrorIs(t, err, keyword.ErrValidation)
}

func TestSearch_EmbeddingFailure(t *testing.T) {
	f := newFixture(t)
	ingest(t, f, "m", "", "P", keyword.NewEntry("e1", keyword.CategoryOutcome, "x", ""))
	upstream := keyword.NewError(keyword.ErrEmbeddingProvider, "m", errors.New("503"))
	f.embedder.Fail(upstream)

	_, err := f.search.Search(context.Background(), "m", "", "P", keyword.CategoryOutcome, "x", 3)
	require.ErrorIs(t, err, keyword.ErrEmbeddingProvider)
}

func TestMerge_MissingSiblingKeyword(t *testing.T) {
	hits := []search.Hit{search.NewHit("e1-d", "orphan description", 0.1)}
	docs := []search.Document{search.NewDocument("e1-d", "orphan description")}

	_, err := Merge(hits, docs)
	require.ErrorIs(t, err, keyword.ErrIndexCorruption)
}

func TestMerge_MalformedID(t *testing.T) {
	hits := []search.Hit{search.NewHit("e1-x", "text", 0.1)}
	_, err := Merge(hits, nil)
	require.ErrorIs(t, err, keyword.ErrParse)
}

func TestMerge_KeepsRankOrder(t *testing.T) {
	hits := []search.Hit{
		search.NewHit("b-k", "kb", 0.5),
		search.NewHit("a-k", "ka", 0.2),
		search.NewHit("b-d", "db", 0.7),
	}
	docs := []search.Document{
		search.NewDocument("a-k", "ka"),
		search.NewDocument("b-k", "kb"),
		search.NewDocument("b-d", "db"),
	}

	results, err := Merge(hits, docs)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"b", "a", "b"}, []string{results[0].ID, results[1].ID, results[2].ID})
	assert.Equal(t, ptr(0.7), results[0].DescriptionDistance)
	assert.Equal(t, ptr(0.5), results[2].KeywordDistance)
	assert.Equal(t, ptr("db"), results[0].Description)
	assert.Nil(t, results[1].Description)
}
