package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellarium-catalog/corestar/internal/types"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(context.Background(), DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func m31Object() *types.CelestialObject {
	return &types.CelestialObject{
		Identifier:      "M31",
		Type:            "Galaxy",
		Constellation:   "Andromeda",
		RADeg:           10.6847,
		DecDeg:          41.2689,
		VisualMagnitude: 3.44,
		Aliases:         "Andromeda Galaxy, NGC224",
	}
}

func TestInsertAndFindByIdentifierScenarioS1(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, m31Object())
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := repo.FindByIdentifier(ctx, "M31")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Galaxy", got.Type)
}

func TestFindByIdentifierAliasFallback(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, err := repo.Insert(ctx, m31Object())
	require.NoError(t, err)

	got, err := repo.FindByIdentifier(ctx, "NGC224")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "M31", got.Identifier)
}

func TestFindByIdentifierNotFoundReturnsNilNil(t *testing.T) {
	repo := newTestRepo(t)
	got, err := repo.FindByIdentifier(context.Background(), "NoSuchObject")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsertRejectsDuplicateIdentifier(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, err := repo.Insert(ctx, m31Object())
	require.NoError(t, err)

	_, err = repo.Insert(ctx, m31Object())
	assert.Error(t, err)
}

func TestInsertRejectsInvalidCoordinates(t *testing.T) {
	repo := newTestRepo(t)
	bad := m31Object()
	bad.RADeg = 400
	id, err := repo.Insert(context.Background(), bad)
	assert.Error(t, err)
	assert.Equal(t, int64(-1), id)
}

func TestUpdateAndRemove(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	obj := m31Object()
	_, err := repo.Insert(ctx, obj)
	require.NoError(t, err)

	obj.VisualMagnitude = 4.0
	ok, err := repo.Update(ctx, obj)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByID(ctx, obj.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.VisualMagnitude)

	ok, err = repo.Remove(ctx, obj.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = repo.FindByID(ctx, obj.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSearchByNameWildcards(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for _, id := range []string{"M31", "M32", "M33", "NGC224"} {
		o := m31Object()
		o.Identifier = id
		o.Aliases = ""
		_, err := repo.Insert(ctx, o)
		require.NoError(t, err)
	}

	got, err := repo.SearchByName(ctx, "M3*", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	got, err = repo.SearchByName(ctx, "224", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NGC224", got[0].Identifier)
}

func TestSearchScenarioS5(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, err := repo.Insert(ctx, m31Object())
	require.NoError(t, err)

	m42 := m31Object()
	m42.Identifier = "M42"
	m42.Aliases = ""
	m42.RADeg = 83.8
	m42.DecDeg = -5.4
	m42.VisualMagnitude = 4.0
	_, err = repo.Insert(ctx, m42)
	require.NoError(t, err)

	filter := types.DefaultCelestialSearchFilter()
	filter.MinRA, filter.MaxRA = 0, 20
	filter.MinDec, filter.MaxDec = 30, 50
	filter.MinMagnitude, filter.MaxMagnitude = 0, 5
	filter.Type = "Galaxy"

	got, err := repo.Search(ctx, filter)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "M31", got[0].Identifier)
}

func TestFuzzySearchScenarioLikeS2(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	o1 := m31Object()
	o1.Identifier = "Andromeda"
	o1.Aliases = ""
	_, err := repo.Insert(ctx, o1)
	require.NoError(t, err)

	o2 := m31Object()
	o2.Identifier = "Androemda"
	o2.Aliases = ""
	_, err = repo.Insert(ctx, o2)
	require.NoError(t, err)

	got, err := repo.FuzzySearch(ctx, "Andromeda", 2, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Andromeda", got[0].Identifier)
	assert.Equal(t, "Androemda", got[1].Identifier)
}

func TestIncrementClickCountMonotonic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, err := repo.Insert(ctx, m31Object())
	require.NoError(t, err)

	n1, err := repo.IncrementClickCount(ctx, "M31")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n1)

	n2, err := repo.IncrementClickCount(ctx, "M31")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n2)
}

func TestIncrementClickCountUnknownIdentifier(t *testing.T) {
	repo := newTestRepo(t)
	n, err := repo.IncrementClickCount(context.Background(), "NoSuchObject")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)
}

func TestBatchInsertAllOrNothingPerChunk(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	good := m31Object()
	good.Aliases = ""
	bad := &types.CelestialObject{Identifier: ""} // invalid: empty identifier

	result, err := repo.BatchInsert(ctx, []*types.CelestialObject{good, bad})
	assert.Error(t, err)
	assert.Equal(t, 0, result.SuccessfulChunks)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestUpsertInsertsThenUpdates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	obj := m31Object()
	obj.Aliases = ""

	require.NoError(t, repo.Upsert(ctx, obj))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	obj.VisualMagnitude = 9.9
	require.NoError(t, repo.Upsert(ctx, obj))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.FindByIdentifier(ctx, "M31")
	require.NoError(t, err)
	assert.Equal(t, 9.9, got.VisualMagnitude)
}

func TestClearAllRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, err := repo.Insert(ctx, m31Object())
	require.NoError(t, err)
	require.NoError(t, repo.RecordSearch(ctx, "user-1", "M31", "exact", 1))

	require.NoError(t, repo.ClearAll(ctx, false))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	history, err := repo.GetSearchHistory(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, history, "history preserved when includeHistory=false")

	require.NoError(t, repo.ClearAll(ctx, true))
	history, err = repo.GetSearchHistory(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGetStatistics(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, err := repo.Insert(ctx, m31Object())
	require.NoError(t, err)

	stats, err := repo.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalObjects)
	assert.Equal(t, int64(1), stats.CountByType["Galaxy"])
	assert.Equal(t, int64(1), stats.WithAliases)
}

func TestAddRatingUpsertUnique(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id, err := repo.Insert(ctx, m31Object())
	require.NoError(t, err)

	require.NoError(t, repo.AddRating(ctx, "user-1", id, 3))
	require.NoError(t, repo.AddRating(ctx, "user-1", id, 5))

	ratings, err := repo.GetUserRatings(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5, ratings[0].Rating)

	avg, err := repo.GetAverageRating(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5.0, avg)
}

func TestGetByTypeAndMagnitudeRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, m31Object())
	require.NoError(t, err)

	m42 := m31Object()
	m42.Identifier = "M42"
	m42.Aliases = ""
	m42.Type = "Nebula"
	m42.VisualMagnitude = 4.0
	_, err = repo.Insert(ctx, m42)
	require.NoError(t, err)

	byType, err := repo.GetByType(ctx, "Galaxy", 10)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "M31", byType[0].Identifier)

	byMag, err := repo.GetByMagnitudeRange(ctx, 3.0, 3.5, 10)
	require.NoError(t, err)
	require.Len(t, byMag, 1)
	assert.Equal(t, "M31", byMag[0].Identifier)
}
