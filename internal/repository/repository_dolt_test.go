//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/dolt"

	"github.com/stellarium-catalog/corestar/internal/types"
)

// TestRepositoryAgainstDolt proves the repository's SQL is backend-neutral
// (spec §4.D: "Contract is backend-neutral") by running the same CRUD
// sequence against a real Dolt sql-server container over the MySQL wire
// protocol, reusing DialectMySQL's driver path.
func TestRepositoryAgainstDolt(t *testing.T) {
	ctx := context.Background()

	container, err := dolt.Run(ctx, "dolthub/dolt-sql-server:1.32.4",
		dolt.WithDatabase("corestar"),
		dolt.WithUsername("root"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	repo, err := Open(ctx, DialectMySQL, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	obj := &types.CelestialObject{
		Identifier: "M31", Type: "Galaxy", RADeg: 10.68, DecDeg: 41.27,
		VisualMagnitude: 3.44, Aliases: "Andromeda Galaxy, NGC224",
	}
	id, err := repo.Insert(ctx, obj)
	require.NoError(t, err)
	require.Positive(t, id)

	found, err := repo.FindByIdentifier(ctx, "NGC224")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "M31", found.Identifier)

	found.VisualMagnitude = 3.5
	ok, err := repo.Update(ctx, found)
	require.NoError(t, err)
	require.True(t, ok)

	reread, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 3.5, reread.VisualMagnitude)

	removed, err := repo.Remove(ctx, id)
	require.NoError(t, err)
	require.True(t, removed)
}
