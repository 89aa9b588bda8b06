package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rollkeeper/internal/config"
	"github.com/cory-johannsen/rollkeeper/internal/dice"
	"github.com/cory-johannsen/rollkeeper/internal/luck"
	"github.com/cory-johannsen/rollkeeper/internal/storage/postgres"
	"github.com/cory-johannsen/rollkeeper/internal/testutil"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

type fixture struct {
	rolls    *postgres.RollRepository
	entities *postgres.EntityRepository
}

func setupRepos(t *testing.T) fixture {
	t.Helper()
	pool := testutil.NewPool(t)
	return fixture{
		rolls:    postgres.NewRollRepository(pool),
		entities: postgres.NewEntityRepository(pool),
	}
}

func mustEvaluate(t *testing.T, formula string, faces ...int) dice.RollResult {
	t.Helper()
	r, err := dice.Evaluate(formula, dice.NewSequenceSource(faces...))
	require.NoError(t, err)
	return r
}

func TestEntityRepository_CreateAndGet(t *testing.T) {
	f := setupRepos(t)
	ctx := context.Background()

	party, err := f.entities.CreateCollection(ctx, uniqueName("party"))
	require.NoError(t, err)
	assert.Greater(t, party.ID, int64(0))

	rogue, err := f.entities.CreateEntity(ctx, "Amaryllis", party.ID)
	require.NoError(t, err)
	assert.Equal(t, party.ID, rogue.CollectionID)
	assert.False(t, rogue.CreatedAt.IsZero())

	loner, err := f.entities.CreateEntity(ctx, "Hermit", 0)
	require.NoError(t, err)
	assert.Zero(t, loner.CollectionID)

	got, err := f.entities.GetEntity(ctx, rogue.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amaryllis", got.Name)

	gotParty, err := f.entities.GetCollection(ctx, party.ID)
	require.NoError(t, err)
	assert.Equal(t, party.Name, gotParty.Name)

	members, err := f.entities.ListEntities(ctx, party.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, rogue.ID, members[0].ID)
}

func TestEntityRepository_NotFound(t *testing.T) {
	f := setupRepos(t)
	ctx := context.Background()

	_, err := f.entities.GetEntity(ctx, 999999)
	assert.ErrorIs(t, err, postgres.ErrEntityNotFound)

	_, err = f.entities.GetCollection(ctx, 999999)
	assert.ErrorIs(t, err, postgres.ErrCollectionNotFound)

	_, err = f.entities.CreateEntity(ctx, "Orphan", 999999)
	assert.ErrorIs(t, err, postgres.ErrCollectionNotFound)
}

func TestRollRepository_CreateRoundTrip(t *testing.T) {
	f := setupRepos(t)
	ctx := context.Background()

	party, err := f.entities.CreateCollection(ctx, uniqueName("party"))
	require.NoError(t, err)
	rogue, err := f.entities.CreateEntity(ctx, "Amaryllis", party.ID)
	require.NoError(t, err)

	result := mustEvaluate(t, "4d6dl1+2", 6, 1, 1, 6)
	rec, err := f.rolls.Create(ctx, rogue.ID, result)
	require.NoError(t, err)

	assert.Greater(t, rec.ID, int64(0))
	assert.Equal(t, rogue.ID, rec.EntityID)
	assert.Equal(t, "Amaryllis", rec.EntityName)
	assert.Equal(t, party.ID, rec.CollectionID)
	assert.Equal(t, "4d6dl1+2", rec.Formula)
	assert.Equal(t, 15, rec.FinalResult)
	require.NotNil(t, rec.LuckIndex)
	assert.InDelta(t, result.LuckIndex, *rec.LuckIndex, 1e-12)
	assert.False(t, rec.RolledAt.IsZero())

	comps, err := rec.Components.Decode()
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.Equal(t, []int{6, 1, 1, 6}, comps[0].Rolls)
	assert.Equal(t, []int{1}, comps[0].DroppedRolls)
	assert.Equal(t, "dl1", comps[0].DropKeep)
	assert.Equal(t, 2, comps[1].Value)
}

func TestRollRepository_CreateUnknownEntity(t *testing.T) {
	f := setupRepos(t)
	_, err := f.rolls.Create(context.Background(), 999999, mustEvaluate(t, "1d4", 2))
	assert.ErrorIs(t, err, postgres.ErrEntityNotFound)
}

func TestRollRepository_GetByIDNotFound(t *testing.T) {
	f := setupRepos(t)
	_, err := f.rolls.GetByID(context.Background(), 999999)
	assert.ErrorIs(t, err, postgres.ErrRollNotFound)
}

func TestRollRepository_ListByScopeFeedsAnalytics(t *testing.T) {
	f := setupRepos(t)
	ctx := context.Background()

	party, err := f.entities.CreateCollection(ctx, uniqueName("party"))
	require.NoError(t, err)
	rogue, err := f.entities.CreateEntity(ctx, "Amaryllis", party.ID)
	require.NoError(t, err)
	goblin, err := f.entities.CreateEntity(ctx, "Goblin", party.ID)
	require.NoError(t, err)
	hermit, err := f.entities.CreateEntity(ctx, "Hermit", 0)
	require.NoError(t, err)

	_, err = f.rolls.Create(ctx, rogue.ID, mustEvaluate(t, "1d20", 5))
	require.NoError(t, err)
	_, err = f.rolls.Create(ctx, rogue.ID, mustEvaluate(t, "1d20", 20))
	require.NoError(t, err)
	_, err = f.rolls.Create(ctx, goblin.ID, mustEvaluate(t, "1d20-1", 3))
	require.NoError(t, err)
	_, err = f.rolls.Create(ctx, hermit.ID, mustEvaluate(t, "1d6", 6))
	require.NoError(t, err)
	_, err = f.rolls.Create(ctx, 0, mustEvaluate(t, "7"))
	require.NoError(t, err)

	byEntity, err := luck.ForEntity(rogue.ID)
	require.NoError(t, err)
	records, err := f.rolls.List(ctx, byEntity)
	require.NoError(t, err)
	require.Len(t, records, 2)

	ds := luck.Load(records)
	require.Empty(t, ds.Skips())
	d20 := ds.DiceTypeAveragesByLabel()["d20"]
	assert.Equal(t, 12.5, d20.AverageRoll)
	assert.Equal(t, 1.1905, d20.LuckIndex)

	byParty, err := luck.ForCollection(party.ID)
	require.NoError(t, err)
	records, err = f.rolls.List(ctx, byParty)
	require.NoError(t, err)
	require.Len(t, records, 3)

	best, ok := luck.Load(records).LuckiestEntity(luck.DefaultMinDiceRolled)
	require.True(t, ok)
	assert.Equal(t, rogue.ID, best.EntityID)

	all, err := f.rolls.List(ctx, luck.Global())
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, 5, luck.Load(all).ModifiedRollMetrics().TotalRolls)
}

func TestRollRepository_ListEmpty(t *testing.T) {
	f := setupRepos(t)
	records, err := f.rolls.List(context.Background(), luck.Global())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPool_HealthAndRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	ctx := context.Background()

	require.NoError(t, pc.Pool.Health(ctx, 5*time.Second))

	party, err := pc.Pool.Entities().CreateCollection(ctx, uniqueName("party"))
	require.NoError(t, err)
	bard, err := pc.Pool.Entities().CreateEntity(ctx, "Bard", party.ID)
	require.NoError(t, err)
	_, err = pc.Pool.Rolls().Create(ctx, bard.ID, mustEvaluate(t, "2d4", 1, 2))
	require.NoError(t, err)

	var app string
	require.NoError(t, pc.RawPool.QueryRow(ctx, `SELECT current_setting('application_name')`).Scan(&app))
	assert.Equal(t, "rollkeeper", app)
}

func TestOpen_HealthyContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	ctx := context.Background()

	pool, err := postgres.Open(ctx, pc.Config, postgres.DefaultHealthTimeout)
	require.NoError(t, err)
	defer pool.Close()
	assert.NoError(t, pool.Health(ctx, time.Second))
}

func TestOpen_UnreachableDatabase(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:            "127.0.0.1",
		Port:            1,
		User:            "rollkeeper",
		Password:        "rollkeeper",
		Name:            "rollkeeper",
		SSLMode:         "disable",
		MaxConns:        1,
		MaxConnLifetime: time.Minute,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pool, err := postgres.Open(ctx, cfg, time.Second)
	assert.Error(t, err)
	assert.Nil(t, pool)
}
