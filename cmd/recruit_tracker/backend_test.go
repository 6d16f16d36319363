package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruit-tracker/internal/config"
	"github.com/jonathan/recruit-tracker/internal/tracker"
	"github.com/jonathan/recruit-tracker/internal/types"
)

func withFlags(t *testing.T, store, seedFile string) {
	t.Helper()
	t.Setenv("TRACKER_STORE", "")
	t.Setenv("TRACKER_SEED_FILE", "")
	t.Setenv("REDIS_URL", "")
	prevConfig, prevStore, prevSeed := configPath, storeFlag, seedFlag
	configPath, storeFlag, seedFlag = "", store, seedFile
	t.Cleanup(func() { configPath, storeFlag, seedFlag = prevConfig, prevStore, prevSeed })
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	withFlags(t, config.StoreMemory, exampleSeed)
	t.Setenv("TRACKER_PORT", "9090")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, exampleSeed, cfg.SeedFile)
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoadConfig_InvalidStore(t *testing.T) {
	withFlags(t, "sqlite", "")

	_, err := loadConfig()
	assert.ErrorContains(t, err, "'store' must be")
}

func TestOpenBackend_MemorySeeded(t *testing.T) {
	withFlags(t, config.StoreMemory, exampleSeed)
	cfg, err := loadConfig()
	require.NoError(t, err)

	ctx := context.Background()
	b, err := openBackend(ctx, cfg)
	require.NoError(t, err)
	defer b.Close()
	assert.Nil(t, b.ping)

	users, err := b.store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 5)

	svc, err := newService(cfg, b)
	require.NoError(t, err)

	// a recruiter submits a candidate, then leaves the roster
	recruiter := uuid.MustParse("00000000-0000-0000-0000-000000000004")
	actor, err := svc.ResolveActor(ctx, recruiter)
	require.NoError(t, err)
	jobs, err := svc.ListJobs(ctx, actor)
	require.NoError(t, err)
	require.NotEmpty(t, jobs)

	c, err := svc.CreateCandidate(ctx, actor, types.CreateCandidateRequest{
		JobID:  jobs[0].ID,
		Fields: map[string]any{"name": "Linus"},
	})
	require.NoError(t, err)
	require.NoError(t, b.store.DeleteUser(ctx, recruiter))

	list, err := svc.FindOrphanCandidates(ctx, tracker.SystemActor())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)
}
