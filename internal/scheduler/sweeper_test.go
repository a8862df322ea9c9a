package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/skillpulse/skillpulse-api/internal/models"
	"github.com/skillpulse/skillpulse-api/internal/service"
)

type countingRotation struct {
	mu     sync.Mutex
	sweeps int
	result service.SweepResult
	err    error
}

func (c *countingRotation) ShouldRotate(task models.Task) (bool, string) { return false, "" }

func (c *countingRotation) Rotate(task models.Task, reason string) models.Task { return task }

func (c *countingRotation) BatchEvaluate(tasks []models.Task) ([]models.Task, []models.Task) {
	return nil, tasks
}

func (c *countingRotation) Outlook(task models.Task) models.RotationOutlook {
	return models.RotationOutlook{}
}

func (c *countingRotation) GenerateReplacement(ctx context.Context, original models.Task) (models.Task, error) {
	return models.Task{}, nil
}

func (c *countingRotation) Stats(tasks []models.Task) models.RotationStats {
	return models.RotationStats{}
}

func (c *countingRotation) Sweep(ctx context.Context) (service.SweepResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweeps++
	return c.result, c.err
}

func (c *countingRotation) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweeps
}

func TestSweepOnceWithoutRedis(t *testing.T) {
	rotation := &countingRotation{}
	sweeper := NewSweeper(rotation, nil, time.Hour, time.Minute, time.Minute, zerolog.Nop())

	sweeper.SweepOnce(context.Background())
	require.Equal(t, 1, rotation.count())
}

func TestSweepOnceAcquiresAndReleasesLease(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	rotation := &countingRotation{}
	sweeper := NewSweeper(rotation, redisClient, time.Hour, time.Minute, time.Minute, zerolog.Nop())

	sweeper.SweepOnce(context.Background())
	require.Equal(t, 1, rotation.count())
	require.False(t, server.Exists(leaseKey))
}

func TestSweepOnceSkipsWhenLeaseHeldElsewhere(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	require.NoError(t, server.Set(leaseKey, "another-node"))

	rotation := &countingRotation{}
	sweeper := NewSweeper(rotation, redisClient, time.Hour, time.Minute, time.Minute, zerolog.Nop())

	sweeper.SweepOnce(context.Background())
	require.Zero(t, rotation.count())
	// A foreign lease is never released by this node.
	require.True(t, server.Exists(leaseKey))
}

func TestSweepLeaseExcludesConcurrentNodes(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	rotation := &countingRotation{}
	first := NewSweeper(rotation, redisClient, time.Hour, time.Minute, time.Minute, zerolog.Nop())
	second := NewSweeper(rotation, redisClient, time.Hour, time.Minute, time.Minute, zerolog.Nop())

	// Hold the lease as the first node, then let the second contend.
	acquired, err := first.acquireLease(context.Background())
	require.NoError(t, err)
	require.True(t, acquired)

	second.SweepOnce(context.Background())
	require.Zero(t, rotation.count())

	first.releaseLease(context.Background())
	second.SweepOnce(context.Background())
	require.Equal(t, 1, rotation.count())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	rotation := &countingRotation{}
	sweeper := NewSweeper(rotation, nil, 10*time.Millisecond, time.Minute, time.Minute, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return rotation.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
