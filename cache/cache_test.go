package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakePinger struct {
	failures int
	calls    int
}

func (f *fakePinger) Ping(ctx context.Context) *redis.StatusCmd {
	f.calls++
	cmd := redis.NewStatusCmd(ctx)
	if f.calls <= f.failures {
		cmd.SetErr(errors.New("connection refused"))
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func shortRetryInterval(t *testing.T) {
	t.Helper()
	old := retryInterval
	retryInterval = time.Millisecond
	t.Cleanup(func() { retryInterval = old })
}

func TestWaitForRedisImmediateSuccess(t *testing.T) {
	pinger := &fakePinger{}

	if err := WaitForRedis(context.Background(), pinger, 10*time.Second); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if pinger.calls != 1 {
		t.Errorf("Expected a single ping, got %d", pinger.calls)
	}
}

func TestWaitForRedisRecoversAfterFailures(t *testing.T) {
	shortRetryInterval(t)
	pinger := &fakePinger{failures: 2}

	if err := WaitForRedis(context.Background(), pinger, time.Second); err != nil {
		t.Fatalf("Expected recovery, got %v", err)
	}
	if pinger.calls != 3 {
		t.Errorf("Expected 3 pings, got %d", pinger.calls)
	}
}

func TestWaitForRedisTimeout(t *testing.T) {
	shortRetryInterval(t)
	pinger := &fakePinger{failures: 1 << 30}

	err := WaitForRedis(context.Background(), pinger, 20*time.Millisecond)
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if !strings.Contains(err.Error(), "redis not ready within") {
		t.Errorf("Expected timeout message, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Expected the last ping error to be wrapped, got %v", err)
	}
}

func TestWaitForRedisCanceledContext(t *testing.T) {
	pinger := &fakePinger{failures: 1 << 30}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitForRedis(ctx, pinger, 10*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestWaitForRedisDefaultTimeout(t *testing.T) {
	pinger := &fakePinger{}

	// A zero timeout falls back to the default rather than failing instantly.
	if err := WaitForRedis(context.Background(), pinger, 0); err != nil {
		t.Fatalf("Expected success with default timeout, got %v", err)
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("redis:6379", "hunter2")
	defer func() { _ = client.Close() }()

	opts := client.Options()
	if opts.Addr != "redis:6379" {
		t.Errorf("Expected addr redis:6379, got %s", opts.Addr)
	}
	if opts.Password != "hunter2" {
		t.Errorf("Expected configured password, got %q", opts.Password)
	}
	if opts.DB != 0 {
		t.Errorf("Expected default DB, got %d", opts.DB)
	}
	if opts.DialTimeout != 2*time.Second {
		t.Errorf("Expected 2s dial timeout, got %v", opts.DialTimeout)
	}
}
