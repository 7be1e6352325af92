package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"flight-entrypoint/config"
)

// orderedStages records each stage invocation and fails the named ones.
func orderedStages(order *[]string, fail map[string]error) stages {
	step := func(name string) func(context.Context) error {
		return func(ctx context.Context) error {
			*order = append(*order, name)
			return fail[name]
		}
	}
	return stages{
		ensure:  step("ensure"),
		wait:    step("wait"),
		migrate: step("migrate"),
		seed:    step("seed"),
		cache:   step("cache"),
		launch: func() (int, error) {
			*order = append(*order, "launch")
			return 0, fail["launch"]
		},
	}
}

func assertOrder(t *testing.T, got []string, expected ...string) {
	t.Helper()
	if strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected stage order %v, got %v", expected, got)
	}
}

func TestRunStageOrder(t *testing.T) {
	var order []string
	cfg := &config.Config{}

	code, err := run(context.Background(), cfg, orderedStages(&order, nil))
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if code != 0 {
		t.Errorf("Expected exit code 0, got %d", code)
	}
	assertOrder(t, order, "wait", "migrate", "seed", "launch")
}

func TestRunAllStagesEnabled(t *testing.T) {
	var order []string
	cfg := &config.Config{CreateDatabase: true, WaitForRedis: true}

	if _, err := run(context.Background(), cfg, orderedStages(&order, nil)); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	assertOrder(t, order, "ensure", "wait", "migrate", "seed", "cache", "launch")
}

func TestRunWaitFailureAborts(t *testing.T) {
	var order []string
	cfg := &config.Config{}
	fail := map[string]error{"wait": errors.New("connection refused")}

	_, err := run(context.Background(), cfg, orderedStages(&order, fail))
	if err == nil {
		t.Fatal("Expected wait failure to abort startup")
	}
	if !strings.Contains(err.Error(), "wait for postgres") {
		t.Errorf("Expected wait error, got %v", err)
	}
	assertOrder(t, order, "wait")
}

func TestRunMigrationFailureStopsSeed(t *testing.T) {
	var order []string
	cfg := &config.Config{}
	fail := map[string]error{"migrate": errors.New("syntax error in migration")}

	_, err := run(context.Background(), cfg, orderedStages(&order, fail))
	if err == nil {
		t.Fatal("Expected migration failure to abort startup")
	}
	if !strings.Contains(err.Error(), "run migrations") {
		t.Errorf("Expected migration error, got %v", err)
	}
	assertOrder(t, order, "wait", "migrate")
}

func TestRunSeedFailureStopsLaunch(t *testing.T) {
	var order []string
	cfg := &config.Config{}
	fail := map[string]error{"seed": errors.New("constraint violation")}

	_, err := run(context.Background(), cfg, orderedStages(&order, fail))
	if err == nil {
		t.Fatal("Expected seed failure to abort startup")
	}
	if !strings.Contains(err.Error(), "seed database") {
		t.Errorf("Expected seed error, got %v", err)
	}
	assertOrder(t, order, "wait", "migrate", "seed")
}

func TestRunSkipFlags(t *testing.T) {
	var order []string
	cfg := &config.Config{SkipMigrations: true, SkipSeed: true}

	if _, err := run(context.Background(), cfg, orderedStages(&order, nil)); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	assertOrder(t, order, "wait", "launch")
}

func TestRunEnsureFailureIsNonFatal(t *testing.T) {
	var order []string
	cfg := &config.Config{CreateDatabase: true}
	fail := map[string]error{"ensure": errors.New("permission denied")}

	if _, err := run(context.Background(), cfg, orderedStages(&order, fail)); err != nil {
		t.Fatalf("Expected database creation failure to be tolerated, got %v", err)
	}
	assertOrder(t, order, "ensure", "wait", "migrate", "seed", "launch")
}

func TestRunCacheFailureIsNonFatal(t *testing.T) {
	var order []string
	cfg := &config.Config{WaitForRedis: true}
	fail := map[string]error{"cache": errors.New("redis not ready")}

	if _, err := run(context.Background(), cfg, orderedStages(&order, fail)); err != nil {
		t.Fatalf("Expected cache failure to be tolerated, got %v", err)
	}
	assertOrder(t, order, "wait", "migrate", "seed", "cache", "launch")
}

func TestRunReportsLaunchError(t *testing.T) {
	var order []string
	cfg := &config.Config{}
	fail := map[string]error{"launch": errors.New("no such file or directory")}

	_, err := run(context.Background(), cfg, orderedStages(&order, fail))
	if err == nil {
		t.Fatal("Expected launch failure to surface")
	}
	assertOrder(t, order, "wait", "migrate", "seed", "launch")
}

func TestRunReturnsChildExitCode(t *testing.T) {
	var order []string
	cfg := &config.Config{}
	s := orderedStages(&order, nil)
	s.launch = func() (int, error) {
		order = append(order, "launch")
		return 7, nil
	}

	code, err := run(context.Background(), cfg, s)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if code != 7 {
		t.Errorf("Expected the child exit code to pass through, got %d", code)
	}
}
