package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/closedclaw/warden/audit"
	"github.com/closedclaw/warden/authz"
	"github.com/closedclaw/warden/db"
)

func TestOneShotDecisionAudited(t *testing.T) {
	dir := t.TempDir()
	viper.Reset()
	setDefaults()
	viper.Set("db.dsn", filepath.Join(dir, "warden.db"))
	viper.Set("audit.jsonl_path", filepath.Join(dir, "audit.jsonl"))
	t.Cleanup(viper.Reset)

	res, err := oneShotDecision(context.Background(), "help", newLogger())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Granted() || res.RequiredLevel != authz.LevelAuto {
		t.Fatalf("expected granted L1 decision, got %s / %s", res.Decision, res.RequiredLevel)
	}

	// The decision must be on the trail by the time the command exits.
	gdb, err := db.Open(context.Background(), dbConfigFromViper())
	if err != nil {
		t.Fatal(err)
	}
	recs, err := audit.NewGormStore(gdb).Query(context.Background(), audit.Filter{ActionKind: "help"})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one audit record, got %d", len(recs))
	}
	if recs[0].Outcome != audit.OutcomeGranted {
		t.Fatalf("expected granted outcome, got %s", recs[0].Outcome)
	}
}
