package testutil

import (
	"context"
	"testing"
)

func TestEnvBool(t *testing.T) {
	cases := map[string]bool{
		"1": true, "true": true, "YES": true, " on ": true,
		"": false, "0": false, "no": false, "maybe": false,
	}
	for value, want := range cases {
		t.Setenv("TESTUTIL_FLAG", value)
		if got := EnvBool("TESTUTIL_FLAG"); got != want {
			t.Errorf("EnvBool(%q) = %v, want %v", value, got, want)
		}
	}
}

func TestSetupTestSQLite_AppliesMigrations(t *testing.T) {
	db := SetupTestSQLite(t)

	var count int
	if err := db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM kv`).Scan(&count); err != nil {
		t.Fatalf("kv table missing: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty kv table, got %d rows", count)
	}
}

func TestFixedTimeFunc(t *testing.T) {
	now := TestTime()
	if got := FixedTimeFunc(now)(); !got.Equal(now) {
		t.Fatalf("FixedTimeFunc() = %v, want %v", got, now)
	}
}
