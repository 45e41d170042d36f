package instance

import "testing"

func TestGetIDPrefersWorkerID(t *testing.T) {
	t.Setenv("WORKER_ID", "cron-1")
	t.Setenv("DYNO", "web.1")
	if got := GetID(); got != "cron-1" {
		t.Fatalf("expected cron-1 got %q", got)
	}
}

func TestGetIDFallsBackToDyno(t *testing.T) {
	t.Setenv("WORKER_ID", "")
	t.Setenv("DYNO", "worker.2")
	if got := GetID(); got != "worker.2" {
		t.Fatalf("expected worker.2 got %q", got)
	}
}
