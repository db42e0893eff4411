package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ignite/customer-intelligence/internal/dataset"
)

func sampleTables() []dataset.Table {
	return []dataset.Table{
		{
			Name:   "kpi_totals",
			Header: []string{"total_revenue", "avg_order_value"},
			Rows:   [][]string{{"150", "75"}},
		},
		{
			Name:   "kpi_monthly_revenue",
			Header: []string{"month", "monthly_revenue"},
			Rows:   [][]string{{"2024-01", "100"}, {"2024-03", "50"}},
		},
	}
}

func TestLocalPublisher(t *testing.T) {
	dir := t.TempDir()
	pub := NewLocalPublisher(dir)

	if err := pub.Publish(context.Background(), "run-1", sampleTables()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "run-1", "kpi_totals.csv"))
	if err != nil {
		t.Fatalf("expected published artifact: %v", err)
	}
	want := "total_revenue,avg_order_value\n150,75\n"
	if string(data) != want {
		t.Errorf("unexpected content:\ngot  %q\nwant %q", string(data), want)
	}

	latest, err := pub.LatestRunID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != "run-1" {
		t.Errorf("expected latest pointer run-1, got %q", latest)
	}
}

func TestLocalPublisherLatestFollowsNewestRun(t *testing.T) {
	dir := t.TempDir()
	pub := NewLocalPublisher(dir)
	ctx := context.Background()

	if err := pub.Publish(ctx, "run-1", sampleTables()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pub.Publish(ctx, "run-2", sampleTables()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	latest, err := pub.LatestRunID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != "run-2" {
		t.Errorf("expected latest pointer run-2, got %q", latest)
	}

	// Earlier run directories stay intact.
	if _, err := os.Stat(filepath.Join(dir, "run-1", "kpi_totals.csv")); err != nil {
		t.Errorf("expected run-1 artifacts to remain: %v", err)
	}
}

func TestLocalPublisherNoStagingLeftBehind(t *testing.T) {
	dir := t.TempDir()
	pub := NewLocalPublisher(dir)

	if err := pub.Publish(context.Background(), "run-1", sampleTables()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "run-1" && e.Name() != "latest" {
			t.Errorf("unexpected entry left behind: %s", e.Name())
		}
	}
}

func TestLocalPublisherLatestMissing(t *testing.T) {
	pub := NewLocalPublisher(t.TempDir())

	latest, err := pub.LatestRunID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != "" {
		t.Errorf("expected empty latest pointer, got %q", latest)
	}
}
