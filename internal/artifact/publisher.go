// Package artifact materializes pipeline output tables as CSV files, either
// on the local filesystem or in S3.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ignite/customer-intelligence/internal/dataset"
)

// Publisher writes one run's output tables to durable storage. A run either
// publishes every table or none; partial output must never be visible under
// the final location.
type Publisher interface {
	Publish(ctx context.Context, runID string, tables []dataset.Table) error
}

// LocalPublisher writes CSV artifacts to a local directory. Tables are staged
// in a temporary directory and moved into place in one rename, so readers
// never observe a half-written run.
type LocalPublisher struct {
	dir string
}

// NewLocalPublisher creates a filesystem publisher rooted at dir.
func NewLocalPublisher(dir string) *LocalPublisher { return &LocalPublisher{dir: dir} }

func (p *LocalPublisher) Publish(ctx context.Context, runID string, tables []dataset.Table) error {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	staging, err := os.MkdirTemp(p.dir, ".staging-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := table.EncodeCSV()
		if err != nil {
			return err
		}
		path := filepath.Join(staging, table.Name+".csv")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", table.Name, err)
		}
	}

	final := filepath.Join(p.dir, runID)
	if err := os.Rename(staging, final); err != nil {
		return fmt.Errorf("publishing run %s: %w", runID, err)
	}

	// Refresh the latest pointer after the run directory is in place.
	latest := filepath.Join(p.dir, "latest")
	tmp := latest + ".tmp"
	if err := os.WriteFile(tmp, []byte(runID+"\n"), 0644); err != nil {
		return fmt.Errorf("writing latest pointer: %w", err)
	}
	if err := os.Rename(tmp, latest); err != nil {
		return fmt.Errorf("updating latest pointer: %w", err)
	}

	return nil
}

// LatestRunID reads the latest pointer written by Publish. Returns an empty
// string when no run has been published yet.
func (p *LocalPublisher) LatestRunID() (string, error) {
	data, err := os.ReadFile(filepath.Join(p.dir, "latest"))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading latest pointer: %w", err)
	}
	id := string(data)
	for len(id) > 0 && (id[len(id)-1] == '\n' || id[len(id)-1] == '\r') {
		id = id[:len(id)-1]
	}
	return id, nil
}
