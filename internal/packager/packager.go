// Package packager is the Artifact Packager: it writes the final
// config.json and results.json for a run and bundles the run's directory
// into a single zip archive, matching the original's
// save_dag_data_in_zip step.
package packager

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ArtemOtr/taskflow/internal/dag"
	"github.com/ArtemOtr/taskflow/internal/results"
	"github.com/ArtemOtr/taskflow/internal/taskerr"
	"github.com/mholt/archives"
)

// Packager writes and zips one run's artifact directory.
type Packager struct {
	// RunDir is the parent directory each run's working files live
	// under, the same root internal/executor.Executor.RunDir relocates
	// output files into.
	RunDir string
}

// New builds a Packager rooted at runDir.
func New(runDir string) *Packager {
	return &Packager{RunDir: runDir}
}

// Package writes config.json (cfg stamped with runID as dag_id) and
// results.json into the run's directory, then zips the whole directory
// next to it as "<run_id>.zip". Returns the path to the zip file.
func (p *Packager) Package(ctx context.Context, runID string, cfg dag.Config, res *results.Map) (string, error) {
	runDir := filepath.Join(p.RunDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", taskerr.Packagingf(err, "create run directory")
	}

	stamped := cfg
	stamped.DAGID = runID
	if err := writeJSON(filepath.Join(runDir, "config.json"), stamped); err != nil {
		return "", taskerr.Packagingf(err, "write config.json")
	}
	if err := writeJSON(filepath.Join(runDir, "results.json"), res.Snapshot()); err != nil {
		return "", taskerr.Packagingf(err, "write results.json")
	}

	zipPath := filepath.Join(p.RunDir, fmt.Sprintf("%s.zip", runID))
	if err := p.zipDirectory(ctx, runDir, zipPath); err != nil {
		return "", taskerr.Packagingf(err, "zip run directory")
	}

	return zipPath, nil
}

// writeJSON writes v to path atomically: marshal to a temp file in the
// same directory, then rename over the destination, so a reader never
// observes a partially-written config.json or results.json.
func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (p *Packager) zipDirectory(ctx context.Context, srcDir, zipPath string) error {
	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{srcDir: ""})
	if err != nil {
		return fmt.Errorf("collect files: %w", err)
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer out.Close()

	format := archives.Zip{}
	if err := format.Archive(ctx, out, files); err != nil {
		return fmt.Errorf("write zip: %w", err)
	}
	return nil
}
