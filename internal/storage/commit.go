package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ciamek94/scraper/internal/models"
	"github.com/ciamek94/scraper/internal/remote"
)

// stagingSuffix marks artifacts written by the current run but not yet
// promoted over their committed counterparts.
const stagingSuffix = ".staging"

// Phase tracks the commit state machine: staged artifacts are only promoted
// to committed ones after every remote transfer has been verified.
type Phase int

const (
	PhaseStaged Phase = iota
	PhaseRemoteVerified
	PhaseCommitted
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseStaged:
		return "staged"
	case PhaseRemoteVerified:
		return "remote-verified"
	case PhaseCommitted:
		return "committed"
	default:
		return "aborted"
	}
}

// Coordinator owns the dual-write commit protocol. With a remote configured
// the sequence is stage → refresh credentials → upload all artifacts →
// rename each staged file over its committed counterpart; any remote failure
// deletes the staged files and leaves the committed artifacts untouched.
// Without a remote, staged artifacts are promoted directly.
type Coordinator struct {
	log     *slog.Logger
	workDir string
	backend remote.Backend // nil means local-only commits
	folder  string
}

func NewCoordinator(log *slog.Logger, workDir string, backend remote.Backend, folder string) *Coordinator {
	return &Coordinator{log: log, workDir: workDir, backend: backend, folder: folder}
}

// LocalPath returns the committed location of an artifact.
func (c *Coordinator) LocalPath(name string) string {
	return filepath.Join(c.workDir, name)
}

func (c *Coordinator) remotePath(name string) string {
	if c.folder == "" {
		return name
	}
	return c.folder + "/" + name
}

// Restore pulls the committed artifacts down from the remote before a run,
// so a fresh working directory starts from the last committed state. A
// missing remote artifact is normal (first run); a failed credential check
// is fatal; an individual download failure is logged and skipped, leaving
// whatever local copy exists in place.
func (c *Coordinator) Restore(ctx context.Context) error {
	const opn = "storage.Coordinator.Restore"

	if c.backend == nil {
		return nil
	}
	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return fmt.Errorf("%s: failed to create work dir: %w", opn, err)
	}

	if err := c.backend.Refresh(ctx); err != nil {
		return fmt.Errorf("%s: credential check failed: %w", opn, err)
	}

	for _, name := range ArtifactNames() {
		if err := c.download(ctx, name); err != nil {
			if errors.Is(err, remote.ErrNotFound) {
				continue
			}
			c.log.WarnContext(ctx, "artifact download failed, keeping local copy", "artifact", name, "error", err)
		}
	}

	return nil
}

func (c *Coordinator) download(ctx context.Context, name string) error {
	rc, err := c.backend.Download(ctx, c.remotePath(name))
	if err != nil {
		return err
	}
	defer rc.Close()

	f, err := os.Create(c.LocalPath(name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", c.LocalPath(name), err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.LocalPath(name), err)
	}

	c.log.DebugContext(ctx, "restored artifact", "artifact", name)
	return nil
}

// Commit persists the post-merge, post-eviction collections and run state,
// all-or-nothing across every artifact.
func (c *Coordinator) Commit(ctx context.Context, accepted, rejected []models.Record, state models.RunState) error {
	const opn = "storage.Coordinator.Commit"

	if err := os.MkdirAll(c.workDir, 0o755); err != nil {
		return fmt.Errorf("%s: failed to create work dir: %w", opn, err)
	}

	if err := c.stage(accepted, rejected, state); err != nil {
		c.discardStaged(ctx)
		return fmt.Errorf("%s: %w", opn, err)
	}
	c.log.InfoContext(ctx, "commit phase", "phase", PhaseStaged)

	if c.backend != nil {
		if err := c.backend.Refresh(ctx); err != nil {
			c.discardStaged(ctx)
			c.log.ErrorContext(ctx, "commit phase", "phase", PhaseAborted, "error", err)
			return fmt.Errorf("%s: credential check failed: %w", opn, err)
		}

		for _, name := range ArtifactNames() {
			if err := c.upload(ctx, name); err != nil {
				c.discardStaged(ctx)
				c.log.ErrorContext(ctx, "commit phase", "phase", PhaseAborted, "artifact", name, "error", err)
				return fmt.Errorf("%s: upload of %s failed: %w", opn, name, err)
			}
		}
		c.log.InfoContext(ctx, "commit phase", "phase", PhaseRemoteVerified)
	}

	for _, name := range ArtifactNames() {
		staged := c.LocalPath(name) + stagingSuffix
		if err := os.Rename(staged, c.LocalPath(name)); err != nil {
			return fmt.Errorf("%s: failed to promote %s: %w", opn, name, err)
		}
	}
	c.log.InfoContext(ctx, "commit phase", "phase", PhaseCommitted)

	return nil
}

// stage writes every artifact to its staging path, never touching the
// previously committed files.
func (c *Coordinator) stage(accepted, rejected []models.Record, state models.RunState) error {
	staged := func(name string) string { return c.LocalPath(name) + stagingSuffix }

	if err := WriteRecordsJSON(staged(FileAcceptedJSON), accepted); err != nil {
		return err
	}
	if err := WriteRecordsXLSX(staged(FileAcceptedXLSX), accepted); err != nil {
		return err
	}
	if err := WriteRecordsJSON(staged(FileRejectedJSON), rejected); err != nil {
		return err
	}
	if err := WriteRecordsXLSX(staged(FileRejectedXLSX), rejected); err != nil {
		return err
	}
	return WriteRunState(staged(FileRunState), state)
}

func (c *Coordinator) upload(ctx context.Context, name string) error {
	f, err := os.Open(c.LocalPath(name) + stagingSuffix)
	if err != nil {
		return fmt.Errorf("failed to open staged artifact: %w", err)
	}
	defer f.Close()

	return c.backend.Upload(ctx, c.remotePath(name), f)
}

func (c *Coordinator) discardStaged(ctx context.Context) {
	for _, name := range ArtifactNames() {
		staged := c.LocalPath(name) + stagingSuffix
		if err := os.Remove(staged); err != nil && !os.IsNotExist(err) {
			c.log.WarnContext(ctx, "failed to remove staged artifact", "path", staged, "error", err)
		}
	}
}
