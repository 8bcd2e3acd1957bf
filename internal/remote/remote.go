// Package remote implements the backup collaborator: whole-file transfer of
// staged artifacts to a cloud store, plus an explicit credential check so
// the commit phase can re-validate credentials that may have expired during
// a long crawl.
package remote

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Download when the remote object does not exist.
var ErrNotFound = errors.New("remote object not found")

// Backend is implemented by every remote store. All calls are idempotent and
// safe to retry.
type Backend interface {
	// Refresh validates credentials, obtaining a fresh token where the
	// backend uses one. Failure is fatal to a run's commit phase.
	Refresh(ctx context.Context) error
	Upload(ctx context.Context, path string, r io.Reader) error
	Download(ctx context.Context, path string) (io.ReadCloser, error)
}
