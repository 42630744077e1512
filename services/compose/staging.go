// Package compose stages rewritten compose files and runs the compose CLI
// against them.
package compose

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/ezenkico/deploy-commander/devmount/models"
	"github.com/ezenkico/deploy-commander/devmount/services/rewrite"
)

const stagedFileMode = 0o644

type StageOptions struct {
	Mode       models.ConsistencyMode
	Structural bool
	Logger     *zap.SugaredLogger
}

// Staged is the set of rewritten files for one invocation.
type Staged struct {
	// Files are absolute paths in compose -f order.
	Files []string

	once sync.Once
	err  error
}

// StagedName returns the sibling file a compose file is rewritten to.
func StagedName(path string) string {
	return filepath.Join(filepath.Dir(path), models.StagedFilePrefix+filepath.Base(path))
}

// Stage rewrites docker-compose.yml (required) and docker-compose.override.yml
// (optional) found in dir. The caller must call Cleanup.
func Stage(dir string, targets models.TargetSet, opts StageOptions) (*Staged, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir %q: %w", dir, err)
	}

	staged := &Staged{}
	sources := []struct {
		name     string
		required bool
	}{
		{models.PrimaryComposeFile, true},
		{models.OverrideComposeFile, false},
	}

	for _, src := range sources {
		path := filepath.Join(abs, src.name)

		doc, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && !src.required {
				log.Debugw("no override file", "path", path)
				continue
			}
			_ = staged.Cleanup()
			return nil, fmt.Errorf("read compose file %q: %w", path, err)
		}

		out, err := RewriteDocument(doc, targets, opts.Mode, opts.Structural)
		if err != nil {
			_ = staged.Cleanup()
			return nil, fmt.Errorf("rewrite %q: %w", path, err)
		}

		dst := StagedName(path)
		// Track before writing so a partial failure is still cleaned up.
		staged.Files = append(staged.Files, dst)
		if err := renameio.WriteFile(dst, out, stagedFileMode); err != nil {
			_ = staged.Cleanup()
			return nil, fmt.Errorf("write staged file %q: %w", dst, err)
		}

		log.Debugw("staged compose file", "source", path, "staged", dst)
	}

	return staged, nil
}

// RewriteDocument runs one compose document through the line filter, or
// through the YAML tree rewriter when structural is set.
func RewriteDocument(doc []byte, targets models.TargetSet, mode models.ConsistencyMode, structural bool) ([]byte, error) {
	if structural {
		return rewrite.RewriteStructural(doc, targets, mode)
	}

	var buf bytes.Buffer
	if err := rewrite.RewriteReader(bytes.NewReader(doc), &buf, targets, mode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Cleanup removes every staged file. It is safe to call more than once and
// from several goroutines; later calls return the first result.
func (s *Staged) Cleanup() error {
	s.once.Do(func() {
		var errs []error
		for _, f := range s.Files {
			if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
		}
		s.err = errors.Join(errs...)
	})
	return s.err
}
