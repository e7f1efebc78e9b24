package assets

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"assets_copy/util/file"
	"assets_copy/util/slice"

	"github.com/alitto/pond"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Entry represents file, directory or symbolic link found directly in the source directory
type Entry struct {
	Name  string
	Src   string
	Dst   string
	IsDir bool
}

// SourceNotFoundError represents error thrown if source directory does not exist
type SourceNotFoundError struct {
	Path string
}

// Error is used to satisfy golang error interface
func (e SourceNotFoundError) Error() string {
	return fmt.Sprintf("Source directory does not exist: %v", e.Path)
}

// NotADirError represents error thrown if source path is not a directory
type NotADirError struct {
	Path string
}

// Error is used to satisfy golang error interface
func (e NotADirError) Error() string {
	return fmt.Sprintf("Source path is not a directory: %v", e.Path)
}

// DstInsideSrcError represents error thrown if destination directory is the source directory or is inside of it
type DstInsideSrcError struct {
	Src string
	Dst string
}

// Error is used to satisfy golang error interface
func (e DstInsideSrcError) Error() string {
	return fmt.Sprintf("Can not copy %v to itself or to its own subdirectory %v", e.Src, e.Dst)
}

// Run copies every entry of <src> directory to <dst> directory and returns amount of entries copied.
//
// Nothing is written if <src> is missing, is not a directory or contains <dst>.
//
// Can return errors defined in this package: SourceNotFoundError, NotADirError, DstInsideSrcError.
func (r repo) Run(ctx context.Context, src, dst string) (int, error) {
	entries, err := r.List(src, dst)
	if err != nil {
		return 0, err
	}
	if err := checkDst(src, dst); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return 0, errors.Wrap(err, "Create destination directory")
	}

	r.log.Infof("Copying %v entries from %v to %v", len(entries), src, dst)
	if err := r.Copy(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// List returns entries found directly in <src> directory with destination paths in <dst> directory, sorted by name.
//
// Entries matching any Copy.Exclude expression of config are omitted.
func (r repo) List(src, dst string) ([]Entry, error) {
	info, err := os.Stat(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, SourceNotFoundError{Path: src}
	}
	if err != nil {
		return nil, errors.Wrap(err, "Stat source directory")
	}
	if !info.IsDir() {
		return nil, NotADirError{Path: src}
	}

	dirEntries, err := os.ReadDir(src)
	if err != nil {
		return nil, errors.Wrap(err, "Read source directory")
	}

	dirEntries = lo.Reject(dirEntries, func(d fs.DirEntry, _ int) bool {
		if r.isExcluded(d.Name()) {
			r.log.WithField("entry", d.Name()).Debug("Excluding entry")
			return true
		}
		return false
	})

	return lo.Map(dirEntries, func(d fs.DirEntry, _ int) Entry {
		return Entry{
			Name:  d.Name(),
			Src:   filepath.Join(src, d.Name()),
			Dst:   filepath.Join(dst, d.Name()),
			IsDir: d.IsDir(),
		}
	}), nil
}

// Copy recursively copies every entry of <entries> to it's destination.
//
// Entries are copied simultaneously by up to Copy.MaxWorkers workers. The first failed entry cancels the rest and it's
// error is returned after all started copies stop.
func (r repo) Copy(ctx context.Context, entries []Entry) error {
	pool := pond.New(r.cfg.Copy.Workers(), 0, pond.MinWorkers(0))
	defer pool.StopAndWait()

	group, groupCtx := pool.GroupContext(ctx)
	var entriesDone atomic.Int64

	// getProgress returns formatted progress of entries processed
	getProgress := func() string {
		done := int(entriesDone.Load())
		percent := 100
		if len(entries) > 0 {
			percent = (done * 100) / len(entries)
		}
		return fmt.Sprintf("%v / %v (%v%%)", done, len(entries), percent)
	}

	for _, e := range entries {
		e := e
		opts := file.TreeOpts{
			PreserveTimes: r.cfg.Copy.PreserveTimes,
			Dereference:   r.cfg.Copy.Dereference,
			Skip: func(rel string) bool {
				return r.isExcluded(path.Join(e.Name, rel))
			},
		}
		group.Submit(func() error {
			r.log.WithFields(logrus.Fields{"entry": e.Name, "dir": e.IsDir, "progress": getProgress()}).
				Debug("Start copying entry")
			if err := file.CopyTree(groupCtx, e.Src, e.Dst, opts); err != nil {
				return errors.Wrapf(err, "Copy %v", e.Name)
			}
			entriesDone.Add(1)
			r.log.WithFields(logrus.Fields{"entry": e.Name, "progress": getProgress()}).Debug("End copying entry")
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	// Tasks are skipped without error if context was canceled before they started
	return errors.Wrap(ctx.Err(), "Copy entries")
}

// isExcluded returns true if slash separated path <rel> matches any Copy.Exclude expression of config
func (r repo) isExcluded(rel string) bool {
	return slice.AnyRxMatch(r.cfg.Copy.Exclude, rel)
}

// checkDst returns DstInsideSrcError if <dst> is <src> or is located inside of <src>
func checkDst(src, dst string) error {
	absSrc, err := realPath(src)
	if err != nil {
		return errors.Wrap(err, "Resolve source directory")
	}
	absDst, err := realPath(dst)
	if err != nil {
		return errors.Wrap(err, "Resolve destination directory")
	}
	rel, err := filepath.Rel(absSrc, absDst)
	if err != nil {
		// Different volumes
		return nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil
	}
	return DstInsideSrcError{Src: src, Dst: dst}
}

// realPath returns absolute <p> with symbolic links of it's longest existing parent resolved
func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	var missing []string
	for {
		resolved, err := filepath.EvalSymlinks(abs)
		if err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return filepath.Join(append([]string{abs}, missing...)...), nil
		}
		missing = append([]string{filepath.Base(abs)}, missing...)
		abs = parent
	}
}
