package file

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// TreeOpts represents options of CopyTree
type TreeOpts struct {
	// PreserveTimes specifies if modification times of files should be copied
	PreserveTimes bool

	// Dereference specifies if symbolic links should be followed instead of recreated
	Dereference bool

	// Skip returns true if entry at <rel> path (slash separated, relative to the root of the tree) should not be
	// copied. Skipped directories are not descended into.
	Skip func(rel string) bool
}

// Copy copies <src> file path to <dst> file path, overwriting <dst> and keeping permission bits of <src>
func Copy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrap(err, "Stat source file")
	}
	return copyFile(src, dst, info, false)
}

// LinkCycleError represents error thrown if followed symbolic link points at a directory which is already being copied
type LinkCycleError struct {
	Link   string
	Target string
}

// Error is used to satisfy golang error interface
func (e LinkCycleError) Error() string {
	return fmt.Sprintf("Symbolic link %v points at %v which is already being copied", e.Link, e.Target)
}

// CopyTree recursively copies file, directory or symbolic link at <src> to <dst>.
//
// Existing directories are merged into, existing files are overwritten, unrelated entries of <dst> are left untouched.
//
// Stops with context error as soon as <ctx> is done.
//
// Can return errors defined in this package: LinkCycleError.
func CopyTree(ctx context.Context, src, dst string, opts TreeOpts) error {
	w := treeWalker{opts: opts}
	return w.copy(ctx, src, dst, "")
}

// treeWalker holds state of a single CopyTree call
type treeWalker struct {
	opts TreeOpts

	// roots represents resolved paths of directories currently walked through followed links, outermost first
	roots []string
}

// copy copies <src> to <dst>. <relBase> is slash separated path of <src> relative to the root of the tree.
func (w *treeWalker) copy(ctx context.Context, src, dst, relBase string) error {
	if w.opts.Dereference {
		if resolved, err := filepath.EvalSymlinks(src); err == nil {
			w.roots = append(w.roots, resolved)
			defer func() { w.roots = w.roots[:len(w.roots)-1] }()
		}
	}

	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			return errors.Wrap(err, "Get relative path")
		}
		treeRel := path.Join(relBase, filepath.ToSlash(rel))
		if rel != "." && w.opts.Skip != nil && w.opts.Skip(treeRel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dst, rel)

		info, err := entryInfo(p, d, w.opts.Dereference)
		if err != nil {
			return err
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			return copySymlink(p, target)
		case info.IsDir():
			if d.Type()&fs.ModeSymlink != 0 {
				if rel != "." {
					if err := w.checkCycle(p); err != nil {
						return err
					}
				}
				// WalkDir does not descend into linked directories
				return w.copy(ctx, p+string(filepath.Separator), target, treeRel)
			}
			return mkDir(target, info.Mode().Perm())
		case info.Mode().IsRegular():
			return copyFile(p, target, info, w.opts.PreserveTimes)
		default:
			return errors.Newf("Unsupported file type %v: %v", info.Mode().Type(), p)
		}
	})
}

// checkCycle returns LinkCycleError if directory symbolic <link> points at (or above) it's own parent or any directory
// currently walked through
func (w *treeWalker) checkCycle(link string) error {
	target, err := filepath.EvalSymlinks(link)
	if err != nil {
		return errors.Wrapf(err, "Resolve link %v", link)
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(link))
	if err != nil {
		return errors.Wrapf(err, "Resolve parent of %v", link)
	}
	for _, dir := range append([]string{parent}, w.roots...) {
		if isInside(dir, target) {
			return LinkCycleError{Link: link, Target: target}
		}
	}
	return nil
}

// isInside returns true if <p> is <dir> or is located inside of <dir>
func isInside(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// entryInfo returns file info of <p>, following symbolic links if <dereference> is true
func entryInfo(p string, d fs.DirEntry, dereference bool) (fs.FileInfo, error) {
	if dereference && d.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(p)
		return info, errors.Wrapf(err, "Stat link target of %v", p)
	}
	info, err := d.Info()
	return info, errors.Wrapf(err, "Stat %v", p)
}

// mkDir creates directory <path> with <perm> and any missing parents.
//
// Permissions of an already existing directory are not changed.
func mkDir(path string, perm fs.FileMode) error {
	// Keep the owner able to write into copied read-only directories
	if err := os.MkdirAll(path, perm|0700); err != nil {
		return errors.Wrapf(err, "Create directory %v", path)
	}
	return nil
}

// copyFile copies regular file <src> described by <info> to <dst>
func copyFile(src, dst string, info fs.FileInfo, preserveTimes bool) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrapf(err, "Create parent directory of %v", dst)
	}
	// Replace links (write would go to their target) and files the owner can not write to
	if dInfo, err := os.Lstat(dst); err == nil {
		isLink := dInfo.Mode()&fs.ModeSymlink != 0
		isReadOnly := dInfo.Mode().IsRegular() && dInfo.Mode().Perm()&0200 == 0
		if isLink || isReadOnly {
			if err := os.Remove(dst); err != nil {
				return errors.Wrapf(err, "Remove existing %v", dst)
			}
		}
	}

	input, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "Open source file")
	}
	defer input.Close()

	output, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Wrap(err, "Open destination file")
	}
	if _, err := io.Copy(output, input); err != nil {
		output.Close()
		return errors.Wrapf(err, "Copy %v to %v", src, dst)
	}
	if err := output.Close(); err != nil {
		return errors.Wrapf(err, "Close %v", dst)
	}
	// OpenFile applies permissions only on creation
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "Set permissions of %v", dst)
	}

	if preserveTimes {
		if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
			return errors.Wrapf(err, "Set modification time of %v", dst)
		}
	}
	return nil
}

// copySymlink recreates symbolic link <src> at <dst>, replacing whatever <dst> is
func copySymlink(src, dst string) error {
	linkTarget, err := os.Readlink(src)
	if err != nil {
		return errors.Wrapf(err, "Read link %v", src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrapf(err, "Create parent directory of %v", dst)
	}
	if err := os.RemoveAll(dst); err != nil {
		return errors.Wrapf(err, "Remove existing %v", dst)
	}
	if err := os.Symlink(linkTarget, dst); err != nil {
		return errors.Wrapf(err, "Create link %v", dst)
	}
	return nil
}
