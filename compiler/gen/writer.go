package gen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Writer writes rendered files below a target directory.
//
// The files are written to a staging directory next to the target, which
// then replaces the target. A failed write leaves the previous target as it
// was. Files of the previous target that are not rendered again are carried
// over, unless they are generated Go files: those are dropped, so that the
// files of a removed entity do not outlive it.
type Writer struct {
	outDir string

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics WriterMetrics
}

// WriterMetrics tracks the write phase.
type WriterMetrics struct {
	FilesWritten int
	TotalBytes   int64
	FilesKept    int
	FilesRemoved int
}

// NewWriter creates a writer for the given directory.
func NewWriter(outDir string) *Writer {
	return &Writer{outDir: outDir}
}

// Metrics returns the write metrics.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// WriteAll writes the files in order into a staging directory and swaps it
// with the target.
func (w *Writer) WriteAll(files []File) error {
	target, err := filepath.Abs(w.outDir)
	if err != nil {
		return NewGenerationError("write", w.outDir, "resolve output directory", err)
	}
	mode := fs.FileMode(0o755)
	info, err := os.Stat(target)
	switch {
	case err == nil && !info.IsDir():
		return NewGenerationError("write", w.outDir, "output path is not a directory", nil)
	case err == nil:
		mode = info.Mode().Perm()
	case !errors.Is(err, fs.ErrNotExist):
		return NewGenerationError("write", w.outDir, "stat output directory", err)
	}

	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return NewGenerationError("write", w.outDir, "create output directory", err)
	}
	stage, err := os.MkdirTemp(parent, "."+filepath.Base(target)+"-")
	if err != nil {
		return NewGenerationError("write", w.outDir, "create staging directory", err)
	}
	defer func() { _ = os.RemoveAll(stage) }()
	if err := os.Chmod(stage, mode); err != nil {
		return NewGenerationError("write", w.outDir, "create staging directory", err)
	}

	written := make(map[string]bool, len(files))
	for _, f := range files {
		if err := w.write(stage, f); err != nil {
			return err
		}
		written[filepath.FromSlash(f.Path)] = true
	}
	if info != nil {
		if err := w.carry(target, stage, written); err != nil {
			return err
		}
	}
	if err := swap(stage, target, info != nil); err != nil {
		return NewGenerationError("write", w.outDir, "replace output directory", err)
	}
	return nil
}

func (w *Writer) write(dir string, f File) error {
	fullPath := filepath.Join(dir, filepath.FromSlash(f.Path))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return NewGenerationError("write", f.Path, fmt.Sprintf("create directory %s", filepath.Dir(f.Path)), err)
	}
	if err := os.WriteFile(fullPath, f.Content, 0o644); err != nil {
		return NewGenerationError("write", f.Path, "", err)
	}
	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += int64(len(f.Content))
	w.mu.Unlock()
	return nil
}

// carry copies the files of the previous target that were not written again
// into the staging directory, except generated Go files.
func (w *Writer) carry(target, stage string, written map[string]bool) error {
	return filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(target, path)
		if err != nil || rel == "." {
			return err
		}
		dst := filepath.Join(stage, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(dst, 0o755)
		case written[rel]:
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			w.kept()
			return os.Symlink(link, dst)
		case !d.Type().IsRegular():
			return nil
		}
		if generated(path) {
			w.mu.Lock()
			w.metrics.FilesRemoved++
			w.mu.Unlock()
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		w.kept()
		return os.WriteFile(dst, b, info.Mode().Perm())
	})
}

func (w *Writer) kept() {
	w.mu.Lock()
	w.metrics.FilesKept++
	w.mu.Unlock()
}

// generated reports whether path is a Go file marked as generated code.
func generated(path string) bool {
	if filepath.Ext(path) != ".go" {
		return false
	}
	f, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.PackageClauseOnly|parser.ParseComments)
	if err != nil {
		return false
	}
	return ast.IsGenerated(f)
}

// swap moves stage to target. An existing target is moved aside first and
// restored when the move fails.
func swap(stage, target string, exists bool) error {
	if !exists {
		return os.Rename(stage, target)
	}
	backup := stage + ".old"
	if err := os.Rename(target, backup); err != nil {
		return err
	}
	if err := os.Rename(stage, target); err != nil {
		if rerr := os.Rename(backup, target); rerr != nil {
			return errors.Join(err, fmt.Errorf("restore %s from %s: %w", target, backup, rerr))
		}
		return err
	}
	_ = os.RemoveAll(backup)
	return nil
}
