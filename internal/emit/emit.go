// Package emit writes compiled services in the s6-rc source directory
// layout:
//
//	{root}/{service}/type              oneshot | longrun
//	{root}/{service}/up
//	{root}/{service}/run               executable
//	{root}/{service}/finish
//	{root}/{service}/consumer-for
//	{root}/{service}/producer-for
//	{root}/{service}/pipeline-name
//	{root}/{service}/dependencies.d/   an empty file per dependency
//	{root}/user/contents.d/            an empty file per bundle entry
//
// All writes go through os.Root, so no name can escape the output directory.
package emit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/CZERTAINLY/s6compile/internal/bundle"
	"github.com/CZERTAINLY/s6compile/internal/model"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
	execPerm = 0o755

	// BundleDir holds the contents of the user bundle.
	BundleDir = "user/contents.d"
	// DependenciesDir is the per-service dependencies directory.
	DependenciesDir = "dependencies.d"
)

// Writer emits services into an output root. It implements compile.Emitter.
type Writer struct {
	root *os.Root
	path string
}

// Open creates dir if needed and clears the user bundle, so the bundle
// reflects this run only. Other service directories are left as they are.
func Open(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("opening output directory %s: %w", abs, err)
	}
	w := &Writer{root: root, path: abs}

	if err := root.RemoveAll(BundleDir); err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("clearing %s: %w", BundleDir, err)
	}
	if err := root.MkdirAll(BundleDir, dirPerm); err != nil {
		_ = root.Close()
		return nil, fmt.Errorf("creating %s: %w", BundleDir, err)
	}
	return w, nil
}

// Path is the absolute, symlink free path of the output root.
func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Close() error {
	return w.root.Close()
}

// Emit writes the service directory of name and, for a visible decision,
// its bundle entry.
func (w *Writer) Emit(ctx context.Context, name string, svc *model.Service, decision bundle.Decision) error {
	if err := w.root.MkdirAll(name, dirPerm); err != nil {
		return err
	}
	if err := w.write(name, "type", svc.Type.String()); err != nil {
		return err
	}

	for _, f := range files(svc) {
		if err := w.write(name, f.name, *f.value); err != nil {
			return err
		}
	}
	if svc.Run != nil {
		if err := w.root.Chmod(path.Join(name, "run"), execPerm); err != nil {
			return err
		}
	}

	if svc.Dependencies != nil {
		deps := path.Join(name, DependenciesDir)
		if err := w.root.MkdirAll(deps, dirPerm); err != nil {
			return err
		}
		for _, dep := range svc.Dependencies {
			if err := w.write(deps, dep, ""); err != nil {
				return err
			}
		}
	}

	if decision.Visible() {
		if err := w.write(BundleDir, decision.Name, ""); err != nil {
			return err
		}
	}
	slog.DebugContext(ctx, "service emitted", "service", name, "bundle", decision.Visibility.String())
	return nil
}

type file struct {
	name  string
	value *string
}

// files lists the optional fields in the order they are written.
func files(svc *model.Service) []file {
	all := []file{
		{"up", svc.Up},
		{"run", svc.Run},
		{"finish", svc.Finish},
		{"consumer-for", svc.ConsumerFor},
		{"producer-for", svc.ProducerFor},
		{"pipeline-name", svc.PipelineName},
	}
	ret := all[:0]
	for _, f := range all {
		if f.value != nil {
			ret = append(ret, f)
		}
	}
	return ret
}

func (w *Writer) write(dir, name, content string) error {
	p := path.Join(dir, name)
	if err := w.root.WriteFile(p, []byte(content), filePerm); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}
