// Package load reads service declarations from an input directory. Every
// regular file directly inside the directory declares one service named by
// the file's base name without extension.
package load

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/CZERTAINLY/s6compile/internal/log"
	"github.com/CZERTAINLY/s6compile/internal/model"
	"github.com/CZERTAINLY/s6compile/internal/parallel"
	"github.com/CZERTAINLY/s6compile/internal/walk"
)

type declared struct {
	name    string
	path    string
	service *model.Service
}

// Dir decodes all declarations in dir, at most limit files at once. All the
// decoding errors are collected and returned together.
func Dir(ctx context.Context, dir string, limit int) (map[string]*model.Service, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("opening input directory: %w", err)
	}
	defer func() {
		_ = root.Close()
	}()

	services := make(map[string]*model.Service)
	paths := make(map[string]string)
	var errs []error
	for d, err := range parallel.NewMap(ctx, limit, decode).Iter(walk.Roots(ctx, root)) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, ok := paths[d.name]; ok {
			errs = append(errs, fmt.Errorf("service %s declared by %s and %s: %w", d.name, prev, d.path, model.ErrDuplicateService))
			continue
		}
		paths[d.name] = d.path
		services[d.name] = d.service
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	slog.DebugContext(ctx, "services loaded", "dir", dir, "count", len(services))
	return services, nil
}

func decode(ctx context.Context, entry walk.Entry) (declared, error) {
	ctx = log.ContextAttrs(ctx, slog.String("path", entry.Path()))
	if ctx.Err() != nil {
		return declared{}, ctx.Err()
	}
	name, _, err := model.ServiceName(entry.Path())
	if err != nil {
		return declared{}, err
	}

	f, err := entry.Open()
	if err != nil {
		return declared{}, fmt.Errorf("opening %s: %w", entry.Path(), err)
	}
	defer func() {
		_ = f.Close()
	}()

	svc, err := model.LoadService(entry.Path(), f)
	if err != nil {
		return declared{}, err
	}
	slog.DebugContext(ctx, "service declared", "service", name, "type", svc.Type.String())
	return declared{name: name, path: entry.Path(), service: svc}, nil
}
