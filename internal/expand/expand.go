// Package expand applies service extensions. An extension rewrites fields of
// the service it is declared on and may synthesize new derived services.
//
// Extensions are applied in a fixed order: log, then restart. Neither may
// overwrite a field already set on the service; doing so is an
// ExtensionConflictError.
//
// log on a one-shot sets up to a script piping the output of the compiled
// run script to the log forwarder. log on a long-run service keeps up/run
// untouched and attaches a derived "{name}-log" service as a consumer
// instead, forming the pipeline "{name}-with-logs".
//
// restart with on-failure = false sets finish to a script exiting 125.
package expand

import (
	"path/filepath"

	"github.com/CZERTAINLY/s6compile/internal/model"
)

const (
	logSuffix      = "-log"
	pipelineSuffix = "-with-logs"
)

// Derived is a service synthesized by an extension.
type Derived struct {
	Name    string
	Service *model.Service
}

// Result of a single expansion.
type Result struct {
	// Service is the rewritten copy of the input service.
	Service *model.Service
	Derived []Derived
	// LogDir is the directory of the log extension, empty if there is none.
	LogDir string
}

// Expander applies extensions for services compiled into a given
// output root.
type Expander struct {
	root string
}

// New returns Expander for output root, which must be an absolute path as
// it ends up in generated scripts.
func New(root string) Expander {
	return Expander{root: root}
}

// LoggerName is the name of the derived log forwarder for a long-run service.
func LoggerName(name string) string {
	return name + logSuffix
}

// PipelineName is the name of the pipeline a long-run service and its
// log forwarder form.
func PipelineName(name string) string {
	return name + pipelineSuffix
}

// Expand applies the extensions of svc. svc itself is never modified.
func (e Expander) Expand(name string, svc *model.Service) (Result, error) {
	out := svc.Clone()
	res := Result{Service: out}
	if out.Extensions == nil {
		return res, nil
	}

	if log := out.Extensions.Log; log != nil {
		derived, err := e.log(name, out, log)
		if err != nil {
			return Result{}, err
		}
		res.LogDir = log.Dir
		res.Derived = append(res.Derived, derived...)
	}

	if restart := out.Extensions.Restart; restart != nil && !restart.OnFailure {
		if out.Finish != nil {
			return Result{}, model.ExtensionConflictError{Service: name, Extension: "restart", Field: "finish"}
		}
		out.Finish = model.Ptr(NoRestartOnFailure())
	}

	return res, nil
}

func (e Expander) log(name string, svc *model.Service, log *model.Log) ([]Derived, error) {
	switch svc.Type {
	case model.OneShot:
		if svc.Up != nil {
			return nil, model.ExtensionConflictError{Service: name, Extension: "log", Field: "up"}
		}
		svc.Up = model.Ptr(LogUp(log.Dir, filepath.Join(e.root, name, "run")))
		return nil, nil
	case model.LongRun:
		if svc.ProducerFor != nil {
			return nil, model.ExtensionConflictError{Service: name, Extension: "log", Field: "producer-for"}
		}
		logger := LoggerName(name)
		svc.ProducerFor = model.Ptr(logger)
		var deps []string
		if svc.Dependencies != nil {
			deps = append([]string{}, svc.Dependencies...)
		}
		return []Derived{{
			Name: logger,
			Service: &model.Service{
				Type:         model.LongRun,
				Run:          model.Ptr(LogRun(log.Dir)),
				ConsumerFor:  model.Ptr(name),
				PipelineName: model.Ptr(PipelineName(name)),
				Dependencies: deps,
			},
		}}, nil
	default:
		return nil, nil
	}
}
