// Package bundle decides which services are listed in the top level user
// bundle. A pipeline is listed once, under its pipeline name, attributed to
// its last stage.
package bundle

import (
	"fmt"

	"github.com/CZERTAINLY/s6compile/internal/model"
)

type Visibility int

const (
	Hidden Visibility = iota
	Visible
	// Warn is Hidden, but worth reporting to the user.
	Warn
)

var visibilityLiterals = map[Visibility]string{
	Hidden:  "hidden",
	Visible: "visible",
	Warn:    "warn",
}

func (v Visibility) String() string {
	if s, ok := visibilityLiterals[v]; ok {
		return s
	}
	return fmt.Sprintf("Visibility(%d)", int(v))
}

// Decision is the bundle membership of one service.
type Decision struct {
	Visibility Visibility
	// Name is the bundle entry for Visible.
	Name string
	// Reason explains Warn.
	Reason error
}

func (d Decision) Visible() bool {
	return d.Visibility == Visible
}

// Classify must be called on the final, expanded service.
func Classify(name string, svc *model.Service) Decision {
	switch {
	case svc.Standalone():
		return Decision{Visibility: Visible, Name: name}
	case svc.PipelineTail():
		if svc.PipelineName == nil {
			return Decision{Visibility: Warn, Reason: model.ErrMissingPipelineName}
		}
		return Decision{Visibility: Visible, Name: *svc.PipelineName}
	default:
		return Decision{Visibility: Hidden}
	}
}
