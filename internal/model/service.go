package model

import (
	"fmt"
	"slices"
)

// ServiceType determines startup semantics of a service and which
// extension strategies apply to it.
type ServiceType int

const (
	OneShot ServiceType = iota
	LongRun
)

// serviceTypeLiterals is the literal written to the `type` file of a service
// directory and accepted in declarations.
var serviceTypeLiterals = map[ServiceType]string{
	OneShot: "oneshot",
	LongRun: "longrun",
}

func (t ServiceType) String() string {
	if s, ok := serviceTypeLiterals[t]; ok {
		return s
	}
	return fmt.Sprintf("ServiceType(%d)", int(t))
}

// ParseServiceType is the inverse of ServiceType.String.
func ParseServiceType(s string) (ServiceType, error) {
	for t, lit := range serviceTypeLiterals {
		if lit == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("service type %q: %w", s, ErrInvalidService)
}

// Service is one declared (or derived) service. Optional fields are nil
// when absent. Dependencies distinguishes nil (not declared) from an empty
// list, as only the former omits dependencies.d from the output.
type Service struct {
	Type         ServiceType
	Up           *string
	Run          *string
	Finish       *string
	ConsumerFor  *string
	ProducerFor  *string
	PipelineName *string
	Dependencies []string
	Extensions   *Extensions
}

type Extensions struct {
	Log     *Log
	Restart *Restart
}

// Log attaches a log forwarder writing into Dir.
type Log struct {
	Dir string
}

// Restart with OnFailure false makes the runtime never restart the service.
type Restart struct {
	OnFailure bool
}

// Clone returns a copy which can be modified without touching s.
func (s *Service) Clone() *Service {
	if s == nil {
		return nil
	}
	c := *s
	if s.Dependencies != nil {
		c.Dependencies = slices.Clone(s.Dependencies)
	}
	if s.Extensions != nil {
		ext := Extensions{}
		if s.Extensions.Log != nil {
			l := *s.Extensions.Log
			ext.Log = &l
		}
		if s.Extensions.Restart != nil {
			r := *s.Extensions.Restart
			ext.Restart = &r
		}
		c.Extensions = &ext
	}
	return &c
}

// Standalone reports a service outside of any pipeline.
func (s *Service) Standalone() bool {
	return s.ConsumerFor == nil && s.ProducerFor == nil
}

// PipelineTail reports the last stage of a pipeline: it consumes, but
// produces for nobody.
func (s *Service) PipelineTail() bool {
	return s.ConsumerFor != nil && s.ProducerFor == nil
}

// Ptr is a helper for filling optional fields.
func Ptr[T any](v T) *T {
	return &v
}
