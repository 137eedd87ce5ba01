// Package resolve computes the enabled set of services: the transitive
// closure of the explicitly enabled names over declared dependencies.
package resolve

import (
	"slices"

	"github.com/CZERTAINLY/s6compile/internal/model"
)

// Set is a set of service names.
type Set map[string]struct{}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s Set) Sorted() []string {
	ret := make([]string, 0, len(s))
	for name := range s {
		ret = append(ret, name)
	}
	slices.Sort(ret)
	return ret
}

// Enabled returns every declared service when requested is empty. Otherwise
// it returns the requested names plus everything reachable through
// dependencies. Requested names must be declared, or UnknownServiceError is
// returned before any traversal. Dependencies on undeclared services are
// kept in the result, but never expanded further. Cycles are fine.
func Enabled(services map[string]*model.Service, requested []string) (Set, error) {
	if len(requested) == 0 {
		ret := make(Set, len(services))
		for name := range services {
			ret[name] = struct{}{}
		}
		return ret, nil
	}

	var unknown []string
	for _, name := range requested {
		if _, ok := services[name]; !ok && !slices.Contains(unknown, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, model.UnknownServiceError{Names: unknown}
	}

	visited := make(Set, len(requested))
	toVisit := slices.Clone(requested)
	for len(toVisit) > 0 {
		name := toVisit[len(toVisit)-1]
		toVisit = toVisit[:len(toVisit)-1]
		if visited.Has(name) {
			continue
		}
		visited[name] = struct{}{}
		if svc, ok := services[name]; ok {
			toVisit = append(toVisit, svc.Dependencies...)
		}
	}
	return visited, nil
}
