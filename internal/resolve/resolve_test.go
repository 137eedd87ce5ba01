package resolve_test

import (
	"maps"
	"slices"
	"testing"

	"github.com/CZERTAINLY/s6compile/internal/model"
	"github.com/CZERTAINLY/s6compile/internal/resolve"
	"github.com/stretchr/testify/require"
)

func graph(edges map[string][]string) map[string]*model.Service {
	ret := make(map[string]*model.Service, len(edges))
	for name, deps := range edges {
		ret[name] = &model.Service{Type: model.LongRun, Dependencies: deps}
	}
	return ret
}

func TestEnabled(t *testing.T) {
	t.Parallel()

	services := graph(map[string][]string{
		"web":     {"migrate", "db"},
		"migrate": {"db"},
		"db":      nil,
		"worker":  {"queue"},
		"queue":   nil,
		"cron":    {"external"},
		"a":       {"b"},
		"b":       {"c"},
		"c":       {"a"},
	})

	var testCases = []struct {
		scenario string
		given    []string
		then     []string
	}{
		{"all", nil, slices.Sorted(maps.Keys(services))},
		{"empty", []string{}, slices.Sorted(maps.Keys(services))},
		{"leaf", []string{"db"}, []string{"db"}},
		{"transitive", []string{"web"}, []string{"db", "migrate", "web"}},
		{"two roots", []string{"web", "worker"}, []string{"db", "migrate", "queue", "web", "worker"}},
		{"duplicate request", []string{"queue", "queue"}, []string{"queue"}},
		{"cycle", []string{"b"}, []string{"a", "b", "c"}},
		{"undeclared dependency", []string{"cron"}, []string{"cron", "external"}},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			enabled, err := resolve.Enabled(services, tt.given)
			require.NoError(t, err)
			require.Equal(t, tt.then, enabled.Sorted())

			for _, name := range tt.given {
				require.True(t, enabled.Has(name))
			}
			// closed under dependencies
			for name := range enabled {
				svc, ok := services[name]
				if !ok {
					continue
				}
				for _, dep := range svc.Dependencies {
					if _, declared := services[dep]; !declared {
						continue
					}
					require.Truef(t, enabled.Has(dep), "%s -> %s", name, dep)
				}
			}
		})
	}
}

func TestEnabled_Unknown(t *testing.T) {
	t.Parallel()

	services := graph(map[string][]string{
		"web": {"db"},
	})

	_, err := resolve.Enabled(services, []string{"web", "nope", "db", "nope"})
	require.Error(t, err)
	require.ErrorIs(t, err, model.ErrUnknownService)

	var unknown model.UnknownServiceError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, []string{"db", "nope"}, unknown.Names)
}
