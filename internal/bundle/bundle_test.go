package bundle_test

import (
	"testing"

	"github.com/CZERTAINLY/s6compile/internal/bundle"
	"github.com/CZERTAINLY/s6compile/internal/model"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario string
		name     string
		given    *model.Service
		then     bundle.Decision
	}{
		{
			scenario: "standalone",
			name:     "api",
			given:    &model.Service{Type: model.LongRun},
			then:     bundle.Decision{Visibility: bundle.Visible, Name: "api"},
		},
		{
			scenario: "standalone with pipeline name",
			name:     "api",
			given:    &model.Service{Type: model.LongRun, PipelineName: model.Ptr("ignored")},
			then:     bundle.Decision{Visibility: bundle.Visible, Name: "api"},
		},
		{
			scenario: "producer",
			name:     "api",
			given:    &model.Service{Type: model.LongRun, ProducerFor: model.Ptr("api-log")},
			then:     bundle.Decision{Visibility: bundle.Hidden},
		},
		{
			scenario: "middle stage",
			name:     "filter",
			given: &model.Service{
				Type:         model.LongRun,
				ConsumerFor:  model.Ptr("api"),
				ProducerFor:  model.Ptr("sink"),
				PipelineName: model.Ptr("api-pipeline"),
			},
			then: bundle.Decision{Visibility: bundle.Hidden},
		},
		{
			scenario: "tail",
			name:     "api-log",
			given: &model.Service{
				Type:         model.LongRun,
				ConsumerFor:  model.Ptr("api"),
				PipelineName: model.Ptr("api-with-logs"),
			},
			then: bundle.Decision{Visibility: bundle.Visible, Name: "api-with-logs"},
		},
		{
			scenario: "tail without pipeline name",
			name:     "sink",
			given:    &model.Service{Type: model.LongRun, ConsumerFor: model.Ptr("api")},
			then:     bundle.Decision{Visibility: bundle.Warn, Reason: model.ErrMissingPipelineName},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			d := bundle.Classify(tt.name, tt.given)
			require.Equal(t, tt.then, d)
			require.Equal(t, tt.then.Visibility == bundle.Visible, d.Visible())
		})
	}
}

func TestVisibilityString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "visible", bundle.Visible.String())
	require.Equal(t, "hidden", bundle.Hidden.String())
	require.Equal(t, "warn", bundle.Warn.String())
	require.Equal(t, "Visibility(42)", bundle.Visibility(42).String())
}
