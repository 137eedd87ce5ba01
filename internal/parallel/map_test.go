package parallel_test

import (
	"context"
	"errors"
	"iter"
	"testing"
	"testing/synctest"
	"time"

	"github.com/CZERTAINLY/s6compile/internal/parallel"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func sleep(ctx context.Context, d time.Duration) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(d):
		return int(d / time.Second), nil
	}
}

func TestMap(t *testing.T) {
	t.Parallel()

	input := []time.Duration{1 * time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second}

	var testCases = []struct {
		scenario string
		limit    int
		then     time.Duration
	}{
		{"limit 1", 1, 18 * time.Second},
		{"limit 2", 2, 12 * time.Second},
		{"limit 10", 10, 10 * time.Second},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			synctest.Test(t, func(t *testing.T) {
				start := time.Now()
				got, errs := collect(parallel.NewMap(t.Context(), tt.limit, sleep).Iter(all(input, nil)))
				require.Empty(t, errs)
				require.ElementsMatch(t, []int{1, 2, 5, 10}, got)
				require.Equal(t, tt.then, time.Since(start))
			})
		})
	}
}

func TestMap_Cancel(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 3*time.Second)
		defer cancel()

		start := time.Now()
		input := []time.Duration{1 * time.Second, 10 * time.Second, 10 * time.Second}
		got, _ := collect(parallel.NewMap(ctx, 1, sleep).Iter(all(input, nil)))
		require.Equal(t, []int{1}, got)
		require.Equal(t, 3*time.Second, time.Since(start))
	})
}

func TestMap_InputErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	input := []time.Duration{0, 0}
	got, errs := collect(parallel.NewMap(t.Context(), 2, sleep).Iter(all(input, boom)))
	require.Equal(t, []int{0, 0}, got)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], boom)
}

func TestMap_Break(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	input := make([]time.Duration, 100)
	for range parallel.NewMap(t.Context(), 4, sleep).Iter(all(input, nil)) {
		break
	}
}

// all yields s, followed by err if not nil.
func all[T any](s []T, err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, x := range s {
			if !yield(x, nil) {
				return
			}
		}
		if err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

func collect[T any](i iter.Seq2[T, error]) ([]T, []error) {
	var ret []T
	var errs []error
	for x, err := range i {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ret = append(ret, x)
	}
	return ret, errs
}
