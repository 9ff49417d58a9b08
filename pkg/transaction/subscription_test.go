package transaction

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pakd/pkg/backend"
)

func drain(t *testing.T, s *Subscription) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-s.C:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Error("subscription did not close")
			return out
		}
	}
}

func TestSubscribeReplaysAfterFinish(t *testing.T) {
	tx := newRunning(t, Options{})
	job := tx.Job()
	require.NoError(t, job.Package(backend.InfoAvailable, vipsDoc, ""))
	require.NoError(t, tx.Finish())

	got := drain(t, tx.Subscribe())
	assert.Equal(t, []EventKind{KindPackage, KindFinished}, kinds(got))
}

func TestSubscribeFollowsLiveEventsInOrder(t *testing.T) {
	tx := newRunning(t, Options{})
	job := tx.Job()

	subs := []*Subscription{tx.Subscribe(), tx.Subscribe()}
	results := make([][]Event, len(subs))

	var wg sync.WaitGroup
	for i, s := range subs {
		wg.Add(1)
		go func(i int, s *Subscription) {
			defer wg.Done()
			results[i] = drain(t, s)
		}(i, s)
	}

	for pct := 0; pct <= 100; pct += 10 {
		job.SetPercentage(pct)
	}
	require.NoError(t, tx.Finish())
	wg.Wait()

	for _, got := range results {
		require.Len(t, got, 12)
		for i := 0; i < 11; i++ {
			assert.Equal(t, i*10, got[i].(PercentageEvent).Percentage)
		}
		assert.Equal(t, KindFinished, got[11].Kind())
	}
}

func TestSubscriptionClose(t *testing.T) {
	tx := newRunning(t, Options{})
	s := tx.Subscribe()
	s.Close()
	s.Close()

	drain(t, s)
	assert.Equal(t, StateRunning, tx.State())
}
