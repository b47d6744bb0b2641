package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atinyakov/Workboard/internal/client/api"
	"github.com/atinyakov/Workboard/internal/client/notify"
	"github.com/atinyakov/Workboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fresh = time.Minute

func newTestClient(t *testing.T) (*Client, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	c := New(rec, nil)
	t.Cleanup(c.Close)
	return c, rec
}

// counter returns a fetch that yields value and counts its calls.
func counter(value string) (func(context.Context) (string, error), *atomic.Int32) {
	var n atomic.Int32
	return func(context.Context) (string, error) {
		n.Add(1)
		return value, nil
	}, &n
}

func TestQuery_DeduplicatesConcurrentReads(t *testing.T) {
	c, _ := newTestClient(t)
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "today", nil
	}

	const readers = 10
	var (
		ready   sync.WaitGroup
		done    sync.WaitGroup
		results = make([]Result[string], readers)
	)
	ready.Add(readers)
	done.Add(readers)
	for i := 0; i < readers; i++ {
		go func(i int) {
			defer done.Done()
			ready.Done()
			results[i] = Query(context.Background(), c, Key{"todayAttendance"}, fetch, Options{})
		}(i)
	}
	ready.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, StatusSuccess, r.Status)
		assert.Equal(t, "today", r.Data)
	}
}

func TestQuery_FreshHitSkipsFetch(t *testing.T) {
	c, _ := newTestClient(t)
	fetch, calls := counter("profile")

	first := Query(context.Background(), c, Key{"profile"}, fetch, Options{StaleAfter: fresh})
	second := Query(context.Background(), c, Key{"profile"}, fetch, Options{StaleAfter: fresh})

	assert.False(t, first.FromCache)
	assert.True(t, second.FromCache)
	assert.Equal(t, "profile", second.Data)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuery_StaleAfterElapsed(t *testing.T) {
	c, _ := newTestClient(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	fetch, calls := counter("page")
	opts := Options{StaleAfter: 2 * time.Minute}

	Query(context.Background(), c, Key{"attendanceHistory", 30, 0}, fetch, opts)
	now = now.Add(time.Minute)
	Query(context.Background(), c, Key{"attendanceHistory", 30, 0}, fetch, opts)
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(time.Minute)
	Query(context.Background(), c, Key{"attendanceHistory", 30, 0}, fetch, opts)
	assert.Equal(t, int32(2), calls.Load())
}

func TestQuery_ZeroStaleAfterAlwaysRefetches(t *testing.T) {
	c, _ := newTestClient(t)
	fetch, calls := counter("x")

	Query(context.Background(), c, Key{"todayAttendance"}, fetch, Options{})
	Query(context.Background(), c, Key{"todayAttendance"}, fetch, Options{})
	assert.Equal(t, int32(2), calls.Load())
}

func TestQuery_Disabled(t *testing.T) {
	c, _ := newTestClient(t)
	fetch, calls := counter("x")

	r := Query(context.Background(), c, Key{"task", ""}, fetch, Options{Disabled: true})
	assert.Equal(t, StatusIdle, r.Status)
	assert.False(t, r.HasData)

	gated := Query(context.Background(), c, Key{"profile"}, fetch, Options{Gate: func() bool { return false }})
	assert.Equal(t, StatusIdle, gated.Status)
	assert.Equal(t, int32(0), calls.Load())
	assert.Zero(t, c.Len(), "disabled reads leave no entry behind")
}

func TestQuery_DisabledKeepsCachedResult(t *testing.T) {
	c, _ := newTestClient(t)
	fetch, calls := counter("Ann")

	require.Equal(t, StatusSuccess, Query(context.Background(), c, Key{"profile"}, fetch, Options{}).Status)

	r := Query(context.Background(), c, Key{"profile"}, fetch, Options{Disabled: true})
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, "Ann", r.Data)
	assert.True(t, r.FromCache)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuery_OnErrorRunsAfterNotification(t *testing.T) {
	c, rec := newTestClient(t)
	boom := &api.APIError{StatusCode: 401, Envelope: models.ErrorEnvelope{Message: "Invalid or expired token"}}

	var seen []string
	r := Query(context.Background(), c, Key{"tasks"}, func(context.Context) (string, error) { return "", boom }, Options{
		ErrorMessage: "Failed to load tasks.",
		OnError: func(err error) {
			assert.Same(t, boom, err)
			seen = append(seen, rec.Messages()...)
			c.Clear()
		},
	})
	assert.Equal(t, StatusError, r.Status)
	assert.Equal(t, []string{"Invalid or expired token"}, seen, "notification is out before the hook runs")
	assert.Zero(t, c.Len())
}

func TestQuery_OnErrorForDiscardedFetch(t *testing.T) {
	c, rec := newTestClient(t)
	release := make(chan struct{})
	var hooks atomic.Int32

	done := make(chan Result[string])
	go func() {
		done <- Query(context.Background(), c, Key{"profile"}, func(context.Context) (string, error) {
			<-release
			return "", errors.New("rejected")
		}, Options{OnError: func(error) { hooks.Add(1) }})
	}()
	require.Eventually(t, func() bool {
		st, _ := c.Snapshot(Key{"profile"})
		return st.Fetching
	}, time.Second, time.Millisecond)

	c.Clear()
	close(release)
	r := <-done

	assert.Equal(t, StatusError, r.Status)
	assert.Equal(t, int32(1), hooks.Load())
	assert.Empty(t, rec.Messages(), "a purged entry's failure is not shown")
}

func TestInvalidate_PrefixMarksTaskReads(t *testing.T) {
	c, _ := newTestClient(t)
	listFetch, listCalls := counter("list")
	taskFetch, taskCalls := counter("task")
	opts := Options{StaleAfter: fresh}

	all := Key{"tasks", "", "", 50, 0}
	pending := Key{"tasks", "pending", "", 50, 0}
	single := Key{"task", "t1"}
	Query(context.Background(), c, all, listFetch, opts)
	Query(context.Background(), c, pending, listFetch, opts)
	Query(context.Background(), c, single, taskFetch, opts)

	n := c.Invalidate(Prefix(Key{"tasks"}))
	assert.Equal(t, 2, n)

	for _, k := range []Key{all, pending} {
		st, ok := c.Snapshot(k)
		require.True(t, ok)
		assert.True(t, st.Invalidated, k.String())
	}
	st, _ := c.Snapshot(single)
	assert.False(t, st.Invalidated)

	r := Query(context.Background(), c, all, listFetch, opts)
	assert.False(t, r.FromCache)
	Query(context.Background(), c, pending, listFetch, opts)
	assert.Equal(t, int32(4), listCalls.Load())

	r = Query(context.Background(), c, single, taskFetch, opts)
	assert.True(t, r.FromCache)
	assert.Equal(t, int32(1), taskCalls.Load())

	st, _ = c.Snapshot(all)
	assert.False(t, st.Invalidated)
}

func TestClear_DropsEverything(t *testing.T) {
	c, _ := newTestClient(t)
	fetch, calls := counter("x")
	opts := Options{StaleAfter: fresh}

	Query(context.Background(), c, Key{"profile"}, fetch, opts)
	Query(context.Background(), c, Key{"tasks", "", "", 50, 0}, fetch, opts)
	require.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())

	Query(context.Background(), c, Key{"profile"}, fetch, opts)
	Query(context.Background(), c, Key{"tasks", "", "", 50, 0}, fetch, opts)
	assert.Equal(t, int32(4), calls.Load())
}

func TestQuery_SupersededGenerationDiscarded(t *testing.T) {
	c, _ := newTestClient(t)
	key := Key{"tasks", "", "", 50, 0}
	releaseOld := make(chan struct{})
	var n atomic.Int32
	fetch := func(context.Context) (string, error) {
		if n.Add(1) == 1 {
			<-releaseOld
			return "old", nil
		}
		return "new", nil
	}

	oldResult := make(chan Result[string], 1)
	go func() {
		oldResult <- Query(context.Background(), c, key, fetch, Options{StaleAfter: fresh})
	}()
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)

	c.Invalidate(Prefix(Key{"tasks"}))
	newer := Query(context.Background(), c, key, fetch, Options{StaleAfter: fresh})
	require.Equal(t, "new", newer.Data)

	close(releaseOld)
	old := <-oldResult
	assert.Equal(t, "old", old.Data)

	st, ok := c.Snapshot(key)
	require.True(t, ok)
	assert.Equal(t, "new", st.Data)
	assert.Equal(t, uint64(3), st.Generation)
	assert.False(t, st.Fetching)
}

func TestQuery_PurgedWhileInFlight(t *testing.T) {
	c, _ := newTestClient(t)
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		<-release
		return "previous user", nil
	}

	res := make(chan Result[string], 1)
	go func() { res <- Query(context.Background(), c, Key{"profile"}, fetch, Options{StaleAfter: fresh}) }()
	require.Eventually(t, func() bool {
		st, _ := c.Snapshot(Key{"profile"})
		return st.Fetching
	}, time.Second, time.Millisecond)

	c.Clear()
	close(release)
	<-res

	_, ok := c.Snapshot(Key{"profile"})
	assert.False(t, ok)
}

func TestQuery_StaleWhileError(t *testing.T) {
	c, rec := newTestClient(t)
	fail := false
	fetch := func(context.Context) (string, error) {
		if fail {
			return "", &api.APIError{StatusCode: 503, Envelope: models.ErrorEnvelope{Message: "Service unavailable"}}
		}
		return "v1", nil
	}
	opts := Options{StaleAfter: fresh, ErrorMessage: "Failed to load tasks."}

	Query(context.Background(), c, Key{"tasks"}, fetch, opts)
	c.Invalidate(Exact(Key{"tasks"}))
	fail = true
	r := Query(context.Background(), c, Key{"tasks"}, fetch, opts)

	assert.Equal(t, StatusError, r.Status)
	require.Error(t, r.Err)
	assert.True(t, r.HasData)
	assert.Equal(t, "v1", r.Data)
	assert.Equal(t, []string{"Service unavailable"}, rec.Messages())
}

func TestQuery_SilentError(t *testing.T) {
	c, rec := newTestClient(t)
	fetch := func(context.Context) (string, error) { return "", errors.New("boom") }

	r := Query(context.Background(), c, Key{"x"}, fetch, Options{Silent: true})
	assert.Equal(t, StatusError, r.Status)
	assert.Empty(t, rec.Events())
}

func TestQuery_PanicBecomesError(t *testing.T) {
	c, _ := newTestClient(t)
	fetch := func(context.Context) (string, error) { panic("nil map") }

	r := Query(context.Background(), c, Key{"x"}, fetch, Options{Silent: true})
	assert.Equal(t, StatusError, r.Status)
	assert.ErrorContains(t, r.Err, "query panicked: nil map")
}

func TestQuery_CallerGivesUp(t *testing.T) {
	c, _ := newTestClient(t)
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		<-release
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := Query(ctx, c, Key{"todayAttendance"}, fetch, Options{StaleAfter: fresh})
	assert.Equal(t, StatusError, r.Status)
	assert.ErrorIs(t, r.Err, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		st, _ := c.Snapshot(Key{"todayAttendance"})
		return st.Status == StatusSuccess && st.Data == "late"
	}, time.Second, time.Millisecond)
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{
		StatusIdle:    "idle",
		StatusPending: "pending",
		StatusSuccess: "success",
		StatusError:   "error",
	} {
		assert.Equal(t, want, s.String(), fmt.Sprint(int(s)))
	}
}
