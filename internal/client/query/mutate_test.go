package query

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/atinyakov/Workboard/internal/client/api"
	"github.com/atinyakov/Workboard/internal/client/notify"
	"github.com/atinyakov/Workboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// taskStore is an in-memory stand-in for the task endpoints.
type taskStore struct {
	mu    sync.Mutex
	tasks []models.Task
	lists int
}

func (s *taskStore) list(context.Context) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	return append([]models.Task(nil), s.tasks...), nil
}

func (s *taskStore) create(_ context.Context, title string) (models.Envelope[models.TaskData], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := models.Task{ID: title + "-id", Title: title, Status: models.StatusPending}
	s.tasks = append(s.tasks, t)
	return models.Envelope[models.TaskData]{Success: true, Message: "Task created", Data: models.TaskData{Task: t}}, nil
}

func TestMutate_CreateThenListRoundTrip(t *testing.T) {
	c, rec := newTestClient(t)
	store := &taskStore{}
	listKey := Key{"tasks", "", "", 50, 0}
	opts := Options{StaleAfter: fresh}

	before := Query(context.Background(), c, listKey, store.list, opts)
	require.Empty(t, before.Data)

	res := Mutate(context.Background(), c, func(ctx context.Context) (models.Envelope[models.TaskData], error) {
		return store.create(ctx, "Write report")
	}, MutateOptions[models.Envelope[models.TaskData]]{
		Invalidates:    []Matcher{Prefix(Key{"tasks"})},
		Message:        func(e models.Envelope[models.TaskData]) string { return e.Message },
		SuccessMessage: "Task created successfully!",
	})
	require.Equal(t, StatusSuccess, res.Status)

	after := Query(context.Background(), c, listKey, store.list, opts)
	require.Len(t, after.Data, 1)
	assert.Equal(t, "Write report", after.Data[0].Title)
	assert.Equal(t, 2, store.lists)
	assert.Equal(t, []string{"Task created"}, rec.Messages())
}

func TestMutate_SuccessFallbackMessage(t *testing.T) {
	c, rec := newTestClient(t)

	Mutate(context.Background(), c, func(context.Context) (string, error) { return "", nil },
		MutateOptions[string]{
			Message:        func(s string) string { return s },
			SuccessMessage: "Task deleted successfully!",
		})
	assert.Equal(t, []notify.Event{{Message: "Task deleted successfully!", Severity: notify.SeveritySuccess, Duration: notify.SuccessDuration}}, rec.Events())
}

func TestMutate_ValidationErrorNotifications(t *testing.T) {
	c, rec := newTestClient(t)
	Query(context.Background(), c, Key{"tasks"}, func(context.Context) (string, error) { return "v", nil }, Options{StaleAfter: fresh})

	res := Mutate(context.Background(), c, func(context.Context) (string, error) {
		return "", &api.APIError{StatusCode: 422, Envelope: models.ErrorEnvelope{
			Message: "Validation failed",
			Errors:  []models.FieldError{{Message: "Title is required", Field: "title"}},
		}}
	}, MutateOptions[string]{Invalidates: []Matcher{Prefix(Key{"tasks"})}, ErrorMessage: "Failed to create task."})

	assert.Equal(t, StatusError, res.Status)
	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "Validation failed", events[0].Message)
	assert.Equal(t, "Title is required", events[1].Message)
	assert.Greater(t, events[1].Duration, events[0].Duration)

	st, _ := c.Snapshot(Key{"tasks"})
	assert.False(t, st.Invalidated, "failed writes invalidate nothing")
}

func TestMutate_ErrorWithoutFieldErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"top-level message", &api.APIError{StatusCode: 409, Envelope: models.ErrorEnvelope{Message: "Already checked out today"}}, "Already checked out today"},
		{"fallback", &api.APIError{StatusCode: 500}, "Check-out failed. Please try again."},
		{"network", &api.NetworkError{Method: "POST", Path: "/attendance/check-out", Err: errors.New("refused")}, "Check-out failed. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestClient(t)
			Mutate(context.Background(), c, func(context.Context) (int, error) { return 0, tt.err },
				MutateOptions[int]{ErrorMessage: "Check-out failed. Please try again."})
			assert.Equal(t, []string{tt.want}, rec.Messages())
		})
	}
}

func TestMutate_RunsOnceWithoutDedup(t *testing.T) {
	c, _ := newTestClient(t)
	var mu sync.Mutex
	calls := 0
	m := NewMutation(c, func(_ context.Context, n int) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return n * 2, nil
	}, MutateOptions[int]{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := m.Mutate(context.Background(), 21)
			assert.Equal(t, 42, res.Data)
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, calls)
	assert.Equal(t, 0, m.Pending())
}

func TestMutate_ResultDependentInvalidation(t *testing.T) {
	c, _ := newTestClient(t)
	opts := Options{StaleAfter: fresh}
	Query(context.Background(), c, Key{"task", "t7"}, func(context.Context) (string, error) { return "v", nil }, opts)
	Query(context.Background(), c, Key{"task", "t8"}, func(context.Context) (string, error) { return "v", nil }, opts)

	Mutate(context.Background(), c, func(context.Context) (string, error) { return "t7", nil },
		MutateOptions[string]{InvalidatesFor: func(id string) []Matcher { return []Matcher{Exact(Key{"task", id})} }})

	st7, _ := c.Snapshot(Key{"task", "t7"})
	st8, _ := c.Snapshot(Key{"task", "t8"})
	assert.True(t, st7.Invalidated)
	assert.False(t, st8.Invalidated)
}

func TestMutate_CallerGoneDiscardsResult(t *testing.T) {
	rec := &notify.Recorder{}
	c := New(rec, nil)
	Query(context.Background(), c, Key{"todayAttendance"}, func(context.Context) (string, error) { return "none", nil }, Options{StaleAfter: fresh})

	release := make(chan struct{})
	settledCalled := false
	successCalled := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	resCh := make(chan MutationResult[string], 1)
	go func() {
		resCh <- Mutate(ctx, c, func(wctx context.Context) (string, error) {
			<-release
			if wctx.Err() != nil {
				return "", wctx.Err()
			}
			return "checked in", nil
		}, MutateOptions[string]{
			Invalidates:    []Matcher{Exact(Key{"todayAttendance"})},
			SuccessMessage: "Checked in successfully!",
			OnSuccess:      func(string) { close(successCalled) },
			OnSettled:      func(MutationResult[string]) { settledCalled = true },
		})
	}()

	cancel()
	res := <-resCh
	assert.ErrorIs(t, res.Err, context.Canceled)

	close(release)
	select {
	case <-successCalled:
	case <-time.After(time.Second):
		t.Fatal("write was cancelled with its caller")
	}
	c.Close()

	assert.False(t, settledCalled)
	st, _ := c.Snapshot(Key{"todayAttendance"})
	assert.True(t, st.Invalidated)
	assert.Equal(t, []string{"Checked in successfully!"}, rec.Messages())
}

func TestMutate_OnSettledAndPanic(t *testing.T) {
	c, rec := newTestClient(t)
	var got MutationResult[int]

	res := Mutate(context.Background(), c, func(context.Context) (int, error) { panic("bad") },
		MutateOptions[int]{ErrorMessage: "Failed to update task.", OnSettled: func(r MutationResult[int]) { got = r }})

	assert.Equal(t, StatusError, res.Status)
	assert.ErrorContains(t, got.Err, "mutation panicked: bad")
	assert.Equal(t, []string{"Failed to update task."}, rec.Messages())
}

func TestMutate_GatewayPageUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html><body><h1>502 Bad Gateway</h1></body></html>"))
	}))
	defer srv.Close()

	c, rec := newTestClient(t)
	apiClient := api.New(srv.URL, srv.Client(), nil, nil)

	res := Mutate(context.Background(), c, func(ctx context.Context) (*models.Envelope[models.TaskData], error) {
		return api.Call[models.TaskData](ctx, apiClient, http.MethodPost, "/tasks", nil, models.CreateTaskData{Title: "Write report"})
	}, MutateOptions[*models.Envelope[models.TaskData]]{ErrorMessage: "Failed to create task."})

	require.Equal(t, StatusError, res.Status)
	assert.Equal(t, api.KindServer, api.KindOf(res.Err))
	assert.Equal(t, []string{"Failed to create task."}, rec.Messages())
}

func TestMutate_OnErrorAfterNotification(t *testing.T) {
	c, rec := newTestClient(t)
	boom := &api.APIError{StatusCode: 401, Envelope: models.ErrorEnvelope{Message: "Invalid or expired token"}}

	var seen []string
	res := Mutate(context.Background(), c, func(context.Context) (string, error) { return "", boom }, MutateOptions[string]{
		ErrorMessage: "Failed to create task.",
		OnError: func(err error) {
			assert.ErrorIs(t, err, boom)
			seen = rec.Messages()
		},
	})
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, []string{"Invalid or expired token"}, seen)
}
