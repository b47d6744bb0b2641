package dashboard

import (
	"context"

	"github.com/atinyakov/Workboard/internal/client/gateway"
	"github.com/atinyakov/Workboard/internal/client/query"
	"github.com/atinyakov/Workboard/internal/models"
)

// Identities of the dashboard reads.
var (
	ProfileKey         = query.Key{"profile"}
	TodayAttendanceKey = query.Key{"todayAttendance"}
)

// HistoryKey is the identity of one attendance history page.
func HistoryKey(limit, offset int) query.Key {
	return query.Key{"attendanceHistory", limit, offset}
}

// TasksKey is the identity of one task listing.
func TasksKey(f models.TaskFilter) query.Key {
	return query.Key{"tasks", string(f.Status), string(f.Priority), f.Limit, f.Offset}
}

// TaskKey is the identity of one task.
func TaskKey(id string) query.Key {
	return query.Key{"task", id}
}

// Profile reads the signed-in user. It stays idle without a session.
func (d *Dashboard) Profile(ctx context.Context) query.Result[models.User] {
	return query.Query(ctx, d.cache, ProfileKey, d.fetchProfile, query.Options{
		StaleAfter:   ProfileStaleAfter,
		Gate:         d.session.IsAuthenticated,
		OnError:      d.authFailed,
		ErrorMessage: "Failed to load profile.",
	})
}

func (d *Dashboard) fetchProfile(ctx context.Context) (models.User, error) {
	env, err := d.auth.Profile(ctx)
	if err != nil {
		return models.User{}, err
	}
	return env.Data.User, nil
}

func (d *Dashboard) todayOptions() query.Options {
	return query.Options{
		RefetchInterval: TodayRefetchPeriod,
		RefetchOnMount:  query.MountAlways,
		RefetchOnFocus:  true,
		Gate:            d.session.IsAuthenticated,
		OnError:         d.authFailed,
		ErrorMessage:    "Failed to load today's attendance.",
	}
}

// TodayAttendance reads today's record; Data is nil before check-in.
func (d *Dashboard) TodayAttendance(ctx context.Context) query.Result[*models.Attendance] {
	return query.Query(ctx, d.cache, TodayAttendanceKey, d.fetchToday, d.todayOptions())
}

// WatchToday mounts the today read: it refetches now, every minute, and on
// focus until the observer is closed. Task reads deliberately have no timer.
func (d *Dashboard) WatchToday() *query.Observer[*models.Attendance] {
	return query.Observe(d.cache, TodayAttendanceKey, d.fetchToday, d.todayOptions())
}

func (d *Dashboard) fetchToday(ctx context.Context) (*models.Attendance, error) {
	env, err := d.attendance.Today(ctx)
	if err != nil {
		return nil, err
	}
	return env.Data.Attendance, nil
}

// AttendanceHistory reads one page of past records. limit 0 means the default page size.
func (d *Dashboard) AttendanceHistory(ctx context.Context, limit, offset int) query.Result[models.AttendancePage] {
	if limit <= 0 {
		limit = gateway.DefaultHistoryLimit
	}
	fetch := func(ctx context.Context) (models.AttendancePage, error) {
		env, err := d.attendance.History(ctx, limit, offset)
		if err != nil {
			return models.AttendancePage{}, err
		}
		return env.Data, nil
	}
	return query.Query(ctx, d.cache, HistoryKey(limit, offset), fetch, query.Options{
		StaleAfter:   HistoryStaleAfter,
		Gate:         d.session.IsAuthenticated,
		OnError:      d.authFailed,
		ErrorMessage: "Failed to load attendance history.",
	})
}

// Tasks reads one task listing. A zero limit is normalised to the default so
// equal requests share one identity.
func (d *Dashboard) Tasks(ctx context.Context, f models.TaskFilter) query.Result[models.TaskPage] {
	if f.Limit <= 0 {
		f.Limit = gateway.DefaultTaskLimit
	}
	fetch := func(ctx context.Context) (models.TaskPage, error) {
		env, err := d.tasks.List(ctx, f)
		if err != nil {
			return models.TaskPage{}, err
		}
		return env.Data, nil
	}
	return query.Query(ctx, d.cache, TasksKey(f), fetch, query.Options{
		StaleAfter:   TasksStaleAfter,
		Gate:         d.session.IsAuthenticated,
		OnError:      d.authFailed,
		ErrorMessage: "Failed to load tasks.",
	})
}

// Task reads one task. An empty id leaves the read idle.
func (d *Dashboard) Task(ctx context.Context, id string) query.Result[models.Task] {
	fetch := func(ctx context.Context) (models.Task, error) {
		env, err := d.tasks.Get(ctx, id)
		if err != nil {
			return models.Task{}, err
		}
		return env.Data.Task, nil
	}
	return query.Query(ctx, d.cache, TaskKey(id), fetch, query.Options{
		Disabled:     id == "",
		Gate:         d.session.IsAuthenticated,
		OnError:      d.authFailed,
		ErrorMessage: "Failed to load task.",
	})
}
