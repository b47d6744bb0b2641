package dashboard

import (
	"context"

	"github.com/atinyakov/Workboard/internal/client/query"
	"github.com/atinyakov/Workboard/internal/models"
	"go.uber.org/zap"
)

func envelopeMessage[T any](env *models.Envelope[T]) string {
	if env == nil {
		return ""
	}
	return env.Message
}

func (d *Dashboard) initMutations() {
	attendanceReads := []query.Matcher{
		query.Exact(TodayAttendanceKey),
		query.Prefix(query.Key{"attendanceHistory"}),
	}
	taskLists := []query.Matcher{query.Prefix(query.Key{"tasks"})}

	d.login = query.NewMutation(d.cache, d.auth.Login, d.authOptions("Login successful!", "Login failed. Please try again."))
	d.signup = query.NewMutation(d.cache, d.auth.Signup, d.authOptions("Registration successful!", "Registration failed. Please try again."))

	d.checkIn = query.NewMutation(d.cache, func(ctx context.Context, notes *string) (attendanceEnvelope, error) {
		return d.attendance.CheckIn(ctx, notes)
	}, query.MutateOptions[attendanceEnvelope]{
		Invalidates:    attendanceReads,
		Message:        envelopeMessage[models.AttendanceData],
		SuccessMessage: "Checked in successfully!",
		ErrorMessage:   "Check-in failed. Please try again.",
		OnError:        d.authFailed,
	})

	d.checkOut = query.NewMutation(d.cache, func(ctx context.Context, notes *string) (attendanceEnvelope, error) {
		return d.attendance.CheckOut(ctx, notes)
	}, query.MutateOptions[attendanceEnvelope]{
		Invalidates:    attendanceReads,
		Message:        envelopeMessage[models.AttendanceData],
		SuccessMessage: "Checked out successfully!",
		ErrorMessage:   "Check-out failed. Please try again.",
		OnError:        d.authFailed,
	})

	d.createTask = query.NewMutation(d.cache, func(ctx context.Context, data models.CreateTaskData) (taskEnvelope, error) {
		return d.tasks.Create(ctx, data)
	}, query.MutateOptions[taskEnvelope]{
		Invalidates:    taskLists,
		Message:        envelopeMessage[models.TaskData],
		SuccessMessage: "Task created successfully!",
		ErrorMessage:   "Failed to create task.",
		OnError:        d.authFailed,
	})

	d.updateTask = query.NewMutation(d.cache, func(ctx context.Context, v UpdateTaskVars) (taskEnvelope, error) {
		return d.tasks.Update(ctx, v.ID, v.Data)
	}, query.MutateOptions[taskEnvelope]{
		Invalidates: taskLists,
		InvalidatesFor: func(env taskEnvelope) []query.Matcher {
			if env == nil || env.Data.Task.ID == "" {
				return nil
			}
			return []query.Matcher{query.Exact(TaskKey(env.Data.Task.ID))}
		},
		Message:        envelopeMessage[models.TaskData],
		SuccessMessage: "Task updated successfully!",
		ErrorMessage:   "Failed to update task.",
		OnError:        d.authFailed,
	})

	d.deleteTask = query.NewMutation(d.cache, func(ctx context.Context, id string) (emptyEnvelope, error) {
		return d.tasks.Delete(ctx, id)
	}, query.MutateOptions[emptyEnvelope]{
		Invalidates:    taskLists,
		Message:        envelopeMessage[struct{}],
		SuccessMessage: "Task deleted successfully!",
		ErrorMessage:   "Failed to delete task.",
		OnError:        d.authFailed,
	})
}

// authOptions stores the session before anything else sees the result and
// navigates to the dashboard only while the caller is still waiting.
func (d *Dashboard) authOptions(success, failure string) query.MutateOptions[authEnvelope] {
	return query.MutateOptions[authEnvelope]{
		// A new identity must not see reads cached for the previous one.
		Invalidates: []query.Matcher{query.All()},
		Message:     envelopeMessage[models.AuthData],
		OnSuccess: func(env authEnvelope) {
			if err := d.session.SetSession(env.Data.User, env.Data.Token); err != nil {
				d.log.Error("failed to store session", zap.Error(err))
			}
		},
		OnSettled: func(res query.MutationResult[authEnvelope]) {
			if res.Status == query.StatusSuccess && d.session.IsAuthenticated() {
				d.nav.Navigate(RouteDashboard)
			}
		},
		SuccessMessage: success,
		ErrorMessage:   failure,
	}
}

// Login signs in and stores the returned session.
func (d *Dashboard) Login(ctx context.Context, creds models.LoginCredentials) query.MutationResult[authEnvelope] {
	return d.login.Mutate(ctx, creds)
}

// Signup registers and stores the returned session.
func (d *Dashboard) Signup(ctx context.Context, data models.SignupData) query.MutationResult[authEnvelope] {
	return d.signup.Mutate(ctx, data)
}

// CheckIn opens today's attendance record.
func (d *Dashboard) CheckIn(ctx context.Context, notes *string) query.MutationResult[attendanceEnvelope] {
	return d.checkIn.Mutate(ctx, notes)
}

// CheckOut closes today's attendance record.
func (d *Dashboard) CheckOut(ctx context.Context, notes *string) query.MutationResult[attendanceEnvelope] {
	return d.checkOut.Mutate(ctx, notes)
}

// CreateTask creates a task; every task listing goes stale.
func (d *Dashboard) CreateTask(ctx context.Context, data models.CreateTaskData) query.MutationResult[taskEnvelope] {
	return d.createTask.Mutate(ctx, data)
}

// UpdateTask changes a task; listings and the task itself go stale.
func (d *Dashboard) UpdateTask(ctx context.Context, id string, data models.UpdateTaskData) query.MutationResult[taskEnvelope] {
	return d.updateTask.Mutate(ctx, UpdateTaskVars{ID: id, Data: data})
}

// DeleteTask removes a task.
func (d *Dashboard) DeleteTask(ctx context.Context, id string) query.MutationResult[emptyEnvelope] {
	return d.deleteTask.Mutate(ctx, id)
}

// Pending reports whether any write is in flight.
func (d *Dashboard) Pending() bool {
	return d.login.Pending()+d.signup.Pending()+d.checkIn.Pending()+d.checkOut.Pending()+
		d.createTask.Pending()+d.updateTask.Pending()+d.deleteTask.Pending() > 0
}
