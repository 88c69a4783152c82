package notification_test

import (
	"sync"
	"testing"
	"time"

	"todoSync/internal/models/task"
	"todoSync/internal/models/user"
	"todoSync/internal/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseLeadTime(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"1h", time.Hour},
		{"3h", 3 * time.Hour},
		{"1d", 24 * time.Hour},
		{"3d", 72 * time.Hour},
		{"1w", 168 * time.Hour},
		{"", 24 * time.Hour},
		{"2m", 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, notification.ParseLeadTime(tt.value))
		})
	}
}

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(title, body string, delay time.Duration, taskID string) {
	m.Called(title, body, delay, taskID)
}

func (m *MockScheduler) Cancel(taskID string) {
	m.Called(taskID)
}

type staticSettings struct {
	u  user.User
	ok bool
}

func (s staticSettings) Current() (user.User, bool) { return s.u, s.ok }

var now = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func TestPlanner_Plan(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Deadline: "2026-03-13", Status: task.StatusNotStarted},
		{ID: "2", Deadline: "2026-03-10", Status: task.StatusInProgress},
		{ID: "3", Deadline: "2026-03-20", Status: task.StatusCompleted},
		{ID: "4", Deadline: "2026-01-01", Status: task.StatusPastDue},
		{ID: "5", Deadline: "not a date", Status: task.StatusNotStarted},
	}

	scheduler := new(MockScheduler)
	scheduler.On("Schedule", notification.ReminderTitle, notification.ReminderBody, 48*time.Hour, "1").Once()

	planner := notification.NewPlanner(scheduler, staticSettings{})
	settings := user.Settings{TaskReminders: true, NotificationTime: "1d"}

	assert.Equal(t, 1, planner.Plan(tasks, settings, now))
	scheduler.AssertExpectations(t)
}

func TestPlanner_CancelsRemovedAndDisabled(t *testing.T) {
	scheduler := new(MockScheduler)
	scheduler.On("Schedule", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	scheduler.On("Cancel", "1").Once()
	scheduler.On("Cancel", "2").Once()

	planner := notification.NewPlanner(scheduler, staticSettings{})
	settings := user.Settings{TaskReminders: true, NotificationTime: "1h"}

	tasks := []task.Task{
		{ID: "1", Deadline: "2026-03-13", Status: task.StatusNotStarted},
		{ID: "2", Deadline: "2026-03-14", Status: task.StatusNotStarted},
	}
	assert.Equal(t, 2, planner.Plan(tasks, settings, now))

	// задача 1 выполнена - её напоминание снимается
	tasks[0].Status = task.StatusCompleted
	assert.Equal(t, 1, planner.Plan(tasks, settings, now))

	// напоминания выключены - снимается всё
	assert.Equal(t, 0, planner.Plan(tasks, user.Settings{TaskReminders: false}, now))
	scheduler.AssertExpectations(t)
}

func TestPlanner_OnTasksWithoutUser(t *testing.T) {
	scheduler := new(MockScheduler)
	planner := notification.NewPlanner(scheduler, staticSettings{})

	planner.OnTasks([]task.Task{{ID: "1", Deadline: "2999-01-01", Status: task.StatusNotStarted}})
	scheduler.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTimerScheduler(t *testing.T) {
	var (
		mtx   sync.Mutex
		fired []string
	)
	scheduler := notification.NewTimerScheduler(func(title, body, taskID string) {
		mtx.Lock()
		defer mtx.Unlock()
		fired = append(fired, taskID)
	})
	defer scheduler.Stop()

	scheduler.Schedule("t", "b", time.Hour, "1")
	// замена переносит напоминание
	scheduler.Schedule("t", "b", 10*time.Millisecond, "1")
	scheduler.Schedule("t", "b", 10*time.Millisecond, "2")
	scheduler.Cancel("2")

	require.Eventually(t, func() bool {
		mtx.Lock()
		defer mtx.Unlock()
		return len(fired) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Zero(t, scheduler.Pending())
	mtx.Lock()
	defer mtx.Unlock()
	assert.Equal(t, []string{"1"}, fired)
}
