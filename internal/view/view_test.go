package view_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"todoSync/internal/models/task"
	"todoSync/internal/models/user"
	"todoSync/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func sample() []task.Task {
	return []task.Task{
		{ID: "1", Subject: "Essay", Deadline: "2026-04-01", Status: task.StatusNotStarted, Priority: task.PriorityNormal},
		{ID: "2", Subject: "report", Deadline: "2026-03-20", Status: task.StatusInProgress, Priority: task.PriorityHigh},
		{ID: "3", Subject: "Lab", Deadline: "2026-01-01", Status: task.StatusCompleted, Priority: task.PriorityLow},
		{ID: "4", Subject: "Annual Report", Deadline: "2026-02-01", Status: task.StatusPastDue, Priority: task.PriorityNormal},
	}
}

func ids(tasks []task.Task) []string {
	res := make([]string, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, t.ID)
	}
	return res
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		params   view.Params
		expected []string
	}{
		{
			name:     "all sections without sorting keeps order",
			params:   view.Params{Section: view.SectionAll, Now: now},
			expected: []string{"1", "2", "3", "4"},
		},
		{
			name:     "single status section",
			params:   view.Params{Section: string(task.StatusPastDue), Now: now},
			expected: []string{"4"},
		},
		{
			name:     "section by visibility token",
			params:   view.Params{Section: user.VisibilityInProgress, Now: now},
			expected: []string{"2"},
		},
		{
			name:     "visibility hides sections",
			params:   view.Params{Section: view.SectionAll, Visibility: []string{user.VisibilityNotStarted, user.VisibilityPastDue}, Now: now},
			expected: []string{"1", "4"},
		},
		{
			name:     "case-insensitive search",
			params:   view.Params{Search: "REPORT", Now: now},
			expected: []string{"2", "4"},
		},
		{
			name:     "auto sort by deadline",
			params:   view.Params{AutoSort: true, Now: now},
			expected: []string{"3", "4", "2", "1"},
		},
		{
			name:     "auto sort by subject",
			params:   view.Params{AutoSort: true, SortBy: user.SortBySubject, Now: now},
			expected: []string{"4", "1", "3", "2"},
		},
		{
			name:     "auto sort by completion",
			params:   view.Params{AutoSort: true, SortBy: user.SortByCompletion, Now: now},
			expected: []string{"1", "2", "4", "3"},
		},
		{
			name:     "sort flag without auto sort is ignored",
			params:   view.Params{SortBy: user.SortBySubject, Now: now},
			expected: []string{"1", "2", "3", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := sample()
			result := view.Compute(input, tt.params)
			assert.Equal(t, tt.expected, ids(result))
			assert.Equal(t, sample(), input, "входной срез не должен меняться")
		})
	}
}

func TestCompute_StableDeadlineSort(t *testing.T) {
	tasks := []task.Task{
		{ID: "a", Deadline: "2026-05-01", Status: task.StatusNotStarted},
		{ID: "b", Deadline: "2026-04-01", Status: task.StatusNotStarted},
		{ID: "c", Deadline: "2026-05-01", Status: task.StatusNotStarted},
	}
	result := view.Compute(tasks, view.Params{AutoSort: true, Now: now})
	assert.Equal(t, []string{"b", "a", "c"}, ids(result))
}

func TestCompute_IsOverdue(t *testing.T) {
	result := view.Compute(sample(), view.Params{Now: now})
	overdue := map[string]bool{}
	for _, r := range result {
		overdue[r.ID] = r.IsOverdue
	}
	assert.Equal(t, map[string]bool{"1": false, "2": false, "3": false, "4": true}, overdue)
}

func TestCompute_Idempotent(t *testing.T) {
	params := view.Params{Search: "e", AutoSort: true, Now: now}
	tasks := sample()
	assert.Equal(t, view.Compute(tasks, params), view.Compute(tasks, params))
}

func TestOverdue(t *testing.T) {
	tasks := append(sample(), task.Task{ID: "5", Subject: "Old", Deadline: "2020-01-01", Status: task.StatusInProgress})

	promoted := view.Overdue(tasks, now)
	require.Len(t, promoted, 1)
	assert.Equal(t, "5", promoted[0].ID)
	assert.Equal(t, task.StatusPastDue, promoted[0].Status)
	assert.Equal(t, task.StatusInProgress, tasks[4].Status)
}

func TestSections(t *testing.T) {
	sections := view.Sections(sample(), []string{user.VisibilityCompleted, user.VisibilityNotStarted}, now)
	require.Len(t, sections, 2)
	assert.Equal(t, task.StatusNotStarted, sections[0].Status)
	assert.Equal(t, []string{"1"}, ids(sections[0].Tasks))
	assert.Equal(t, task.StatusCompleted, sections[1].Status)

	all := view.Sections(nil, nil, now)
	require.Len(t, all, 4)
	assert.NotNil(t, all[0].Tasks)
}

func TestProgress(t *testing.T) {
	stats := view.Progress(sample())
	assert.Equal(t, view.ProgressStats{Total: 4, NotStarted: 1, InProgress: 1, Completed: 1, PastDue: 1, Percent: 25}, stats)
	assert.Equal(t, view.ProgressStats{}, view.Progress(nil))
}

func TestParamsFromSettings(t *testing.T) {
	p := view.ParamsFromSettings(user.Settings{AutoSort: true}, now)
	assert.Equal(t, view.SectionAll, p.Section)
	assert.Equal(t, user.AllVisibility(), p.Visibility)
	assert.Equal(t, user.SortByDeadline, p.SortBy)
	assert.True(t, p.AutoSort)
}

// MockTaskSource - мок сервиса синхронизации, который применяет обновления к своему списку
type MockTaskSource struct {
	mock.Mock
	tasks []task.Task
}

func (m *MockTaskSource) Tasks() []task.Task {
	return append([]task.Task(nil), m.tasks...)
}

func (m *MockTaskSource) Update(ctx context.Context, t task.Task) error {
	args := m.Called(ctx, t)
	if err := args.Error(0); err != nil {
		return err
	}
	for i := range m.tasks {
		if m.tasks[i].ID == t.ID {
			m.tasks[i].Status = t.Status
		}
	}
	return nil
}

func TestEngine_RefreshPromotesEssay(t *testing.T) {
	src := &MockTaskSource{tasks: []task.Task{
		{ID: "1", Subject: "Essay", Deadline: "2020-01-01", Status: task.StatusNotStarted},
	}}
	src.On("Update", mock.Anything, task.Task{ID: "1", Status: task.StatusPastDue}).Return(nil).Once()

	engine := view.NewEngine(src)
	params := view.Params{Section: view.SectionAll, Now: now}

	first := engine.Refresh(context.Background(), params)
	require.Len(t, first, 1)
	assert.Equal(t, task.StatusPastDue, first[0].Status)
	assert.True(t, first[0].IsOverdue)

	// повторный проход не должен снова продвигать задачу
	second := engine.Refresh(context.Background(), params)
	assert.Equal(t, first, second)
	src.AssertExpectations(t)
}

func TestEngine_PromoteOverdueContinuesOnError(t *testing.T) {
	src := &MockTaskSource{tasks: []task.Task{
		{ID: "1", Deadline: "2020-01-01", Status: task.StatusNotStarted},
		{ID: "2", Deadline: "2020-01-02", Status: task.StatusInProgress},
		{ID: "3", Deadline: "2020-01-03", Status: task.StatusCompleted},
	}}
	src.On("Update", mock.Anything, task.Task{ID: "1", Status: task.StatusPastDue}).Return(errors.New("no user")).Once()
	src.On("Update", mock.Anything, task.Task{ID: "2", Status: task.StatusPastDue}).Return(nil).Once()

	engine := view.NewEngine(src)
	assert.Equal(t, 1, engine.PromoteOverdue(context.Background(), now))
	src.AssertExpectations(t)
}
