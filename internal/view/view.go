package view

import (
	"slices"
	"strings"
	"time"

	"todoSync/internal/models/task"
	"todoSync/internal/models/user"
)

// SectionAll - показать все секции, отфильтрованные по настройкам видимости
const SectionAll = "all"

type Params struct {
	Search     string
	Section    string
	Visibility []string
	AutoSort   bool
	SortBy     user.SortOption
	Now        time.Time
}

// ParamsFromSettings собирает параметры отображения из настроек пользователя
func ParamsFromSettings(settings user.Settings, now time.Time) Params {
	settings = settings.WithDefaults()
	return Params{
		Section:    SectionAll,
		Visibility: settings.TaskVisibility,
		AutoSort:   settings.AutoSort,
		SortBy:     settings.SortBy,
		Now:        now,
	}
}

type Section struct {
	Token  string      `json:"token"`
	Status task.Status `json:"status"`
	Tasks  []task.Task `json:"tasks"`
}

type ProgressStats struct {
	Total      int `json:"total"`
	NotStarted int `json:"not_started"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	PastDue    int `json:"past_due"`
	Percent    int `json:"percent"`
}

var sectionOrder = []struct {
	token  string
	status task.Status
}{
	{user.VisibilityNotStarted, task.StatusNotStarted},
	{user.VisibilityInProgress, task.StatusInProgress},
	{user.VisibilityCompleted, task.StatusCompleted},
	{user.VisibilityPastDue, task.StatusPastDue},
}

func statusForToken(token string) (task.Status, bool) {
	for _, s := range sectionOrder {
		if s.token == token {
			return s.status, true
		}
	}
	return "", false
}

// Overdue возвращает копии задач, которые пора перевести в past due
func Overdue(tasks []task.Task, now time.Time) []task.Task {
	res := make([]task.Task, 0)
	for _, t := range tasks {
		if !t.NeedsPromotion(now) {
			continue
		}
		t.Status = task.StatusPastDue
		t.IsOverdue = true
		res = append(res, t)
	}
	return res
}

// Compute фильтрует по секции и поиску, затем при включённой автосортировке сортирует.
// Входной срез не меняется.
func Compute(tasks []task.Task, p Params) []task.Task {
	visible := visibleStatuses(p.Section, p.Visibility)
	search := strings.ToLower(strings.TrimSpace(p.Search))

	res := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		t.IsOverdue = isOverdue(t, p.Now)

		if _, ok := visible[t.Status]; !ok {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Subject), search) {
			continue
		}
		res = append(res, t)
	}

	if p.AutoSort {
		sortTasks(res, p.SortBy)
	}
	return res
}

// Sections группирует задачи по статусу в порядке секций списка, скрытые секции пропускаются
func Sections(tasks []task.Task, visibility []string, now time.Time) []Section {
	visible := visibleStatuses(SectionAll, visibility)

	res := make([]Section, 0, len(sectionOrder))
	for _, s := range sectionOrder {
		if _, ok := visible[s.status]; !ok {
			continue
		}
		section := Section{Token: s.token, Status: s.status, Tasks: []task.Task{}}
		for _, t := range tasks {
			if t.Status == s.status {
				t.IsOverdue = isOverdue(t, now)
				section.Tasks = append(section.Tasks, t)
			}
		}
		res = append(res, section)
	}
	return res
}

func Progress(tasks []task.Task) ProgressStats {
	stats := ProgressStats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case task.StatusNotStarted:
			stats.NotStarted++
		case task.StatusInProgress:
			stats.InProgress++
		case task.StatusCompleted:
			stats.Completed++
		case task.StatusPastDue:
			stats.PastDue++
		}
	}
	if stats.Total > 0 {
		stats.Percent = stats.Completed * 100 / stats.Total
	}
	return stats
}

func isOverdue(t task.Task, now time.Time) bool {
	return t.Status != task.StatusCompleted && t.IsPastDeadline(now)
}

func visibleStatuses(section string, visibility []string) map[task.Status]struct{} {
	res := make(map[task.Status]struct{}, len(sectionOrder))

	if section != "" && section != SectionAll {
		status := task.Status(section)
		if s, ok := statusForToken(section); ok {
			status = s
		}
		res[status] = struct{}{}
		return res
	}

	if len(visibility) == 0 {
		visibility = user.AllVisibility()
	}
	for _, token := range visibility {
		if s, ok := statusForToken(token); ok {
			res[s] = struct{}{}
		}
	}
	return res
}

var completionRank = map[task.Status]int{
	task.StatusNotStarted: 0,
	task.StatusInProgress: 1,
	task.StatusPastDue:    2,
	task.StatusCompleted:  3,
}

func sortTasks(tasks []task.Task, by user.SortOption) {
	switch by {
	case user.SortBySubject:
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			return strings.Compare(strings.ToLower(a.Subject), strings.ToLower(b.Subject))
		})
	case user.SortByCompletion:
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			return completionRank[a.Status] - completionRank[b.Status]
		})
	default:
		// ISO-даты сравниваются как строки
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			return strings.Compare(a.Deadline, b.Deadline)
		})
	}
}
