package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID        string   `json:"id,omitempty" yaml:"id,omitempty"`
	Subject   string   `json:"subject" yaml:"subject"`
	Deadline  string   `json:"deadline" yaml:"deadline"`
	Status    Status   `json:"status" yaml:"status"`
	Priority  Priority `json:"priority,omitempty" yaml:"priority,omitempty"`
	IsOverdue bool     `json:"-" yaml:"-"`
}

// Record - форма документа в удалённом хранилище
type Record struct {
	Subject   string
	Status    Status
	Deadline  string
	Priority  Priority
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Status string
type Priority string

const StatusNotStarted Status = "not started"
const StatusInProgress Status = "in progress"
const StatusCompleted Status = "completed"
const StatusPastDue Status = "past due"

const PriorityLow Priority = "low"
const PriorityNormal Priority = "normal"
const PriorityHigh Priority = "high"

const UntitledSubject = "Untitled"
const DateLayout = "2006-01-02"

const tempIDPrefix = "tmp-"

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusPastDue:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Normalize приводит произвольную запись к полной задаче со значениями по умолчанию
func Normalize(t Task, now time.Time) Task {
	res := Task{
		ID:       t.ID,
		Subject:  t.Subject,
		Deadline: t.Deadline,
		Status:   t.Status,
		Priority: t.Priority,
	}
	if res.Subject == "" {
		res.Subject = UntitledSubject
	}
	if res.Deadline == "" {
		res.Deadline = now.Format(DateLayout)
	}
	if res.Status == "" {
		res.Status = StatusNotStarted
	}
	if res.Priority == "" {
		res.Priority = PriorityNormal
	}
	return res
}

// ToRecord переводит задачу в документ удалённого хранилища; id хранится отдельно
func (t Task) ToRecord(now time.Time) Record {
	priority := t.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	return Record{
		Subject:   t.Subject,
		Status:    t.Status,
		Deadline:  t.Deadline,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func FromRecord(id string, r Record) Task {
	return Task{
		ID:       id,
		Subject:  r.Subject,
		Deadline: r.Deadline,
		Status:   r.Status,
		Priority: r.Priority,
	}
}

// ParseDeadline понимает дату без времени и RFC3339
func ParseDeadline(deadline string) (time.Time, bool) {
	if deadline == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, deadline); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, deadline); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// IsPastDeadline - дедлайн строго раньше now; дата без времени считается полуночью UTC,
// поэтому задача на сегодня просрочена с 00:00 UTC этого дня
func (t Task) IsPastDeadline(now time.Time) bool {
	deadline, ok := ParseDeadline(t.Deadline)
	if !ok {
		return false
	}
	return deadline.Before(now)
}

// NeedsPromotion - задачу пора перевести в past due
func (t Task) NeedsPromotion(now time.Time) bool {
	if t.Status == StatusCompleted || t.Status == StatusPastDue {
		return false
	}
	return t.IsPastDeadline(now)
}

// NextStatus - циклическое переключение статуса пользователем
func NextStatus(s Status) Status {
	switch Status(strings.ToLower(strings.TrimSpace(string(s)))) {
	case StatusNotStarted:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	case StatusPastDue:
		return StatusCompleted
	default:
		return StatusNotStarted
	}
}

// CanTransition: в past due можно из любого статуса, из past due только в completed
func CanTransition(from, to Status) bool {
	if from == to || to == StatusPastDue {
		return true
	}
	if from == StatusPastDue {
		return to == StatusCompleted
	}
	return to.Valid()
}

func NewTempID() string {
	return tempIDPrefix + uuid.NewString()
}

func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}
