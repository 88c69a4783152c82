package dto

import (
	"todoSync/internal/models/task"
	"todoSync/internal/models/user"
)

type CreateTaskRequest struct {
	Subject  string        `json:"subject"`
	Deadline string        `json:"deadline"`
	Status   task.Status   `json:"status,omitempty"`
	Priority task.Priority `json:"priority,omitempty"`
}

type UpdateTaskRequest struct {
	Subject  *string        `json:"subject,omitempty"`
	Deadline *string        `json:"deadline,omitempty"`
	Status   *task.Status   `json:"status,omitempty"`
	Priority *task.Priority `json:"priority,omitempty"`
}

// Options переводит заданные поля в опции задачи
func (r UpdateTaskRequest) Options() []task.TaskOption {
	var options []task.TaskOption
	if r.Subject != nil {
		options = append(options, task.WithSubject(*r.Subject))
	}
	if r.Deadline != nil {
		options = append(options, task.WithDeadline(*r.Deadline))
	}
	if r.Status != nil {
		options = append(options, task.WithStatus(*r.Status))
	}
	if r.Priority != nil {
		options = append(options, task.WithPriority(*r.Priority))
	}
	return options
}

type TaskResponse struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Deadline  string `json:"deadline"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	IsOverdue bool   `json:"is_overdue"`
	Synced    bool   `json:"synced"`
}

func FromTask(t task.Task) TaskResponse {
	return TaskResponse{
		ID:        t.ID,
		Subject:   t.Subject,
		Deadline:  t.Deadline,
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		IsOverdue: t.IsOverdue,
		Synced:    !task.IsTempID(t.ID),
	}
}

func FromTaskList(tasks []task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type SectionResponse struct {
	Token  string         `json:"token"`
	Status string         `json:"status"`
	Tasks  []TaskResponse `json:"tasks"`
}

type SignInRequest struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Email    string         `json:"email,omitempty"`
	IsPro    bool           `json:"is_pro"`
	Settings *user.Settings `json:"settings,omitempty"`
}

func (r SignInRequest) ToUser() user.User {
	settings := user.DefaultSettings()
	if r.Settings != nil {
		settings = *r.Settings
	}
	return user.User{
		ID:       r.ID,
		Name:     r.Name,
		Email:    r.Email,
		IsPro:    r.IsPro,
		Settings: settings,
	}
}
