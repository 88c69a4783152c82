package task

type TaskOption func(*Task)

// Apply применяет опции, пропуская nil (пустые значения не перезаписывают поля)
func (t Task) Apply(options ...TaskOption) Task {
	for _, opt := range options {
		if opt != nil {
			opt(&t)
		}
	}
	return t
}

func WithSubject(subject string) TaskOption {
	if subject == "" {
		return nil
	}
	return func(task *Task) {
		task.Subject = subject
	}
}

func WithDeadline(deadline string) TaskOption {
	if deadline == "" {
		return nil
	}
	return func(task *Task) {
		task.Deadline = deadline
	}
}

func WithStatus(status Status) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		task.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	if priority == "" {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

// Merge: заданные поля patch перезаписывают base, остальные сохраняются
func Merge(base, patch Task) Task {
	return base.Apply(
		WithSubject(patch.Subject),
		WithDeadline(patch.Deadline),
		WithStatus(patch.Status),
		WithPriority(patch.Priority),
	)
}
