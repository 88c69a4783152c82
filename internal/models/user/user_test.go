package user_test

import (
	"testing"

	"todoSync/internal/models/user"

	"github.com/stretchr/testify/assert"
)

func TestSettings_WithDefaults(t *testing.T) {
	tests := []struct {
		name     string
		input    user.Settings
		expected user.Settings
	}{
		{
			name:  "empty settings with reminders off",
			input: user.Settings{NotificationTime: "3h"},
			expected: user.Settings{
				SortBy:         user.SortByDeadline,
				TaskVisibility: user.AllVisibility(),
			},
		},
		{
			name:  "reminders on without time fall back to a day",
			input: user.Settings{TaskReminders: true, TaskVisibility: []string{user.VisibilityCompleted}},
			expected: user.Settings{
				SortBy:           user.SortByDeadline,
				TaskVisibility:   []string{user.VisibilityCompleted},
				TaskReminders:    true,
				NotificationTime: "1d",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.input.WithDefaults())
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	s := user.DefaultSettings()
	assert.True(t, s.TaskReminders)
	assert.Equal(t, "1d", s.NotificationTime)
	assert.Len(t, s.TaskVisibility, 4)
	assert.False(t, s.AutoSort)
}

func TestUser_WithProfile(t *testing.T) {
	base := user.User{ID: "alice", Name: "Alice", Avatar: "a.png", IsPro: true, Settings: user.DefaultSettings()}

	updated := base.WithProfile(user.ProfileUpdate{Name: "Alice B", Course: "CS"})

	assert.Equal(t, "alice", updated.ID)
	assert.Equal(t, "Alice B", updated.Name)
	assert.Equal(t, "CS", updated.Course)
	assert.Equal(t, user.DefaultAvatar, updated.Avatar)
	assert.True(t, updated.IsPro)
	assert.Equal(t, user.DefaultSettings(), updated.Settings)
}

func TestUser_CloneCopiesVisibility(t *testing.T) {
	base := user.User{ID: "alice", Settings: user.DefaultSettings()}

	clone := base.Clone()
	clone.Settings.TaskVisibility[0] = "changed"

	assert.Equal(t, user.VisibilityNotStarted, base.Settings.TaskVisibility[0])
}
