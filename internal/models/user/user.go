package user

// User - профиль пользователя; хранится документом на пользователя вместе с настройками
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Bio    string `json:"bio,omitempty"`
	Course string `json:"course,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	// только флаг в данных, оплаты здесь нет
	IsPro    bool     `json:"is_pro"`
	Settings Settings `json:"settings"`
}

const DefaultAvatar = "https://cdn-icons-png.flaticon.com/512/1946/1946429.png"

// ProfileUpdate - редактируемая пользователем часть профиля
type ProfileUpdate struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Bio    string `json:"bio,omitempty"`
	Course string `json:"course,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// WithProfile заменяет поля профиля целиком; id, Pro и настройки не меняются
func (u User) WithProfile(p ProfileUpdate) User {
	u.Name = p.Name
	u.Email = p.Email
	u.Bio = p.Bio
	u.Course = p.Course
	u.Avatar = p.Avatar
	if u.Avatar == "" {
		u.Avatar = DefaultAvatar
	}
	return u
}

// Clone копирует пользователя вместе со срезом видимости
func (u User) Clone() User {
	u.Settings.TaskVisibility = append([]string(nil), u.Settings.TaskVisibility...)
	return u
}

type SortOption string

const SortByDeadline SortOption = "deadline"
const SortBySubject SortOption = "subject"
const SortByCompletion SortOption = "completion"

// токены видимости секций списка
const VisibilityNotStarted = "notStarted"
const VisibilityInProgress = "inProgress"
const VisibilityCompleted = "completed"
const VisibilityPastDue = "pastDue"

type Settings struct {
	AutoSort         bool       `json:"auto_sort"`
	SortBy           SortOption `json:"sort_by,omitempty"`
	TaskVisibility   []string   `json:"task_visibility,omitempty"`
	TaskReminders    bool       `json:"task_reminders"`
	NotificationTime string     `json:"notification_time,omitempty"`
}

func AllVisibility() []string {
	return []string{VisibilityNotStarted, VisibilityInProgress, VisibilityCompleted, VisibilityPastDue}
}

func DefaultSettings() Settings {
	return Settings{
		AutoSort:         false,
		SortBy:           SortByDeadline,
		TaskVisibility:   AllVisibility(),
		TaskReminders:    true,
		NotificationTime: "1d",
	}
}

// WithDefaults заполняет незаданные настройки так же, как экран настроек
func (s Settings) WithDefaults() Settings {
	if len(s.TaskVisibility) == 0 {
		s.TaskVisibility = AllVisibility()
	}
	if s.SortBy == "" {
		s.SortBy = SortByDeadline
	}
	if !s.TaskReminders {
		s.NotificationTime = ""
	} else if s.NotificationTime == "" {
		s.NotificationTime = "1d"
	}
	return s
}
