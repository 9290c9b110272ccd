package models

// ViewerAccess описывает уровень доступа зрителя в рамках одного запроса.
// Нулевое значение соответствует гостю.
type ViewerAccess struct {
	IsLoggedIn   bool `json:"is_logged_in"`
	IsSubscribed bool `json:"is_subscribed"`
}

// AccessLevel — уровень доступа, с которым сессия была выдана.
type AccessLevel string

const (
	AccessGuest      AccessLevel = "guest"
	AccessLoggedIn   AccessLevel = "loggedIn"
	AccessSubscribed AccessLevel = "subscribed"
)

// ControlledSession — сессия после применения правил доступа.
type ControlledSession struct {
	Session
	IsLocked    bool        `json:"is_locked"`
	AccessLevel AccessLevel `json:"access_level"`
	LockReason  string      `json:"lock_reason,omitempty"`
}

// Breakdown — распределение сессий по видам контента.
type Breakdown struct {
	DicomCount    int `json:"dicom_count"`
	RecordedCount int `json:"recorded_count"`
	LiveCount     int `json:"live_count"`
}

// ControlledPage — страница сессий после контроля доступа.
type ControlledPage struct {
	Sessions   []ControlledSession `json:"sessions"`
	TotalCount int                 `json:"total_count"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	Breakdown  *Breakdown          `json:"breakdown,omitempty"`
}
