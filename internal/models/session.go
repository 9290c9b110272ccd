// Package models содержит доменные структуры учебной платформы: сессии
// (DICOM-кейсы, записанные лекции, живые программы), модули, патологии,
// преподавателей, отзывы, наблюдения, пользователей и подписки.
package models

import "time"

// SessionType определяет вид учебного контента.
type SessionType string

const (
	// SessionTypeDicom — DICOM-кейс (разбор снимков).
	SessionTypeDicom SessionType = "Dicom"
	// SessionTypeVimeo — записанная видеолекция.
	SessionTypeVimeo SessionType = "Vimeo"
	// SessionTypeZoom — встреча в Zoom.
	SessionTypeZoom SessionType = "Zoom"
	// SessionTypeLive — живая программа.
	SessionTypeLive SessionType = "Live"
	// SessionTypeAssessment — сессия-тестирование.
	SessionTypeAssessment SessionType = "Assessment"
)

// Valid сообщает, известен ли тип сессии.
func (t SessionType) Valid() bool {
	switch t {
	case SessionTypeDicom, SessionTypeVimeo, SessionTypeZoom, SessionTypeLive, SessionTypeAssessment:
		return true
	}
	return false
}

// FacultyRef — краткая ссылка на преподавателя внутри сессии.
type FacultyRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// Session представляет единицу учебного контента.
// Поля после блока "платные данные" считаются чувствительными и
// не попадают в заблокированную проекцию.
type Session struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description,omitempty"`
	ModuleID          string       `json:"module_id,omitempty"`
	ModuleName        string       `json:"module_name,omitempty"`
	PathologyID       string       `json:"pathology_id,omitempty"`
	PathologyName     string       `json:"pathology_name,omitempty"`
	Difficulty        string       `json:"difficulty,omitempty"`
	IsFree            bool         `json:"is_free"`
	ImageURL1920x1080 string       `json:"image_url_1920x1080,omitempty"`
	ImageURL522x760   string       `json:"image_url_522x760,omitempty"`
	SessionType       SessionType  `json:"session_type"`
	Faculty           []FacultyRef `json:"faculty,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`

	// платные данные
	Sponsored         bool       `json:"sponsored,omitempty"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	StartTime         string     `json:"start_time,omitempty"`
	EndTime           string     `json:"end_time,omitempty"`
	ResourceLinks     []string   `json:"resource_links,omitempty"`
	IsAssessment      bool       `json:"is_assessment,omitempty"`
	DicomStudyID      string     `json:"dicom_study_id,omitempty"`
	DicomCaseID       string     `json:"dicom_case_id,omitempty"`
	DicomCaseVideoURL string     `json:"dicom_case_video_url,omitempty"`
	CaseAccessType    string     `json:"case_access_type,omitempty"`
	SessionDuration   string     `json:"session_duration,omitempty"`
	VimeoVideoID      string     `json:"vimeo_video_id,omitempty"`
	VideoURL          string     `json:"video_url,omitempty"`
	VideoType         string     `json:"video_type,omitempty"`
	ZoomMeetingID     string     `json:"zoom_meeting_id,omitempty"`
	ZoomPassword      string     `json:"zoom_password,omitempty"`
	ZoomJoinURL       string     `json:"zoom_join_url,omitempty"`
	ZoomBackupLink    string     `json:"zoom_backup_link,omitempty"`
	VimeoLiveURL      string     `json:"vimeo_live_url,omitempty"`
	LiveProgramType   string     `json:"live_program_type,omitempty"`
	AverageRating     float64    `json:"average_rating,omitempty"`
	NumOfReviews      int        `json:"num_of_reviews,omitempty"`
	LastReviewAt      *time.Time `json:"last_review_at,omitempty"`
	TotalViews        int64      `json:"total_views,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at,omitempty"`
}

// FacultyIDs возвращает идентификаторы преподавателей сессии.
func (s *Session) FacultyIDs() []string {
	ids := make([]string, 0, len(s.Faculty))
	for _, f := range s.Faculty {
		ids = append(ids, f.ID)
	}
	return ids
}

// DummySession используется для приёма данных сессии из JSON-запроса
// до валидации и преобразования в Session.
type DummySession struct {
	Title             string      `json:"title" validate:"required"`
	Description       string      `json:"description"`
	ModuleID          string      `json:"module_id" validate:"omitempty,uuid"`
	ModuleName        string      `json:"module_name"`
	PathologyID       string      `json:"pathology_id" validate:"omitempty,uuid"`
	PathologyName     string      `json:"pathology_name"`
	Difficulty        string      `json:"difficulty"`
	IsFree            bool        `json:"is_free"`
	Sponsored         bool        `json:"sponsored"`
	ImageURL1920x1080 string      `json:"image_url_1920x1080"`
	ImageURL522x760   string      `json:"image_url_522x760"`
	SessionType       SessionType `json:"session_type" validate:"required"`
	FacultyIDs        []string    `json:"faculty_ids" validate:"omitempty,dive,uuid"`
	StartDate         *time.Time  `json:"start_date"`
	EndDate           *time.Time  `json:"end_date"`
	StartTime         string      `json:"start_time"`
	EndTime           string      `json:"end_time"`
	ResourceLinks     []string    `json:"resource_links"`
	IsAssessment      bool        `json:"is_assessment"`
	DicomStudyID      string      `json:"dicom_study_id"`
	DicomCaseID       string      `json:"dicom_case_id"`
	DicomCaseVideoURL string      `json:"dicom_case_video_url"`
	CaseAccessType    string      `json:"case_access_type"`
	SessionDuration   string      `json:"session_duration"`
	VimeoVideoID      string      `json:"vimeo_video_id"`
	VideoURL          string      `json:"video_url"`
	VideoType         string      `json:"video_type"`
	ZoomMeetingID     string      `json:"zoom_meeting_id"`
	ZoomPassword      string      `json:"zoom_password"`
	ZoomJoinURL       string      `json:"zoom_join_url"`
	ZoomBackupLink    string      `json:"zoom_backup_link"`
	VimeoLiveURL      string      `json:"vimeo_live_url"`
	LiveProgramType   string      `json:"live_program_type"`
}

// SessionPage — страница сессий с общим количеством.
type SessionPage struct {
	Sessions   []Session `json:"sessions"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
}

// ViewTotal — суммарное число просмотров сессии.
type ViewTotal struct {
	SessionID  string
	TotalViews int64
}

// RecommendFilter — признаки, по которым подбираются рекомендации.
// Сессия подходит, если совпадает хотя бы один признак.
type RecommendFilter struct {
	PathologyIDs []string
	Difficulties []string
	FacultyIDs   []string
	ExcludeIDs   []string
	Limit        int
}

// Empty сообщает, что в фильтре нет ни одного признака.
func (f RecommendFilter) Empty() bool {
	return len(f.PathologyIDs) == 0 && len(f.Difficulties) == 0 && len(f.FacultyIDs) == 0
}
