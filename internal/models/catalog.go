package models

import "time"

// Module — учебный модуль, объединяющий патологии.
type Module struct {
	ID          string    `json:"id"`
	ModuleName  string    `json:"module_name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Assessment  bool      `json:"assessment"`
	CreatedAt   time.Time `json:"created_at"`
}

// ModuleSummary — модуль со счётчиками для витрины.
type ModuleSummary struct {
	ID                    string   `json:"id"`
	ModuleName            string   `json:"module_name"`
	ImageURL              string   `json:"image_url,omitempty"`
	Assessment            bool     `json:"assessment"`
	TotalPathologiesCount int      `json:"total_pathologies_count"`
	TotalSessionsCount    *int     `json:"total_sessions_count,omitempty"`
	RandomPathologyNames  []string `json:"random_pathology_names"`
	PathologyNames        []string `json:"-"`
}

// DummyModule используется для приёма данных модуля из JSON-запроса.
type DummyModule struct {
	ModuleName  string `json:"module_name" validate:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Assessment  bool   `json:"assessment"`
}

// Pathology — патология внутри модуля.
type Pathology struct {
	ID            string    `json:"id"`
	PathologyName string    `json:"pathology_name"`
	Description   string    `json:"description,omitempty"`
	ModuleID      string    `json:"module_id"`
	ImageURL      string    `json:"image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DummyPathology используется для приёма данных патологии из JSON-запроса.
type DummyPathology struct {
	PathologyName string `json:"pathology_name" validate:"required"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
}

// ModulePathologies — патологии модуля вместе с флагом тестирования модуля.
type ModulePathologies struct {
	Assessment  bool        `json:"assessment"`
	Pathologies []Pathology `json:"pathologies"`
}

// Faculty — преподаватель.
type Faculty struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Designation string    `json:"designation,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DummyFaculty используется для приёма данных преподавателя из JSON-запроса.
type DummyFaculty struct {
	Name        string `json:"name" validate:"required"`
	Designation string `json:"designation"`
	Bio         string `json:"bio"`
	Image       string `json:"image"`
}
