package models

import "time"

// Observation — эталонное наблюдение к DICOM-кейсу.
type Observation struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	ObservationText    string    `json:"observation_text"`
	FacultyObservation string    `json:"faculty_observation"`
	Module             string    `json:"module"`
	CreatedAt          time.Time `json:"created_at"`
}

// UserObservation — ответ пользователя на наблюдение.
type UserObservation struct {
	ID              string    `json:"id"`
	ObservationID   string    `json:"observation_id"`
	UserID          string    `json:"user_id"`
	UserObservation string    `json:"user_observation"`
	ObservationText string    `json:"observation_text,omitempty"`
	Module          string    `json:"module,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// DummyObservation — тело запроса на создание наблюдения.
type DummyObservation struct {
	SessionID       string `json:"session_id" validate:"required,uuid"`
	ObservationText string `json:"observation_text" validate:"required"`
	Module          string `json:"module" validate:"required"`
}

// DummyUserObservation — ответ пользователя в запросе.
type DummyUserObservation struct {
	ObservationID   string `json:"observation_id" validate:"omitempty,uuid"`
	UserObservation string `json:"user_observation" validate:"required"`
}

// ObservationWithResponses — наблюдение вместе с ответами пользователей.
type ObservationWithResponses struct {
	Observation
	UserResponses []UserObservation `json:"user_responses"`
}

// ObservationComparison — сравнение ответа пользователя с эталоном.
type ObservationComparison struct {
	ObservationID      string `json:"observation_id"`
	ObservationText    string `json:"observation_text"`
	Module             string `json:"module"`
	FacultyObservation string `json:"faculty_observation"`
	UserObservation    string `json:"user_observation"`
}
