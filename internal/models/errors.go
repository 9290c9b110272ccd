package models

import "errors"

// Сентинел-ошибки доменного уровня. Сервисы оборачивают их через %w,
// HTTP-слой сопоставляет их со статусами ответа.
var (
	// ErrNotFound — запрошенная сущность отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrBadInput — некорректный или нарушающий правила запрос.
	ErrBadInput = errors.New("bad input")
	// ErrUnauthorized — отсутствующие или недействительные учётные данные.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden — попытка изменить чужой ресурс.
	ErrForbidden = errors.New("forbidden")
)
