package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID         string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // Хэш пароля пользователя
	Role         string    // Роль пользователя, admin или user
	CreatedAt    time.Time // Дата регистрации
}

const (
	// RoleAdmin — роль администратора контента.
	RoleAdmin = "admin"
	// RoleUser — роль по умолчанию.
	RoleUser = "user"
)
