package access

import "github.com/magabrotheeeer/medical-education/internal/models"

const (
	descriptionLimit = 100
	ellipsis         = "..."
	untitledSession  = "Untitled Session"
)

// Redact возвращает проекцию заблокированной сессии: только безопасные поля,
// описание обрезано до 100 символов. Ссылки на ресурсы, видео, DICOM и
// параметры подключения к трансляциям не копируются.
func Redact(s models.Session) models.Session {
	title := s.Title
	if title == "" {
		title = untitledSession
	}
	return models.Session{
		ID:                s.ID,
		Title:             title,
		Description:       truncate(s.Description),
		ModuleID:          s.ModuleID,
		ModuleName:        s.ModuleName,
		PathologyID:       s.PathologyID,
		PathologyName:     s.PathologyName,
		Difficulty:        s.Difficulty,
		IsFree:            s.IsFree,
		ImageURL1920x1080: s.ImageURL1920x1080,
		ImageURL522x760:   s.ImageURL522x760,
		SessionType:       s.SessionType,
		Faculty:           s.Faculty,
		CreatedAt:         s.CreatedAt,
	}
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= descriptionLimit {
		return text
	}
	return string(runes[:descriptionLimit]) + ellipsis
}
