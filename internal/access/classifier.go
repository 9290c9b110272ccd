// Package access применяет правила доступа к спискам сессий.
//
// Classifier решает, какие сессии открыты зрителю, какие бесплатные сессии
// показываются гостю как тизеры, и скрывает платные данные у заблокированных
// сессий. Пакет не обращается к хранилищу и не возвращает ошибок: пустой вход
// даёт пустой выход.
package access

import (
	"math/rand/v2"
	"slices"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

const (
	// DefaultFreeTeaserCount — число бесплатных тизеров для гостя по умолчанию.
	DefaultFreeTeaserCount = 2
	// loggedInBonus — сколько бесплатных сессий сверх тизеров получает вошедший пользователь.
	loggedInBonus = 3

	// ReasonLogin — причина блокировки для гостя.
	ReasonLogin = "Please login to access more content"
	// ReasonSubscribe — причина блокировки для пользователя без подписки.
	ReasonSubscribe = "Subscribe to access this content"
)

// Rand — источник случайности для выборки тизеров.
// *rand.Rand из math/rand/v2 удовлетворяет интерфейсу.
type Rand interface {
	IntN(n int) int
}

// globalRand использует потокобезопасные функции верхнего уровня math/rand/v2.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Classifier размечает сессии как открытые или заблокированные.
type Classifier struct {
	freeTeaserCount int
	rnd             Rand
}

// New создаёт Classifier. Отрицательный freeTeaserCount заменяется значением
// по умолчанию, nil rnd — глобальным источником энтропии.
func New(freeTeaserCount int, rnd Rand) *Classifier {
	if freeTeaserCount < 0 {
		freeTeaserCount = DefaultFreeTeaserCount
	}
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Classifier{
		freeTeaserCount: freeTeaserCount,
		rnd:             rnd,
	}
}

// FreeTeaserCount возвращает настроенное число тизеров.
func (c *Classifier) FreeTeaserCount() int {
	return c.freeTeaserCount
}

// Classify применяет правила доступа к items для зрителя viewer.
//
// Подписчик получает всё открытым и без изменений. Вошедший пользователь без
// подписки получает первые min(teasers+3, free) бесплатных сессий. Гость
// получает случайную выборку без повторов из min(teasers, free) бесплатных
// сессий. Открытые сессии идут первыми, затем заблокированные в исходном
// порядке. Длина результата всегда равна длине items.
func (c *Classifier) Classify(items []models.Session, viewer models.ViewerAccess) []models.ControlledSession {
	out := make([]models.ControlledSession, 0, len(items))

	if viewer.IsSubscribed {
		for _, s := range items {
			out = append(out, models.ControlledSession{
				Session:     s,
				AccessLevel: models.AccessSubscribed,
			})
		}
		return out
	}

	free := make([]int, 0, len(items))
	for i := range items {
		if items[i].IsFree {
			free = append(free, i)
		}
	}

	var (
		open   []int
		level  models.AccessLevel
		reason string
	)
	if viewer.IsLoggedIn {
		level, reason = models.AccessLoggedIn, ReasonSubscribe
		open = free[:min(c.freeTeaserCount+loggedInBonus, len(free))]
	} else {
		level, reason = models.AccessGuest, ReasonLogin
		open = c.sample(free, min(c.freeTeaserCount, len(free)))
	}

	unlocked := make([]bool, len(items))
	for _, i := range open {
		unlocked[i] = true
		out = append(out, models.ControlledSession{
			Session:     items[i],
			AccessLevel: level,
		})
	}
	for i := range items {
		if unlocked[i] {
			continue
		}
		out = append(out, models.ControlledSession{
			Session:     Redact(items[i]),
			IsLocked:    true,
			AccessLevel: level,
			LockReason:  reason,
		})
	}
	return out
}

// sample перемешивает копию idx алгоритмом Фишера–Йетса и возвращает первые k.
func (c *Classifier) sample(idx []int, k int) []int {
	shuffled := slices.Clone(idx)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := c.rnd.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:k]
}
