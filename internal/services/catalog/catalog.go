// Package services собирает витрины сессий (новые, популярные, рекомендованные)
// и пропускает их через классификатор доступа.
package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
	"github.com/magabrotheeeer/medical-education/internal/models"
)

// Лимиты кандидатов для витрин.
const (
	recentDicomLimit = 8
	recentVimeoLimit = 7
	recentLiveLimit  = 5
	topLecturesLimit = 12
	topWatchedLimit  = 15
	recommendHistory = 20
	recommendLimit   = 20
	defaultWatched   = 50
	defaultPageLimit = 10
	recentCacheKey   = "sessions:recent"
	defaultRecentTTL = time.Minute
	allSessionTypes  = "All"
)

// SessionRepository описывает запросы к каталогу сессий.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	RecentSessions(ctx context.Context, kind models.SessionType, limit int) ([]models.Session, error)
	TopRatedSessions(ctx context.Context, kind models.SessionType, limit int) ([]models.Session, error)
	TopViewTotals(ctx context.Context, limit int) ([]models.ViewTotal, error)
	SessionsByIDs(ctx context.Context, ids []string) ([]models.Session, error)
	UpcomingLive(ctx context.Context, from time.Time, limit int) ([]models.Session, error)
	SessionsByPathology(ctx context.Context, pathologyID string) ([]models.Session, error)
	ListSessions(ctx context.Context, kind models.SessionType, limit, offset int) ([]models.Session, int, error)
	MatchingSessions(ctx context.Context, f models.RecommendFilter) ([]models.Session, error)
	LatestSessions(ctx context.Context, excludeIDs []string, limit int) ([]models.Session, error)
	RecentViews(ctx context.Context, userID string, limit int) ([]models.SessionView, error)
	WatchedSessions(ctx context.Context, userID string, kind models.SessionType, limit int) ([]models.WatchedSession, error)
	GetPathology(ctx context.Context, id string) (*models.Pathology, error)

	CreateSession(ctx context.Context, sess models.Session) (string, error)
	UpdateSession(ctx context.Context, sess models.Session, facultyIDs []string) error
	SetSessionFaculty(ctx context.Context, sessionID string, facultyIDs []string) error
	DeleteSession(ctx context.Context, id string) error
	CountFaculty(ctx context.Context, ids []string) (int, error)
}

// Cache описывает кеш, в котором хранится список новых сессий до классификации.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Classifier разделяет сессии на открытые и закрытые для зрителя.
type Classifier interface {
	Classify(items []models.Session, viewer models.ViewerAccess) []models.ControlledSession
}

// CatalogService реализует витрины каталога и администрирование сессий.
type CatalogService struct {
	repo       SessionRepository
	cache      Cache
	classifier Classifier
	recentTTL  time.Duration
	log        *slog.Logger
	now        func() time.Time
}

// NewCatalogService создает новый экземпляр CatalogService.
func NewCatalogService(repo SessionRepository, cache Cache, classifier Classifier, recentTTL time.Duration, log *slog.Logger) *CatalogService {
	if recentTTL <= 0 {
		recentTTL = defaultRecentTTL
	}
	return &CatalogService{
		repo:       repo,
		cache:      cache,
		classifier: classifier,
		recentTTL:  recentTTL,
		log:        log,
		now:        time.Now,
	}
}

func (s *CatalogService) classify(items []models.Session, viewer models.ViewerAccess) []models.ControlledSession {
	out := s.classifier.Classify(items, viewer)
	observe(out)
	return out
}

func byNewest(items []models.Session) {
	slices.SortStableFunc(items, func(a, b models.Session) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// byRating упорядочивает по рейтингу, затем по числу отзывов, затем по дате
// последнего отзыва. Сессии без отзывов идут после сессий с отзывами.
func byRating(items []models.Session) {
	slices.SortStableFunc(items, func(a, b models.Session) int {
		if c := cmp.Compare(b.AverageRating, a.AverageRating); c != 0 {
			return c
		}
		if c := cmp.Compare(b.NumOfReviews, a.NumOfReviews); c != 0 {
			return c
		}
		switch {
		case a.LastReviewAt == nil && b.LastReviewAt == nil:
			return 0
		case a.LastReviewAt == nil:
			return 1
		case b.LastReviewAt == nil:
			return -1
		}
		return b.LastReviewAt.Compare(*a.LastReviewAt)
	})
}

// Recent возвращает новые DICOM-кейсы, лекции и живые программы одним списком.
func (s *CatalogService) Recent(ctx context.Context, viewer models.ViewerAccess) ([]models.ControlledSession, error) {
	const op = "catalog.Recent"

	var merged []models.Session
	found, err := s.cache.Get(ctx, recentCacheKey, &merged)
	if err != nil {
		s.log.Warn("failed to read recent sessions from cache", sl.Op(op), sl.Err(err))
	}
	if !found || err != nil {
		merged, err = s.fetchRecent(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.cache.Set(ctx, recentCacheKey, merged, s.recentTTL); err != nil {
			s.log.Warn("failed to cache recent sessions", sl.Op(op), sl.Err(err))
		}
	}
	return s.classify(merged, viewer), nil
}

func (s *CatalogService) fetchRecent(ctx context.Context) ([]models.Session, error) {
	kinds := []struct {
		kind  models.SessionType
		limit int
	}{
		{models.SessionTypeDicom, recentDicomLimit},
		{models.SessionTypeVimeo, recentVimeoLimit},
		{models.SessionTypeLive, recentLiveLimit},
	}
	merged := make([]models.Session, 0, recentDicomLimit+recentVimeoLimit+recentLiveLimit)
	for _, k := range kinds {
		items, err := s.repo.RecentSessions(ctx, k.kind, k.limit)
		if err != nil {
			return nil, err
		}
		merged = append(merged, items...)
	}
	byNewest(merged)
	return merged, nil
}

// TopRatedLectures возвращает лучшие по рейтингу записанные лекции.
func (s *CatalogService) TopRatedLectures(ctx context.Context, viewer models.ViewerAccess) ([]models.ControlledSession, error) {
	const op = "catalog.TopRatedLectures"
	items, err := s.repo.TopRatedSessions(ctx, models.SessionTypeVimeo, topLecturesLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byRating(items)
	return s.classify(items, viewer), nil
}

// TopRatedCases возвращает лучшие по рейтингу DICOM-кейсы. limit <= 0 означает все.
func (s *CatalogService) TopRatedCases(ctx context.Context, limit int, viewer models.ViewerAccess) ([]models.ControlledSession, error) {
	const op = "catalog.TopRatedCases"
	items, err := s.repo.TopRatedSessions(ctx, models.SessionTypeDicom, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byRating(items)
	return s.classify(items, viewer), nil
}

// TopWatched возвращает самые просматриваемые сессии по сумме просмотров.
func (s *CatalogService) TopWatched(ctx context.Context, viewer models.ViewerAccess) ([]models.ControlledSession, error) {
	const op = "catalog.TopWatched"
	totals, err := s.repo.TopViewTotals(ctx, topWatchedLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(totals) == 0 {
		return s.classify(nil, viewer), nil
	}

	ids := make([]string, 0, len(totals))
	for _, t := range totals {
		ids = append(ids, t.SessionID)
	}
	found, err := s.repo.SessionsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byID := make(map[string]models.Session, len(found))
	for _, sess := range found {
		byID[sess.ID] = sess
	}

	items := make([]models.Session, 0, len(totals))
	for _, t := range totals {
		sess, ok := byID[t.SessionID]
		if !ok {
			continue
		}
		sess.TotalViews = t.TotalViews
		items = append(items, sess)
	}
	slices.SortStableFunc(items, func(a, b models.Session) int {
		return cmp.Compare(b.TotalViews, a.TotalViews)
	})
	return s.classify(items, viewer), nil
}

// UpcomingLive возвращает ближайшие живые программы.
func (s *CatalogService) UpcomingLive(ctx context.Context, limit int, viewer models.ViewerAccess) ([]models.ControlledSession, error) {
	const op = "catalog.UpcomingLive"
	if limit <= 0 {
		limit = defaultPageLimit
	}
	items, err := s.repo.UpcomingLive(ctx, s.now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.classify(items, viewer), nil
}

func normalizePage(page, limit int) (int, int) {
	return max(page, 1), max(limit, 1)
}

// ByPathology возвращает страницу сессий патологии. Классификация выполняется
// до пагинации, поэтому доля закрытых сессий одинакова на всех страницах.
func (s *CatalogService) ByPathology(ctx context.Context, pathologyID string, page, limit int, viewer models.ViewerAccess) (*models.ControlledPage, error) {
	const op = "catalog.ByPathology"
	page, limit = normalizePage(page, limit)

	if _, err := s.repo.GetPathology(ctx, pathologyID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	items, err := s.repo.SessionsByPathology(ctx, pathologyID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	breakdown := &models.Breakdown{}
	for _, sess := range items {
		switch sess.SessionType {
		case models.SessionTypeDicom:
			breakdown.DicomCount++
		case models.SessionTypeVimeo:
			breakdown.RecordedCount++
		case models.SessionTypeLive:
			breakdown.LiveCount++
		}
	}
	byNewest(items)
	classified := s.classify(items, viewer)

	skip := min((page-1)*limit, len(classified))
	end := min(skip+limit, len(classified))
	return &models.ControlledPage{
		Sessions:   classified[skip:end],
		TotalCount: len(classified),
		Page:       page,
		Limit:      limit,
		Breakdown:  breakdown,
	}, nil
}

// Recommended подбирает непросмотренные сессии, похожие на последние просмотры
// пользователя по патологии, сложности или преподавателю. Без истории
// возвращаются новейшие непросмотренные сессии. У гостя истории нет.
func (s *CatalogService) Recommended(ctx context.Context, userID string, viewer models.ViewerAccess) ([]models.ControlledSession, error) {
	const op = "catalog.Recommended"

	var (
		items []models.Session
		seen  []string
	)
	if userID != "" {
		views, err := s.repo.RecentViews(ctx, userID, recommendHistory)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		for _, v := range views {
			seen = append(seen, v.SessionID)
		}
	}

	if len(seen) > 0 {
		viewed, err := s.repo.SessionsByIDs(ctx, seen)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		filter := facets(viewed)
		filter.ExcludeIDs = seen
		filter.Limit = recommendLimit
		if !filter.Empty() {
			items, err = s.repo.MatchingSessions(ctx, filter)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if len(items) == 0 {
		var err error
		items, err = s.repo.LatestSessions(ctx, seen, recommendLimit)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	byNewest(items)
	return s.classify(items, viewer), nil
}

func facets(seen []models.Session) models.RecommendFilter {
	var f models.RecommendFilter
	for _, sess := range seen {
		if sess.PathologyID != "" && !slices.Contains(f.PathologyIDs, sess.PathologyID) {
			f.PathologyIDs = append(f.PathologyIDs, sess.PathologyID)
		}
		if sess.Difficulty != "" && !slices.Contains(f.Difficulties, sess.Difficulty) {
			f.Difficulties = append(f.Difficulties, sess.Difficulty)
		}
		for _, fid := range sess.FacultyIDs() {
			if !slices.Contains(f.FacultyIDs, fid) {
				f.FacultyIDs = append(f.FacultyIDs, fid)
			}
		}
	}
	return f
}

func parseKind(op, kind string) (models.SessionType, error) {
	if kind == "" || kind == allSessionTypes {
		return "", nil
	}
	t := models.SessionType(kind)
	if !t.Valid() {
		return "", fmt.Errorf("%s: unknown session type %q: %w", op, kind, models.ErrBadInput)
	}
	return t, nil
}

// List возвращает страницу сессий для администратора без ограничений доступа.
// kind "All" или пустая строка означает все виды.
func (s *CatalogService) List(ctx context.Context, kind string, page, limit int) (*models.SessionPage, error) {
	const op = "catalog.List"
	t, err := parseKind(op, kind)
	if err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit)
	items, total, err := s.repo.ListSessions(ctx, t, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.SessionPage{Sessions: items, TotalCount: total, Page: page, Limit: limit}, nil
}

// Watched возвращает историю просмотров пользователя с позицией воспроизведения.
func (s *CatalogService) Watched(ctx context.Context, userID, kind string, limit int) ([]models.WatchedSession, error) {
	const op = "catalog.Watched"
	t, err := parseKind(op, kind)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultWatched
	}
	items, err := s.repo.WatchedSessions(ctx, userID, t, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Get возвращает одну сессию, классифицированную как список из одного элемента.
func (s *CatalogService) Get(ctx context.Context, id string, viewer models.ViewerAccess) (*models.ControlledSession, error) {
	const op = "catalog.Get"
	sess, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := s.classify([]models.Session{*sess}, viewer)
	return &out[0], nil
}
