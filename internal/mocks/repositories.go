package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/content-ingest-api/internal/models"
	"github.com/content-ingest-api/internal/repository"
)

// MockArticleRepository is an in-memory ArticleRepository enforcing
// the (article_id, locale) and (locale, slug) unique keys
type MockArticleRepository struct {
	mu                sync.Mutex
	Articles          map[int64]models.Article
	Translations      map[int64]models.ArticleTranslation
	nextArticleID     int64
	nextTranslationID int64

	// Err is returned by every call when set
	Err error
	// CreateTranslationErrs are returned, in order, by the next CreateTranslation calls; nil entries insert normally
	CreateTranslationErrs []error
	TouchCalls            int
}

var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles:     make(map[int64]models.Article),
		Translations: make(map[int64]models.ArticleTranslation),
	}
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.nextArticleID++
	article.ID = m.nextArticleID
	m.Articles[article.ID] = *article
	return nil
}

func (m *MockArticleRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.TouchCalls++
	if a, ok := m.Articles[id]; ok {
		a.UpdatedAt = at
		m.Articles[id] = a
	}
	return nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	a, ok := m.Articles[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *MockArticleRepository) FindTranslationBySlug(ctx context.Context, slug string) (*models.ArticleTranslation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var best *models.ArticleTranslation
	for _, t := range m.sortedTranslations() {
		if t.Slug != slug {
			continue
		}
		if best == nil || (t.Locale == models.DefaultLocale && best.Locale != models.DefaultLocale) {
			t := t
			best = &t
		}
	}
	return best, nil
}

func (m *MockArticleRepository) FindTranslation(ctx context.Context, locale, slug string) (*models.ArticleTranslation, error) {
	return m.findOne(func(t models.ArticleTranslation) bool {
		return t.Locale == locale && t.Slug == slug
	})
}

func (m *MockArticleRepository) FindTranslationByLocale(ctx context.Context, articleID int64, locale string) (*models.ArticleTranslation, error) {
	return m.findOne(func(t models.ArticleTranslation) bool {
		return t.ArticleID == articleID && t.Locale == locale
	})
}

func (m *MockArticleRepository) CreateTranslation(ctx context.Context, translation *models.ArticleTranslation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if len(m.CreateTranslationErrs) > 0 {
		err := m.CreateTranslationErrs[0]
		m.CreateTranslationErrs = m.CreateTranslationErrs[1:]
		if err != nil {
			return err
		}
	}
	if err := m.checkUnique(translation); err != nil {
		return err
	}
	m.nextTranslationID++
	translation.ID = m.nextTranslationID
	m.Translations[translation.ID] = *translation
	return nil
}

func (m *MockArticleRepository) UpdateTranslation(ctx context.Context, translation *models.ArticleTranslation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.Translations[translation.ID]; !ok {
		return fmt.Errorf("translation %d not found", translation.ID)
	}
	if err := m.checkUnique(translation); err != nil {
		return err
	}
	m.Translations[translation.ID] = *translation
	return nil
}

func (m *MockArticleRepository) ListTranslations(ctx context.Context, articleID int64) ([]*models.ArticleTranslation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var result []*models.ArticleTranslation
	for _, t := range m.sortedTranslations() {
		if t.ArticleID == articleID {
			t := t
			result = append(result, &t)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Locale < result[j].Locale })
	return result, nil
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Articles), nil
}

// TranslationsFor returns an article's stored translations keyed by locale
func (m *MockArticleRepository) TranslationsFor(articleID int64) map[string]models.ArticleTranslation {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string]models.ArticleTranslation)
	for _, t := range m.Translations {
		if t.ArticleID == articleID {
			result[t.Locale] = t
		}
	}
	return result
}

// Seed stores an article and its translations directly, bypassing uniqueness checks
func (m *MockArticleRepository) Seed(article models.Article, translations ...models.ArticleTranslation) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextArticleID++
	article.ID = m.nextArticleID
	m.Articles[article.ID] = article
	for _, t := range translations {
		m.nextTranslationID++
		t.ID = m.nextTranslationID
		t.ArticleID = article.ID
		m.Translations[t.ID] = t
	}
	return article.ID
}

type articleSnapshot struct {
	articles          map[int64]models.Article
	translations      map[int64]models.ArticleTranslation
	nextArticleID     int64
	nextTranslationID int64
}

func (m *MockArticleRepository) snapshot() articleSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := articleSnapshot{
		articles:          make(map[int64]models.Article, len(m.Articles)),
		translations:      make(map[int64]models.ArticleTranslation, len(m.Translations)),
		nextArticleID:     m.nextArticleID,
		nextTranslationID: m.nextTranslationID,
	}
	for k, v := range m.Articles {
		s.articles[k] = v
	}
	for k, v := range m.Translations {
		s.translations[k] = v
	}
	return s
}

func (m *MockArticleRepository) restore(s articleSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Articles = s.articles
	m.Translations = s.translations
	m.nextArticleID = s.nextArticleID
	m.nextTranslationID = s.nextTranslationID
}

func (m *MockArticleRepository) findOne(match func(models.ArticleTranslation) bool) (*models.ArticleTranslation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, t := range m.sortedTranslations() {
		if match(t) {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func (m *MockArticleRepository) checkUnique(candidate *models.ArticleTranslation) error {
	for id, t := range m.Translations {
		if id == candidate.ID {
			continue
		}
		if t.ArticleID == candidate.ArticleID && t.Locale == candidate.Locale {
			return fmt.Errorf("article_translation article_id_locale: %w", repository.ErrDuplicate)
		}
		if t.Locale == candidate.Locale && t.Slug == candidate.Slug {
			return fmt.Errorf("article_translation locale_slug: %w", repository.ErrDuplicate)
		}
	}
	return nil
}

func (m *MockArticleRepository) sortedTranslations() []models.ArticleTranslation {
	result := make([]models.ArticleTranslation, 0, len(m.Translations))
	for _, t := range m.Translations {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// MockTxRunner emulates a transaction over the article repository:
// state is restored when the function returns an error
type MockTxRunner struct {
	Articles  *MockArticleRepository
	Commits   int
	Rollbacks int
}

var _ repository.TxRunner = (*MockTxRunner)(nil)

func (m *MockTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.Articles.snapshot()
	if err := fn(ctx); err != nil {
		m.Articles.restore(snap)
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

// MockWebhookLogRepository is an in-memory WebhookLogRepository
type MockWebhookLogRepository struct {
	mu            sync.Mutex
	Entries       map[string]*models.WebhookLogEntry
	order         []string
	CreateErr     error
	CompleteErr   error
	CompleteCalls int
}

var _ repository.WebhookLogRepository = (*MockWebhookLogRepository)(nil)

func NewMockWebhookLogRepository() *MockWebhookLogRepository {
	return &MockWebhookLogRepository{
		Entries: make(map[string]*models.WebhookLogEntry),
	}
}

func (m *MockWebhookLogRepository) Create(ctx context.Context, entry *models.WebhookLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	// Postgres TEXT columns refuse these
	if !utf8.ValidString(entry.Payload) || strings.ContainsRune(entry.Payload, 0) {
		return fmt.Errorf("webhook_log: invalid byte sequence for encoding \"UTF8\"")
	}
	stored := *entry
	m.Entries[entry.ID] = &stored
	m.order = append(m.order, entry.ID)
	return nil
}

func (m *MockWebhookLogRepository) Complete(ctx context.Context, entry *models.WebhookLogEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls++
	if m.CompleteErr != nil {
		return false, m.CompleteErr
	}
	stored, ok := m.Entries[entry.ID]
	if !ok || stored.StatusCode != models.StatusPending {
		return false, nil
	}
	stored.StatusCode = entry.StatusCode
	stored.Error = entry.Error
	stored.Response = entry.Response
	stored.CompletedAt = entry.CompletedAt
	return true, nil
}

func (m *MockWebhookLogRepository) GetByRequestID(ctx context.Context, requestID string) (*models.WebhookLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Entries {
		if e.RequestID == requestID {
			stored := *e
			return &stored, nil
		}
	}
	return nil, nil
}

func (m *MockWebhookLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.WebhookLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.WebhookLogEntry
	for i := len(m.order) - 1; i >= 0 && len(result) < limit; i-- {
		stored := *m.Entries[m.order[i]]
		result = append(result, &stored)
	}
	return result, nil
}

func (m *MockWebhookLogRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries), nil
}

// Last returns the most recently created entry
func (m *MockWebhookLogRepository) Last() *models.WebhookLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.order) == 0 {
		return nil
	}
	stored := *m.Entries[m.order[len(m.order)-1]]
	return &stored
}

// MockEventLogRepository is an in-memory append-only EventLogRepository
type MockEventLogRepository struct {
	mu        sync.Mutex
	Entries   []models.EventLogEntry
	AppendErr error
	clock     time.Time
}

var _ repository.EventLogRepository = (*MockEventLogRepository)(nil)

func NewMockEventLogRepository() *MockEventLogRepository {
	return &MockEventLogRepository{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *MockEventLogRepository) Append(ctx context.Context, entry *models.EventLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.clock = m.clock.Add(time.Millisecond)
	entry.ID = int64(len(m.Entries) + 1)
	entry.CreatedAt = m.clock
	m.Entries = append(m.Entries, *entry)
	return nil
}

func (m *MockEventLogRepository) ListByRequestID(ctx context.Context, requestID string) ([]*models.EventLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.EventLogEntry
	for _, e := range m.Entries {
		if e.RequestID == requestID {
			e := e
			result = append(result, &e)
		}
	}
	return result, nil
}

// MockRedirectRepository is an in-memory RedirectRepository
type MockRedirectRepository struct {
	mu        sync.Mutex
	Redirects map[int64]*models.Redirect
	nextID    int64
	Err       error
}

var _ repository.RedirectRepository = (*MockRedirectRepository)(nil)

func NewMockRedirectRepository() *MockRedirectRepository {
	return &MockRedirectRepository{
		Redirects: make(map[int64]*models.Redirect),
	}
}

func (m *MockRedirectRepository) Create(ctx context.Context, redirect *models.Redirect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, r := range m.Redirects {
		if r.SourcePath == redirect.SourcePath {
			return fmt.Errorf("redirect source_path: %w", repository.ErrDuplicate)
		}
	}
	m.nextID++
	redirect.ID = m.nextID
	stored := *redirect
	m.Redirects[redirect.ID] = &stored
	return nil
}

func (m *MockRedirectRepository) FindActiveBySource(ctx context.Context, sourcePath string) (*models.Redirect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, r := range m.Redirects {
		if r.IsActive && r.SourcePath == sourcePath {
			stored := *r
			return &stored, nil
		}
	}
	return nil, nil
}

func (m *MockRedirectRepository) List(ctx context.Context) ([]*models.Redirect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := make([]*models.Redirect, 0, len(m.Redirects))
	for _, r := range m.Redirects {
		stored := *r
		result = append(result, &stored)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockRedirectRepository) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if _, ok := m.Redirects[id]; !ok {
		return false, nil
	}
	delete(m.Redirects, id)
	return true, nil
}

func (m *MockRedirectRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Redirects), nil
}

// MockAliasRepository is an in-memory AliasRepository matching paths case-insensitively
type MockAliasRepository struct {
	mu      sync.Mutex
	Aliases []models.URLAlias
	Lookups []string
	Err     error
}

var _ repository.AliasRepository = (*MockAliasRepository)(nil)

func NewMockAliasRepository() *MockAliasRepository {
	return &MockAliasRepository{}
}

func (m *MockAliasRepository) FindByPath(ctx context.Context, path string) (*models.URLAlias, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups = append(m.Lookups, path)
	if m.Err != nil {
		return nil, m.Err
	}
	for _, a := range m.Aliases {
		if strings.EqualFold(a.FromPath, path) {
			a := a
			return &a, nil
		}
	}
	return nil, nil
}

func (m *MockAliasRepository) InsertIfAbsent(ctx context.Context, alias *models.URLAlias) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for _, a := range m.Aliases {
		if a.FromPath == alias.FromPath {
			return false, nil
		}
	}
	alias.ID = int64(len(m.Aliases) + 1)
	m.Aliases = append(m.Aliases, *alias)
	return true, nil
}

func (m *MockAliasRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Aliases), nil
}

// MockSettingsRepository is an in-memory SettingsRepository
type MockSettingsRepository struct {
	mu       sync.Mutex
	Settings map[string]models.Setting
	Err      error
}

var _ repository.SettingsRepository = (*MockSettingsRepository)(nil)

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{
		Settings: make(map[string]models.Setting),
	}
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.Settings[key]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MockSettingsRepository) Put(ctx context.Context, key, value string) (*models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.Settings[key]
	s.Key = key
	s.Value = value
	s.Version++
	s.UpdatedAt = time.Now()
	m.Settings[key] = s
	return &s, nil
}

// MockStore bundles one in-memory mock per repository
type MockStore struct {
	Tx         *MockTxRunner
	Article    *MockArticleRepository
	WebhookLog *MockWebhookLogRepository
	EventLog   *MockEventLogRepository
	Redirect   *MockRedirectRepository
	Alias      *MockAliasRepository
	Settings   *MockSettingsRepository
}

func NewMockStore() *MockStore {
	articles := NewMockArticleRepository()
	return &MockStore{
		Tx:         &MockTxRunner{Articles: articles},
		Article:    articles,
		WebhookLog: NewMockWebhookLogRepository(),
		EventLog:   NewMockEventLogRepository(),
		Redirect:   NewMockRedirectRepository(),
		Alias:      NewMockAliasRepository(),
		Settings:   NewMockSettingsRepository(),
	}
}

// Repositories exposes the store through the repository interfaces
func (s *MockStore) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Tx:         s.Tx,
		Article:    s.Article,
		WebhookLog: s.WebhookLog,
		EventLog:   s.EventLog,
		Redirect:   s.Redirect,
		Alias:      s.Alias,
		Settings:   s.Settings,
	}
}
