package application

import (
	"context"
	"sync"
	"time"

	"github.com/example/postpilot/internal/aigen"
	"github.com/example/postpilot/internal/linkedin"
	"github.com/example/postpilot/internal/oauthstate"
	"github.com/example/postpilot/internal/persistence"
)

type userRepositoryStub struct {
	mu        sync.Mutex
	users     map[string]persistence.User
	createErr error
}

func newUserRepositoryStub() *userRepositoryStub {
	return &userRepositoryStub{users: make(map[string]persistence.User)}
}

func (s *userRepositoryStub) CreateUser(_ context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *userRepositoryStub) GetUser(_ context.Context, id string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (s *userRepositoryStub) GetUserByEmail(_ context.Context, email string) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

type sessionRepositoryStub struct {
	mu          sync.Mutex
	sessions    map[string]persistence.Session
	createErr   error
	deleteErr   error
	deleteCalls []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessions: make(map[string]persistence.Session)}
}

func (s *sessionRepositoryStub) CreateSession(_ context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return persistence.Session{}, s.createErr
	}
	s.sessions[session.Token] = session
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(_ context.Context, token string) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionRepositoryStub) RevokeSession(_ context.Context, token string, revokedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	s.sessions[token] = session
	return nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls = append(s.deleteCalls, reference)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

type connectionRepositoryStub struct {
	mu          sync.Mutex
	connections map[string]persistence.LinkedInConnection
	getErr      error
	upsertErr   error
	deleteErr   error
	deleted     []string
}

func newConnectionRepositoryStub() *connectionRepositoryStub {
	return &connectionRepositoryStub{connections: make(map[string]persistence.LinkedInConnection)}
}

func (s *connectionRepositoryStub) set(conn persistence.LinkedInConnection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[conn.UserID] = conn
}

func (s *connectionRepositoryStub) UpsertConnection(_ context.Context, conn persistence.LinkedInConnection) (persistence.LinkedInConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return persistence.LinkedInConnection{}, s.upsertErr
	}
	s.connections[conn.UserID] = conn
	return conn, nil
}

func (s *connectionRepositoryStub) GetConnection(_ context.Context, userID string) (persistence.LinkedInConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return persistence.LinkedInConnection{}, s.getErr
	}
	conn, ok := s.connections[userID]
	if !ok {
		return persistence.LinkedInConnection{}, persistence.ErrNotFound
	}
	return conn, nil
}

func (s *connectionRepositoryStub) DeleteConnection(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.connections[userID]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.connections, userID)
	s.deleted = append(s.deleted, userID)
	return nil
}

// draftRepositoryStub keeps drafts in memory with just enough of the
// real transition rules to drive the services under test.
type draftRepositoryStub struct {
	mu     sync.Mutex
	drafts map[string]persistence.Draft

	createErr        error
	updateErr        error
	listErr          error
	due              []persistence.Draft
	candidates       []persistence.Draft
	markPublishedErr error

	publishErrors   map[string]string
	analyticsErrors map[string]string
	backoffs        map[string]*time.Time
	snapshots       map[string]persistence.AnalyticsSnapshot
}

func newDraftRepositoryStub() *draftRepositoryStub {
	return &draftRepositoryStub{
		drafts:          make(map[string]persistence.Draft),
		publishErrors:   make(map[string]string),
		analyticsErrors: make(map[string]string),
		backoffs:        make(map[string]*time.Time),
		snapshots:       make(map[string]persistence.AnalyticsSnapshot),
	}
}

func (s *draftRepositoryStub) set(draft persistence.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[draft.ID] = draft
}

func (s *draftRepositoryStub) get(id string) persistence.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[id]
}

func (s *draftRepositoryStub) CreateDraft(_ context.Context, draft persistence.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if draft.Status == "" {
		draft.Status = persistence.DraftStatusDraft
	}
	s.drafts[draft.ID] = draft
	return nil
}

func (s *draftRepositoryStub) GetDraft(_ context.Context, id, userID string) (persistence.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[id]
	if !ok || draft.UserID != userID {
		return persistence.Draft{}, persistence.ErrNotFound
	}
	return draft, nil
}

func (s *draftRepositoryStub) ListDrafts(_ context.Context, userID string, filter persistence.DraftFilter) ([]persistence.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []persistence.Draft
	for _, draft := range s.drafts {
		if draft.UserID != userID {
			continue
		}
		if filter.Status != "" && draft.Status != filter.Status {
			continue
		}
		out = append(out, draft)
	}
	return out, nil
}

func (s *draftRepositoryStub) UpdateDraft(_ context.Context, id, userID string, patch persistence.DraftPatch) (persistence.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return persistence.Draft{}, s.updateErr
	}
	draft, ok := s.drafts[id]
	if !ok || draft.UserID != userID {
		return persistence.Draft{}, persistence.ErrNotFound
	}
	if patch.Content != nil {
		draft.Content = *patch.Content
	}
	if patch.Tone != nil {
		draft.Tone = *patch.Tone
	}
	if patch.Status != nil {
		draft.Status = *patch.Status
	}
	switch {
	case patch.ClearImageURL:
		draft.ImageURL = nil
	case patch.ImageURL != nil:
		draft.ImageURL = patch.ImageURL
	}
	switch {
	case patch.ClearSchedule:
		draft.ScheduledAt = nil
	case patch.ScheduledAt != nil:
		draft.ScheduledAt = patch.ScheduledAt
	}
	if patch.TrendTag != nil {
		draft.TrendTag = patch.TrendTag
	}
	if patch.TrendTitle != nil {
		draft.TrendTitle = patch.TrendTitle
	}
	s.drafts[id] = draft
	return draft, nil
}

func (s *draftRepositoryStub) DeleteDraft(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[id]
	if !ok || draft.UserID != userID {
		return persistence.ErrNotFound
	}
	delete(s.drafts, id)
	return nil
}

func (s *draftRepositoryStub) ListDueScheduled(_ context.Context, _ time.Time, limit int) ([]persistence.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	due := s.due
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *draftRepositoryStub) ListAnalyticsCandidates(_ context.Context, limit int) ([]persistence.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	candidates := s.candidates
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (s *draftRepositoryStub) MarkPublished(_ context.Context, id, postID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markPublishedErr != nil {
		return s.markPublishedErr
	}
	draft, ok := s.drafts[id]
	if !ok || draft.Status == persistence.DraftStatusPublished {
		return persistence.ErrNotFound
	}
	draft.Status = persistence.DraftStatusPublished
	draft.LinkedInPostID = &postID
	draft.PublishedAt = &publishedAt
	draft.LinkedInError = nil
	s.drafts[id] = draft
	return nil
}

func (s *draftRepositoryStub) RecordPublishError(_ context.Context, id, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[id]; !ok {
		return persistence.ErrNotFound
	}
	s.publishErrors[id] = message
	return nil
}

func (s *draftRepositoryStub) UpdateAnalytics(_ context.Context, id string, snapshot persistence.AnalyticsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[id]; !ok {
		return persistence.ErrNotFound
	}
	s.snapshots[id] = snapshot
	delete(s.analyticsErrors, id)
	delete(s.backoffs, id)
	return nil
}

func (s *draftRepositoryStub) RecordAnalyticsError(_ context.Context, id, message string, backoffUntil *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[id]; !ok {
		return persistence.ErrNotFound
	}
	s.analyticsErrors[id] = message
	s.backoffs[id] = backoffUntil
	return nil
}

type publishClientStub struct {
	mu       sync.Mutex
	requests []linkedin.PublishRequest
	result   linkedin.PublishResult
	err      error
}

func (s *publishClientStub) Publish(_ context.Context, req linkedin.PublishRequest) (linkedin.PublishResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return linkedin.PublishResult{}, s.err
	}
	return s.result, nil
}

type analyticsClientStub struct {
	mu       sync.Mutex
	requests []linkedin.AnalyticsRequest
	result   linkedin.Analytics
	err      error
}

func (s *analyticsClientStub) FetchAnalytics(_ context.Context, req linkedin.AnalyticsRequest) (linkedin.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return linkedin.Analytics{}, s.err
	}
	return s.result, nil
}

func (s *analyticsClientStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

type oauthClientStub struct {
	token       linkedin.Token
	exchangeErr error
	info        linkedin.UserInfo
	infoErr     error
	codes       []string
}

func (s *oauthClientStub) AuthCodeURL(state string) string {
	return "https://provider.example.com/authorize?state=" + state
}

func (s *oauthClientStub) ExchangeCode(_ context.Context, code string) (linkedin.Token, error) {
	s.codes = append(s.codes, code)
	if s.exchangeErr != nil {
		return linkedin.Token{}, s.exchangeErr
	}
	return s.token, nil
}

func (s *oauthClientStub) FetchUserInfo(_ context.Context, _ string) (linkedin.UserInfo, error) {
	if s.infoErr != nil {
		return linkedin.UserInfo{}, s.infoErr
	}
	return s.info, nil
}

type stateCodecStub struct {
	created   string
	createErr error
	payload   oauthstate.Payload
	verifyErr error
}

func (s *stateCodecStub) Create(userID string, _ time.Duration) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	if s.created != "" {
		return s.created, nil
	}
	return "state-" + userID, nil
}

func (s *stateCodecStub) Verify(_ string) (oauthstate.Payload, error) {
	if s.verifyErr != nil {
		return oauthstate.Payload{}, s.verifyErr
	}
	return s.payload, nil
}

type generatorStub struct {
	requests []aigen.GenerateRequest
	text     string
	err      error
}

func (s *generatorStub) Generate(_ context.Context, req aigen.GenerateRequest) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func sessionFixture(userID, token string, expiresAt time.Time, revokedAt *time.Time) persistence.Session {
	return persistence.Session{
		ID:        token + "-id",
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		RevokedAt: revokedAt,
	}
}

func strPtr(s string) *string { return &s }

func i64Ptr(v int64) *int64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }
