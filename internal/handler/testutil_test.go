package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sqlbay/sqlbay/internal/config"
	"github.com/sqlbay/sqlbay/internal/model"
	"github.com/sqlbay/sqlbay/internal/probe"
	"github.com/sqlbay/sqlbay/internal/repository"
)

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		JWTSecret:      "test-secret",
		AccessTokenTTL: time.Hour,
		BcryptCost:     4, // minimum cost keeps the suite fast
		CredKey:        bytes.Repeat([]byte{0x42}, 32),
		ProbeTimeout:   time.Second,
	}
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zap.NewNop(), false)
	return e
}

// doJSON invokes a handler directly with an optional authenticated user
// and :projectId parameter, routing any returned error through the
// central error handler so assertions see real response envelopes.
func doJSON(e *echo.Echo, h echo.HandlerFunc, method, target, body string, userID uint64, projectID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
	}
	if projectID != "" {
		c.SetParamNames("projectId")
		c.SetParamValues(projectID)
	}
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return m
}

// ----- fakes -----

type fakeUserStore struct {
	users  map[uint64]*model.User
	nextID uint64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]*model.User{}}
}

var _ repository.UserStore = (*fakeUserStore)(nil)

func (s *fakeUserStore) Create(_ context.Context, u *model.User) error {
	u.Email = repository.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = repository.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) Update(_ context.Context, u *model.User) error {
	if _, ok := s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.Email = repository.NormalizeEmail(u.Email)
	for id, existing := range s.users {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

type fakeProjectStore struct {
	projects []*model.Project
	nextID   uint64
}

var _ repository.ProjectStore = (*fakeProjectStore)(nil)

func (s *fakeProjectStore) Create(_ context.Context, p *model.Project) error {
	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.projects = append(s.projects, &cp)
	return nil
}

func (s *fakeProjectStore) GetByID(_ context.Context, id uint64) (*model.Project, error) {
	for _, p := range s.projects {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeProjectStore) ListByOwner(_ context.Context, ownerID uint64) ([]model.Project, error) {
	out := []model.Project{}
	// newest first, matching the repository's ORDER BY created_at DESC
	for i := len(s.projects) - 1; i >= 0; i-- {
		if s.projects[i].OwnerID == ownerID {
			out = append(out, *s.projects[i])
		}
	}
	return out, nil
}

func (s *fakeProjectStore) Update(_ context.Context, p *model.Project) error {
	for i, existing := range s.projects {
		if existing.ID == p.ID {
			p.UpdatedAt = time.Now().UTC()
			cp := *p
			s.projects[i] = &cp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *fakeProjectStore) Delete(_ context.Context, id uint64) error {
	for i, existing := range s.projects {
		if existing.ID == id {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeConnStore struct {
	rows        map[uint64]*model.DbConnection // keyed by project id
	nextID      uint64
	upsertCalls int
}

func newFakeConnStore() *fakeConnStore {
	return &fakeConnStore{rows: map[uint64]*model.DbConnection{}}
}

var _ repository.ConnectionStore = (*fakeConnStore)(nil)

func (s *fakeConnStore) GetByProject(_ context.Context, projectID uint64) (*model.DbConnection, error) {
	row, ok := s.rows[projectID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *fakeConnStore) Upsert(_ context.Context, conn *model.DbConnection) error {
	s.upsertCalls++
	if existing, ok := s.rows[conn.ProjectID]; ok {
		conn.ID = existing.ID
		conn.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		conn.ID = s.nextID
		conn.CreatedAt = time.Now().UTC()
	}
	conn.UpdatedAt = time.Now().UTC()
	cp := *conn
	s.rows[conn.ProjectID] = &cp
	return nil
}

type fakeProber struct {
	calls  []string
	result probe.Result
	err    error
}

func (p *fakeProber) Probe(_ context.Context, connString string) (probe.Result, error) {
	p.calls = append(p.calls, connString)
	if p.err != nil {
		return probe.Result{}, p.err
	}
	return p.result, nil
}

type publishedEvent struct {
	Type    string
	Payload any
}

type fakeEvents struct{ events []publishedEvent }

func (f *fakeEvents) Publish(_ context.Context, eventType string, payload any) error {
	f.events = append(f.events, publishedEvent{Type: eventType, Payload: payload})
	return nil
}
