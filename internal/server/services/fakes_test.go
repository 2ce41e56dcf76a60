package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/dbx"
	"github.com/dmitrijs2005/aquatrack/internal/logging"
	"github.com/dmitrijs2005/aquatrack/internal/server/config"
	"github.com/dmitrijs2005/aquatrack/internal/server/mail"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/dmitrijs2005/aquatrack/internal/server/oauth"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/users"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/waters"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

func nopLogger() logging.Logger {
	return logging.NewZapLogger(zap.NewNop())
}

func testConfig() *config.Config {
	return &config.Config{
		AccessSecret:                 "access-secret",
		RefreshSecret:                "refresh-secret",
		ResetSecret:                  "reset-secret",
		AccessTokenValidityDuration:  20 * time.Minute,
		RefreshTokenValidityDuration: 720 * time.Hour,
		ResetTokenValidityDuration:   15 * time.Minute,
		BaseURI:                      "http://api.local",
		FrontendURL:                  "http://app.local",
		OAuthAutoVerify:              true,
		S3Bucket:                     "avatars",
		S3PublicURL:                  "http://s3.local",
	}
}

// newMockDB returns a sqlmock DB that accepts any number of transactions.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// expectTx queues n begin/commit pairs.
func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

// --- users ---

type fakeUsersRepo struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	errOn map[string]error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byID: map[string]*models.User{}, errOn: map[string]error{}}
}

func (f *fakeUsersRepo) fail(op string) error { return f.errOn[op] }

func clone(u *models.User) *models.User {
	c := *u
	return &c
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Create"); err != nil {
		return nil, err
	}
	for _, x := range f.byID {
		if x.Email == u.Email {
			return nil, common.ErrorConflict
		}
	}
	c := clone(u)
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.byID[c.ID] = c
	return clone(c), nil
}

func (f *fakeUsersRepo) find(op string, match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(op); err != nil {
		return nil, err
	}
	for _, u := range f.byID {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return f.find("GetByID", func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find("GetByEmail", func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsersRepo) GetByVerificationToken(_ context.Context, token string) (*models.User, error) {
	return f.find("GetByVerificationToken", func(u *models.User) bool {
		return u.VerificationToken != nil && *u.VerificationToken == token
	})
}

func (f *fakeUsersRepo) update(op, id string, fn func(*models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(op); err != nil {
		return err
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (f *fakeUsersRepo) SetAccessToken(_ context.Context, id string, token *string) error {
	return f.update("SetAccessToken", id, func(u *models.User) {
		if token == nil {
			u.AccessToken = nil
			return
		}
		t := *token
		u.AccessToken = &t
	})
}

func (f *fakeUsersRepo) MarkVerified(_ context.Context, id string) error {
	return f.update("MarkVerified", id, func(u *models.User) {
		u.Verified = true
		u.VerificationToken = nil
	})
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, id string, hash string) error {
	return f.update("UpdatePassword", id, func(u *models.User) { u.PasswordHash = hash })
}

func (f *fakeUsersRepo) LinkGoogle(_ context.Context, id, googleID, name string, verify bool) error {
	return f.update("LinkGoogle", id, func(u *models.User) {
		u.GoogleID = &googleID
		u.Name = &name
		if verify {
			u.Verified = true
			u.VerificationToken = nil
		}
	})
}

func (f *fakeUsersRepo) UpdateProfile(ctx context.Context, id string, p models.Profile) (*models.User, error) {
	err := f.update("UpdateProfile", id, func(u *models.User) {
		u.Name, u.Gender, u.Weight, u.TimeActivity, u.DailyNorma = p.Name, p.Gender, p.Weight, p.TimeActivity, p.DailyNorma
	})
	if err != nil {
		return nil, err
	}
	return f.GetByID(ctx, id)
}

func (f *fakeUsersRepo) SetAvatarURL(_ context.Context, id string, url string) error {
	return f.update("SetAvatarURL", id, func(u *models.User) { u.AvatarURL = &url })
}

func (f *fakeUsersRepo) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Count"); err != nil {
		return 0, err
	}
	return int64(len(f.byID)), nil
}

// --- refresh tokens ---

type fakeRefreshRepo struct {
	mu       sync.Mutex
	byUser   map[string]*models.RefreshToken
	upserts  int
	errOn    map[string]error
	expireAt time.Time
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{byUser: map[string]*models.RefreshToken{}, errOn: map[string]error{}}
}

func (f *fakeRefreshRepo) Upsert(_ context.Context, userID, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errOn["Upsert"]; err != nil {
		return err
	}
	f.upserts++
	exp := time.Now().Add(validity)
	if !f.expireAt.IsZero() {
		exp = f.expireAt
	}
	f.byUser[userID] = &models.RefreshToken{ID: "rt-" + userID, UserID: userID, Token: token, Expires: exp}
	return nil
}

func (f *fakeRefreshRepo) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errOn["FindByToken"]; err != nil {
		return nil, err
	}
	for _, r := range f.byUser {
		if r.Token == token {
			c := *r
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefreshRepo) DeleteByToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errOn["DeleteByToken"]; err != nil {
		return err
	}
	for id, r := range f.byUser {
		if r.Token == token {
			delete(f.byUser, id)
		}
	}
	return nil
}

func (f *fakeRefreshRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byUser)
}

// --- password resets ---

type fakeResetRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.PasswordReset
	created int
	deleted int
	errOn   map[string]error
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{byID: map[string]*models.PasswordReset{}, errOn: map[string]error{}}
}

func (f *fakeResetRepo) Create(_ context.Context, userID, token string) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errOn["Create"]; err != nil {
		return nil, err
	}
	for _, r := range f.byID {
		if r.UserID == userID {
			return nil, common.ErrorConflict
		}
	}
	f.created++
	r := &models.PasswordReset{ID: fmt.Sprintf("pr-%d", f.created), UserID: userID, Token: token, CreatedAt: time.Now()}
	f.byID[r.ID] = r
	c := *r
	return &c, nil
}

func (f *fakeResetRepo) find(match func(*models.PasswordReset) bool) (*models.PasswordReset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byID {
		if match(r) {
			c := *r
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeResetRepo) FindByUserID(_ context.Context, userID string) (*models.PasswordReset, error) {
	if err := f.errOn["FindByUserID"]; err != nil {
		return nil, err
	}
	return f.find(func(r *models.PasswordReset) bool { return r.UserID == userID })
}

func (f *fakeResetRepo) FindByToken(_ context.Context, token string) (*models.PasswordReset, error) {
	if err := f.errOn["FindByToken"]; err != nil {
		return nil, err
	}
	return f.find(func(r *models.PasswordReset) bool { return r.Token == token })
}

func (f *fakeResetRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted++
	delete(f.byID, id)
	return nil
}

// --- water ---

type fakeWaterRepo struct {
	mu      sync.Mutex
	byID    map[string]*models.WaterEntry
	errOn   map[string]error
	lastArg struct{ from, to time.Time }
}

func newFakeWaterRepo() *fakeWaterRepo {
	return &fakeWaterRepo{byID: map[string]*models.WaterEntry{}, errOn: map[string]error{}}
}

func (f *fakeWaterRepo) Create(_ context.Context, e *models.WaterEntry) (*models.WaterEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errOn["Create"]; err != nil {
		return nil, err
	}
	c := *e
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeWaterRepo) Update(_ context.Context, e *models.WaterEntry) (*models.WaterEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errOn["Update"]; err != nil {
		return nil, err
	}
	cur, ok := f.byID[e.ID]
	if !ok || cur.OwnerID != e.OwnerID {
		return nil, common.ErrorNotFound
	}
	cur.Date, cur.Amount, cur.UpdatedAt = e.Date, e.Amount, time.Now()
	out := *cur
	return &out, nil
}

func (f *fakeWaterRepo) Delete(_ context.Context, ownerID, id string) (*models.WaterEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errOn["Delete"]; err != nil {
		return nil, err
	}
	cur, ok := f.byID[id]
	if !ok || cur.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	delete(f.byID, id)
	return cur, nil
}

func (f *fakeWaterRepo) inRange(ownerID string, from, to time.Time) []models.WaterEntry {
	out := make([]models.WaterEntry, 0)
	for _, e := range f.byID {
		if e.OwnerID == ownerID && !e.Date.Before(from) && e.Date.Before(to) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (f *fakeWaterRepo) ListRange(_ context.Context, ownerID string, from, to time.Time) ([]models.WaterEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errOn["ListRange"]; err != nil {
		return nil, err
	}
	f.lastArg.from, f.lastArg.to = from, to
	return f.inRange(ownerID, from, to), nil
}

func (f *fakeWaterRepo) DailyTotals(_ context.Context, ownerID string, from, to time.Time) ([]models.DayTotal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errOn["DailyTotals"]; err != nil {
		return nil, err
	}
	f.lastArg.from, f.lastArg.to = from, to
	out := make([]models.DayTotal, 0)
	for _, e := range f.inRange(ownerID, from, to) {
		day := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, time.UTC)
		if n := len(out); n > 0 && out[n-1].Date.Equal(day) {
			out[n-1].Total += e.Amount
			out[n-1].Count++
			continue
		}
		out = append(out, models.DayTotal{Date: day, Total: e.Amount, Count: 1})
	}
	return out, nil
}

// --- manager ---

type fakeRepoManager struct {
	users   *fakeUsersRepo
	refresh *fakeRefreshRepo
	resets  *fakeResetRepo
	waters  *fakeWaterRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:   newFakeUsersRepo(),
		refresh: newFakeRefreshRepo(),
		resets:  newFakeResetRepo(),
		waters:  newFakeWaterRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error      { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                   { return m.users }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository   { return m.refresh }
func (m *fakeRepoManager) PasswordResets(dbx.DBTX) passwordresets.Repository { return m.resets }
func (m *fakeRepoManager) Waters(dbx.DBTX) waters.Repository                 { return m.waters }

// --- collaborators ---

type fakeHasher struct{ err error }

func (h *fakeHasher) Hash(p string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + p, nil
}

func (h *fakeHasher) Verify(p, digest string) (bool, error) {
	if h.err != nil {
		return false, h.err
	}
	return digest == "hashed:"+p, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return m.sent[len(m.sent)-1]
}

var (
	verifyLinkRe = regexp.MustCompile(`/api/auth/verify/([^"]+)"`)
	resetLinkRe  = regexp.MustCompile(`reset-password\?token=([^"]+)"`)
)

func linkToken(t *testing.T, re *regexp.Regexp, html string) string {
	t.Helper()
	m := re.FindStringSubmatch(html)
	if len(m) != 2 {
		t.Fatalf("no token link in %q", html)
	}
	return m[1]
}

type fakeProvider struct {
	info *oauth.UserInfo
	err  error
}

func (p *fakeProvider) AuthURL() string { return "https://accounts.example.com/auth?client_id=cid" }

func (p *fakeProvider) Exchange(_ context.Context, code string) (*oauth.UserInfo, error) {
	if p.err != nil {
		return nil, p.err
	}
	if strings.TrimSpace(code) == "" {
		return nil, oauth.ErrMissingCode
	}
	return p.info, nil
}

type countingEvents struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingEvents) AuthEvent(event, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[event+":"+outcome]++
}

// --- fixture ---

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	rm       *fakeRepoManager
	tokens   *TokenService
	mailer   *fakeMailer
	provider *fakeProvider
	events   *countingEvents
	svc      *UserService
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	db, mock := newMockDB(t)
	rm := newFakeRepoManager()
	f := &fixture{
		db:       db,
		mock:     mock,
		rm:       rm,
		tokens:   NewTokenService(rm, cfg),
		mailer:   &fakeMailer{},
		provider: &fakeProvider{},
		events:   &countingEvents{},
	}
	f.svc = NewUserService(db, rm, cfg, f.tokens, &fakeHasher{}, f.mailer, f.provider, nopLogger()).WithEvents(f.events)
	return f
}

// seedUser stores a user with password "password1".
func (f *fixture) seedUser(t *testing.T, email string, verified bool) *models.User {
	t.Helper()
	vt := "vt-" + email
	u, err := f.rm.users.Create(context.Background(), &models.User{
		Email:             email,
		PasswordHash:      "hashed:password1",
		Verified:          verified,
		VerificationToken: &vt,
		DailyNorma:        models.DefaultDailyNorma,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if verified {
		_ = f.rm.users.MarkVerified(context.Background(), u.ID)
		u.Verified, u.VerificationToken = true, nil
	}
	return u
}
