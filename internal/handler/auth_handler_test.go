package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/config"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/usecase"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

type stubUserRepo struct {
	user *model.User
}

func (s *stubUserRepo) Create(ctx context.Context, u *model.User) error { return nil }

func (s *stubUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if s.user != nil && s.user.ID == id {
		cp := *s.user
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if s.user != nil && s.user.Email == email {
		cp := *s.user
		return &cp, nil
	}
	return nil, repo.ErrNotFound
}

func (s *stubUserRepo) Update(ctx context.Context, u *model.User) error { return nil }

// Redisの代わりのインメモリ実装
type memPrefStore struct {
	byDevice map[string]model.SessionPreferences
}

func newMemPrefStore() *memPrefStore {
	return &memPrefStore{byDevice: map[string]model.SessionPreferences{}}
}

func (m *memPrefStore) Get(ctx context.Context, deviceID string) (model.SessionPreferences, error) {
	if p, ok := m.byDevice[deviceID]; ok {
		return p, nil
	}
	return model.DefaultSessionPreferences(), nil
}

func (m *memPrefStore) Set(ctx context.Context, deviceID string, prefs model.SessionPreferences) error {
	m.byDevice[deviceID] = prefs
	return nil
}

func (m *memPrefStore) Reset(ctx context.Context, deviceID string) error {
	delete(m.byDevice, deviceID)
	return nil
}

func (m *memPrefStore) Watch(ctx context.Context, deviceID string) (<-chan model.SessionPreferences, func(), error) {
	ch := make(chan model.SessionPreferences)
	return ch, func() {}, nil
}

func newAuthHandlerForTest(t *testing.T) (*AuthHandler, *memPrefStore, *model.User) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("sup3r-secret"), bcrypt.MinCost)
	assert.NoError(t, err)

	user := &model.User{
		ID:           7,
		Email:        "riley@example.com",
		PasswordHash: string(hash),
		FirstName:    "Riley",
		LastName:     "P",
		UserType:     model.UserTypeCustomer,
		IsActive:     true,
	}

	users := &stubUserRepo{user: user}
	clock := &stubClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)}
	cfg := config.Config{JWTSecret: "test-secret", GoEnv: "test"}

	authUC := usecase.NewAuthUsecase(cfg, users, clock, validator.NewAuthValidator(users))

	store := newMemPrefStore()
	prefUC := usecase.NewPreferenceUsecase(store)

	return NewAuthHandler(authUC, prefUC), store, user
}

func doLogin(t *testing.T, h *AuthHandler, deviceID string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	body := `{"email":"riley@example.com","password":"sup3r-secret"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if deviceID != "" {
		req.Header.Set(deviceIDHeader, deviceID)
	}
	rec := httptest.NewRecorder()

	assert.NoError(t, h.login(e.NewContext(req, rec)))
	return rec
}

func TestLogin_BindsDeviceSession(t *testing.T) {
	h, store, user := newAuthHandlerForTest(t)

	rec := doLogin(t, h, "device-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	//端末セッションにログインユーザーが載っている
	prefs := store.byDevice["device-1"]
	assert.Equal(t, user.ID, prefs.UserID)
	assert.Equal(t, string(model.UserTypeCustomer), prefs.UserType)
}

func TestLogin_NoDeviceHeaderSkipsBinding(t *testing.T) {
	h, store, _ := newAuthHandlerForTest(t)

	rec := doLogin(t, h, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	//ヘッダーが無ければ何も保存しない
	assert.Empty(t, store.byDevice)
}
