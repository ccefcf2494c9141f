package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/config"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/validator"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func newAuthUsecaseForTest(f *fixture) *AuthUsecase {
	cfg := config.Config{JWTSecret: "test-secret", GoEnv: "test"}
	return NewAuthUsecase(cfg, f.users, f.clock, validator.NewAuthValidator(f.users))
}

func validRegisterRequest() AuthRegisterRequest {
	return AuthRegisterRequest{
		Email:     "riley@example.com",
		Password:  "sup3r-secret",
		FirstName: "Riley",
		LastName:  "P",
	}
}

func TestRegisterThenLogin_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newAuthUsecaseForTest(f)

	reg, err := uc.Register(ctx, validRegisterRequest())
	assert.NoError(t, err)
	assert.Equal(t, "riley@example.com", reg.User.Email)
	assert.Equal(t, string(model.UserTypeCustomer), reg.User.UserType)

	//平文パスワードは保存されていない
	stored, _ := f.users.FindByEmail(ctx, "riley@example.com")
	assert.NotEqual(t, "sup3r-secret", stored.PasswordHash)

	res, err := uc.Login(ctx, AuthLoginRequest{Email: "riley@example.com", Password: "sup3r-secret"})
	assert.NoError(t, err)
	assert.NotEmpty(t, res.Token.AccessToken)
	assert.Equal(t, int(accessTokenTTL.Seconds()), res.Token.ExpiresIn)

	//last_loginが今の時刻で埋まる
	stored, _ = f.users.FindByEmail(ctx, "riley@example.com")
	assert.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, f.clock.now, *stored.LastLoginAt)
}

func TestRegister_EmailNormalized(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newAuthUsecaseForTest(f)

	req := validRegisterRequest()
	req.Email = "  Riley@Example.COM "
	reg, err := uc.Register(ctx, req)
	assert.NoError(t, err)
	assert.Equal(t, "riley@example.com", reg.User.Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newAuthUsecaseForTest(f)

	_, err := uc.Register(ctx, validRegisterRequest())
	assert.NoError(t, err)

	_, err = uc.Register(ctx, validRegisterRequest())
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newAuthUsecaseForTest(f)

	req := validRegisterRequest()
	req.Password = "short"
	_, err := uc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)

	req = validRegisterRequest()
	req.Email = "not-an-email"
	_, err = uc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newAuthUsecaseForTest(f)

	_, err := uc.Register(ctx, validRegisterRequest())
	assert.NoError(t, err)

	_, err = uc.Login(ctx, AuthLoginRequest{Email: "riley@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newAuthUsecaseForTest(f)

	_, err := uc.Login(ctx, AuthLoginRequest{Email: "nobody@example.com", Password: "whatever-123"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogin_InactiveUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newAuthUsecaseForTest(f)

	_, err := uc.Register(ctx, validRegisterRequest())
	assert.NoError(t, err)

	//停止ユーザーにする
	stored, _ := f.users.FindByEmail(ctx, "riley@example.com")
	stored.IsActive = false
	assert.NoError(t, f.users.Update(ctx, stored))

	_, err = uc.Login(ctx, AuthLoginRequest{Email: "riley@example.com", Password: "sup3r-secret"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLogin_TokenClaims(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newAuthUsecaseForTest(f)

	reg, err := uc.Register(ctx, validRegisterRequest())
	assert.NoError(t, err)

	res, err := uc.Login(ctx, AuthLoginRequest{Email: "riley@example.com", Password: "sup3r-secret"})
	assert.NoError(t, err)

	parsed, err := jwt.Parse(res.Token.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return f.clock.now }))
	assert.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, float64(reg.User.ID), claims["sub"])
	assert.Equal(t, string(model.UserTypeCustomer), claims["user_type"])
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newAuthUsecaseForTest(f)

	reg, err := uc.Register(ctx, validRegisterRequest())
	assert.NoError(t, err)

	me, err := uc.Me(ctx, reg.User.ID)
	assert.NoError(t, err)
	assert.Equal(t, "riley@example.com", me.Email)

	_, err = uc.Me(ctx, 9999)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
