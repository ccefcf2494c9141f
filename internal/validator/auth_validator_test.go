package validator

import (
	"context"
	"testing"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"

	"github.com/stretchr/testify/assert"
)

type stubUserRepo struct {
	byEmail map[string]*model.User
}

func (s *stubUserRepo) Create(ctx context.Context, u *model.User) error { return nil }

func (s *stubUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return nil, repo.ErrNotFound
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, repo.ErrNotFound
}

func (s *stubUserRepo) Update(ctx context.Context, u *model.User) error { return nil }

func TestValidateRegister(t *testing.T) {
	ctx := context.Background()
	v := NewAuthValidator(&stubUserRepo{byEmail: map[string]*model.User{
		"taken@example.com": {ID: 1, Email: "taken@example.com"},
	}})

	assert.NoError(t, v.ValidateRegister(ctx, "riley@example.com", "sup3r-secret", "Riley", "P"))

	//形式が不正なemailは弾く
	for _, email := range []string{"", "not-an-email", "no@tld", "two@@example.com", "spa ce@example.com"} {
		err := v.ValidateRegister(ctx, email, "sup3r-secret", "Riley", "P")
		assert.ErrorIs(t, err, ErrInvalidInput, email)
	}

	//パスワードは8文字以上72文字以下
	assert.ErrorIs(t, v.ValidateRegister(ctx, "riley@example.com", "short", "Riley", "P"), ErrInvalidInput)

	//氏名は必須
	assert.ErrorIs(t, v.ValidateRegister(ctx, "riley@example.com", "sup3r-secret", " ", "P"), ErrInvalidInput)

	//使用済みemailは大文字でも弾く
	assert.ErrorIs(t, v.ValidateRegister(ctx, "Taken@Example.com", "sup3r-secret", "Riley", "P"), ErrEmailAlreadyUsed)
}

func TestValidateLogin(t *testing.T) {
	ctx := context.Background()
	v := NewAuthValidator(&stubUserRepo{})

	assert.NoError(t, v.ValidateLogin(ctx, "riley@example.com", "whatever"))
	assert.ErrorIs(t, v.ValidateLogin(ctx, "", "whatever"), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateLogin(ctx, "riley@example.com", ""), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateLogin(ctx, "not-an-email", "whatever"), ErrInvalidInput)
}
