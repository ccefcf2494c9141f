package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"

	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")

	// emailが既に使用済み
	ErrEmailAlreadyUsed = errors.New("email already used")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthValidator struct {
	users repo.UserRepository
}

func NewAuthValidator(users repo.UserRepository) *AuthValidator {
	return &AuthValidator{users: users}
}

// サインアップの入力を検証
func (v *AuthValidator) ValidateRegister(ctx context.Context, email, password, firstName, lastName string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return ErrInvalidInput
	}

	// email形式
	if len(email) > 255 || !isEmailLike(email) {
		return ErrInvalidInput
	}

	// パスワード最低文字数。bcryptは72バイトまでしか見ない
	if len(password) < 8 || len(password) > 72 {
		return ErrInvalidInput
	}

	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return ErrInvalidInput
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, strings.ToLower(email))
	if err == nil && u != nil {
		return ErrEmailAlreadyUsed
	}

	return nil
}

// ログインの入力を検証
func (v *AuthValidator) ValidateLogin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return ErrInvalidInput
	}

	// email形式
	if !isEmailLike(email) {
		return ErrInvalidInput
	}

	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailPattern.MatchString(s)
}
