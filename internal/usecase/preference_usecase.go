package usecase

import (
	"context"
	"strings"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
)

// セッション設定の保存先。実体はRedis。
type PreferencesStore interface {
	Get(ctx context.Context, deviceID string) (model.SessionPreferences, error)
	Set(ctx context.Context, deviceID string, prefs model.SessionPreferences) error
	Reset(ctx context.Context, deviceID string) error
	Watch(ctx context.Context, deviceID string) (<-chan model.SessionPreferences, func(), error)
}

type PreferenceUsecase struct {
	store PreferencesStore
}

func NewPreferenceUsecase(store PreferencesStore) *PreferenceUsecase {
	return &PreferenceUsecase{store: store}
}

func (u *PreferenceUsecase) Get(ctx context.Context, deviceID string) (model.SessionPreferences, error) {
	if strings.TrimSpace(deviceID) == "" {
		return model.SessionPreferences{}, ErrValidation
	}
	prefs, err := u.store.Get(ctx, deviceID)
	if err != nil {
		return model.SessionPreferences{}, ErrInternal
	}
	return prefs, nil
}

type UpdatePreferencesRequest struct {
	SortOrder     *string `json:"sort_order,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	CategoryID    *int64  `json:"category_id,omitempty"`
}

// Update は部分更新。渡されたフィールドだけを上書きして保存する。
func (u *PreferenceUsecase) Update(ctx context.Context, deviceID string, req UpdatePreferencesRequest) (model.SessionPreferences, error) {
	if strings.TrimSpace(deviceID) == "" {
		return model.SessionPreferences{}, ErrValidation
	}

	prefs, err := u.store.Get(ctx, deviceID)
	if err != nil {
		return model.SessionPreferences{}, ErrInternal
	}

	if req.SortOrder != nil {
		s := model.SortOrder(*req.SortOrder)
		if !model.IsValidSortOrder(s) {
			return model.SessionPreferences{}, ErrValidation
		}
		prefs.SortOrder = s
	}
	if req.PaymentMethod != nil {
		p := model.PaymentMethod(*req.PaymentMethod)
		if !model.IsValidPaymentMethod(p) {
			return model.SessionPreferences{}, ErrValidation
		}
		prefs.PaymentMethod = p
	}
	if req.CategoryID != nil {
		if *req.CategoryID < 0 {
			return model.SessionPreferences{}, ErrValidation
		}
		prefs.CategoryID = *req.CategoryID
	}

	if err := u.store.Set(ctx, deviceID, prefs); err != nil {
		return model.SessionPreferences{}, ErrInternal
	}
	return prefs, nil
}

// BindUser はログイン成功時にセッションへユーザーを紐づける。
func (u *PreferenceUsecase) BindUser(ctx context.Context, deviceID string, userID int64, userType model.UserType) (model.SessionPreferences, error) {
	if strings.TrimSpace(deviceID) == "" || userID <= 0 {
		return model.SessionPreferences{}, ErrValidation
	}

	prefs, err := u.store.Get(ctx, deviceID)
	if err != nil {
		return model.SessionPreferences{}, ErrInternal
	}

	prefs.UserID = userID
	prefs.UserType = string(userType)

	if err := u.store.Set(ctx, deviceID, prefs); err != nil {
		return model.SessionPreferences{}, ErrInternal
	}
	return prefs, nil
}

// Reset はログアウト時に初期値へ戻す。
func (u *PreferenceUsecase) Reset(ctx context.Context, deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return ErrValidation
	}
	if err := u.store.Reset(ctx, deviceID); err != nil {
		return ErrInternal
	}
	return nil
}

// Watch は設定変更のストリーム。cancelを必ず呼ぶこと。
func (u *PreferenceUsecase) Watch(ctx context.Context, deviceID string) (<-chan model.SessionPreferences, func(), error) {
	if strings.TrimSpace(deviceID) == "" {
		return nil, nil, ErrValidation
	}
	ch, cancel, err := u.store.Watch(ctx, deviceID)
	if err != nil {
		return nil, nil, ErrInternal
	}
	return ch, cancel, nil
}
