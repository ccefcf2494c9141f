package usecase

import (
	"context"
	"strings"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"
)

// お知らせ用の共通topic
const NewsTopic = "news"

type RegisterTokenRequest struct {
	DeviceID string `json:"device_id"`
	Token    string `json:"token"`
}

type NotificationUsecase struct {
	tokens   repo.NotificationTokenRepository
	users    repo.UserRepository
	notifier Notifier
}

func NewNotificationUsecase(
	tokens repo.NotificationTokenRepository,
	users repo.UserRepository,
	notifier Notifier,
) *NotificationUsecase {
	return &NotificationUsecase{
		tokens:   tokens,
		users:    users,
		notifier: notifier,
	}
}

// RegisterToken は端末のプッシュ通知トークンを登録する。
// user+deviceで1件。同じトークンなら何もしない。
// 顧客だけ"news"を購読する（管理者にお知らせを配らない）。
func (u *NotificationUsecase) RegisterToken(ctx context.Context, userID int64, req RegisterTokenRequest) (model.NotificationToken, error) {
	if userID <= 0 {
		return model.NotificationToken{}, ErrUnauthorized
	}
	if strings.TrimSpace(req.DeviceID) == "" || len(req.DeviceID) > 100 {
		return model.NotificationToken{}, ErrValidation
	}
	if strings.TrimSpace(req.Token) == "" {
		return model.NotificationToken{}, ErrValidation
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return model.NotificationToken{}, ErrUnauthorized
	}

	saved, created, err := u.tokens.Upsert(ctx, model.NotificationToken{
		UserID:   userID,
		DeviceID: strings.TrimSpace(req.DeviceID),
		Token:    strings.TrimSpace(req.Token),
		UserType: user.UserType,
	})
	if err != nil {
		return model.NotificationToken{}, ErrInternal
	}

	if created && user.UserType == model.UserTypeCustomer {
		if err := u.notifier.SubscribeToken(ctx, NewsTopic, saved.Token); err != nil {
			return model.NotificationToken{}, ErrInternal
		}
	}

	return saved, nil
}

// UnregisterToken はログアウトなどで端末のトークンを外す。
func (u *NotificationUsecase) UnregisterToken(ctx context.Context, userID int64, deviceID string) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	if strings.TrimSpace(deviceID) == "" {
		return ErrValidation
	}

	tokens, err := u.tokens.ListByUserID(ctx, userID)
	if err != nil {
		return ErrInternal
	}

	for _, t := range tokens {
		if t.DeviceID != deviceID {
			continue
		}
		//購読解除は失敗してもトークン削除は続ける
		_ = u.notifier.UnsubscribeToken(ctx, NewsTopic, t.Token)
	}

	if err := u.tokens.DeleteByUserAndDevice(ctx, userID, deviceID); err != nil {
		return ErrInternal
	}
	return nil
}

// AdminBroadcastNews は"news"購読者への一斉通知。
func (u *NotificationUsecase) AdminBroadcastNews(ctx context.Context, actorAdminUserID int64, title string, body string) error {
	if actorAdminUserID <= 0 {
		return ErrUnauthorized
	}
	if strings.TrimSpace(title) == "" || len(title) > 255 {
		return ErrValidation
	}

	payload := map[string]string{
		"title": strings.TrimSpace(title),
		"body":  body,
	}
	if err := u.notifier.Publish(ctx, NewsTopic, payload); err != nil {
		return ErrInternal
	}
	return nil
}
