package repository

import (
	"context"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
)

type NotificationTokenRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.NotificationToken, error)

	//user+deviceで1件。同じトークンが既にあれば何もせず created=false
	Upsert(ctx context.Context, token model.NotificationToken) (model.NotificationToken, bool, error)

	DeleteByUserAndDevice(ctx context.Context, userID int64, deviceID string) error
}
