package usecase

import (
	"context"
	"time"
)

// 現在時刻。当日キャンセル判定をテストで動かすために注入する。
type Clock interface {
	Now() time.Time
}

// プッシュ通知の出口。
// topicへのpublishとトークンの購読だけを約束する。
type Notifier interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
	SubscribeToken(ctx context.Context, topic string, token string) error
	UnsubscribeToken(ctx context.Context, topic string, token string) error
}
