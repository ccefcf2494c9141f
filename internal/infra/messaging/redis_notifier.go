package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// RedisNotifier はプッシュ通知の出口。
// topicごとの購読トークン集合と、イベントのpublishを持つ。
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func NewRedisNotifierFromAddr(addr string, password string, db int) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

func topicTokensKey(topic string) string {
	return fmt.Sprintf("topic:%s:tokens", topic)
}

func topicChannel(topic string) string {
	return fmt.Sprintf("topic:%s", topic)
}

// SubscribeToken はトークンをtopicの購読集合に入れる。二重登録は無害。
func (n *RedisNotifier) SubscribeToken(ctx context.Context, topic string, token string) error {
	return n.client.SAdd(ctx, topicTokensKey(topic), token).Err()
}

// UnsubscribeToken は購読集合から外す。
func (n *RedisNotifier) UnsubscribeToken(ctx context.Context, topic string, token string) error {
	return n.client.SRem(ctx, topicTokensKey(topic), token).Err()
}

// Publish はイベントをtopicチャンネルに流す。
// 届くかどうかは購読側次第。失敗はそのまま呼び出し元へ返す（リトライしない）。
func (n *RedisNotifier) Publish(ctx context.Context, topic string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, topicChannel(topic), body).Err()
}
