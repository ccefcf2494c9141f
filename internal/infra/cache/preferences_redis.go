package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"

	redis "github.com/redis/go-redis/v9"
)

// RedisPreferencesStore は端末セッションの最終状態をRedisに置く。
// 書いたら同じキーのチャンネルにpublishして、Watch側へ全体を流す。
type RedisPreferencesStore struct {
	client *redis.Client
}

func NewRedisPreferencesStore(addr string, password string, db int) *RedisPreferencesStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisPreferencesStore{client: client}
}

func (s *RedisPreferencesStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisPreferencesStore) Close() error {
	return s.client.Close()
}

func prefsKey(deviceID string) string {
	return fmt.Sprintf("session_preferences:%s", deviceID)
}

func prefsChannel(deviceID string) string {
	return fmt.Sprintf("session_preferences:changed:%s", deviceID)
}

// Get は現在のセッション設定を返す。無ければ初期値。
func (s *RedisPreferencesStore) Get(ctx context.Context, deviceID string) (model.SessionPreferences, error) {
	val, err := s.client.Get(ctx, prefsKey(deviceID)).Result()
	if err == redis.Nil {
		return model.DefaultSessionPreferences(), nil
	}
	if err != nil {
		return model.SessionPreferences{}, err
	}

	var prefs model.SessionPreferences
	if err := json.Unmarshal([]byte(val), &prefs); err != nil {
		//壊れた値は初期値に戻す
		return model.DefaultSessionPreferences(), nil
	}
	return prefs, nil
}

// Set は全体を書き込んで変更を通知する。
func (s *RedisPreferencesStore) Set(ctx context.Context, deviceID string, prefs model.SessionPreferences) error {
	payload, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, prefsKey(deviceID), payload, 0).Err(); err != nil {
		return err
	}
	return s.client.Publish(ctx, prefsChannel(deviceID), payload).Err()
}

// Reset は初期値に戻す。
func (s *RedisPreferencesStore) Reset(ctx context.Context, deviceID string) error {
	return s.Set(ctx, deviceID, model.DefaultSessionPreferences())
}

// Watch は設定が変わるたびに全体を流すチャンネルを返す。
// 返すcancelを必ず呼んで購読を解除すること。
func (s *RedisPreferencesStore) Watch(ctx context.Context, deviceID string) (<-chan model.SessionPreferences, func(), error) {
	sub := s.client.Subscribe(ctx, prefsChannel(deviceID))

	//購読が確立するまで待つ
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan model.SessionPreferences, 1)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var prefs model.SessionPreferences
			if err := json.Unmarshal([]byte(msg.Payload), &prefs); err != nil {
				continue
			}
			select {
			case out <- prefs:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}
	return out, cancel, nil
}
