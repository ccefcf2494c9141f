package watch

import "sync"

// Hub は全件スナップショットを購読者へ配る。
// 変更のたびにコレクション全体が流れてくるモデル。
// Subscribeが返すcancelを必ず呼んで購読を解除すること。
type Hub[T any] struct {
	mu      sync.Mutex
	subs    map[int64]chan []T
	nextID  int64
	last    []T
	hasLast bool
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[int64]chan []T)}
}

// Publish は最新スナップショットを全購読者へ流す。
// 受け取りの遅い購読者には古い分を捨てて最新だけ残す。
func (h *Hub[T]) Publish(snapshot []T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = snapshot
	h.hasLast = true

	for _, ch := range h.subs {
		select {
		case ch <- snapshot:
		default:
			//詰まっていたら古い方を抜いて差し替える
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// Subscribe は購読チャンネルと解除関数を返す。
// 既にスナップショットがあれば最初にそれが流れる。
func (h *Hub[T]) Subscribe() (<-chan []T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	ch := make(chan []T, 1)
	if h.hasLast {
		ch <- h.last
	}
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// SubscriberCount は現在の購読者数。
func (h *Hub[T]) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Registry はユーザーごとにHubを持つ。
type Registry[T any] struct {
	mu   sync.Mutex
	hubs map[int64]*Hub[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{hubs: make(map[int64]*Hub[T])}
}

// ForUser はそのユーザーのHubを返す（無ければ作る）。
func (r *Registry[T]) ForUser(userID int64) *Hub[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.hubs[userID]
	if !ok {
		h = NewHub[T]()
		r.hubs[userID] = h
	}
	return h
}
