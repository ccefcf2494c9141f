package model

// 商品一覧の並び順
type SortOrder string

const (
	SortByName       SortOrder = "BY_NAME"
	SortByPopularity SortOrder = "BY_POPULARITY"
	SortByNewest     SortOrder = "BY_NEWEST"
)

func IsValidSortOrder(s SortOrder) bool {
	switch s {
	case SortByName, SortByPopularity, SortByNewest:
		return true
	}
	return false
}

// 端末側セッションの最終状態。再起動しても残す。
type SessionPreferences struct {
	SortOrder     SortOrder     `json:"sort_order"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	UserID        int64         `json:"user_id"`
	UserType      string        `json:"user_type"`
	CategoryID    int64         `json:"category_id"`
}

// DefaultSessionPreferences は初期値（未ログイン・名前順・代引き）。
func DefaultSessionPreferences() SessionPreferences {
	return SessionPreferences{
		SortOrder:     SortByName,
		PaymentMethod: PaymentMethodCOD,
	}
}
