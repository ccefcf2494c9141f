package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusShipping  OrderStatus = "SHIPPING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivery  OrderStatus = "DELIVERY"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusReturned  OrderStatus = "RETURNED"
)

// 遷移表。ここに無い遷移は全部不正。
// COMPLETED→RETURNED は返品フロー専用（refundはfulfill後にしか成立しない）。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusShipping:  {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:   {OrderStatusDelivery},
	OrderStatusDelivery:  {OrderStatusCompleted},
	OrderStatusCompleted: {OrderStatusReturned},
}

// CanTransitionTo は遷移表にある遷移だけ許す。
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsTerminal は以後の通常遷移を受け付けない状態かどうか。
// COMPLETEDも通常フロー上は終端（返品だけが別フローで抜ける）。
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCanceled, OrderStatusReturned:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "COD"
	PaymentMethodGCash   PaymentMethod = "GCASH"
	PaymentMethodPayMaya PaymentMethod = "PAYMAYA"
	PaymentMethodBPI     PaymentMethod = "BPI"
)

func IsValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodGCash, PaymentMethodPayMaya, PaymentMethodBPI:
		return true
	}
	return false
}

// 配送先のスナップショット。注文確定時に住所をコピーする（参照しない）。
type DeliverySnapshot struct {
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	ContactNo    string `gorm:"type:varchar(30);not null" json:"contact_no"`
	Region       string `gorm:"type:varchar(100);not null" json:"region"`
	Province     string `gorm:"type:varchar(100);not null" json:"province"`
	City         string `gorm:"type:varchar(255);not null" json:"city"`
	StreetNumber string `gorm:"type:varchar(255);not null" json:"street_number"`
	PostalCode   string `gorm:"type:varchar(20);not null" json:"postal_code"`
}

type Order struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64       `gorm:"not null;index" json:"user_id"`
	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//送料交渉。0は「未提示」を意味する。
	SuggestedShippingFee      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"suggested_shipping_fee"`
	IsUserAgreedToShippingFee bool            `gorm:"not null;default:false" json:"is_user_agreed_to_shipping_fee"`

	PaymentMethod PaymentMethod    `gorm:"type:varchar(20);not null" json:"payment_method"`
	Delivery      DeliverySnapshot `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_information"`

	//商品分の合計。送料は同意後に加算して支払額になる。
	TotalCost      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_cost"`
	NumberOfItems  int64           `gorm:"not null" json:"number_of_items"`
	AdditionalNote string          `gorm:"type:text" json:"additional_note"`

	IdempotencyKey string `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// TotalPayable は同意済みなら送料込みの金額を返す。
func (o Order) TotalPayable() decimal.Decimal {
	if o.IsUserAgreedToShippingFee {
		return o.TotalCost.Add(o.SuggestedShippingFee)
	}
	return o.TotalCost
}
