package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"

	"github.com/shopspring/decimal"
)

// =====================
// 部品（Clock / Notifier）
// =====================

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type publishedEvent struct {
	Topic   string
	Payload interface{}
}

type fakeNotifier struct {
	mu        sync.Mutex
	Published []publishedEvent
	Topics    map[string][]string // topic -> tokens
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{Topics: map[string][]string{}}
}

func (n *fakeNotifier) Publish(ctx context.Context, topic string, payload interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Published = append(n.Published, publishedEvent{Topic: topic, Payload: payload})
	return nil
}

func (n *fakeNotifier) SubscribeToken(ctx context.Context, topic string, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Topics[topic] = append(n.Topics[topic], token)
	return nil
}

func (n *fakeNotifier) UnsubscribeToken(ctx context.Context, topic string, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	kept := n.Topics[topic][:0]
	for _, t := range n.Topics[topic] {
		if t != token {
			kept = append(kept, t)
		}
	}
	n.Topics[topic] = kept
	return nil
}

// =====================
// 在庫（カウンタを本当に動かす）
// =====================

type memInventoryRepo struct {
	mu          sync.Mutex
	byID        map[int64]*model.Inventory
	nextID      int64
	adjustments []model.InventoryAdjustment
}

func newMemInventoryRepo() *memInventoryRepo {
	return &memInventoryRepo{byID: map[int64]*model.Inventory{}, nextID: 1}
}

func (m *memInventoryRepo) put(inv model.Inventory) model.Inventory {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv.ID == 0 {
		inv.ID = m.nextID
		m.nextID++
	}
	cp := inv
	m.byID[inv.ID] = &cp
	return cp
}

func (m *memInventoryRepo) FindByID(ctx context.Context, id int64) (model.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok {
		return model.Inventory{}, repo.ErrNotFound
	}
	return *inv, nil
}

func (m *memInventoryRepo) ListByProductID(ctx context.Context, productID int64) ([]model.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Inventory
	for _, inv := range m.byID {
		if inv.ProductID == productID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *memInventoryRepo) Create(ctx context.Context, inv model.Inventory) (model.Inventory, error) {
	return m.put(inv), nil
}

func (m *memInventoryRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memInventoryRepo) SetRestockLevel(ctx context.Context, id int64, level int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	inv.RestockLevel = level
	return nil
}

func (m *memInventoryRepo) MoveStockToCommitted(ctx context.Context, id int64, qty int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok || inv.Stock < qty {
		return false, nil
	}
	inv.Stock -= qty
	inv.Committed += qty
	return true, nil
}

func (m *memInventoryRepo) MoveCommittedToStock(ctx context.Context, id int64, qty int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok || inv.Committed < qty {
		return false, nil
	}
	inv.Committed -= qty
	inv.Stock += qty
	return true, nil
}

func (m *memInventoryRepo) MoveCommittedToSold(ctx context.Context, id int64, qty int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok || inv.Committed < qty {
		return false, nil
	}
	inv.Committed -= qty
	inv.Sold += qty
	return true, nil
}

func (m *memInventoryRepo) MoveSoldToReturned(ctx context.Context, id int64, qty int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok || inv.Sold < qty {
		return false, nil
	}
	inv.Sold -= qty
	inv.Returned += qty
	return true, nil
}

func (m *memInventoryRepo) AddStock(ctx context.Context, id int64, qty int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	inv.Stock += qty
	return nil
}

func (m *memInventoryRepo) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adjustments = append(m.adjustments, adj)
	return nil
}

// =====================
// 注文
// =====================

type memOrderRepo struct {
	mu     sync.Mutex
	byID   map[int64]*model.Order
	nextID int64
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{byID: map[int64]*model.Order{}, nextID: 1}
}

func (m *memOrderRepo) put(o model.Order) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == 0 {
		o.ID = m.nextID
		m.nextID++
	}
	cp := o
	m.byID[o.ID] = &cp
	return cp
}

func (m *memOrderRepo) FindByID(ctx context.Context, id int64) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return *o, nil
}

func (m *memOrderRepo) ListByUserID(ctx context.Context, userID int64, page, limit int) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			all = append(all, *o)
		}
	}
	//新しい順に固定してページングする
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))

	offset := (page - 1) * limit
	if offset >= len(all) {
		return []model.Order{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memOrderRepo) Create(ctx context.Context, o model.Order) (int64, error) {
	m.mu.Lock()
	for _, ex := range m.byID {
		if ex.IdempotencyKey == o.IdempotencyKey {
			m.mu.Unlock()
			return 0, repo.ErrConflict
		}
	}
	m.mu.Unlock()
	created := m.put(o)
	return created.ID, nil
}

func (m *memOrderRepo) UpdateStatus(ctx context.Context, id int64, from, to model.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	// 条件付きUPDATE相当。fromから変わっていたら0件扱い
	if !ok || o.Status != from {
		return repo.ErrNotFound
	}
	o.Status = to
	return nil
}

func (m *memOrderRepo) SetSuggestedShippingFee(ctx context.Context, id int64, fee decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	// 条件付きUPDATE相当。SHIPPING以外は0件扱い
	if !ok || o.Status != model.OrderStatusShipping {
		return repo.ErrNotFound
	}
	o.SuggestedShippingFee = fee
	o.Status = model.OrderStatusShipped
	return nil
}

func (m *memOrderRepo) SetAgreedToShippingFee(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok || o.Status != model.OrderStatusShipped {
		return repo.ErrNotFound
	}
	o.IsUserAgreedToShippingFee = true
	return nil
}

func (m *memOrderRepo) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.UserID == userID && o.IdempotencyKey == key {
			return *o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (m *memOrderRepo) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.byID {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

type memOrderItemRepo struct {
	mu      sync.Mutex
	byOrder map[int64][]model.OrderItem
}

func newMemOrderItemRepo() *memOrderItemRepo {
	return &memOrderItemRepo{byOrder: map[int64][]model.OrderItem{}}
}

func (m *memOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range items {
		items[i].OrderID = orderID
	}
	m.byOrder[orderID] = append(m.byOrder[orderID], items...)
	return nil
}

func (m *memOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OrderItem(nil), m.byOrder[orderID]...), nil
}

// =====================
// カート
// =====================

type memCartItemRepo struct {
	mu     sync.Mutex
	byID   map[int64]*model.CartItem
	nextID int64
}

func newMemCartItemRepo() *memCartItemRepo {
	return &memCartItemRepo{byID: map[int64]*model.CartItem{}, nextID: 1}
}

func (m *memCartItemRepo) ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CartItem
	for _, it := range m.byID {
		if it.UserID == userID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *memCartItemRepo) FindByID(ctx context.Context, id int64) (model.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.byID[id]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return *it, nil
}

func (m *memCartItemRepo) UpsertByUserAndInventory(ctx context.Context, userID, productID, inventoryID, addQty int64, unitPrice decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.byID {
		if it.UserID == userID && it.InventoryID == inventoryID {
			it.Quantity += addQty
			return nil
		}
	}
	id := m.nextID
	m.nextID++
	m.byID[id] = &model.CartItem{
		ID:                id,
		UserID:            userID,
		ProductID:         productID,
		InventoryID:       inventoryID,
		Quantity:          addQty,
		UnitPriceSnapshot: unitPrice,
	}
	return nil
}

func (m *memCartItemRepo) UpdateQuantity(ctx context.Context, id, qty int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	return nil
}

func (m *memCartItemRepo) DeleteByID(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memCartItemRepo) DeleteAllByUserID(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, it := range m.byID {
		if it.UserID == userID {
			delete(m.byID, id)
		}
	}
	return nil
}

func (m *memCartItemRepo) IsOwnedByUser(ctx context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.byID[id]
	return ok && it.UserID == userID, nil
}

// =====================
// 商品
// =====================

type memProductRepo struct {
	mu     sync.Mutex
	byID   map[int64]*model.Product
	nextID int64
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{byID: map[int64]*model.Product{}, nextID: 1}
}

func (m *memProductRepo) put(p model.Product) model.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		p.ID = m.nextID
		m.nextID++
	}
	cp := p
	m.byID[p.ID] = &cp
	return cp
}

func (m *memProductRepo) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Product
	for _, p := range m.byID {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return *p, nil
}

func (m *memProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	return m.put(p), nil
}

func (m *memProductRepo) Update(ctx context.Context, p model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProductRepo) SoftDelete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// =====================
// 配送先
// =====================

type memDeliveryRepo struct {
	mu     sync.Mutex
	byID   map[int64]*model.DeliveryInformation
	nextID int64
}

func newMemDeliveryRepo() *memDeliveryRepo {
	return &memDeliveryRepo{byID: map[int64]*model.DeliveryInformation{}, nextID: 1}
}

func (m *memDeliveryRepo) Create(ctx context.Context, info model.DeliveryInformation) (model.DeliveryInformation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info.ID = m.nextID
	m.nextID++
	cp := info
	m.byID[info.ID] = &cp
	return cp, nil
}

func (m *memDeliveryRepo) ListByUserID(ctx context.Context, userID int64) ([]model.DeliveryInformation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.DeliveryInformation
	for _, d := range m.byID {
		if d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDeliveryRepo) FindByID(ctx context.Context, id int64) (model.DeliveryInformation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok {
		return model.DeliveryInformation{}, repo.ErrNotFound
	}
	return *d, nil
}

func (m *memDeliveryRepo) FindPrimaryByUserID(ctx context.Context, userID int64) (model.DeliveryInformation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.byID {
		if d.UserID == userID && d.IsPrimary {
			return *d, nil
		}
	}
	return model.DeliveryInformation{}, repo.ErrNotFound
}

func (m *memDeliveryRepo) Update(ctx context.Context, info model.DeliveryInformation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[info.ID]
	if !ok {
		return repo.ErrNotFound
	}
	//UserIDとIsPrimaryは持ち主情報なので上書きしない
	d.Name = info.Name
	d.ContactNo = info.ContactNo
	d.Region = info.Region
	d.Province = info.Province
	d.City = info.City
	d.StreetNumber = info.StreetNumber
	d.PostalCode = info.PostalCode
	return nil
}

func (m *memDeliveryRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memDeliveryRepo) IsOwnedByUser(ctx context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	return ok && d.UserID == userID, nil
}

func (m *memDeliveryRepo) ChangeDefault(ctx context.Context, userID, infoID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target, ok := m.byID[infoID]
	if !ok || target.UserID != userID {
		return repo.ErrNotFound
	}
	for _, d := range m.byID {
		if d.UserID == userID {
			d.IsPrimary = false
		}
	}
	target.IsPrimary = true
	return nil
}

// =====================
// ユーザー / 通知トークン / 監査ログ
// =====================

type memUserRepo struct {
	mu     sync.Mutex
	byID   map[int64]*model.User
	nextID int64
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[int64]*model.User{}, nextID: 1}
}

func (m *memUserRepo) Create(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.byID {
		if ex.Email == u.Email {
			return repo.ErrConflict
		}
	}
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUserRepo) Update(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

type memTokenRepo struct {
	mu     sync.Mutex
	byID   map[int64]*model.NotificationToken
	nextID int64
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{byID: map[int64]*model.NotificationToken{}, nextID: 1}
}

func (m *memTokenRepo) ListByUserID(ctx context.Context, userID int64) ([]model.NotificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.NotificationToken
	for _, t := range m.byID {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTokenRepo) Upsert(ctx context.Context, token model.NotificationToken) (model.NotificationToken, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.UserID == token.UserID && t.DeviceID == token.DeviceID {
			if t.Token == token.Token {
				return *t, false, nil
			}
			t.Token = token.Token
			return *t, true, nil
		}
	}
	token.ID = m.nextID
	m.nextID++
	cp := token
	m.byID[token.ID] = &cp
	return cp, true, nil
}

func (m *memTokenRepo) DeleteByUserAndDevice(ctx context.Context, userID int64, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.byID {
		if t.UserID == userID && t.DeviceID == deviceID {
			delete(m.byID, id)
			return nil
		}
	}
	return repo.ErrNotFound
}

type memAuditRepo struct {
	mu   sync.Mutex
	Logs []model.AuditLog
}

func (m *memAuditRepo) Create(ctx context.Context, log model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *memAuditRepo) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AuditLog(nil), m.Logs...), nil
}

// =====================
// TxManager（トランザクションは素通し）
// =====================

type memTxRepos struct {
	orders     *memOrderRepo
	orderItems *memOrderItemRepo
	cartItems  *memCartItemRepo
	inventory  *memInventoryRepo
	products   *memProductRepo
	delivery   *memDeliveryRepo
}

func (r *memTxRepos) Orders() repo.OrderRepository                           { return r.orders }
func (r *memTxRepos) OrderItems() repo.OrderItemRepository                   { return r.orderItems }
func (r *memTxRepos) CartItems() repo.CartItemRepository                     { return r.cartItems }
func (r *memTxRepos) Inventory() repo.InventoryRepository                    { return r.inventory }
func (r *memTxRepos) Products() repo.ProductRepository                       { return r.products }
func (r *memTxRepos) DeliveryInformation() repo.DeliveryInformationRepository { return r.delivery }

type memTxManager struct {
	repos *memTxRepos
}

func (m *memTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

// fixture はusecaseテスト用の部品一式。
type fixture struct {
	orders     *memOrderRepo
	orderItems *memOrderItemRepo
	cartItems  *memCartItemRepo
	inventory  *memInventoryRepo
	products   *memProductRepo
	delivery   *memDeliveryRepo
	users      *memUserRepo
	tokens     *memTokenRepo
	audit      *memAuditRepo
	tx         *memTxManager
	clock      *fakeClock
	notifier   *fakeNotifier
}

func newFixture() *fixture {
	f := &fixture{
		orders:     newMemOrderRepo(),
		orderItems: newMemOrderItemRepo(),
		cartItems:  newMemCartItemRepo(),
		inventory:  newMemInventoryRepo(),
		products:   newMemProductRepo(),
		delivery:   newMemDeliveryRepo(),
		users:      newMemUserRepo(),
		tokens:     newMemTokenRepo(),
		audit:      &memAuditRepo{},
		clock:      &fakeClock{now: time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)},
		notifier:   newFakeNotifier(),
	}
	f.tx = &memTxManager{repos: &memTxRepos{
		orders:     f.orders,
		orderItems: f.orderItems,
		cartItems:  f.cartItems,
		inventory:  f.inventory,
		products:   f.products,
		delivery:   f.delivery,
	}}
	return f
}
