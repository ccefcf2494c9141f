package usecase

import (
	"context"
	"net/http"
	"testing"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type memCategoryRepo struct {
	byID   map[int64]model.Category
	nextID int64
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{byID: map[int64]model.Category{}, nextID: 1}
}

func (m *memCategoryRepo) put(c model.Category) model.Category {
	if c.ID == 0 {
		c.ID = m.nextID
		m.nextID++
	}
	m.byID[c.ID] = c
	return c
}

func (m *memCategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	out := make([]model.Category, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCategoryRepo) FindByID(ctx context.Context, id int64) (model.Category, error) {
	c, ok := m.byID[id]
	if !ok {
		return model.Category{}, repo.ErrNotFound
	}
	return c, nil
}

func (m *memCategoryRepo) Create(ctx context.Context, c model.Category) (model.Category, error) {
	for _, got := range m.byID {
		if got.Name == c.Name {
			return model.Category{}, repo.ErrConflict
		}
	}
	return m.put(c), nil
}

func (m *memCategoryRepo) Update(ctx context.Context, c model.Category) error {
	if _, ok := m.byID[c.ID]; !ok {
		return repo.ErrNotFound
	}
	m.byID[c.ID] = c
	return nil
}

func (m *memCategoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func newProductUsecaseForTest(f *fixture, categories *memCategoryRepo) *ProductUsecase {
	return NewProductUsecase(f.products, categories, f.inventory, f.audit, f.clock)
}

func TestListPublicProducts_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newProductUsecaseForTest(f, newMemCategoryRepo())

	_, err := uc.ListPublicProducts(ctx, ListProductsInput{Page: 0, Limit: 20})
	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)

	_, err = uc.ListPublicProducts(ctx, ListProductsInput{Page: 1, Limit: 20, Sort: "BY_MAGIC"})
	he, ok = AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestListPublicProducts_DefaultSort(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newProductUsecaseForTest(f, newMemCategoryRepo())

	f.products.put(model.Product{CategoryID: 1, Name: "Tee", Price: decimal.NewFromInt(450), IsActive: true})

	out, err := uc.ListPublicProducts(ctx, ListProductsInput{Page: 1, Limit: 20})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Len(t, out.Items, 1)
}

func TestGetProductDetail_InactiveHidden(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newProductUsecaseForTest(f, newMemCategoryRepo())

	p := f.products.put(model.Product{CategoryID: 1, Name: "Archived", Price: decimal.NewFromInt(450), IsActive: false})

	//非公開は404扱い
	_, err := uc.GetProductDetail(ctx, p.ID)
	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestAdminCreateProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	categories := newMemCategoryRepo()
	uc := newProductUsecaseForTest(f, categories)

	cat := categories.put(model.Category{Name: "Hoodies"})

	created, err := uc.AdminCreateProduct(ctx, testAdminID, AdminCreateProductInput{
		CategoryID: cat.ID,
		Name:       "  Midnight Hoodie  ",
		Price:      decimal.NewFromInt(1200),
		IsActive:   true,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Midnight Hoodie", created.Name)

	//存在しないカテゴリは不可
	_, err = uc.AdminCreateProduct(ctx, testAdminID, AdminCreateProductInput{
		CategoryID: 999,
		Name:       "Orphan",
		Price:      decimal.NewFromInt(100),
	})
	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)

	//価格0は不可
	_, err = uc.AdminCreateProduct(ctx, testAdminID, AdminCreateProductInput{
		CategoryID: cat.ID,
		Name:       "Freebie",
		Price:      decimal.Zero,
	})
	he, ok = AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestAdminCategoryCRUD(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	categories := newMemCategoryRepo()
	uc := newProductUsecaseForTest(f, categories)

	created, err := uc.AdminCreateCategory(ctx, testAdminID, AdminCategoryInput{Name: " Hoodies "})
	assert.NoError(t, err)
	assert.Equal(t, "Hoodies", created.Name)

	//同名は409
	_, err = uc.AdminCreateCategory(ctx, testAdminID, AdminCategoryInput{Name: "Hoodies"})
	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Status)

	assert.NoError(t, uc.AdminUpdateCategory(ctx, testAdminID, created.ID, AdminCategoryInput{Name: "Outerwear"}))
	got, _ := categories.FindByID(ctx, created.ID)
	assert.Equal(t, "Outerwear", got.Name)

	assert.NoError(t, uc.AdminDeleteCategory(ctx, testAdminID, created.ID))
	err = uc.AdminDeleteCategory(ctx, testAdminID, created.ID)
	he, ok = AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestAdminAddInventory_SizeNormalized(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newProductUsecaseForTest(f, newMemCategoryRepo())

	p := f.products.put(model.Product{CategoryID: 1, Name: "Tee", Price: decimal.NewFromInt(450), IsActive: true})

	inv, err := uc.AdminAddInventory(ctx, testAdminID, AdminAddInventoryInput{
		ProductID:    p.ID,
		Size:         " xl ",
		InitialStock: 5,
		RestockLevel: 2,
	})
	assert.NoError(t, err)
	assert.Equal(t, "XL", inv.Size)
	assert.Equal(t, int64(5), inv.Stock)
}

func TestAdminRestock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newProductUsecaseForTest(f, newMemCategoryRepo())

	inv := f.inventory.put(model.Inventory{ProductID: 1, Size: "M", Stock: 3})

	err := uc.AdminRestock(ctx, testAdminID, AdminRestockInput{
		InventoryID: inv.ID,
		Quantity:    7,
		Reason:      "june delivery",
	})
	assert.NoError(t, err)

	got, _ := f.inventory.FindByID(ctx, inv.ID)
	assert.Equal(t, int64(10), got.Stock)

	//調整履歴と監査ログが残る
	assert.Len(t, f.inventory.adjustments, 1)
	assert.Equal(t, int64(7), f.inventory.adjustments[0].Delta)

	assert.Len(t, f.audit.Logs, 1)
	assert.Equal(t, model.AuditActionUpdateStock, f.audit.Logs[0].Action)
	assert.Equal(t, `{"stock":3}`, f.audit.Logs[0].BeforeJSON)
	assert.Equal(t, `{"stock":10}`, f.audit.Logs[0].AfterJSON)
}

func TestAdminRestock_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	uc := newProductUsecaseForTest(f, newMemCategoryRepo())

	inv := f.inventory.put(model.Inventory{ProductID: 1, Size: "M", Stock: 3})

	err := uc.AdminRestock(ctx, testAdminID, AdminRestockInput{InventoryID: inv.ID, Quantity: 0, Reason: "x"})
	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)

	err = uc.AdminRestock(ctx, testAdminID, AdminRestockInput{InventoryID: inv.ID, Quantity: 5, Reason: "  "})
	he, ok = AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)

	err = uc.AdminRestock(ctx, testAdminID, AdminRestockInput{InventoryID: 999, Quantity: 5, Reason: "restock"})
	he, ok = AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}
