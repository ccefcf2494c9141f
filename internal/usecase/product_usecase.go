package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	repo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	categoryRepo  repo.CategoryRepository
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
	clock         Clock
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
	clock Clock,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		clock:         clock,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	Sort       string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	sort := model.SortOrder(strings.TrimSpace(in.Sort))
	if sort == "" {
		sort = model.SortByName
	}
	if !model.IsValidSortOrder(sort) {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		Sort:       sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// GetProductDetail はサイズ別在庫込みの1件。非公開は「無い扱い」。
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

func (u *ProductUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	list, err := u.categoryRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

type AdminCreateProductInput struct {
	CategoryID  int64
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	Flag        string
	Type        string
	IsActive    bool
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, actorAdminUserID int64, in AdminCreateProductInput) (model.Product, error) {
	if actorAdminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Name) == "" || len(in.Name) > 255 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if in.Price.LessThanOrEqual(decimal.Zero) {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid price")
	}

	//カテゴリの存在確認
	if _, err := u.categoryRepo.FindByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid category_id")
		}
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	created, err := u.productRepo.Create(ctx, model.Product{
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Price:       in.Price,
		Flag:        strings.TrimSpace(in.Flag),
		Type:        strings.TrimSpace(in.Type),
		IsActive:    in.IsActive,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, actorAdminUserID int64, productID int64, in AdminCreateProductInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if strings.TrimSpace(in.Name) == "" || len(in.Name) > 255 {
		return NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if in.Price.LessThanOrEqual(decimal.Zero) {
		return NewHTTPError(http.StatusBadRequest, "invalid price")
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Price:       in.Price,
		Flag:        strings.TrimSpace(in.Flag),
		Type:        strings.TrimSpace(in.Type),
		IsActive:    in.IsActive,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, actorAdminUserID int64, productID int64) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type AdminCategoryInput struct {
	Name     string
	ImageURL string
}

func (u *ProductUsecase) AdminCreateCategory(ctx context.Context, actorAdminUserID int64, in AdminCategoryInput) (model.Category, error) {
	if actorAdminUserID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Name) == "" || len(in.Name) > 255 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}

	created, err := u.categoryRepo.Create(ctx, model.Category{
		Name:     strings.TrimSpace(in.Name),
		ImageURL: in.ImageURL,
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *ProductUsecase) AdminUpdateCategory(ctx context.Context, actorAdminUserID int64, categoryID int64, in AdminCategoryInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if categoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if strings.TrimSpace(in.Name) == "" || len(in.Name) > 255 {
		return NewHTTPError(http.StatusBadRequest, "invalid name")
	}

	err := u.categoryRepo.Update(ctx, model.Category{
		ID:       categoryID,
		Name:     strings.TrimSpace(in.Name),
		ImageURL: in.ImageURL,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) AdminDeleteCategory(ctx context.Context, actorAdminUserID int64, categoryID int64) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if categoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.categoryRepo.Delete(ctx, categoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type AdminAddInventoryInput struct {
	ProductID    int64
	Size         string
	InitialStock int64
	RestockLevel int64
}

// AdminAddInventory は商品にサイズを追加する。
func (u *ProductUsecase) AdminAddInventory(ctx context.Context, actorAdminUserID int64, in AdminAddInventoryInput) (model.Inventory, error) {
	if actorAdminUserID <= 0 {
		return model.Inventory{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return model.Inventory{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if strings.TrimSpace(in.Size) == "" || len(in.Size) > 30 {
		return model.Inventory{}, NewHTTPError(http.StatusBadRequest, "invalid size")
	}
	if in.InitialStock < 0 || in.RestockLevel < 0 {
		return model.Inventory{}, NewHTTPError(http.StatusBadRequest, "invalid stock")
	}

	if _, err := u.productRepo.FindByID(ctx, in.ProductID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Inventory{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Inventory{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	created, err := u.inventoryRepo.Create(ctx, model.Inventory{
		ProductID:    in.ProductID,
		Size:         strings.ToUpper(strings.TrimSpace(in.Size)),
		Stock:        in.InitialStock,
		RestockLevel: in.RestockLevel,
	})
	if err != nil {
		return model.Inventory{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

type AdminRestockInput struct {
	InventoryID int64
	Quantity    int64
	Reason      string
}

// AdminRestock は物理再入荷。stockにだけ足して調整履歴＋監査ログを残す。
func (u *ProductUsecase) AdminRestock(ctx context.Context, actorAdminUserID int64, in AdminRestockInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.InventoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid inventory_id")
	}
	if in.Quantity <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || len(reason) > 255 {
		return NewHTTPError(http.StatusBadRequest, "invalid reason")
	}

	before, err := u.inventoryRepo.FindByID(ctx, in.InventoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.inventoryRepo.AddStock(ctx, in.InventoryID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.inventoryRepo.CreateAdjustment(ctx, model.InventoryAdjustment{
		InventoryID: in.InventoryID,
		AdminUserID: actorAdminUserID,
		Delta:       in.Quantity,
		Reason:      reason,
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// ★監査ログ（UPDATE_STOCK）
	beforeJSON := fmt.Sprintf(`{"stock":%d}`, before.Stock)
	afterJSON := fmt.Sprintf(`{"stock":%d}`, before.Stock+in.Quantity)
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceInventory,
		ResourceID:   in.InventoryID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return nil
}
