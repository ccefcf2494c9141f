package main

import (
	"log"
	"time"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/config"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/handler"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/infra/cache"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/infra/db"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/infra/messaging"
	infraRepo "github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/infra/repository"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/server"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/usecase"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/validator"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/watch"

	"github.com/joho/godotenv"
)

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func main() {
	//.envは無くてもよい（docker等では環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.Inventory{},
		&model.InventoryAdjustment{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.DeliveryInformation{},
		&model.NotificationToken{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal(err)
	}

	//Redis（セッション設定・プッシュ通知）
	prefStore := cache.NewRedisPreferencesStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	notifier := messaging.NewRedisNotifierFromAddr(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	deliveryRepo := infraRepo.NewDeliveryInformationGormRepository(gormDB)
	tokenRepo := infraRepo.NewNotificationTokenGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	clock := &realClock{}
	orderStreams := watch.NewRegistry[usecase.OrderOutput]()
	deliveryStreams := watch.NewRegistry[usecase.DeliveryInformationDTO]()

	//Usecase生成
	authValidator := validator.NewAuthValidator(userRepo)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, clock, authValidator)
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, inventoryRepo, auditRepo, clock)
	cartUC := usecase.NewCartUsecase(cartItemRepo, productRepo, inventoryRepo)
	orderUC := usecase.NewOrderUsecase(txManager, clock, notifier, orderStreams)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo, notifier, clock)
	deliveryUC := usecase.NewDeliveryInformationUsecase(deliveryRepo, deliveryStreams)
	notificationUC := usecase.NewNotificationUsecase(tokenRepo, userRepo, notifier)
	preferenceUC := usecase.NewPreferenceUsecase(prefStore)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC, preferenceUC),
		Product:      handler.NewProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Delivery:     handler.NewDeliveryInformationHandler(deliveryUC),
		Notification: handler.NewNotificationHandler(notificationUC),
		Preference:   handler.NewPreferenceHandler(preferenceUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
	}

	//Server起動
	e := server.New(cfg, handlers)
	if err := server.Start(e, cfg.Port); err != nil {
		log.Fatal(err)
	}
}
