package repository

import (
	"context"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
)

// 配送先住所を保存・取得する窓口
type DeliveryInformationRepository interface {
	//作成後はIDなどが埋まったものを返す
	Create(ctx context.Context, info model.DeliveryInformation) (model.DeliveryInformation, error)

	//ユーザーが持つ住所一覧を返す
	ListByUserID(ctx context.Context, userID int64) ([]model.DeliveryInformation, error)

	FindByID(ctx context.Context, infoID int64) (model.DeliveryInformation, error)

	//デフォルトの1件。無ければ ErrNotFound
	FindPrimaryByUserID(ctx context.Context, userID int64) (model.DeliveryInformation, error)

	Update(ctx context.Context, info model.DeliveryInformation) error

	Delete(ctx context.Context, infoID int64) error

	IsOwnedByUser(ctx context.Context, infoID, userID int64) (bool, error)

	//デフォルト住所の切り替え。旧primaryの解除と新primaryの設定を
	//1トランザクションで行う（片方だけ成功する状態を作らない）。
	ChangeDefault(ctx context.Context, userID, infoID int64) error
}
