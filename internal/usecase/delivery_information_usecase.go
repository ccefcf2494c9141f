package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/domain/model"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/repository"
	"github.com/riley0521/Midnightmares-Online-Clothing-Shop/internal/watch"
)

type DeliveryInformationDTO struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	ContactNo    string `json:"contact_no"`
	Region       string `json:"region"`
	Province     string `json:"province"`
	City         string `json:"city"`
	StreetNumber string `json:"street_number"`
	PostalCode   string `json:"postal_code"`
	IsPrimary    bool   `json:"is_primary"`
}

type DeliveryInformationCreateRequest struct {
	Name         string `json:"name"`
	ContactNo    string `json:"contact_no"`
	Region       string `json:"region"`
	Province     string `json:"province"`
	City         string `json:"city"`
	StreetNumber string `json:"street_number"`
	PostalCode   string `json:"postal_code"`
}

type DeliveryInformationUpdateRequest struct {
	Name         string `json:"name"`
	ContactNo    string `json:"contact_no"`
	Region       string `json:"region"`
	Province     string `json:"province"`
	City         string `json:"city"`
	StreetNumber string `json:"street_number"`
	PostalCode   string `json:"postal_code"`
}

type DeliveryInformationUsecase struct {
	infos   repository.DeliveryInformationRepository
	streams *watch.Registry[DeliveryInformationDTO]
}

func NewDeliveryInformationUsecase(
	infos repository.DeliveryInformationRepository,
	streams *watch.Registry[DeliveryInformationDTO],
) *DeliveryInformationUsecase {
	return &DeliveryInformationUsecase{infos: infos, streams: streams}
}

func (u *DeliveryInformationUsecase) List(ctx context.Context, userID int64) ([]DeliveryInformationDTO, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	list, err := u.infos.ListByUserID(ctx, userID)
	if err != nil {
		return nil, ErrInternal
	}

	out := make([]DeliveryInformationDTO, 0, len(list))
	for i := range list {
		out = append(out, toDeliveryInformationDTO(&list[i]))
	}
	return out, nil
}

func (u *DeliveryInformationUsecase) Create(ctx context.Context, userID int64, req DeliveryInformationCreateRequest) (DeliveryInformationDTO, error) {
	if userID <= 0 {
		return DeliveryInformationDTO{}, ErrUnauthorized
	}
	if err := validateDeliveryFields(req.Name, req.ContactNo, req.Region, req.Province, req.City, req.StreetNumber, req.PostalCode); err != nil {
		return DeliveryInformationDTO{}, err
	}

	//最初の1件はそのままデフォルトにする
	isPrimary := false
	if _, err := u.infos.FindPrimaryByUserID(ctx, userID); errors.Is(err, repository.ErrNotFound) {
		isPrimary = true
	}

	created, err := u.infos.Create(ctx, model.DeliveryInformation{
		UserID:       userID,
		Name:         strings.TrimSpace(req.Name),
		ContactNo:    strings.TrimSpace(req.ContactNo),
		Region:       strings.TrimSpace(req.Region),
		Province:     strings.TrimSpace(req.Province),
		City:         strings.TrimSpace(req.City),
		StreetNumber: strings.TrimSpace(req.StreetNumber),
		PostalCode:   strings.TrimSpace(req.PostalCode),
		IsPrimary:    isPrimary,
	})
	if err != nil {
		return DeliveryInformationDTO{}, ErrInternal
	}

	u.publishSnapshot(ctx, userID)
	return toDeliveryInformationDTO(&created), nil
}

func (u *DeliveryInformationUsecase) Update(ctx context.Context, userID int64, infoID int64, req DeliveryInformationUpdateRequest) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	if infoID <= 0 {
		return ErrValidation
	}
	if err := validateDeliveryFields(req.Name, req.ContactNo, req.Region, req.Province, req.City, req.StreetNumber, req.PostalCode); err != nil {
		return err
	}

	owned, err := u.infos.IsOwnedByUser(ctx, infoID, userID)
	if err != nil {
		return ErrInternal
	}
	if !owned {
		return ErrNotFound
	}

	err = u.infos.Update(ctx, model.DeliveryInformation{
		ID:           infoID,
		Name:         strings.TrimSpace(req.Name),
		ContactNo:    strings.TrimSpace(req.ContactNo),
		Region:       strings.TrimSpace(req.Region),
		Province:     strings.TrimSpace(req.Province),
		City:         strings.TrimSpace(req.City),
		StreetNumber: strings.TrimSpace(req.StreetNumber),
		PostalCode:   strings.TrimSpace(req.PostalCode),
	})
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return ErrInternal
	}

	u.publishSnapshot(ctx, userID)
	return nil
}

func (u *DeliveryInformationUsecase) Delete(ctx context.Context, userID int64, infoID int64) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	if infoID <= 0 {
		return ErrValidation
	}

	owned, err := u.infos.IsOwnedByUser(ctx, infoID, userID)
	if err != nil {
		return ErrInternal
	}
	if !owned {
		return ErrNotFound
	}

	if err := u.infos.Delete(ctx, infoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return ErrInternal
	}

	u.publishSnapshot(ctx, userID)
	return nil
}

// ChangeDefault はデフォルト住所の切り替え。
// 解除と設定はrepo側で1トランザクションになっている。
func (u *DeliveryInformationUsecase) ChangeDefault(ctx context.Context, userID int64, infoID int64) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	if infoID <= 0 {
		return ErrValidation
	}

	if err := u.infos.ChangeDefault(ctx, userID, infoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return ErrInternal
	}

	u.publishSnapshot(ctx, userID)
	return nil
}

// Stream は住所一覧のスナップショット購読。
// 返すcancelを必ず呼んで購読を解除すること。
func (u *DeliveryInformationUsecase) Stream(ctx context.Context, userID int64) (<-chan []DeliveryInformationDTO, func(), error) {
	if userID <= 0 {
		return nil, nil, ErrUnauthorized
	}

	ch, cancel := u.streams.ForUser(userID).Subscribe()

	outs, err := u.List(ctx, userID)
	if err == nil {
		u.streams.ForUser(userID).Publish(outs)
	}
	return ch, cancel, nil
}

func (u *DeliveryInformationUsecase) publishSnapshot(ctx context.Context, userID int64) {
	hub := u.streams.ForUser(userID)
	if hub.SubscriberCount() == 0 {
		return
	}
	outs, err := u.List(ctx, userID)
	if err != nil {
		return
	}
	hub.Publish(outs)
}

func validateDeliveryFields(fields ...string) error {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return ErrValidation
		}
		if len(f) > 255 {
			return ErrValidation
		}
	}
	return nil
}

func toDeliveryInformationDTO(d *model.DeliveryInformation) DeliveryInformationDTO {
	return DeliveryInformationDTO{
		ID:           d.ID,
		UserID:       d.UserID,
		Name:         d.Name,
		ContactNo:    d.ContactNo,
		Region:       d.Region,
		Province:     d.Province,
		City:         d.City,
		StreetNumber: d.StreetNumber,
		PostalCode:   d.PostalCode,
		IsPrimary:    d.IsPrimary,
	}
}
