package service

import (
	"context"

	"github.com/marketpay/marketpay/internal/api/dto"
	ierr "github.com/marketpay/marketpay/internal/errors"
	"github.com/marketpay/marketpay/internal/types"
)

// ShopService defines the interface for shop operations
type ShopService interface {
	CreateShop(ctx context.Context, req *dto.CreateShopRequest) (*dto.ShopResponse, error)
	GetShop(ctx context.Context, id string) (*dto.ShopResponse, error)
	ListShops(ctx context.Context) (*dto.ListShopsResponse, error)
}

type shopService struct {
	ServiceParams
}

// NewShopService creates a new shop service
func NewShopService(params ServiceParams) ShopService {
	return &shopService{ServiceParams: params}
}

func (s *shopService) CreateShop(ctx context.Context, req *dto.CreateShopRequest) (*dto.ShopResponse, error) {
	newShop := req.ToShop(types.GetDefaultBaseModel(ctx))
	if err := newShop.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.ShopRepo.GetByCode(ctx, newShop.Code); err == nil && existing != nil {
		return nil, ierr.NewError("shop code already registered").
			WithHintf("Shop code %s is already in use", newShop.Code).
			Mark(ierr.ErrAlreadyExists)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	if err := s.ShopRepo.Create(ctx, newShop); err != nil {
		return nil, err
	}

	s.Logger.Infow("shop registered", "shop_id", newShop.ID, "code", newShop.Code)
	return dto.NewShopResponse(newShop), nil
}

func (s *shopService) GetShop(ctx context.Context, id string) (*dto.ShopResponse, error) {
	shop, err := s.ShopRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewShopResponse(shop), nil
}

func (s *shopService) ListShops(ctx context.Context) (*dto.ListShopsResponse, error) {
	shops, err := s.ShopRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ShopResponse, 0, len(shops))
	for _, shop := range shops {
		items = append(items, dto.NewShopResponse(shop))
	}
	return &dto.ListShopsResponse{Items: items, Total: len(items)}, nil
}
