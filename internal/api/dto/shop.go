package dto

import (
	"time"

	"github.com/marketpay/marketpay/internal/domain/shop"
	"github.com/marketpay/marketpay/internal/types"
)

// CreateShopRequest registers a shop with the rent-collection back office
type CreateShopRequest struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	OwnerName string `json:"owner_name"`
	Phone     string `json:"phone"`
}

func (r *CreateShopRequest) ToShop(baseModel types.BaseModel) *shop.Shop {
	return &shop.Shop{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SHOP),
		Code:      r.Code,
		Name:      r.Name,
		OwnerName: r.OwnerName,
		Phone:     r.Phone,
		BaseModel: baseModel,
	}
}

// ShopResponse represents a shop
type ShopResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	OwnerName string    `json:"owner_name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewShopResponse creates a new shop response from a shop
func NewShopResponse(s *shop.Shop) *ShopResponse {
	return &ShopResponse{
		ID:        s.ID,
		Code:      s.Code,
		Name:      s.Name,
		OwnerName: s.OwnerName,
		Phone:     s.Phone,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// ListShopsResponse is the list of registered shops
type ListShopsResponse struct {
	Items []*ShopResponse `json:"items"`
	Total int             `json:"total"`
}
