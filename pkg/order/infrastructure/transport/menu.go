package transport

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"foodorder/pkg/order/domain/model"
)

var _ model.MenuAPI = &MenuClient{}

type MenuClient struct {
	client *Client
}

func NewMenuClient(client *Client) *MenuClient {
	return &MenuClient{client: client}
}

func (c *MenuClient) Restaurant(ctx context.Context, restaurantID string) (*model.RestaurantRef, error) {
	var dto RestaurantDTO
	err := c.client.do(ctx, request{
		op:       "get restaurant",
		method:   http.MethodGet,
		path:     "/restaurants/" + url.PathEscape(restaurantID),
		notFound: model.ErrRestaurantNotFound,
	}, &dto)
	if err != nil {
		return nil, err
	}
	return &model.RestaurantRef{RestaurantID: dto.ID, DisplayName: dto.Name}, nil
}

// MenuItems returns the public menu with Quantity left at zero.
func (c *MenuClient) MenuItems(ctx context.Context, restaurantID string) ([]model.MenuItemRef, error) {
	var dtos []MenuItemDTO
	err := c.client.do(ctx, request{
		op:       "get menu",
		method:   http.MethodGet,
		path:     "/menus/public/restaurant/" + url.PathEscape(restaurantID),
		notFound: model.ErrRestaurantNotFound,
	}, &dtos)
	if err != nil {
		return nil, err
	}
	items := make([]model.MenuItemRef, 0, len(dtos))
	for _, dto := range dtos {
		items = append(items, model.MenuItemRef{ItemID: dto.ID, Name: dto.Name, UnitPrice: decimal.NewFromFloat(dto.Price)})
	}
	return items, nil
}
