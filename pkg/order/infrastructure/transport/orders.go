package transport

import (
	"context"
	"net/http"
	"net/url"

	"foodorder/pkg/order/domain/model"
)

var _ model.OrderAPI = &OrderClient{}

type OrderClient struct {
	client *Client
}

func NewOrderClient(client *Client) *OrderClient {
	return &OrderClient{client: client}
}

func orderPath(orderID string, suffix string) string {
	return "/orders/" + url.PathEscape(orderID) + suffix
}

func (c *OrderClient) Create(ctx context.Context, draft model.DraftPayload) (*model.Order, error) {
	return c.one(ctx, request{op: "create order", method: http.MethodPost, path: "/orders", body: DraftToDTO(draft)})
}

func (c *OrderClient) Get(ctx context.Context, orderID string) (*model.Order, error) {
	return c.one(ctx, request{op: "get order", method: http.MethodGet, path: orderPath(orderID, "")})
}

func (c *OrderClient) Update(ctx context.Context, orderID string, update model.OrderUpdate) (*model.Order, error) {
	return c.one(ctx, request{op: "update order", method: http.MethodPut, path: orderPath(orderID, ""), body: UpdateToDTO(update)})
}

func (c *OrderClient) Confirm(ctx context.Context, orderID string) (*model.Order, error) {
	return c.one(ctx, request{op: "confirm order", method: http.MethodPatch, path: orderPath(orderID, "/confirm"), body: struct{}{}})
}

// SetStatus uses the restaurant route for kitchen progress and the general
// status route for everything else, cancellations included.
func (c *OrderClient) SetStatus(ctx context.Context, orderID string, status model.Status, cancellationReason string) (*model.Order, error) {
	switch status {
	case model.Preparing, model.ReadyForDelivery:
		return c.one(ctx, request{
			op:     "update placed order",
			method: http.MethodPatch,
			path:   orderPath(orderID, "/placed"),
			body:   StatusDTO{Status: status},
		})
	}
	body := StatusDTO{Status: status}
	if status == model.Cancelled {
		body.CancellationReason = cancellationReason
	}
	return c.one(ctx, request{op: "update order status", method: http.MethodPatch, path: orderPath(orderID, "/status"), body: body})
}

func (c *OrderClient) ListForCurrentUser(ctx context.Context) ([]model.Order, error) {
	return c.list(ctx, request{op: "list orders", method: http.MethodGet, path: "/orders/user"})
}

func (c *OrderClient) ListReadyForDelivery(ctx context.Context) ([]model.Order, error) {
	return c.list(ctx, request{op: "list ready orders", method: http.MethodGet, path: "/orders/ready-for-delivery"})
}

func (c *OrderClient) ListConfirmedForRestaurant(ctx context.Context, restaurantID string) ([]model.Order, error) {
	query := url.Values{"restaurantId": {restaurantID}}
	return c.list(ctx, request{op: "list confirmed orders", method: http.MethodGet, path: "/confirmed-orders?" + query.Encode()})
}

func (c *OrderClient) Delete(ctx context.Context, orderID string) error {
	return c.client.do(ctx, request{op: "delete order", method: http.MethodDelete, path: orderPath(orderID, ""), notFound: model.ErrOrderNotFound}, nil)
}

func (c *OrderClient) one(ctx context.Context, req request) (*model.Order, error) {
	req.notFound = model.ErrOrderNotFound
	var dto OrderDTO
	if err := c.client.do(ctx, req, &dto); err != nil {
		return nil, err
	}
	order := dto.Model()
	return &order, nil
}

func (c *OrderClient) list(ctx context.Context, req request) ([]model.Order, error) {
	var dtos []OrderDTO
	if err := c.client.do(ctx, req, &dtos); err != nil {
		return nil, err
	}
	orders := make([]model.Order, 0, len(dtos))
	for _, dto := range dtos {
		orders = append(orders, dto.Model())
	}
	return orders, nil
}
