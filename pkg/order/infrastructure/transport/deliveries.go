package transport

import (
	"context"
	"net/http"
	"net/url"

	"foodorder/pkg/order/domain/model"
)

var _ model.DeliveryAPI = &DeliveryClient{}

type DeliveryClient struct {
	client *Client
}

func NewDeliveryClient(client *Client) *DeliveryClient {
	return &DeliveryClient{client: client}
}

func (c *DeliveryClient) GetDeliveryForOrder(ctx context.Context, orderID string) (*model.Delivery, error) {
	return c.one(ctx, request{
		op:       "get delivery",
		method:   http.MethodGet,
		path:     "/deliveries/order/" + url.PathEscape(orderID),
		notFound: model.ErrDeliveryNotFound,
	})
}

func (c *DeliveryClient) GetDriverLocation(ctx context.Context, driverID string) (model.GeoCoordinate, error) {
	var dto LocationDTO
	err := c.client.do(ctx, request{
		op:     "get driver location",
		method: http.MethodGet,
		path:   "/drivers/" + url.PathEscape(driverID) + "/location",
	}, &dto)
	if err != nil {
		return model.GeoCoordinate{}, err
	}
	return dto.Location.Model(), nil
}

func (c *DeliveryClient) Assign(ctx context.Context, req model.AssignmentRequest) (*model.Delivery, error) {
	return c.one(ctx, request{
		op:     "assign driver",
		method: http.MethodPost,
		path:   "/deliveries/assign",
		body: AssignDTO{
			OrderID:          req.OrderID,
			RestaurantID:     req.RestaurantID,
			CustomerLocation: [2]float64{req.CustomerLocation.Longitude, req.CustomerLocation.Latitude},
		},
	})
}

func (c *DeliveryClient) ListForDriver(ctx context.Context, driverID string) ([]model.Delivery, error) {
	var dtos []DeliveryDTO
	err := c.client.do(ctx, request{
		op:     "list driver deliveries",
		method: http.MethodGet,
		path:   "/deliveries/drivers/" + url.PathEscape(driverID),
	}, &dtos)
	if err != nil {
		return nil, err
	}
	deliveries := make([]model.Delivery, 0, len(dtos))
	for _, dto := range dtos {
		deliveries = append(deliveries, dto.Model())
	}
	return deliveries, nil
}

func (c *DeliveryClient) UpdateStatus(ctx context.Context, deliveryID string, status model.DeliveryStatus) (*model.Delivery, error) {
	return c.one(ctx, request{
		op:       "update delivery status",
		method:   http.MethodPut,
		path:     "/deliveries/" + url.PathEscape(deliveryID) + "/status",
		body:     DeliveryStatusDTO{Status: status},
		notFound: model.ErrDeliveryNotFound,
	})
}

func (c *DeliveryClient) one(ctx context.Context, req request) (*model.Delivery, error) {
	var dto DeliveryDTO
	if err := c.client.do(ctx, req, &dto); err != nil {
		return nil, err
	}
	delivery := dto.Model()
	return &delivery, nil
}
