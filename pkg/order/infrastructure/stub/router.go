package stub

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"foodorder/pkg/order/domain/model"
	"foodorder/pkg/order/infrastructure/transport"
)

type handler struct {
	store  *Store
	logger log.FieldLogger
}

// Router serves the order, delivery and restaurant APIs from one store.
// Mount it under the same prefix the clients use as base URL.
func Router(store *Store, logger log.FieldLogger) http.Handler {
	h := &handler{store: store, logger: logger}

	r := mux.NewRouter()
	s := r.PathPrefix("/api").Subrouter()

	s.HandleFunc("/orders", h.createOrder).Methods(http.MethodPost)
	s.HandleFunc("/orders/user", h.listOrders).Methods(http.MethodGet)
	s.HandleFunc("/orders/ready-for-delivery", h.listReadyOrders).Methods(http.MethodGet)
	s.HandleFunc("/confirmed-orders", h.listConfirmedOrders).Methods(http.MethodGet)
	s.HandleFunc("/orders/{ID}", h.getOrder).Methods(http.MethodGet)
	s.HandleFunc("/orders/{ID}", h.updateOrder).Methods(http.MethodPut)
	s.HandleFunc("/orders/{ID}", h.deleteOrder).Methods(http.MethodDelete)
	s.HandleFunc("/orders/{ID}/confirm", h.confirmOrder).Methods(http.MethodPatch)
	s.HandleFunc("/orders/{ID}/status", h.setStatus).Methods(http.MethodPatch)
	s.HandleFunc("/orders/{ID}/placed", h.setPlacedStatus).Methods(http.MethodPatch)

	s.HandleFunc("/deliveries/assign", h.assign).Methods(http.MethodPost)
	s.HandleFunc("/deliveries/order/{ID}", h.deliveryForOrder).Methods(http.MethodGet)
	s.HandleFunc("/deliveries/drivers/{ID}", h.driverDeliveries).Methods(http.MethodGet)
	s.HandleFunc("/deliveries/{ID}/status", h.updateDeliveryStatus).Methods(http.MethodPut)
	s.HandleFunc("/drivers/{ID}/location", h.driverLocation).Methods(http.MethodGet)
	s.HandleFunc("/drivers/{ID}/location", h.moveDriver).Methods(http.MethodPut)

	s.HandleFunc("/restaurants/{ID}", h.restaurant).Methods(http.MethodGet)
	s.HandleFunc("/menus/public/restaurant/{ID}", h.menu).Methods(http.MethodGet)

	return logMiddleware(logger, r)
}

func (h *handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var dto transport.OrderDTO
	if !h.decode(w, r, &dto) {
		return
	}
	order, err := h.store.CreateOrder(dto.Draft())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.WithFields(log.Fields{"order_id": order.ID, "restaurant_id": order.RestaurantID}).Info("order created")
	h.writeData(w, http.StatusCreated, transport.OrderToDTO(order))
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.store.Order(mux.Vars(r)["ID"])
	h.writeOrder(w, order, err)
}

func (h *handler) listOrders(w http.ResponseWriter, _ *http.Request) {
	h.writeOrders(w, h.store.Orders())
}

func (h *handler) listReadyOrders(w http.ResponseWriter, _ *http.Request) {
	h.writeOrders(w, h.store.ReadyOrders())
}

func (h *handler) listConfirmedOrders(w http.ResponseWriter, r *http.Request) {
	h.writeOrders(w, h.store.ConfirmedOrders(r.URL.Query().Get("restaurantId")))
}

func (h *handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	var dto transport.UpdateDTO
	if !h.decode(w, r, &dto) {
		return
	}
	update := model.OrderUpdate{}
	if dto.Items != nil {
		update.Items = transport.ItemsFromDTO(dto.Items)
	}
	if dto.CustomerInfo != nil {
		info := dto.CustomerInfo.Model()
		update.CustomerInfo = &info
	}
	order, err := h.store.UpdateOrder(mux.Vars(r)["ID"], update)
	h.writeOrder(w, order, err)
}

func (h *handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteOrder(mux.Vars(r)["ID"]); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, transport.Envelope{Success: true, Message: "order deleted"})
}

func (h *handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.store.ConfirmOrder(mux.Vars(r)["ID"])
	h.writeOrder(w, order, err)
}

func (h *handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var dto transport.StatusDTO
	if !h.decode(w, r, &dto) {
		return
	}
	order, err := h.store.SetStatus(mux.Vars(r)["ID"], dto.Status, dto.CancellationReason)
	h.writeOrder(w, order, err)
}

func (h *handler) setPlacedStatus(w http.ResponseWriter, r *http.Request) {
	var dto transport.StatusDTO
	if !h.decode(w, r, &dto) {
		return
	}
	order, err := h.store.SetPlacedStatus(mux.Vars(r)["ID"], dto.Status)
	h.writeOrder(w, order, err)
}

func (h *handler) assign(w http.ResponseWriter, r *http.Request) {
	var dto transport.AssignDTO
	if !h.decode(w, r, &dto) {
		return
	}
	delivery, err := h.store.Assign(model.AssignmentRequest{
		OrderID:          dto.OrderID,
		RestaurantID:     dto.RestaurantID,
		CustomerLocation: model.GeoCoordinate{Longitude: dto.CustomerLocation[0], Latitude: dto.CustomerLocation[1]},
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.WithFields(log.Fields{"order_id": delivery.OrderID, "driver_id": delivery.DriverID}).Info("driver assigned")
	h.writeData(w, http.StatusCreated, transport.DeliveryToDTO(delivery))
}

func (h *handler) deliveryForOrder(w http.ResponseWriter, r *http.Request) {
	delivery, err := h.store.DeliveryForOrder(mux.Vars(r)["ID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, transport.DeliveryToDTO(delivery))
}

func (h *handler) driverDeliveries(w http.ResponseWriter, r *http.Request) {
	deliveries := h.store.DriverDeliveries(mux.Vars(r)["ID"])
	dtos := make([]transport.DeliveryDTO, 0, len(deliveries))
	for _, d := range deliveries {
		dtos = append(dtos, transport.DeliveryToDTO(d))
	}
	h.writeData(w, http.StatusOK, dtos)
}

func (h *handler) updateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	var dto transport.DeliveryStatusDTO
	if !h.decode(w, r, &dto) {
		return
	}
	delivery, err := h.store.UpdateDeliveryStatus(mux.Vars(r)["ID"], dto.Status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, transport.DeliveryToDTO(delivery))
}

func (h *handler) driverLocation(w http.ResponseWriter, r *http.Request) {
	driverID := mux.Vars(r)["ID"]
	location, err := h.store.DriverLocation(driverID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, transport.LocationDTO{DriverID: driverID, Location: transport.PointToDTO(location)})
}

func (h *handler) moveDriver(w http.ResponseWriter, r *http.Request) {
	var dto transport.PointDTO
	if !h.decode(w, r, &dto) {
		return
	}
	driverID := mux.Vars(r)["ID"]
	h.store.MoveDriver(driverID, dto.Model())
	h.writeData(w, http.StatusOK, transport.LocationDTO{DriverID: driverID, Location: dto})
}

func (h *handler) restaurant(w http.ResponseWriter, r *http.Request) {
	ref, err := h.store.Restaurant(mux.Vars(r)["ID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, transport.RestaurantDTO{ID: ref.RestaurantID, Name: ref.DisplayName})
}

func (h *handler) menu(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Menu(mux.Vars(r)["ID"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	dtos := make([]transport.MenuItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, transport.MenuItemDTO{ID: item.ItemID, Name: item.Name, Price: item.UnitPrice.InexactFloat64()})
	}
	h.writeData(w, http.StatusOK, dtos)
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		h.writeJSON(w, http.StatusBadRequest, transport.Envelope{Message: "malformed request body: " + err.Error()})
		return false
	}
	return true
}

func (h *handler) writeOrder(w http.ResponseWriter, order model.Order, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeData(w, http.StatusOK, transport.OrderToDTO(order))
}

func (h *handler) writeOrders(w http.ResponseWriter, orders []model.Order) {
	dtos := make([]transport.OrderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, transport.OrderToDTO(o))
	}
	h.writeData(w, http.StatusOK, dtos)
}

func (h *handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, status, transport.Envelope{Success: true, Data: raw})
}

func (h *handler) writeError(w http.ResponseWriter, err error) {
	var validation *model.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrOrderNotFound),
		errors.Is(err, model.ErrDeliveryNotFound),
		errors.Is(err, model.ErrRestaurantNotFound),
		errors.Is(err, ErrDriverNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrStateConflict), errors.Is(err, ErrAlreadyAssigned):
		status = http.StatusConflict
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.Is(err, ErrNoDriverAvailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed")
	}
	h.writeJSON(w, status, transport.Envelope{Message: messageOf(err)})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, envelope transport.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		h.logger.WithField("err", err).Error("write response")
	}
}

func messageOf(err error) string {
	var conflict *model.StateConflictError
	if errors.As(err, &conflict) && conflict.Message != "" {
		return conflict.Message
	}
	return err.Error()
}

func logMiddleware(logger log.FieldLogger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.WithFields(log.Fields{
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"requestID":  r.Header.Get(transport.RequestIDHeader),
		}).Info("got a new request")
		h.ServeHTTP(w, r)
	})
}
