package service

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"foodorder/pkg/common/domain"
	"foodorder/pkg/order/domain/model"
)

// LifecycleController owns the local view of one order and every change
// made to it. The order service stays authoritative: each successful change
// is followed by a refetch, each failed one by a rollback.
//
// At most one change per order is in flight; a second one is refused with
// model.ErrMutationInFlight rather than queued.
type LifecycleController interface {
	Load(ctx context.Context, orderID string) (model.Order, error)
	Adopt(order model.Order)
	Refresh(ctx context.Context) (model.Order, error)
	Order() (model.Order, bool)
	Busy() bool

	ChangeQuantity(ctx context.Context, itemID string, delta int) (model.Order, error)
	UpdateAddress(ctx context.Context, address model.Address) (model.Order, error)
	Confirm(ctx context.Context) (model.Order, error)
	Advance(ctx context.Context, action model.Action) (model.Order, error)
	Accept(ctx context.Context) (model.Order, error)
	StartPreparing(ctx context.Context) (model.Order, error)
	MarkReady(ctx context.Context) (model.Order, error)
	Cancel(ctx context.Context, reason string) (model.Order, error)
	Discard(ctx context.Context) error
}

func NewLifecycleController(api model.OrderAPI, dispatcher domain.EventDispatcher, logger log.FieldLogger) LifecycleController {
	return &lifecycleController{api: api, dispatcher: dispatcher, logger: logger}
}

type lifecycleController struct {
	api        model.OrderAPI
	dispatcher domain.EventDispatcher
	logger     log.FieldLogger

	mu       sync.Mutex
	order    *model.Order
	inFlight bool
}

// Load fetches the order and makes it the controlled one. It is refused
// while a change is waiting for the service, since that change settles the
// local view itself.
func (c *lifecycleController) Load(ctx context.Context, orderID string) (model.Order, error) {
	if current, busy := c.busyOrder(); busy {
		return current, model.ErrMutationInFlight
	}
	order, err := c.api.Get(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return c.order.Clone(), model.ErrMutationInFlight
	}
	c.order = cloneRef(order)
	return order.Clone(), nil
}

// Adopt takes over an order that was just returned by the service, e.g.
// right after submission.
func (c *lifecycleController) Adopt(order model.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = cloneRef(&order)
}

func (c *lifecycleController) Refresh(ctx context.Context) (model.Order, error) {
	c.mu.Lock()
	if c.order == nil {
		c.mu.Unlock()
		return model.Order{}, model.ErrNoOrderLoaded
	}
	id := c.order.ID
	c.mu.Unlock()
	return c.Load(ctx, id)
}

func (c *lifecycleController) busyOrder() (model.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inFlight {
		return model.Order{}, false
	}
	return c.order.Clone(), true
}

func (c *lifecycleController) Order() (model.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.order == nil {
		return model.Order{}, false
	}
	return c.order.Clone(), true
}

// Busy reports whether a change is awaiting the service; callers disable
// the matching controls while it is true.
func (c *lifecycleController) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// ChangeQuantity adds delta to an item's quantity. Lines that drop to zero
// are removed; removing the last line is refused locally.
func (c *lifecycleController) ChangeQuantity(ctx context.Context, itemID string, delta int) (model.Order, error) {
	return c.execute(ctx, mutation{
		action: model.ActionModify,
		apply: func(o *model.Order) error {
			items := make([]model.MenuItemRef, 0, len(o.Items))
			found := false
			for _, item := range o.Items {
				if item.ItemID == itemID {
					found = true
					item.Quantity += delta
					if item.Quantity <= 0 {
						continue
					}
				}
				items = append(items, item)
			}
			if !found {
				return errors.Wrap(model.ErrOrderItemNotFound, itemID)
			}
			if len(items) == 0 {
				return model.NewValidationError(model.ErrEmptyItems)
			}
			o.Items = items
			o.RecalculateTotal()
			return nil
		},
		commit: func(ctx context.Context, o model.Order) (*model.Order, error) {
			total := o.TotalAmount
			return c.api.Update(ctx, o.ID, model.OrderUpdate{Items: o.Items, TotalAmount: &total})
		},
	})
}

// UpdateAddress replaces the delivery address and nothing else.
func (c *lifecycleController) UpdateAddress(ctx context.Context, address model.Address) (model.Order, error) {
	return c.execute(ctx, mutation{
		action: model.ActionUpdateAddress,
		apply: func(o *model.Order) error {
			if !address.Complete() {
				return model.NewValidationError(model.ErrIncompleteAddress)
			}
			o.CustomerInfo = address
			return nil
		},
		commit: func(ctx context.Context, o model.Order) (*model.Order, error) {
			info := o.CustomerInfo
			return c.api.Update(ctx, o.ID, model.OrderUpdate{CustomerInfo: &info})
		},
	})
}

func (c *lifecycleController) Confirm(ctx context.Context) (model.Order, error) {
	return c.execute(ctx, mutation{
		action: model.ActionConfirm,
		apply: func(o *model.Order) error {
			var problems []error
			if len(o.Items) == 0 {
				problems = append(problems, model.ErrEmptyItems)
			}
			if !o.CustomerInfo.Complete() {
				problems = append(problems, model.ErrIncompleteAddress)
			}
			if len(problems) > 0 {
				return model.NewValidationError(problems...)
			}
			o.Status = model.Confirmed
			return nil
		},
		commit: func(ctx context.Context, o model.Order) (*model.Order, error) {
			return c.api.Confirm(ctx, o.ID)
		},
	})
}

// Advance moves a confirmed order along the restaurant side: accept,
// start_prep and ready. Role checks belong to the order service.
func (c *lifecycleController) Advance(ctx context.Context, action model.Action) (model.Order, error) {
	switch action {
	case model.ActionAccept, model.ActionStartPreparing, model.ActionMarkReady:
	default:
		return model.Order{}, errors.Errorf("%s is not a status advance", action)
	}
	target, _ := action.Target()

	return c.execute(ctx, mutation{
		action: action,
		apply: func(o *model.Order) error {
			o.Status = target
			return nil
		},
		commit: func(ctx context.Context, o model.Order) (*model.Order, error) {
			return c.api.SetStatus(ctx, o.ID, target, "")
		},
	})
}

func (c *lifecycleController) Accept(ctx context.Context) (model.Order, error) {
	return c.Advance(ctx, model.ActionAccept)
}

func (c *lifecycleController) StartPreparing(ctx context.Context) (model.Order, error) {
	return c.Advance(ctx, model.ActionStartPreparing)
}

func (c *lifecycleController) MarkReady(ctx context.Context) (model.Order, error) {
	return c.Advance(ctx, model.ActionMarkReady)
}

// Cancel requires a non-blank reason; it becomes the only explanation shown
// for the cancelled order.
func (c *lifecycleController) Cancel(ctx context.Context, reason string) (model.Order, error) {
	reason = strings.TrimSpace(reason)
	return c.execute(ctx, mutation{
		action: model.ActionCancel,
		apply: func(o *model.Order) error {
			if reason == "" {
				return model.NewValidationError(model.ErrMissingCancellationReason)
			}
			o.Status = model.Cancelled
			o.CancellationReason = reason
			return nil
		},
		commit: func(ctx context.Context, o model.Order) (*model.Order, error) {
			return c.api.SetStatus(ctx, o.ID, model.Cancelled, reason)
		},
	})
}

// Discard deletes a draft order. The controller is empty afterwards.
func (c *lifecycleController) Discard(ctx context.Context) error {
	c.mu.Lock()
	current, err := c.acquireLocked(model.ActionDiscard)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	err = c.api.Delete(ctx, current.ID)

	c.mu.Lock()
	c.inFlight = false
	if err == nil {
		c.order = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.WithError(err).WithField("order_id", current.ID).Error("failed to discard order")
		return err
	}
	dispatch(c.dispatcher, c.logger, model.OrderDiscarded{OrderID: current.ID})
	return nil
}

func (c *lifecycleController) execute(ctx context.Context, m mutation) (model.Order, error) {
	c.mu.Lock()
	current, err := c.acquireLocked(m.action)
	if err != nil {
		c.mu.Unlock()
		return model.Order{}, err
	}
	op, err := m.begin(current)
	if err != nil {
		c.inFlight = false
		c.mu.Unlock()
		return current, err
	}
	c.order = cloneRef(&op.working)
	c.mu.Unlock()

	logger := c.logger.WithFields(log.Fields{"order_id": current.ID, "action": m.action.String()})

	server, err := op.send(ctx)
	if err != nil {
		return c.rollback(ctx, op, err, logger)
	}
	return c.reconcile(ctx, op, server, logger), nil
}

// acquireLocked checks the order can take the action and marks it busy.
func (c *lifecycleController) acquireLocked(action model.Action) (model.Order, error) {
	if c.order == nil {
		return model.Order{}, model.ErrNoOrderLoaded
	}
	if c.inFlight {
		return c.order.Clone(), model.ErrMutationInFlight
	}
	if !c.order.Status.Permits(action) {
		return c.order.Clone(), &model.StateConflictError{
			OrderID: c.order.ID,
			Status:  c.order.Status,
			Action:  action,
		}
	}
	c.inFlight = true
	return c.order.Clone(), nil
}

func (c *lifecycleController) reconcile(ctx context.Context, op *optimisticOp, server *model.Order, logger log.FieldLogger) model.Order {
	fresh, err := c.api.Get(ctx, op.working.ID)
	if err != nil {
		logger.WithError(err).Warn("refetch after change failed, keeping service response")
		fresh = server
	}
	if fresh == nil {
		fresh = &op.working
	}

	c.mu.Lock()
	c.order = cloneRef(fresh)
	c.inFlight = false
	result := c.order.Clone()
	c.mu.Unlock()

	logger.WithField("status", result.Status.String()).Info("order change committed")
	dispatch(c.dispatcher, c.logger, changeEvents(op, result)...)
	return result
}

// rollback restores the snapshot. When the service says the order moved on
// without us, the authoritative record replaces the snapshot instead.
func (c *lifecycleController) rollback(ctx context.Context, op *optimisticOp, cause error, logger log.FieldLogger) (model.Order, error) {
	restored := op.snapshot

	var conflict *model.StateConflictError
	if errors.As(cause, &conflict) {
		if fresh, err := c.api.Get(ctx, op.snapshot.ID); err == nil {
			restored = *fresh
		} else {
			logger.WithError(err).Warn("refetch after rejected change failed")
		}
		conflict.OrderID = restored.ID
		conflict.Status = restored.Status
		conflict.Action = op.action
	}

	c.mu.Lock()
	c.order = cloneRef(&restored)
	c.inFlight = false
	result := c.order.Clone()
	c.mu.Unlock()

	logger.WithError(cause).Warn("order change rolled back")
	dispatch(c.dispatcher, c.logger, model.OptimisticUpdateRolledBack{
		OrderID: restored.ID,
		Action:  op.action,
		Reason:  cause.Error(),
	})
	return result, cause
}

func changeEvents(op *optimisticOp, result model.Order) []domain.Event {
	var events []domain.Event
	switch op.action {
	case model.ActionModify:
		events = append(events, model.OrderItemsChanged{
			OrderID:     result.ID,
			ItemCount:   len(result.Items),
			TotalAmount: result.TotalAmount,
		})
	case model.ActionUpdateAddress:
		events = append(events, model.OrderAddressChanged{OrderID: result.ID})
	}
	if result.Status != op.snapshot.Status {
		events = append(events, model.OrderStatusChanged{
			OrderID: result.ID,
			From:    op.snapshot.Status,
			To:      result.Status,
		})
	}
	if result.Status == model.Cancelled && op.snapshot.Status != model.Cancelled {
		events = append(events, model.OrderCancelled{
			OrderID: result.ID,
			Reason:  result.CancellationReason,
		})
	}
	return events
}

func cloneRef(o *model.Order) *model.Order {
	clone := o.Clone()
	return &clone
}
