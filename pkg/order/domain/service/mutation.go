package service

import (
	"context"

	"foodorder/pkg/order/domain/model"
)

// mutation describes one optimistic change to an order.
type mutation struct {
	action model.Action
	// apply edits the working copy. An error here means nothing was sent.
	apply func(o *model.Order) error
	// commit sends the working copy to the order service.
	commit func(ctx context.Context, o model.Order) (*model.Order, error)
}

// optimisticOp is a mutation in flight: the snapshot to roll back to, and the
// locally applied working copy that is shown until the server answers.
type optimisticOp struct {
	mutation
	snapshot model.Order
	working  model.Order
}

func (m mutation) begin(current model.Order) (*optimisticOp, error) {
	op := &optimisticOp{
		mutation: m,
		snapshot: current.Clone(),
		working:  current.Clone(),
	}
	if err := m.apply(&op.working); err != nil {
		return nil, err
	}
	return op, nil
}

func (op *optimisticOp) send(ctx context.Context) (*model.Order, error) {
	return op.commit(ctx, op.working.Clone())
}
