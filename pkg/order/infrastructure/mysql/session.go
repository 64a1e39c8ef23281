package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"foodorder/pkg/order/domain/model"
)

var _ model.SessionStore = &SessionStore{}

type sessionRow struct {
	SessionID      string    `db:"session_id"`
	RestaurantID   string    `db:"restaurant_id"`
	RestaurantName string    `db:"restaurant_name"`
	Street         string    `db:"street"`
	City           string    `db:"city"`
	ContactNumber  string    `db:"contact_number"`
	UseLocation    bool      `db:"use_location"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type lineRow struct {
	SessionID string          `db:"session_id"`
	Position  int             `db:"position"`
	ItemID    string          `db:"item_id"`
	Name      string          `db:"name"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Quantity  int             `db:"quantity"`
}

type orderRow struct {
	SessionID string `db:"session_id"`
	Position  int    `db:"position"`
	OrderID   string `db:"order_id"`
}

// SessionStore keeps customer sessions in MySQL. Save replaces the whole
// session in one transaction.
type SessionStore struct {
	db *sqlx.DB
}

func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Load(ctx context.Context, sessionID string) (*model.SessionState, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM customer_session WHERE session_id = ?`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.SessionState{ID: sessionID}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load session %s", sessionID)
	}

	var lines []lineRow
	err = s.db.SelectContext(ctx, &lines, `SELECT * FROM customer_session_line WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, errors.Wrapf(err, "load cart of session %s", sessionID)
	}
	var orders []orderRow
	err = s.db.SelectContext(ctx, &orders, `SELECT * FROM customer_session_order WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, errors.Wrapf(err, "load tracked orders of session %s", sessionID)
	}

	state := &model.SessionState{
		ID:          row.SessionID,
		Restaurant:  model.RestaurantRef{RestaurantID: row.RestaurantID, DisplayName: row.RestaurantName},
		Address:     model.Address{Street: row.Street, City: row.City, ContactNumber: row.ContactNumber},
		UseLocation: row.UseLocation,
		UpdatedAt:   row.UpdatedAt,
	}
	for _, l := range lines {
		state.Lines = append(state.Lines, model.MenuItemRef{ItemID: l.ItemID, Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	for _, o := range orders {
		state.TrackedOrderIDs = append(state.TrackedOrderIDs, o.OrderID)
	}
	return state, nil
}

func (s *SessionStore) Save(ctx context.Context, state model.SessionState) (err error) {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin session transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := sessionRow{
		SessionID:      state.ID,
		RestaurantID:   state.Restaurant.RestaurantID,
		RestaurantName: state.Restaurant.DisplayName,
		Street:         state.Address.Street,
		City:           state.Address.City,
		ContactNumber:  state.Address.ContactNumber,
		UseLocation:    state.UseLocation,
		UpdatedAt:      state.UpdatedAt,
	}
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO customer_session (session_id, restaurant_id, restaurant_name, street, city, contact_number, use_location, updated_at)
		VALUES (:session_id, :restaurant_id, :restaurant_name, :street, :city, :contact_number, :use_location, :updated_at)
		ON DUPLICATE KEY UPDATE
			restaurant_id = VALUES(restaurant_id),
			restaurant_name = VALUES(restaurant_name),
			street = VALUES(street),
			city = VALUES(city),
			contact_number = VALUES(contact_number),
			use_location = VALUES(use_location),
			updated_at = VALUES(updated_at)`, row)
	if err != nil {
		return errors.Wrapf(err, "save session %s", state.ID)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM customer_session_line WHERE session_id = ?`, state.ID); err != nil {
		return errors.Wrapf(err, "clear cart of session %s", state.ID)
	}
	if len(state.Lines) > 0 {
		lines := make([]lineRow, 0, len(state.Lines))
		for i, l := range state.Lines {
			lines = append(lines, lineRow{SessionID: state.ID, Position: i, ItemID: l.ItemID, Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity})
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO customer_session_line (session_id, position, item_id, name, unit_price, quantity)
			VALUES (:session_id, :position, :item_id, :name, :unit_price, :quantity)`, lines)
		if err != nil {
			return errors.Wrapf(err, "save cart of session %s", state.ID)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM customer_session_order WHERE session_id = ?`, state.ID); err != nil {
		return errors.Wrapf(err, "clear tracked orders of session %s", state.ID)
	}
	if len(state.TrackedOrderIDs) > 0 {
		orders := make([]orderRow, 0, len(state.TrackedOrderIDs))
		for i, id := range state.TrackedOrderIDs {
			orders = append(orders, orderRow{SessionID: state.ID, Position: i, OrderID: id})
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO customer_session_order (session_id, position, order_id)
			VALUES (:session_id, :position, :order_id)`, orders)
		if err != nil {
			return errors.Wrapf(err, "save tracked orders of session %s", state.ID)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit session")
	}
	return nil
}
