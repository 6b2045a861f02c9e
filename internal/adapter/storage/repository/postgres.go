package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/adapter/storage"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/domain"
	"github.com/ArshVermaGit/zomato-customer-app-sub000/internal/core/port"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var orderColumns = []string{
	"id", "number", "customer_id", "status", "restaurant", "courier", "delivery_address",
	"items", "timestamps", "estimated_delivery_time", "distance_label", "delivered_at",
	"is_cancellable", "item_total", "delivery_fee", "platform_fee", "tax", "discount",
	"grand_total", "created_at",
}

type Repository struct {
	db *storage.DB
}

var _ port.OrderRepository = (*Repository)(nil)

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db}, nil
}

// orderRow is an order as stored: nested values are JSONB documents.
type orderRow struct {
	restaurant  []byte
	courier     []byte
	address     []byte
	items       []byte
	timestamps  []byte
	deliveredAt *time.Time
}

func encodeRow(order *domain.Order) (*orderRow, error) {
	var row orderRow
	var err error
	if row.restaurant, err = json.Marshal(order.Restaurant); err != nil {
		return nil, err
	}
	if order.Courier != nil {
		if row.courier, err = json.Marshal(order.Courier); err != nil {
			return nil, err
		}
	}
	if row.address, err = json.Marshal(order.DeliveryAddress); err != nil {
		return nil, err
	}
	if row.items, err = json.Marshal(order.Items); err != nil {
		return nil, err
	}
	if row.timestamps, err = json.Marshal(order.Timestamps); err != nil {
		return nil, err
	}
	if !order.DeliveredAt.IsZero() {
		at := order.DeliveredAt
		row.deliveredAt = &at
	}
	return &row, nil
}

func (r *orderRow) decode(order *domain.Order) error {
	if err := json.Unmarshal(r.restaurant, &order.Restaurant); err != nil {
		return err
	}
	if len(r.courier) > 0 {
		order.Courier = &domain.Courier{}
		if err := json.Unmarshal(r.courier, order.Courier); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(r.address, &order.DeliveryAddress); err != nil {
		return err
	}
	if err := json.Unmarshal(r.items, &order.Items); err != nil {
		return err
	}
	if err := json.Unmarshal(r.timestamps, &order.Timestamps); err != nil {
		return err
	}
	if r.deliveredAt != nil {
		order.DeliveredAt = r.deliveredAt.UTC()
	}
	return nil
}

func (or *Repository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	row, err := encodeRow(order)
	if err != nil {
		return nil, fmt.Errorf("error encoding order: %w", err)
	}

	statement := or.db.QueryBuilder.Insert("orders").
		Columns(orderColumns...).
		Values(order.ID, order.Number, order.CustomerID, string(order.Status), row.restaurant, row.courier,
			row.address, row.items, row.timestamps, order.EstimatedDeliveryTime, order.DistanceLabel,
			row.deliveredAt, order.IsCancellable, order.Billing.ItemTotal, order.Billing.DeliveryFee,
			order.Billing.PlatformFee, order.Billing.Tax, order.Billing.Discount, order.Billing.GrandTotal,
			order.CreatedAt)

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	_, err = or.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}
	return order, nil
}

func (or *Repository) ReadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return or.readOrder(ctx, or.db.Pool, orderID, false)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (or *Repository) readOrder(ctx context.Context, q querier, orderID string, forUpdate bool) (*domain.Order, error) {
	statement := or.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID})
	if forUpdate {
		statement = statement.Suffix("FOR UPDATE")
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order, err := scanOrder(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	var stored orderRow
	err := row.Scan(
		&order.ID,
		&order.Number,
		&order.CustomerID,
		&order.Status,
		&stored.restaurant,
		&stored.courier,
		&stored.address,
		&stored.items,
		&stored.timestamps,
		&order.EstimatedDeliveryTime,
		&order.DistanceLabel,
		&stored.deliveredAt,
		&order.IsCancellable,
		&order.Billing.ItemTotal,
		&order.Billing.DeliveryFee,
		&order.Billing.PlatformFee,
		&order.Billing.Tax,
		&order.Billing.Discount,
		&order.Billing.GrandTotal,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := stored.decode(&order); err != nil {
		return nil, fmt.Errorf("error decoding order %s: %w", order.ID, err)
	}
	order.EstimatedDeliveryTime = order.EstimatedDeliveryTime.UTC()
	order.CreatedAt = order.CreatedAt.UTC()
	return &order, nil
}

// UpdateOrder locks the row, applies updateFn and stores the result in one transaction.
func (or *Repository) UpdateOrder(ctx context.Context, orderID string, updateFn port.UpdateOrderFn) (*domain.Order, error) {
	var updated *domain.Order
	err := or.db.InTx(ctx, func(tx pgx.Tx) error {
		current, err := or.readOrder(ctx, tx, orderID, true)
		if err != nil {
			return err
		}

		next, err := updateFn(*current)
		if err != nil {
			return err
		}

		row, err := encodeRow(&next)
		if err != nil {
			return fmt.Errorf("error encoding order: %w", err)
		}

		statement := or.db.QueryBuilder.Update("orders").
			Set("status", string(next.Status)).
			Set("courier", row.courier).
			Set("timestamps", row.timestamps).
			Set("estimated_delivery_time", next.EstimatedDeliveryTime).
			Set("distance_label", next.DistanceLabel).
			Set("delivered_at", row.deliveredAt).
			Set("is_cancellable", next.IsCancellable).
			Where(sq.Eq{"id": orderID})

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (or *Repository) ListOrdersByStatus(ctx context.Context, statuses []domain.OrderStatus) ([]domain.Order, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}

	statement := or.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"status": values}).
		OrderBy("created_at")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := or.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
