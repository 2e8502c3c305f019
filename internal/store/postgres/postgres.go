// Package postgres implements the persistence contract on PostgreSQL.
//
// Orders are written as whole-row upserts by id: the last writer wins for
// the entire record, history included. That mirrors the storage model the
// application has always had; there is deliberately no per-field merge or
// optimistic versioning here.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/zahrat-boutique/api/internal/enum"
	"github.com/zahrat-boutique/api/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// adminLogCap bounds the activity trail; the oldest entries beyond it are
// pruned on every append.
const adminLogCap = 500

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema migrations.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	// The migrate pgx/v5 driver registers under the pgx5 scheme.
	url := databaseURL
	if strings.HasPrefix(url, "postgres://") {
		url = "pgx5://" + strings.TrimPrefix(url, "postgres://")
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// --- Orders ---

const orderColumns = `id, customer_name, customer_phone, customer_address, customer_pin,
	items, additional_fees, vat_rate, include_vat, vat_in_price,
	vat_amount, total_amount, payment_status, order_status, created_at, history`

func (s *Store) GetOrders(ctx context.Context) ([]model.Order, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetOrderByID returns nil without error when no order matches.
func (s *Store) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// SaveOrder inserts or replaces the whole order record by id.
func (s *Store) SaveOrder(ctx context.Context, o model.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	fees, err := json.Marshal(o.AdditionalFees)
	if err != nil {
		return fmt.Errorf("marshal fees: %w", err)
	}
	history, err := json.Marshal(o.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			customer_name    = EXCLUDED.customer_name,
			customer_phone   = EXCLUDED.customer_phone,
			customer_address = EXCLUDED.customer_address,
			customer_pin     = EXCLUDED.customer_pin,
			items            = EXCLUDED.items,
			additional_fees  = EXCLUDED.additional_fees,
			vat_rate         = EXCLUDED.vat_rate,
			include_vat      = EXCLUDED.include_vat,
			vat_in_price     = EXCLUDED.vat_in_price,
			vat_amount       = EXCLUDED.vat_amount,
			total_amount     = EXCLUDED.total_amount,
			payment_status   = EXCLUDED.payment_status,
			order_status     = EXCLUDED.order_status,
			created_at       = EXCLUDED.created_at,
			history          = EXCLUDED.history`,
		o.ID, o.CustomerName, o.CustomerPhone, o.CustomerAddress, o.CustomerPin,
		items, fees, decimalToNumeric(o.VatRate), o.IncludeVat, o.VatInPrice,
		decimalToNumeric(o.VatAmount), decimalToNumeric(o.TotalAmount),
		o.PaymentStatus, o.OrderStatus, o.CreatedAt, history)
	if err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		o                               model.Order
		items, fees, history            []byte
		vatRate, vatAmount, totalAmount pgtype.Numeric
	)
	err := row.Scan(&o.ID, &o.CustomerName, &o.CustomerPhone, &o.CustomerAddress, &o.CustomerPin,
		&items, &fees, &vatRate, &o.IncludeVat, &o.VatInPrice,
		&vatAmount, &totalAmount, &o.PaymentStatus, &o.OrderStatus, &o.CreatedAt, &history)
	if err != nil {
		return model.Order{}, err
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return model.Order{}, fmt.Errorf("unmarshal items: %w", err)
	}
	if err := json.Unmarshal(fees, &o.AdditionalFees); err != nil {
		return model.Order{}, fmt.Errorf("unmarshal fees: %w", err)
	}
	if err := json.Unmarshal(history, &o.History); err != nil {
		return model.Order{}, fmt.Errorf("unmarshal history: %w", err)
	}

	o.VatRate = numericToDecimal(vatRate)
	o.VatAmount = numericToDecimal(vatAmount)
	o.TotalAmount = numericToDecimal(totalAmount)
	return o, nil
}

// --- Users ---

func (s *Store) GetUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, username, pin, role, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Username, &u.Pin, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUserByID returns nil without error when no user matches.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx, `SELECT id, name, username, pin, role, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Username, &u.Pin, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// SaveUser inserts or updates a user by id. Returns false when the username
// is already taken by another user.
func (s *Store) SaveUser(ctx context.Context, u model.User) (bool, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, username, pin, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name     = EXCLUDED.name,
			username = EXCLUDED.username,
			pin      = EXCLUDED.pin,
			role     = EXCLUDED.role`,
		u.ID, u.Name, u.Username, u.Pin, u.Role, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("save user: %w", err)
	}
	return true, nil
}

// DeleteUser removes a user. Returns false without deleting when the target
// is the sole remaining admin: at least one admin must always exist.
func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var role string
	err = tx.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get user role: %w", err)
	}

	if role == enum.RoleAdmin {
		var admins int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, enum.RoleAdmin).Scan(&admins); err != nil {
			return false, fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			return false, nil
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

// --- Admin logs ---

func (s *Store) GetAdminLogs(ctx context.Context) ([]model.AdminLogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, ts, admin_name, action, details, COALESCE(order_id, '')
		FROM admin_logs ORDER BY ts DESC LIMIT $1`, adminLogCap)
	if err != nil {
		return nil, fmt.Errorf("query admin logs: %w", err)
	}
	defer rows.Close()

	var logs []model.AdminLogEntry
	for rows.Next() {
		var e model.AdminLogEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.AdminName, &e.Action, &e.Details, &e.OrderID); err != nil {
			return nil, err
		}
		logs = append(logs, e)
	}
	return logs, rows.Err()
}

// SaveAdminLog appends an entry and prunes everything past the cap.
func (s *Store) SaveAdminLog(ctx context.Context, e model.AdminLogEntry) error {
	var orderID *string
	if e.OrderID != "" {
		orderID = &e.OrderID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admin_logs (id, ts, admin_name, action, details, order_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Timestamp, e.AdminName, e.Action, e.Details, orderID)
	if err != nil {
		return fmt.Errorf("save admin log: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		DELETE FROM admin_logs WHERE id IN (
			SELECT id FROM admin_logs ORDER BY ts DESC OFFSET $1
		)`, adminLogCap)
	if err != nil {
		return fmt.Errorf("prune admin logs: %w", err)
	}
	return nil
}

// --- Settings ---

func (s *Store) GetVatRate(ctx context.Context) (decimal.Decimal, error) {
	var rate pgtype.Numeric
	if err := s.pool.QueryRow(ctx, `SELECT vat_rate FROM settings WHERE id = 1`).Scan(&rate); err != nil {
		return decimal.Zero, fmt.Errorf("get vat rate: %w", err)
	}
	return numericToDecimal(rate), nil
}

func (s *Store) SaveVatRate(ctx context.Context, rate decimal.Decimal) error {
	if _, err := s.pool.Exec(ctx, `UPDATE settings SET vat_rate = $1 WHERE id = 1`, decimalToNumeric(rate)); err != nil {
		return fmt.Errorf("save vat rate: %w", err)
	}
	return nil
}

func (s *Store) GetShopPhone(ctx context.Context) (string, error) {
	var phone string
	if err := s.pool.QueryRow(ctx, `SELECT shop_phone FROM settings WHERE id = 1`).Scan(&phone); err != nil {
		return "", fmt.Errorf("get shop phone: %w", err)
	}
	return phone, nil
}

func (s *Store) SaveShopPhone(ctx context.Context, phone string) error {
	if _, err := s.pool.Exec(ctx, `UPDATE settings SET shop_phone = $1 WHERE id = 1`, phone); err != nil {
		return fmt.Errorf("save shop phone: %w", err)
	}
	return nil
}

// --- Helpers ---

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}
