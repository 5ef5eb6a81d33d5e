package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"meli-sync/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresStore is the Postgres-backed product catalog.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to the catalog database.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetProduct retrieves a product by ID
func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductByRemoteID retrieves the product linked to a MercadoLibre item.
// LIMIT 1 mirrors the reverse-lookup contract: duplicates are not detected,
// the first match wins.
func (s *PostgresStore) GetProductByRemoteID(ctx context.Context, remoteItemID string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT * FROM products WHERE ml_item_id = $1 ORDER BY id LIMIT 1", remoteItemID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SetStock persists a new stock quantity
func (s *PostgresStore) SetStock(ctx context.Context, id int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET stock = $1, updated_at = NOW() WHERE id = $2",
		quantity, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product not found: %d", id)
	}
	return nil
}

// SetRemoteID links or unlinks a product to a MercadoLibre item id
func (s *PostgresStore) SetRemoteID(ctx context.Context, id int64, remoteItemID string) error {
	var link sql.NullString
	if remoteItemID != "" {
		link = sql.NullString{String: remoteItemID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET ml_item_id = $1, updated_at = NOW() WHERE id = $2",
		link, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product not found: %d", id)
	}
	return nil
}
