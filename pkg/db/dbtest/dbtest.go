// Package dbtest opens an in-memory sqlite database carrying the same tables
// as the Postgres migrations, for repository and service tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tiendaya/marketplace-backend/pkg/db"
	"github.com/tiendaya/marketplace-backend/pkg/db/models"
	"github.com/tiendaya/marketplace-backend/pkg/enums"
)

var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'user',
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE stores (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		phone TEXT,
		address TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE store_variants (
		id TEXT PRIMARY KEY,
		store_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		size TEXT,
		description TEXT,
		price TEXT NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'available' CHECK (status IN ('available', 'reserved', 'sold_out')),
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE sales (
		id TEXT PRIMARY KEY,
		buyer_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		total TEXT NOT NULL,
		proof_reference TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'rejected', 'cancelled')),
		rejection_reason TEXT,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE TABLE sale_lines (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
		variant_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price TEXT NOT NULL,
		subtotal TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	)`,
	`CREATE UNIQUE INDEX sale_lines_one_pending_per_variant
		ON sale_lines (variant_id) WHERE status = 'pending' AND deleted_at IS NULL`,
	`CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		sale_id TEXT,
		read_at DATETIME,
		created_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}

// Open returns a fresh database. A single connection keeps the in-memory
// database alive for the whole test, so code under test must route every
// statement inside a transaction through that transaction.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

// OpenClient wraps Open in a db.Client so WithTx behaves as in production.
func OpenClient(t testing.TB) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := Open(t)
	return db.Wrap(conn), conn
}

// Fixture is a seeded store with one owner, one buyer and one variant.
type Fixture struct {
	Owner   models.User
	Buyer   models.User
	Store   models.Store
	Product models.Product
	Variant models.Variant
}

// Seed inserts a Fixture whose variant has the given price and stock.
func Seed(t testing.TB, conn *gorm.DB, price string, stock int) Fixture {
	t.Helper()
	f := Fixture{
		Owner: NewUser("owner", enums.UserRoleUser),
		Buyer: NewUser("buyer", enums.UserRoleUser),
	}
	f.Store = models.Store{ID: uuid.New(), OwnerID: f.Owner.ID, Name: "Tienda Uno"}
	f.Product = models.Product{ID: uuid.New(), Name: "Camiseta"}
	size := "M"
	f.Variant = models.Variant{
		ID:        uuid.New(),
		StoreID:   f.Store.ID,
		ProductID: f.Product.ID,
		Size:      &size,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Status:    enums.VariantStatusAvailable,
	}
	for _, row := range []any{&f.Owner, &f.Buyer, &f.Store, &f.Product, &f.Variant} {
		if err := conn.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
	return f
}

// NewUser builds an unsaved user with a unique email.
func NewUser(name string, role enums.UserRole) models.User {
	id := uuid.New()
	return models.User{
		ID:        id,
		Email:     name + "-" + id.String()[:8] + "@example.com",
		Username:  name + "-" + id.String()[:8],
		FirstName: name,
		Role:      role,
	}
}
