package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEmbedded(t *testing.T, suffix string) string {
	t.Helper()
	names, err := EmbeddedFiles()
	require.NoError(t, err)
	for _, name := range names {
		if strings.HasSuffix(name, suffix) {
			b, err := embedded.ReadFile(embeddedDir + "/" + name)
			require.NoError(t, err)
			return string(b)
		}
	}
	t.Fatalf("migration *%s not embedded", suffix)
	return ""
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
	require.NoError(t, ValidateDir("migrations"))

	names, err := EmbeddedFiles()
	require.NoError(t, err)
	assert.Len(t, names, 6)
}

func TestProductsMigrationGuardsStock(t *testing.T) {
	sql := readEmbedded(t, "_create_catalog.sql")
	assert.Contains(t, sql, "CONSTRAINT products_slug_key UNIQUE (slug)")
	assert.Contains(t, sql, "CHECK (stock >= 0)")
	assert.Contains(t, sql, "rating numeric(2,1)")
}

func TestCartAndReviewUniqueness(t *testing.T) {
	cart := readEmbedded(t, "_create_cart_items.sql")
	assert.Contains(t, cart, "CONSTRAINT cart_items_user_product_key UNIQUE (user_id, product_id)")
	assert.Contains(t, cart, "CHECK (quantity >= 1)")

	reviews := readEmbedded(t, "_create_reviews.sql")
	assert.Contains(t, reviews, "CONSTRAINT reviews_product_user_key UNIQUE (product_id, user_id)")
	assert.Contains(t, reviews, "CHECK (rating BETWEEN 1 AND 5)")
}

func TestOrdersMigrationConstrainsTotalsAndStatuses(t *testing.T) {
	sql := readEmbedded(t, "_create_orders_and_payments.sql")
	assert.Contains(t, sql, "CHECK (total_cents = subtotal_cents + shipping_cost_cents)")
	assert.Contains(t, sql, "'pending', 'paid', 'shipped', 'delivered', 'cancelled'")
	assert.Contains(t, sql, "CONSTRAINT payment_transactions_session_id_key UNIQUE (session_id)")
	assert.Contains(t, sql, "DROP TABLE IF EXISTS payment_transactions;")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Product Tags!", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260304050607_add_product_tags.sql"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "-- +goose Up")
	assert.Contains(t, string(b), "-- rollback add_product_tags")
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "add product tags", now)
	assert.ErrorContains(t, err, "already exists")

	_, err = CreateSQLMigration(dir, "!!!", now)
	assert.Error(t, err)
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.ErrorContains(t, ValidateDir(dir), "invalid migration filename")

	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_a.sql"), []byte("-- +goose Up\n"), 0o644))
	assert.ErrorContains(t, ValidateDir(dir), "-- +goose Down")

	dir = t.TempDir()
	body := []byte("-- +goose Up\n-- +goose Down\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_a.sql"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_b.sql"), body, 0o644))
	assert.ErrorContains(t, ValidateDir(dir), "duplicate migration version")
}
