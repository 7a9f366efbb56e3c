package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/phytopro-backend/internal/repo"
	"github.com/angelmondragon/phytopro-backend/pkg/db/models"
	"github.com/angelmondragon/phytopro-backend/pkg/pagination"
)

const likeEscaper = `\`

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository persists products and categories.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// List returns products matching filters, newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters, page pagination.OffsetParams) ([]models.Product, error) {
	page = page.Normalize()
	query := applyFilters(r.DB(ctx).Model(&models.Product{}), filters)

	var rows []models.Product
	err := query.
		Order("created_at DESC").
		Order("id ASC").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&rows).Error
	return rows, err
}

func applyFilters(query *gorm.DB, f ListFilters) *gorm.DB {
	if f.Category != nil {
		query = query.Where("category = ?", *f.Category)
	}
	if f.Subcategory != nil {
		query = query.Where("subcategory = ?", *f.Subcategory)
	}
	if f.Brand != nil {
		query = query.Where("brand = ?", *f.Brand)
	}
	if f.IsBio != nil {
		query = query.Where("is_bio = ?", *f.IsBio)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := "%" + likeReplacer.Replace(strings.ToLower(search)) + "%"
		query = query.Where(
			"(LOWER(name) LIKE ? ESCAPE '"+likeEscaper+"' OR LOWER(description) LIKE ? ESCAPE '"+likeEscaper+"')",
			pattern, pattern,
		)
	}
	if f.MinPriceCents != nil {
		query = query.Where("price_cents >= ?", *f.MinPriceCents)
	}
	if f.MaxPriceCents != nil {
		query = query.Where("price_cents <= ?", *f.MaxPriceCents)
	}
	return query
}

// Featured returns up to limit featured products.
func (r *Repository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).
		Where("featured = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListAll returns every product for the admin panel.
func (r *Repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.DB(ctx).Order("created_at DESC").Order("id ASC").Find(&rows).Error
	return rows, err
}

// FindBySlug loads a product by its unique slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByID loads the product by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the products for ids keyed by id; missing ids are absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

// Update applies column updates and reports whether the row exists.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	res := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// Delete removes the product and reports whether it existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

// DecrementStock removes qty units only if enough remain. It reports whether
// the row was updated.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	return res.RowsAffected > 0, res.Error
}

// Exists reports whether a product with id is present.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Categories lists navigation categories by name.
func (r *Repository) Categories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.DB(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// CreateCategory inserts a category row.
func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.DB(ctx).Create(category).Error
}
