package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	productsTable = "tracked_products"
	postgresStore = "postgres"
)

// productRepository реализует ProductRepository поверх GORM
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий отслеживаемых товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Upsert создает товар при первом импорте, иначе обновляет last_imported.
// Пустое имя товара не затирает уже сохраненное
func (r *productRepository) Upsert(ctx context.Context, product *entity.Product) error {
	timer := metrics.NewDbTimer(postgresStore, metrics.DbOpInsert, productsTable)

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.LastImported.IsZero() {
		product.LastImported = time.Now().UTC()
	}

	updateColumns := []string{"last_imported"}
	if product.ProductName != "" {
		updateColumns = append(updateColumns, "product_name")
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform"}, {Name: "product_id"}, {Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(product)

	timer.Done(result.Error)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert product: %w", result.Error)
	}

	return nil
}

// Get получает товар по естественному ключу (platform, product_id, owner_id)
func (r *productRepository) Get(ctx context.Context, platform, productID, ownerID string) (*entity.Product, error) {
	timer := metrics.NewDbTimer(postgresStore, metrics.DbOpSelect, productsTable)

	var product entity.Product
	result := r.db.WithContext(ctx).
		Where("platform = ? AND product_id = ? AND owner_id = ?", platform, productID, ownerID).
		First(&product)

	return r.single(timer, &product, result.Error)
}

// GetByID получает товар по ID в пределах аккаунта
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID, ownerID string) (*entity.Product, error) {
	timer := metrics.NewDbTimer(postgresStore, metrics.DbOpSelect, productsTable)

	var product entity.Product
	result := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&product)

	return r.single(timer, &product, result.Error)
}

func (r *productRepository) single(timer *metrics.DbTimer, product *entity.Product, err error) (*entity.Product, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			timer.Done(nil)
			return nil, ErrProductNotFound
		}
		timer.Done(err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	timer.Done(nil)
	return product, nil
}

// ListByOwner возвращает товары аккаунта, недавно импортированные сверху
func (r *productRepository) ListByOwner(ctx context.Context, ownerID string) ([]entity.Product, error) {
	timer := metrics.NewDbTimer(postgresStore, metrics.DbOpSelect, productsTable)

	products := make([]entity.Product, 0)
	result := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("last_imported DESC").Find(&products)

	timer.Done(result.Error)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list products: %w", result.Error)
	}

	return products, nil
}

// ListAll возвращает все товары всех аккаунтов (для автосинхронизации)
func (r *productRepository) ListAll(ctx context.Context) ([]entity.Product, error) {
	timer := metrics.NewDbTimer(postgresStore, metrics.DbOpSelect, productsTable)

	products := make([]entity.Product, 0)
	result := r.db.WithContext(ctx).Order("owner_id, platform, product_id").Find(&products)

	timer.Done(result.Error)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list products: %w", result.Error)
	}

	return products, nil
}

// Delete удаляет товар
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	timer := metrics.NewDbTimer(postgresStore, metrics.DbOpDelete, productsTable)

	result := r.db.WithContext(ctx).Delete(&entity.Product{}, "id = ?", id)

	timer.Done(result.Error)
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}
