package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"catalog/internal/apperror"
	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventPublisher delivers product events. A nil publisher disables events.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	log       *zap.Logger
}

// NewProductService creates a new ProductService. publisher may be nil.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher, log *zap.Logger) *ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// CreateProduct stores a new product unless its name is already taken.
func (s *ProductService) CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       models.NewPrice(input.Price),
		Stock:       input.Stock,
	}

	err := s.repo.WithinTransaction(ctx, func(repo repositories.ProductRepository) error {
		if err := checkNameAvailable(ctx, repo, input.Name, 0); err != nil {
			return err
		}
		if err := repo.Create(ctx, product); err != nil {
			return translate(err, "ID", product.ID, input.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("product created", zap.Uint("product_id", product.ID), zap.String("name", product.Name))
	s.publish(models.ProductCreated, product.ID, product)
	return product, nil
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, apperror.Unexpected(err)
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "ID", id, "")
	}
	return product, nil
}

// GetProductByName matches the name case-insensitively.
func (s *ProductService) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	product, err := s.repo.GetByNameIgnoreCase(ctx, name)
	if err != nil {
		return nil, translate(err, "name", name, "")
	}
	return product, nil
}

// GetProductByPrice returns one product with exactly this price.
func (s *ProductService) GetProductByPrice(ctx context.Context, price decimal.Decimal) (*models.Product, error) {
	product, err := s.repo.GetByPrice(ctx, price)
	if err != nil {
		return nil, translate(err, "price", price, "")
	}
	return product, nil
}

// GetProductByStock returns one product with exactly this stock.
func (s *ProductService) GetProductByStock(ctx context.Context, stock int) (*models.Product, error) {
	product, err := s.repo.GetByStock(ctx, stock)
	if err != nil {
		return nil, translate(err, "stock", stock, "")
	}
	return product, nil
}

// UpdateProduct overwrites every field of the product.
// The name check ignores the product itself, so keeping the current name is allowed.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, input models.ProductInput) (*models.Product, error) {
	var updated *models.Product
	err := s.repo.WithinTransaction(ctx, func(repo repositories.ProductRepository) error {
		product, err := repo.GetByID(ctx, id)
		if err != nil {
			return translate(err, "ID", id, "")
		}
		if err := checkNameAvailable(ctx, repo, input.Name, id); err != nil {
			return err
		}

		product.Name = input.Name
		product.Description = input.Description
		product.Price = models.NewPrice(input.Price)
		product.Stock = input.Stock

		if err := repo.Update(ctx, product); err != nil {
			return translate(err, "ID", id, input.Name)
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("product updated", zap.Uint("product_id", updated.ID))
	s.publish(models.ProductUpdated, updated.ID, updated)
	return updated, nil
}

// UpdateProductPartial overwrites only the fields present and non-blank in input.
// When nothing would change the stored product is returned untouched.
func (s *ProductService) UpdateProductPartial(ctx context.Context, id uint, input models.PartialProductInput) (*models.Product, error) {
	var (
		updated *models.Product
		changed bool
	)
	err := s.repo.WithinTransaction(ctx, func(repo repositories.ProductRepository) error {
		product, err := repo.GetByID(ctx, id)
		if err != nil {
			return translate(err, "ID", id, "")
		}

		if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
			if err := checkNameAvailable(ctx, repo, *input.Name, id); err != nil {
				return err
			}
			product.Name = *input.Name
			changed = true
		}
		if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
			product.Description = *input.Description
			changed = true
		}
		if input.Price != nil {
			product.Price = models.NewPrice(*input.Price)
			changed = true
		}
		if input.Stock != nil {
			product.Stock = *input.Stock
			changed = true
		}

		updated = product
		if !changed {
			return nil
		}
		if err := repo.Update(ctx, product); err != nil {
			return translate(err, "ID", id, product.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.log.Info("product partially updated", zap.Uint("product_id", updated.ID))
		s.publish(models.ProductUpdated, updated.ID, updated)
	}
	return updated, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.repo.WithinTransaction(ctx, func(repo repositories.ProductRepository) error {
		exists, err := repo.ExistsByID(ctx, id)
		if err != nil {
			return apperror.Unexpected(err)
		}
		if !exists {
			return apperror.NotFound("ID", id)
		}
		if err := repo.Delete(ctx, id); err != nil {
			return translate(err, "ID", id, "")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("product deleted", zap.Uint("product_id", id))
	s.publish(models.ProductDeleted, id, nil)
	return nil
}

func checkNameAvailable(ctx context.Context, repo repositories.ProductRepository, name string, excludeID uint) error {
	exists, err := repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return apperror.Unexpected(err)
	}
	if exists {
		return apperror.AlreadyExists(name)
	}
	return nil
}

// translate maps repository sentinels to business errors.
func translate(err error, key string, value any, name string) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repositories.ErrProductNotFound):
		return apperror.NotFound(key, value)
	case errors.Is(err, repositories.ErrDuplicateName):
		return apperror.AlreadyExists(name)
	default:
		return apperror.Unexpected(err)
	}
}

func (s *ProductService) publish(eventType string, productID uint, product *models.Product) {
	if s.publisher == nil {
		return
	}

	event := models.ProductEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		ProductID:  productID,
		Product:    product,
		OccurredAt: time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		s.log.Warn("failed to marshal product event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(eventType, body); err != nil {
		s.log.Warn("failed to publish product event",
			zap.String("type", eventType),
			zap.Uint("product_id", productID),
			zap.Error(err))
	}
}
