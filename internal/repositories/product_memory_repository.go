package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"catalog/internal/models"

	"github.com/shopspring/decimal"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	products map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
	// txMu serializes transactions so a rollback never discards another caller's writes.
	txMu sync.Mutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[uint]models.Product),
		nextID:   1,
	}
}

// GetAll returns all products ordered by ID.
func (r *MemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(), nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

func (r *MemoryProductRepository) GetByNameIgnoreCase(ctx context.Context, name string) (*models.Product, error) {
	key := models.NameKey(name)
	return r.find(func(p models.Product) bool { return p.NameKey == key })
}

func (r *MemoryProductRepository) GetByPrice(ctx context.Context, price decimal.Decimal) (*models.Product, error) {
	return r.find(func(p models.Product) bool { return p.Price.Equal(price) })
}

func (r *MemoryProductRepository) GetByStock(ctx context.Context, stock int) (*models.Product, error) {
	return r.find(func(p models.Product) bool { return p.Stock == stock })
}

func (r *MemoryProductRepository) ExistsByID(ctx context.Context, id uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.products[id]
	return ok, nil
}

func (r *MemoryProductRepository) ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.nameTaken(models.NameKey(name), excludeID), nil
}

// Create adds a new product and assigns the next ID.
func (r *MemoryProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product.NameKey = models.NameKey(product.Name)
	if r.nameTaken(product.NameKey, 0) {
		return ErrDuplicateName
	}
	now := time.Now()
	product.ID = r.nextID
	product.CreatedAt = now
	product.UpdatedAt = now
	r.nextID++
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return ErrProductNotFound
	}
	product.NameKey = models.NameKey(product.Name)
	if r.nameTaken(product.NameKey, product.ID) {
		return ErrDuplicateName
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// WithinTransaction snapshots the store and restores it if fn fails.
func (r *MemoryProductRepository) WithinTransaction(ctx context.Context, fn func(repo ProductRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.RLock()
	snapshot := make(map[uint]models.Product, len(r.products))
	for id, p := range r.products {
		snapshot[id] = p
	}
	nextID := r.nextID
	r.mu.RUnlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.products = snapshot
		r.nextID = nextID
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *MemoryProductRepository) find(match func(models.Product) bool) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.sorted() {
		if match(p) {
			return &p, nil
		}
	}
	return nil, ErrProductNotFound
}

// nameTaken must be called with mu held.
func (r *MemoryProductRepository) nameTaken(key string, excludeID uint) bool {
	for id, p := range r.products {
		if id != excludeID && p.NameKey == key {
			return true
		}
	}
	return false
}

// sorted must be called with mu held.
func (r *MemoryProductRepository) sorted() []models.Product {
	list := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
