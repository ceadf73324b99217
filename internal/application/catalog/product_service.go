package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultMaxRetries bounds the read-modify-write loop of single-product writes
const DefaultMaxRetries = 3

// ProductDocumentStore is the port to the products document
type ProductDocumentStore = shared.DocumentStore[[]catalog.Product]

// ProductService manages the catalog held in the products document.
// Single-product writes are read-modify-write cycles guarded by the
// document version and retried on conflict.
type ProductService struct {
	docs       ProductDocumentStore
	metrics    *telemetry.StoreMetrics
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// ProductServiceOption configures a ProductService
type ProductServiceOption func(*ProductService)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ProductServiceOption {
	return func(s *ProductService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the business metrics recorder
func WithMetrics(metrics *telemetry.StoreMetrics) ProductServiceOption {
	return func(s *ProductService) {
		s.metrics = metrics
	}
}

// WithMaxRetries sets how many times a conflicting write is attempted
func WithMaxRetries(n int) ProductServiceOption {
	return func(s *ProductService) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// NewProductService creates a new ProductService
func NewProductService(docs ProductDocumentStore, opts ...ProductServiceOption) *ProductService {
	s := &ProductService{
		docs:       docs,
		logger:     zap.NewNop(),
		maxRetries: DefaultMaxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the products document with its version
func (s *ProductService) Load(ctx context.Context) (*shared.Document[[]catalog.Product], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "load")
	defer span.End()

	doc, err := s.docs.Load(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if doc.Value == nil {
		doc.Value = []catalog.Product{}
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, len(doc.Value))
	return doc, nil
}

// List returns the products matching q in stored order
func (s *ProductService) List(ctx context.Context, q ListQuery) ([]catalog.Product, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(doc.Value, q.Category, q.Query), nil
}

// Get returns the product with the given id
func (s *ProductService) Get(ctx context.Context, id string) (*catalog.Product, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(doc.Value, id)
	if i < 0 {
		return nil, catalog.ErrProductNotFound
	}
	p := doc.Value[i]
	return &p, nil
}

// Categories returns the closed category set with per-category counts
func (s *ProductService) Categories(ctx context.Context) ([]CategoryCount, error) {
	counts := make(map[catalog.Category]int)
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range doc.Value {
		counts[p.Category]++
	}
	out := make([]CategoryCount, 0, len(catalog.Categories()))
	for _, c := range catalog.Categories() {
		out = append(out, CategoryCount{Name: c.String(), Products: counts[c]})
	}
	return out, nil
}

// ReplaceAll writes products as the whole catalog. With an empty ifMatch the
// write is unconditional; otherwise it only succeeds while the stored
// version still equals ifMatch.
func (s *ProductService) ReplaceAll(ctx context.Context, products []catalog.Product, ifMatch string) (*SaveResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "replace_all", telemetry.SpanAttrCount, len(products))
	defer span.End()

	if products == nil {
		products = []catalog.Product{}
	}
	if err := catalog.ValidateCatalog(products); err != nil {
		return nil, err
	}

	var (
		saved *shared.Document[[]catalog.Product]
		err   error
	)
	ifMatch = strings.TrimSpace(ifMatch)
	if ifMatch == "" {
		saved, err = s.docs.Overwrite(ctx, products)
	} else {
		saved, err = s.docs.CompareAndSwap(ctx, &shared.Document[[]catalog.Product]{Version: ifMatch}, products)
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.metrics.RecordCatalogConflict(ctx, "replace_all")
		}
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to save catalog", zap.Int("products", len(products)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Catalog saved", zap.Int("products", len(products)), zap.String("version", saved.Version))
	return &SaveResult{
		URL:       saved.URL,
		Version:   saved.Version,
		Products:  len(products),
		WrittenAt: s.now(),
	}, nil
}

// Create adds one product. A missing id is generated.
func (s *ProductService) Create(ctx context.Context, product catalog.Product) (*ProductResult, error) {
	product.ID = strings.TrimSpace(product.ID)
	if product.ID == "" {
		product.ID = catalog.NewProductID()
	}
	product.Name = strings.TrimSpace(product.Name)
	now := s.now()
	product.CreatedAt = &now
	product.UpdatedAt = nil
	if err := product.ValidateListing(); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "create", telemetry.SpanAttrProductID, product.ID)
	defer span.End()

	saved, err := s.mutate(ctx, "create", func(products []catalog.Product) ([]catalog.Product, error) {
		if indexOf(products, product.ID) >= 0 {
			return nil, catalog.ErrProductExists
		}
		return append(products, product), nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("Product created", zap.String("product_id", product.ID))
	return &ProductResult{Product: product, Version: saved.Version}, nil
}

// Update applies patch to the product with the given id. The merged product
// must satisfy the listing schema.
func (s *ProductService) Update(ctx context.Context, id string, patch catalog.ProductPatch) (*ProductResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "update", telemetry.SpanAttrProductID, id)
	defer span.End()

	var updated catalog.Product
	saved, err := s.mutate(ctx, "update", func(products []catalog.Product) ([]catalog.Product, error) {
		i := indexOf(products, id)
		if i < 0 {
			return nil, catalog.ErrProductNotFound
		}
		next := patch.Apply(products[i], s.now())
		if err := next.ValidateListing(); err != nil {
			return nil, err
		}
		products[i] = next
		updated = next
		return products, nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("Product updated", zap.String("product_id", id))
	return &ProductResult{Product: updated, Version: saved.Version}, nil
}

// Delete removes the product with the given id
func (s *ProductService) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "delete", telemetry.SpanAttrProductID, id)
	defer span.End()

	_, err := s.mutate(ctx, "delete", func(products []catalog.Product) ([]catalog.Product, error) {
		i := indexOf(products, id)
		if i < 0 {
			return nil, catalog.ErrProductNotFound
		}
		return append(products[:i], products[i+1:]...), nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.Info("Product deleted", zap.String("product_id", id))
	return nil
}

// Init creates the products document if nothing is stored under its key.
// A catalog still held under a legacy key is copied over instead of being
// shadowed by an empty one. It reports whether a document was written.
func (s *ProductService) Init(ctx context.Context) (bool, *SaveResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "init")
	defer span.End()

	doc, err := s.docs.Load(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return false, nil, err
	}
	if doc.Exists() {
		return false, &SaveResult{URL: doc.URL, Version: doc.Version, Products: len(doc.Value)}, nil
	}

	value := doc.Value
	if value == nil {
		value = []catalog.Product{}
	}
	saved, err := s.docs.CompareAndSwap(ctx, doc, value)
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		// Someone else created it first
		return false, nil, nil
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return false, nil, err
	}

	s.logger.Info("Catalog initialized", zap.Int("products", len(value)), zap.Bool("migrated", doc.Migrated()))
	return true, &SaveResult{
		URL:       saved.URL,
		Version:   saved.Version,
		Products:  len(value),
		Migrated:  doc.Migrated(),
		WrittenAt: s.now(),
	}, nil
}

// mutate runs fn against the current catalog and writes the result with a
// compare-and-swap, reloading and retrying on conflict. Errors returned by fn
// abort without writing.
func (s *ProductService) mutate(ctx context.Context, op string, fn func([]catalog.Product) ([]catalog.Product, error)) (*shared.Document[[]catalog.Product], error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		doc, err := s.docs.Load(ctx)
		if err != nil {
			return nil, err
		}

		next, err := fn(cloneProducts(doc.Value))
		if err != nil {
			return nil, err
		}

		saved, err := s.docs.CompareAndSwap(ctx, doc, next)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}

		s.metrics.RecordCatalogConflict(ctx, op)
		s.logger.Warn("Catalog changed during write, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
		)
		lastErr = err
	}
	return nil, lastErr
}

func indexOf(products []catalog.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneProducts(products []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, len(products))
	copy(out, products)
	return out
}
