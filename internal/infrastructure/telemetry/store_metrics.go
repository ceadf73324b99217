package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// StoreMetrics records storefront activity: checkouts, catalog write
// conflicts and media uploads. A nil *StoreMetrics records nothing.
type StoreMetrics struct {
	logger *zap.Logger

	checkoutTotal    *Counter
	checkoutItems    *Counter
	checkoutAmount   metric.Float64Counter
	catalogConflicts *Counter
	uploadTotal      *Counter
	uploadSize       *Histogram
	loginFailures    *Counter
}

// NewStoreMetrics creates the storefront instruments on meter
func NewStoreMetrics(meter metric.Meter, logger *zap.Logger) (*StoreMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &StoreMetrics{logger: logger}
	var err error

	if sm.checkoutTotal, err = NewCounter(meter, "storefront_checkout_total",
		"Checkout links generated", "{checkouts}"); err != nil {
		return nil, err
	}
	if sm.checkoutItems, err = NewCounter(meter, "storefront_checkout_items_total",
		"Units included in generated checkouts", "{units}"); err != nil {
		return nil, err
	}
	if sm.checkoutAmount, err = meter.Float64Counter("storefront_checkout_amount_total",
		metric.WithDescription("Sum of checkout totals"),
		metric.WithUnit("{amount}")); err != nil {
		return nil, err
	}
	if sm.catalogConflicts, err = NewCounter(meter, "storefront_catalog_conflicts_total",
		"Catalog writes rejected because the document changed", "{conflicts}"); err != nil {
		return nil, err
	}
	if sm.uploadTotal, err = NewCounter(meter, "storefront_upload_total",
		"Media files uploaded", "{files}"); err != nil {
		return nil, err
	}
	if sm.uploadSize, err = NewHistogram(meter, HistogramOpts{
		Name:        "storefront_upload_size_bytes",
		Description: "Uploaded media size",
		Unit:        "By",
		Boundaries:  UploadSizeBuckets,
	}); err != nil {
		return nil, err
	}
	if sm.loginFailures, err = NewCounter(meter, "storefront_login_failures_total",
		"Rejected dashboard logins", "{attempts}"); err != nil {
		return nil, err
	}
	return sm, nil
}

// RecordCheckout counts one checkout with its unit count and total
func (sm *StoreMetrics) RecordCheckout(ctx context.Context, units int, total decimal.Decimal) {
	if sm == nil {
		return
	}
	sm.checkoutTotal.Inc(ctx)
	sm.checkoutItems.Add(ctx, int64(units))
	amount, _ := total.Float64()
	sm.checkoutAmount.Add(ctx, amount)
}

// RecordCatalogConflict counts a lost compare-and-swap for operation
func (sm *StoreMetrics) RecordCatalogConflict(ctx context.Context, operation string) {
	if sm == nil {
		return
	}
	sm.catalogConflicts.Inc(ctx, AttrOperation.String(operation))
}

// RecordUpload counts an upload by media kind (image or video)
func (sm *StoreMetrics) RecordUpload(ctx context.Context, kind, contentType string, size int64) {
	if sm == nil {
		return
	}
	sm.uploadTotal.Inc(ctx, AttrMediaKind.String(kind), AttrContentType.String(contentType))
	sm.uploadSize.Record(ctx, float64(size), AttrMediaKind.String(kind))
}

// RecordLoginFailure counts a rejected dashboard login
func (sm *StoreMetrics) RecordLoginFailure(ctx context.Context) {
	if sm == nil {
		return
	}
	sm.loginFailures.Inc(ctx)
}
