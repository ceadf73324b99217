// Package settings serves the store's social links document.
package settings

import (
	"context"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/social"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LinksDocumentStore is the port to the social links document
type LinksDocumentStore = shared.DocumentStore[social.Links]

// SaveResult is returned after the links document is written
type SaveResult struct {
	URL     string
	Version string
}

// SettingsService reads and writes the social links
type SettingsService struct {
	docs   LinksDocumentStore
	logger *zap.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(docs LinksDocumentStore, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{docs: docs, logger: logger}
}

// Links returns the stored links. Unset links are empty strings.
func (s *SettingsService) Links(ctx context.Context) (social.Links, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settings", "load")
	defer span.End()

	doc, err := s.docs.Load(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return social.Links{}, err
	}
	return doc.Value.Normalize(), nil
}

// FormattedLinks returns a display URL per configured network.
// Networks without a usable value are absent.
func (s *SettingsService) FormattedLinks(ctx context.Context) (map[social.Kind]string, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return nil, err
	}
	return links.Formatted(), nil
}

// Whatsapp returns the raw whatsapp setting used for checkout
func (s *SettingsService) Whatsapp(ctx context.Context) (string, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return "", err
	}
	return links.Whatsapp, nil
}

// Save replaces the links document. Values are trimmed but otherwise stored
// as given; formatting happens on read.
func (s *SettingsService) Save(ctx context.Context, links social.Links) (*SaveResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settings", "save")
	defer span.End()

	saved, err := s.docs.Overwrite(ctx, links.Normalize())
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to save social links", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Social links saved", zap.String("version", saved.Version))
	return &SaveResult{URL: saved.URL, Version: saved.Version}, nil
}
