// Package svcctx provides service context for dependency injection via context.
// This package is separate from cmd to avoid import cycles between commands.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/archivist-ml/collate/internal/classifier"
	"github.com/archivist-ml/collate/internal/config"
	"github.com/archivist-ml/collate/internal/corpus"
)

// Services holds the core services that flow through context.
// Commands extract what they need via the individual extractors.
type Services struct {
	ConfigManager *config.Manager
	Store         *corpus.Store
	Fallback      classifier.Classifier
	Logger        *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}

// StoreFrom extracts the corpus store from context.
func StoreFrom(ctx context.Context) *corpus.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// FallbackFrom extracts the fallback classifier from context.
func FallbackFrom(ctx context.Context) classifier.Classifier {
	if s := ServicesFrom(ctx); s != nil {
		return s.Fallback
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}
