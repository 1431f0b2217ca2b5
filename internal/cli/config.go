package cli

import (
	"context"
	"errors"

	"github.com/dmitrymomot/entitlements/internal/storage"
	"github.com/dmitrymomot/entitlements/pkg/httpserver"
	"github.com/dmitrymomot/entitlements/pkg/plan"
)

// Config is the service configuration, read from the environment and ./.env.
type Config struct {
	Env         string `env:"ENTITLEMENTS_ENV" envDefault:"development"`
	CatalogPath string `env:"ENTITLEMENTS_CATALOG_PATH"` // empty uses the built-in catalog

	// TrustSuperAdmin honours "super_admin" in /v1/evaluate bodies. Enable it only
	// when the API is reachable by trusted backends alone.
	TrustSuperAdmin bool `env:"ENTITLEMENTS_TRUST_SUPER_ADMIN" envDefault:"false"`

	HTTP    httpserver.Config
	Storage storage.Config
}

var ErrCatalog = errors.New("cannot load plan catalog")

// loadCatalog builds the catalog from path, or from the built-in catalog when path is empty.
func loadCatalog(ctx context.Context, path string) (*plan.Catalog, error) {
	src := plan.Default()
	if path != "" {
		src = plan.NewFileSource(path)
	}
	c, err := plan.New(ctx, src)
	if err != nil {
		return nil, errors.Join(ErrCatalog, err)
	}
	return c, nil
}
