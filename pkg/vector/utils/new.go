package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/docqa/pkg/vector"
	"github.com/papercomputeco/docqa/pkg/vector/flat"
	"github.com/papercomputeco/docqa/pkg/vector/qdrantvec"
	"github.com/papercomputeco/docqa/pkg/vector/sqlitevec"
)

const (
	ProviderFlat   = "flat"
	ProviderSQLite = "sqlite"
	ProviderQdrant = "qdrant"
)

type NewIndexOpts struct {
	ProviderType string
	Target       string
	Dimensions   uint
	Logger       *slog.Logger
}

// NewIndex creates an empty vector index for the configured provider.
func NewIndex(ctx context.Context, o *NewIndexOpts) (vector.Index, error) {
	switch o.ProviderType {
	case ProviderFlat, "":
		return flat.NewIndex(flat.Config{
			Dimensions: int(o.Dimensions),
		}, o.Logger), nil
	case ProviderSQLite:
		return sqlitevec.NewIndex(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case ProviderQdrant:
		return qdrantvec.NewIndex(ctx, qdrantvec.Config{
			Target:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s (available: %s)", o.ProviderType, strings.Join(Providers(), ", "))
	}
}

// Providers lists the supported vector store provider names.
func Providers() []string {
	return []string{ProviderFlat, ProviderSQLite, ProviderQdrant}
}
