package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	store := SetupTestStore(t)
	defer store.Cleanup(t)
	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		store.Truncate(t)

		id, err := store.Create(ctx, "alerts", "", map[string]any{
			"user_id": "u1", "symbol": "AAPL", "price": "150",
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := store.FetchByID(ctx, "alerts", id)
		require.NoError(t, err)
		assert.Equal(t, "AAPL", doc.Data["symbol"])
	})

	t.Run("fetch missing returns ErrNotFound", func(t *testing.T) {
		store.Truncate(t)

		_, err := store.FetchByID(ctx, "alerts", "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create with id replaces document", func(t *testing.T) {
		store.Truncate(t)

		_, err := store.Create(ctx, "balances", "p1:2026-03-02", map[string]any{"total_value": "100"})
		require.NoError(t, err)
		_, err = store.Create(ctx, "balances", "p1:2026-03-02", map[string]any{"total_value": "200"})
		require.NoError(t, err)

		doc, err := store.FetchByID(ctx, "balances", "p1:2026-03-02")
		require.NoError(t, err)
		assert.Equal(t, "200", doc.Data["total_value"])

		docs, err := store.Find(ctx, "balances", nil, nil, 0)
		require.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		store.Truncate(t)

		_, err := store.Create(ctx, "portfolios/p1/stocks", "s1", map[string]any{"symbol": "AAPL"})
		require.NoError(t, err)
		_, err = store.Create(ctx, "portfolios/p2/stocks", "s1", map[string]any{"symbol": "MSFT"})
		require.NoError(t, err)

		docs, err := store.Find(ctx, "portfolios/p1/stocks", nil, nil, 0)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "AAPL", docs[0].Data["symbol"])
	})

	t.Run("equality filter", func(t *testing.T) {
		store.Truncate(t)

		_, err := store.Create(ctx, "alerts", "", map[string]any{"asset_type": "STOCK"})
		require.NoError(t, err)
		_, err = store.Create(ctx, "alerts", "", map[string]any{"asset_type": "CRYPTO"})
		require.NoError(t, err)

		docs, err := store.Find(ctx, "alerts",
			[]Filter{{Field: "asset_type", Op: OpEqual, Value: "CRYPTO"}}, nil, 0)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "CRYPTO", docs[0].Data["asset_type"])
	})

	t.Run("numeric range filter", func(t *testing.T) {
		store.Truncate(t)

		for _, price := range []float64{50, 100, 250} {
			_, err := store.Create(ctx, "alerts", "", map[string]any{"price": price})
			require.NoError(t, err)
		}

		docs, err := store.Find(ctx, "alerts",
			[]Filter{{Field: "price", Op: OpGreater, Value: 99}}, nil, 0)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("order and limit", func(t *testing.T) {
		store.Truncate(t)

		dates := []string{"2026-03-01T00:00:00Z", "2026-03-03T00:00:00Z", "2026-03-02T00:00:00Z"}
		for _, d := range dates {
			_, err := store.Create(ctx, "balances", "", map[string]any{"date": d})
			require.NoError(t, err)
		}

		docs, err := store.Find(ctx, "balances", nil, &OrderBy{Field: "date", Desc: true}, 2)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "2026-03-03T00:00:00Z", docs[0].Data["date"])
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store.Truncate(t)

		id, err := store.Create(ctx, "alerts", "", map[string]any{"symbol": "AAPL"})
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, "alerts", id))
		assert.NoError(t, store.Delete(ctx, "alerts", id), "double delete is a no-op")

		_, err = store.FetchByID(ctx, "alerts", id)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
