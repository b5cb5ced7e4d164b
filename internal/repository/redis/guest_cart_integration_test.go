//go:build integration

package redisrepo

import (
	"context"
	"testing"
	"time"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestCartStore_Redis(t *testing.T) {
	c := Wrap(testhelpers.GetRedis(t))
	s := NewGuestCartStore(c, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, "g1", 2, "size=m", 3, 5))
	require.NoError(t, s.Add(ctx, "g1", 2, "size=m", 9, 5))
	require.NoError(t, s.Add(ctx, "g1", 1, "", 1, 5))

	lines, err := s.Lines(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []model.CartLine{
		{ProductID: 1, Variant: "", Quantity: 1},
		{ProductID: 2, Variant: "size=m", Quantity: 5},
	}, lines)

	ttl, err := c.Client.PTTL(ctx, guestCartKey("g1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	// 减到 0 删除字段
	require.NoError(t, s.Add(ctx, "g1", 1, "", -1, 5))
	require.NoError(t, s.Set(ctx, "g1", 2, "size=m", 2))
	lines, err = s.Lines(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []model.CartLine{{ProductID: 2, Variant: "size=m", Quantity: 2}}, lines)

	require.NoError(t, s.Remove(ctx, "g1", 2, "size=m"))
	require.NoError(t, s.Add(ctx, "g1", 3, "", 1, 5))
	require.NoError(t, s.Clear(ctx, "g1"))
	lines, err = s.Lines(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
