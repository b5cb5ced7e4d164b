package redisrepo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go-storefront/internal/domain/model"
)

// GuestCartStore 游客购物车：hash cart:guest:<guestId>，field <productId>|<variant>
type GuestCartStore struct {
	c   *Client
	ttl time.Duration
}

func NewGuestCartStore(c *Client, ttl time.Duration) *GuestCartStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &GuestCartStore{c: c, ttl: ttl}
}

func guestCartKey(guestID string) string { return "cart:guest:" + guestID }

func cartField(productID int64, variant string) string {
	return strconv.FormatInt(productID, 10) + "|" + variant
}

func parseCartField(f string) (int64, string, error) {
	pid, variant, _ := strings.Cut(f, "|")
	id, err := strconv.ParseInt(pid, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("bad cart field %q: %w", f, err)
	}
	return id, variant, nil
}

func (s *GuestCartStore) Lines(ctx context.Context, guestID string) ([]model.CartLine, error) {
	m, err := s.c.HGetAll(ctx, guestCartKey(guestID))
	if err != nil {
		return nil, err
	}
	lines := make([]model.CartLine, 0, len(m))
	for f, v := range m {
		pid, variant, err := parseCartField(f)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(v)
		if err != nil || qty <= 0 {
			continue
		}
		lines = append(lines, model.CartLine{ProductID: pid, Variant: variant, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductID != lines[j].ProductID {
			return lines[i].ProductID < lines[j].ProductID
		}
		return lines[i].Variant < lines[j].Variant
	})
	return lines, nil
}

// Add delta 可为负；结果 <=0 时字段被删除
func (s *GuestCartStore) Add(ctx context.Context, guestID string, productID int64, variant string, delta, max int) error {
	_, err := s.c.HIncrCapped(ctx, guestCartKey(guestID), cartField(productID, variant), int64(delta), int64(max), s.ttl)
	return err
}

func (s *GuestCartStore) Set(ctx context.Context, guestID string, productID int64, variant string, qty int) error {
	return s.c.HSetTTL(ctx, guestCartKey(guestID), cartField(productID, variant), qty, s.ttl)
}

func (s *GuestCartStore) Remove(ctx context.Context, guestID string, productID int64, variant string) error {
	return s.c.HDel(ctx, guestCartKey(guestID), cartField(productID, variant))
}

func (s *GuestCartStore) Clear(ctx context.Context, guestID string) error {
	return s.c.Client.Del(ctx, guestCartKey(guestID)).Err()
}
