package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/logging"
	"go-storefront/internal/metrics"
	"go-storefront/internal/repository/dao"

	"go.uber.org/zap"
)

// GuestCartStore 游客购物车（redis hash）
type GuestCartStore interface {
	Lines(ctx context.Context, guestID string) ([]model.CartLine, error)
	Add(ctx context.Context, guestID string, productID int64, variant string, delta, max int) error
	Set(ctx context.Context, guestID string, productID int64, variant string, qty int) error
	Remove(ctx context.Context, guestID string, productID int64, variant string) error
	Clear(ctx context.Context, guestID string) error
}

// UserCartStore 登录用户购物车（dao.CartItemDAO 实现）
type UserCartStore interface {
	List(ctx context.Context, userID int64) ([]model.CartLine, error)
	Add(ctx context.Context, userID, productID int64, variant string, delta, max int) error
	Set(ctx context.Context, userID, productID int64, variant string, qty int) error
	Decrement(ctx context.Context, userID, productID int64, variant string, delta int) error
	Remove(ctx context.Context, userID, productID int64, variant string) error
}

// CartOwner UserID 优先；两者都为空表示无购物车
type CartOwner struct {
	UserID  int64
	GuestID string
}

func (o CartOwner) kind() string {
	if o.UserID > 0 {
		return "user"
	}
	return "guest"
}

func (o CartOwner) valid() bool { return o.UserID > 0 || o.GuestID != "" }

type CartService struct {
	Guests      GuestCartStore
	Users       UserCartStore
	Products    ProductStore
	Logger      *logging.Logger
	MaxQuantity int
}

func NewCartService(g GuestCartStore, u UserCartStore, p ProductStore, lg *logging.Logger, maxQty int) *CartService {
	if maxQty <= 0 {
		maxQty = 99
	}
	if lg == nil {
		lg = logging.NewNop()
	}
	return &CartService{Guests: g, Users: u, Products: p, Logger: lg, MaxQuantity: maxQty}
}

// NormalizeVariant "Size=M; Color=Red" -> "color=red,size=m"
func NormalizeVariant(v string) string {
	v = strings.ToLower(strings.ReplaceAll(v, "|", ""))
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if k, val, ok := strings.Cut(p, "="); ok {
			p = strings.TrimSpace(k) + "=" + strings.TrimSpace(val)
		} else {
			p = strings.TrimSpace(p)
		}
		if p != "" && p != "=" {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func (s *CartService) List(ctx context.Context, o CartOwner) ([]model.CartLine, error) {
	var (
		lines []model.CartLine
		err   error
	)
	switch {
	case o.UserID > 0:
		lines, err = s.Users.List(ctx, o.UserID)
	case o.GuestID != "":
		lines, err = s.Guests.Lines(ctx, o.GuestID)
	}
	if err != nil {
		return nil, persistence("list cart", err)
	}
	if lines == nil {
		lines = []model.CartLine{}
	}
	return lines, nil
}

// Add 数量累加，上限 MaxQuantity；商品需可见
func (s *CartService) Add(ctx context.Context, o CartOwner, productID int64, variant string, qty int) error {
	if err := s.precheck(ctx, o, qty); err != nil {
		return err
	}
	if err := s.requireVisible(ctx, productID); err != nil {
		return err
	}
	variant = NormalizeVariant(variant)
	var err error
	if o.UserID > 0 {
		err = s.Users.Add(ctx, o.UserID, productID, variant, qty, s.MaxQuantity)
	} else {
		err = s.Guests.Add(ctx, o.GuestID, productID, variant, qty, s.MaxQuantity)
	}
	return s.done(o, "add", err)
}

func (s *CartService) Increment(ctx context.Context, o CartOwner, productID int64, variant string) error {
	return s.Add(ctx, o, productID, variant, 1)
}

// Update 覆盖数量；qty<=0 删除该行
func (s *CartService) Update(ctx context.Context, o CartOwner, productID int64, variant string, qty int) error {
	if !o.valid() {
		return invalid("owner", ErrNoCartOwner)
	}
	if qty <= 0 {
		return s.Remove(ctx, o, productID, variant)
	}
	if qty > s.MaxQuantity {
		qty = s.MaxQuantity
	}
	variant = NormalizeVariant(variant)
	var err error
	if o.UserID > 0 {
		err = s.Users.Set(ctx, o.UserID, productID, variant, qty)
	} else {
		err = s.Guests.Set(ctx, o.GuestID, productID, variant, qty)
	}
	return s.done(o, "update", err)
}

// Decrement 减到 0 删除
func (s *CartService) Decrement(ctx context.Context, o CartOwner, productID int64, variant string) error {
	if !o.valid() {
		return invalid("owner", ErrNoCartOwner)
	}
	variant = NormalizeVariant(variant)
	var err error
	if o.UserID > 0 {
		err = s.Users.Decrement(ctx, o.UserID, productID, variant, 1)
	} else {
		err = s.Guests.Add(ctx, o.GuestID, productID, variant, -1, s.MaxQuantity)
	}
	return s.done(o, "decrement", err)
}

func (s *CartService) Remove(ctx context.Context, o CartOwner, productID int64, variant string) error {
	if !o.valid() {
		return invalid("owner", ErrNoCartOwner)
	}
	variant = NormalizeVariant(variant)
	var err error
	if o.UserID > 0 {
		err = s.Users.Remove(ctx, o.UserID, productID, variant)
	} else {
		err = s.Guests.Remove(ctx, o.GuestID, productID, variant)
	}
	return s.done(o, "remove", err)
}

// MergeGuestIntoUser 游客行逐行累加进用户购物车并从游客购物车移除，返回合并行数
func (s *CartService) MergeGuestIntoUser(ctx context.Context, guestID string, userID int64) (int, error) {
	if guestID == "" || userID <= 0 {
		return 0, nil
	}
	lines, err := s.Guests.Lines(ctx, guestID)
	if err != nil {
		return 0, persistence("merge cart", err)
	}
	if len(lines) == 0 {
		return 0, nil
	}
	merged := 0
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if err := s.Users.Add(ctx, userID, l.ProductID, l.Variant, l.Quantity, s.MaxQuantity); err != nil {
			// 未合并的行留在游客购物车，下次请求重试
			return merged, persistence("merge cart", err)
		}
		// 已合并的行立即移除，重试时不会重复累加
		if err := s.Guests.Remove(ctx, guestID, l.ProductID, l.Variant); err != nil {
			return merged + 1, persistence("merge cart", err)
		}
		merged++
	}
	if err := s.Guests.Clear(ctx, guestID); err != nil {
		logging.FromContext(ctx, s.Logger).Warn("guest_cart_clear_failed", zap.String("guest_id", guestID), zap.Error(err))
	}
	metrics.CartMergedLines.Add(float64(merged))
	logging.FromContext(ctx, s.Logger).Info("guest_cart_merged", zap.String("guest_id", guestID), zap.Int64("user_id", userID), zap.Int("lines", merged))
	return merged, nil
}

func (s *CartService) precheck(_ context.Context, o CartOwner, qty int) error {
	if !o.valid() {
		return invalid("owner", ErrNoCartOwner)
	}
	if qty <= 0 {
		return invalid("quantity", ErrInvalidQuantity)
	}
	return nil
}

func (s *CartService) requireVisible(ctx context.Context, productID int64) error {
	if s.Products == nil {
		return nil
	}
	if _, err := s.Products.FindVisible(ctx, productID); err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return ErrProductNotFound
		}
		return persistence("find product", err)
	}
	return nil
}

func (s *CartService) done(o CartOwner, op string, err error) error {
	if err != nil {
		return persistence(op+" cart line", err)
	}
	metrics.CartOps.WithLabelValues(o.kind(), op).Inc()
	return nil
}
