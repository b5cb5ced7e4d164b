package shop

import (
	"context"
	"errors"

	"go-storefront/internal/logging"
	"go-storefront/internal/service"
	"go-storefront/internal/util/retcode"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CartHandler struct{ d Dependencies }

func NewCartHandler(d Dependencies) *CartHandler { return &CartHandler{d: d} }

type lineReq struct {
	ProductID int64  `json:"product_id"`
	Variant   string `json:"variant"`
	Quantity  int    `json:"quantity"`
}

// owner 登录用户优先；同时携带游客 cookie 时先合并游客购物车
// create=true 时为新游客分配 id
func (h *CartHandler) owner(c *gin.Context, create bool) (service.CartOwner, error) {
	ctx := c.Request.Context()
	guestID := h.d.Guests.GuestID(c.Request)
	if uid := c.GetInt64("user_id"); uid > 0 {
		if guestID != "" {
			if _, err := h.d.Cart.MergeGuestIntoUser(ctx, guestID, uid); err != nil {
				logging.FromContext(ctx, h.d.Logger).Warn("cart_merge_failed", zap.Int64("user_id", uid), zap.Error(err))
			} else if err := h.d.Guests.Forget(c.Writer, c.Request); err != nil {
				logging.FromContext(ctx, h.d.Logger).Warn("guest_session_clear_failed", zap.Error(err))
			}
		}
		return service.CartOwner{UserID: uid}, nil
	}
	if guestID == "" && create {
		id, err := h.d.Guests.Ensure(c.Writer, c.Request)
		if err != nil {
			return service.CartOwner{}, err
		}
		guestID = id
	}
	return service.CartOwner{GuestID: guestID}, nil
}

// List GET /shop/cart
func (h *CartHandler) List(c *gin.Context) {
	o, err := h.owner(c, false)
	if err != nil {
		response.Error(c, retcode.SESSION_TIMEOUT, "")
		return
	}
	lines, err := h.d.Cart.List(c.Request.Context(), o)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": lines})
}

func (h *CartHandler) Add(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, o service.CartOwner, r lineReq) error {
		return h.d.Cart.Add(ctx, o, r.ProductID, r.Variant, r.Quantity)
	})
}

func (h *CartHandler) Update(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, o service.CartOwner, r lineReq) error {
		return h.d.Cart.Update(ctx, o, r.ProductID, r.Variant, r.Quantity)
	})
}

func (h *CartHandler) Increment(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, o service.CartOwner, r lineReq) error {
		return h.d.Cart.Increment(ctx, o, r.ProductID, r.Variant)
	})
}

func (h *CartHandler) Decrement(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, o service.CartOwner, r lineReq) error {
		return h.d.Cart.Decrement(ctx, o, r.ProductID, r.Variant)
	})
}

func (h *CartHandler) Remove(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, o service.CartOwner, r lineReq) error {
		return h.d.Cart.Remove(ctx, o, r.ProductID, r.Variant)
	})
}

// mutate 解析请求、确定归属，执行后返回最新购物车
func (h *CartHandler) mutate(c *gin.Context, op func(context.Context, service.CartOwner, lineReq) error) {
	var req lineReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, retcode.JSON_PARSE_FAIL, "")
		return
	}
	if req.ProductID <= 0 {
		response.Error(c, retcode.EMPTY_PARAMS, "")
		return
	}
	o, err := h.owner(c, true)
	if err != nil {
		response.Error(c, retcode.SESSION_TIMEOUT, "")
		return
	}
	ctx := c.Request.Context()
	if err := op(ctx, o, req); err != nil {
		h.fail(c, err)
		return
	}
	lines, err := h.d.Cart.List(ctx, o)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": lines})
}

func (h *CartHandler) fail(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		response.Error(c, retcode.PARAM_INVALID, ve.Error())
	case errors.Is(err, service.ErrProductNotFound):
		response.Error(c, retcode.NOT_EXISTS, "")
	default:
		logging.FromContext(c.Request.Context(), h.d.Logger).Error("cart_op_failed", zap.Error(err))
		response.Error(c, retcode.DB_SAVE_ERROR, "")
	}
}
