package admin

import (
	"go-storefront/internal/service"
	"go-storefront/internal/util/retcode"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductHandler struct{ d Dependencies }

func NewProductHandler(d Dependencies) *ProductHandler { return &ProductHandler{d: d} }

// Add POST /admin/Product/add
func (h *ProductHandler) Add(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, retcode.JSON_PARSE_FAIL, "")
		return
	}
	p, err := h.d.Catalog.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, p)
}

type editPriceReq struct {
	ID    int64           `json:"id"`
	Price decimal.Decimal `json:"price"`
}

// EditPrice POST /admin/Product/editPrice
func (h *ProductHandler) EditPrice(c *gin.Context) {
	var req editPriceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, retcode.JSON_PARSE_FAIL, "")
		return
	}
	if req.ID <= 0 {
		response.Error(c, retcode.EMPTY_PARAMS, "")
		return
	}
	p, err := h.d.Catalog.UpdatePrice(c.Request.Context(), actor(c), req.ID, req.Price)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, p)
}

// ChangeVisibility GET /admin/Product/changeVisibility?id=&hidden=1
func (h *ProductHandler) ChangeVisibility(c *gin.Context) {
	id := qInt64(c, "id")
	if id <= 0 {
		response.Error(c, retcode.EMPTY_PARAMS, "")
		return
	}
	hidden := qInt(c, "hidden", 0) == 1
	p, err := h.d.Catalog.SetVisibility(c.Request.Context(), actor(c), id, hidden)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, p)
}
