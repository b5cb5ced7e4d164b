package shop

import (
	"errors"
	"strconv"

	"go-storefront/internal/service"
	"go-storefront/internal/util/retcode"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct{ d Dependencies }

func NewProductHandler(d Dependencies) *ProductHandler { return &ProductHandler{d: d} }

// List GET /shop/products?category=&page=&limit=
func (h *ProductHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	page := service.ParsePage(c.Query("page"))
	res, err := h.d.Catalog.ListVisible(c.Request.Context(), c.Query("category"), page, limit)
	if err != nil {
		response.Error(c, retcode.DB_READ_ERROR, "")
		return
	}
	response.Success(c, res)
}

// Detail GET /shop/products/:id
func (h *ProductHandler) Detail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, retcode.PARAM_INVALID, "数据类型非法")
		return
	}
	p, err := h.d.Catalog.GetVisible(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			response.Error(c, retcode.NOT_EXISTS, "")
			return
		}
		response.Error(c, retcode.DB_READ_ERROR, "")
		return
	}
	response.Success(c, p)
}
