package admin

import (
	"errors"

	"go-storefront/internal/service"
	"go-storefront/internal/util/retcode"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeServiceError 业务错误到旧返回码
func writeServiceError(c *gin.Context, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		response.Error(c, retcode.PARAM_INVALID, ve.Error())
	case errors.Is(err, service.ErrProductNotFound):
		response.Error(c, retcode.NOT_EXISTS, "")
	case errors.Is(err, service.ErrDuplicateSKU):
		response.Error(c, retcode.DATA_EXISTS, "")
	default:
		response.Error(c, retcode.DB_SAVE_ERROR, "")
	}
}
