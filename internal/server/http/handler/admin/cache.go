package admin

import (
	"net/http"

	"go-storefront/internal/pkg/cache"

	"github.com/gin-gonic/gin"
)

// CacheHandler 统计缓存（L1 本地 + L2 Redis）命中指标
type CacheHandler struct{ d Dependencies }

func NewCacheHandler(d Dependencies) *CacheHandler { return &CacheHandler{d: d} }

func (h *CacheHandler) layered() *cache.LayeredCache {
	lc, _ := h.d.Cache.(*cache.LayeredCache)
	return lc
}

func (h *CacheHandler) Metrics(c *gin.Context) {
	var m interface{} = gin.H{}
	if lc := h.layered(); lc != nil {
		m = lc.SnapshotMetrics()
	}
	c.Set("resp", gin.H{"data": gin.H{"layered": m}})
	c.Status(http.StatusOK)
}

func (h *CacheHandler) Reset(c *gin.Context) {
	if lc := h.layered(); lc != nil {
		lc.ResetMetrics()
	}
	c.Set("resp", gin.H{"data": gin.H{}})
	c.Status(http.StatusOK)
}
