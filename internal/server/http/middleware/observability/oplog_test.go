package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/logging"
	"go-storefront/internal/service"
	"go-storefront/internal/util/retcode"
	"go-storefront/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct{ got []service.AuditEntry }

func (r *recordSink) Emit(_ context.Context, e service.AuditEntry) error {
	r.got = append(r.got, e)
	return nil
}

func newOpLogRouter(sink service.AuditSink) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	setAdmin := func(c *gin.Context) { c.Set("admin_id", int64(9)); c.Next() }
	g := r.Group("/admin", setAdmin, OperationLog(sink, logging.NewNop()))
	g.POST("/Product/editPrice", func(c *gin.Context) { response.Success(c, gin.H{"ok": true}) })
	g.POST("/Product/add", func(c *gin.Context) { response.Error(c, retcode.PARAM_INVALID, "bad") })
	g.GET("/Product/changeVisibility", Mutating(), func(c *gin.Context) {
		c.Set("resp", gin.H{"data": gin.H{}})
		c.Status(http.StatusOK)
	})
	g.GET("/AuditLog/index", func(c *gin.Context) { response.Success(c, gin.H{}) })
	return r
}

func TestOperationLog_RecordsSuccessfulMutation(t *testing.T) {
	sink := &recordSink{}
	r := newOpLogRouter(sink)

	body := `{"id":3,"price":"9.90","password":"hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/Product/editPrice?src=ui", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Len(t, sink.got, 1)
	e := sink.got[0]
	assert.Equal(t, model.LogTypeAction, e.LogType)
	assert.Equal(t, "Product", e.Category)
	assert.Equal(t, "editPrice", e.ActionType)
	assert.Equal(t, "EditPrice Product", e.Title)
	require.NotNil(t, e.AdminID)
	assert.Equal(t, int64(9), *e.AdminID)
	assert.Contains(t, e.Details, "query=src=ui")
	assert.Contains(t, e.Details, `"password":"***"`)
	assert.NotContains(t, e.Details, "hunter2")
}

func TestOperationLog_SkipsFailuresAndReads(t *testing.T) {
	sink := &recordSink{}
	r := newOpLogRouter(sink)

	req := httptest.NewRequest(http.MethodPost, "/admin/Product/add", strings.NewReader(`{}`))
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/AuditLog/index", nil))

	assert.Empty(t, sink.got)
}

func TestOperationLog_FlaggedGetWithDeferredResponse(t *testing.T) {
	sink := &recordSink{}
	r := newOpLogRouter(sink)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/Product/changeVisibility?id=1&hidden=1", nil))
	require.Len(t, sink.got, 1)
	assert.Equal(t, "ChangeVisibility Product", sink.got[0].Title)
}

func TestRouteSegments(t *testing.T) {
	cat, verb := routeSegments("/admin/Cache/reset")
	assert.Equal(t, "Cache", cat)
	assert.Equal(t, "reset", verb)

	cat, verb = routeSegments("/admin")
	assert.Equal(t, "", cat)
	assert.Equal(t, "", verb)
}
