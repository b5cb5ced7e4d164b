package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-storefront/internal/util/retcode"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseWrapper_FillsEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ResponseWrapper())
	r.GET("/x", func(c *gin.Context) { c.Set(RespKey, gin.H{"data": gin.H{"n": 1}}) })
	r.GET("/direct", func(c *gin.Context) { c.JSON(200, gin.H{"code": -3}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.EqualValues(t, retcode.SUCCESS, out["code"])
	assert.Equal(t, "success", out["msg"])
	assert.Equal(t, map[string]interface{}{"n": float64(1)}, out["data"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/direct", nil))
	assert.JSONEq(t, `{"code":-3}`, w.Body.String())
}
