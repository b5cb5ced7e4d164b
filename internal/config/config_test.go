package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
http:
  addr: ":8080"
postgres:
  dsn: "host=localhost user=u dbname=d sslmode=disable"
jwt:
  secret: "0123456789abcdef"
  expire_seconds: 60
session:
  secret: "0123456789abcdef0123456789abcdef"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, 50, c.Audit.PageSize)
	assert.Equal(t, 1000, c.Audit.MaxLimit)
	assert.Equal(t, 10*time.Second, c.StatsCacheTTL())
	assert.Equal(t, 72*time.Hour, c.GuestCartTTL())
	assert.Equal(t, 99, c.Cart.MaxQuantity)
	assert.Equal(t, "storefront.audit", c.Kafka.AuditTopic)
	assert.False(t, c.KafkaEnabled())
}

func TestLoad_KafkaEnabled(t *testing.T) {
	c, err := Load(writeConfig(t, baseYAML+`
kafka:
  brokers: ["127.0.0.1:9092"]
`))
	require.NoError(t, err)
	assert.True(t, c.KafkaEnabled())
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"max limit above cap": baseYAML + "audit:\n  max_limit: 5000\n",
		"page size above max": baseYAML + "audit:\n  max_limit: 10\n  page_size: 20\n",
		"short jwt secret":    "http:\n  addr: \":1\"\npostgres:\n  dsn: x\njwt:\n  secret: short\n  expire_seconds: 1\n",
		"otel without target": baseYAML + "otel:\n  enable: true\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
