package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParse(t *testing.T) {
	m := NewManager("0123456789abcdef", 60, "storefront")
	tok, err := m.Generate(42, ScopeAdmin, "j1")
	require.NoError(t, err)

	c, err := m.ParseScoped(tok, ScopeAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.SubjectID)
	assert.Equal(t, "j1", c.JTI)
	assert.Equal(t, "storefront", c.Issuer)
}

func TestParseScoped_RejectsOtherScope(t *testing.T) {
	m := NewManager("0123456789abcdef", 60, "storefront")
	tok, err := m.Generate(7, ScopeCustomer, "")
	require.NoError(t, err)

	_, err = m.ParseScoped(tok, ScopeAdmin)
	assert.ErrorIs(t, err, ErrScope)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := NewManager("0123456789abcdef", 60, "a").Generate(1, ScopeAdmin, "")
	require.NoError(t, err)
	_, err = NewManager("fedcba9876543210", 60, "a").Parse(tok)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	m := NewManager("0123456789abcdef", -1, "a")
	tok, err := m.Generate(1, ScopeAdmin, "")
	require.NoError(t, err)
	_, err = m.Parse(tok)
	assert.Error(t, err)
}
