package model

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestLogType_Valid(t *testing.T) {
	for _, lt := range LogTypes {
		assert.True(t, lt.Valid(), lt)
	}
	for _, s := range []string{"", "action", "AUDIT", "CHANGE "} {
		assert.False(t, LogType(s).Valid(), s)
	}
}

func TestAuditEvent_DisplayTitle(t *testing.T) {
	short := AuditEvent{Title: "Update price"}
	assert.Equal(t, "Update price", short.DisplayTitle())

	long := AuditEvent{Title: strings.Repeat("é", TitleDisplayMax+10)}
	got := long.DisplayTitle()
	assert.Equal(t, TitleDisplayMax, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
	// 完整值不受影响
	assert.Equal(t, TitleDisplayMax+10, utf8.RuneCountInString(long.Title))
}
