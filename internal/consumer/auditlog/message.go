package auditlog

import (
	"encoding/json"
	"time"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/service"
)

// Message 审计主题上的 JSON 载荷
type Message struct {
	AdminID     *int64 `json:"admin_id,omitempty"`
	LogType     string `json:"log_type"`
	Category    string `json:"category"`
	ActionType  string `json:"action_type,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	EntityID    *int64 `json:"entity_id,omitempty"`
	EntityName  string `json:"entity_name,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	Details     string `json:"details,omitempty"`
	TraceID     string `json:"trace_id,omitempty"`
	Time        string `json:"time"`
}

func FromEntry(e service.AuditEntry, traceID string, at time.Time) Message {
	return Message{
		AdminID:     e.AdminID,
		LogType:     string(e.LogType),
		Category:    e.Category,
		ActionType:  e.ActionType,
		Title:       e.Title,
		Description: e.Description,
		EntityID:    e.EntityID,
		EntityName:  e.EntityName,
		IPAddress:   e.IPAddress,
		Details:     e.Details,
		TraceID:     traceID,
		Time:        at.UTC().Format(time.RFC3339Nano),
	}
}

// Entry 转回写入参数；log_type 大小写按原样，由 LogAuditEvent 校验
func (m Message) Entry() service.AuditEntry {
	return service.AuditEntry{
		AdminID:     m.AdminID,
		LogType:     model.LogType(m.LogType),
		Category:    m.Category,
		ActionType:  m.ActionType,
		Title:       m.Title,
		Description: m.Description,
		EntityID:    m.EntityID,
		EntityName:  m.EntityName,
		IPAddress:   m.IPAddress,
		Details:     m.Details,
	}
}

func Decode(b []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(b, &m)
	return m, err
}

func (m Message) Encode() ([]byte, error) { return json.Marshal(m) }
