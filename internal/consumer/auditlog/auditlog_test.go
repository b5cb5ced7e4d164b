package auditlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/logging"
	"go-storefront/internal/mq/kafka"
	"go-storefront/internal/service"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	got []service.AuditEntry
	err error
}

func (f *fakeWriter) LogAuditEvent(_ context.Context, e service.AuditEntry) (*model.AuditEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if !e.LogType.Valid() {
		return nil, &service.ValidationError{Field: "log_type", Reason: "bad", Err: service.ErrInvalidLogType}
	}
	f.got = append(f.got, e)
	return &model.AuditEvent{ID: int64(len(f.got))}, nil
}

type fakeQueue struct {
	accept bool
	msgs   []kafka.AsyncMessage
}

func (q *fakeQueue) Enqueue(m kafka.AsyncMessage) bool {
	if !q.accept {
		return false
	}
	q.msgs = append(q.msgs, m)
	return true
}

type recordSink struct{ got []service.AuditEntry }

func (r *recordSink) Emit(_ context.Context, e service.AuditEntry) error {
	r.got = append(r.got, e)
	return nil
}

func sampleEntry() service.AuditEntry {
	id := int64(7)
	return service.AuditEntry{
		AdminID:    &id,
		LogType:    model.LogTypeAction,
		Category:   "Product",
		ActionType: "editPrice",
		Title:      "EditPrice Product",
		IPAddress:  "10.0.0.1",
	}
}

func TestMessage_EntryKeepsFields(t *testing.T) {
	e := sampleEntry()
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	b, err := FromEntry(e, "trace-1", at).Encode()
	require.NoError(t, err)

	m, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "trace-1", m.TraceID)
	assert.Equal(t, "2026-03-10T09:00:00Z", m.Time)
	assert.Equal(t, e, m.Entry())
}

func TestKafkaSink_Enqueues(t *testing.T) {
	q := &fakeQueue{accept: true}
	fb := &recordSink{}
	s := newKafkaSink(q, fb, nil)
	ctx := context.WithValue(context.Background(), logging.TraceIDKey, "abc")

	require.NoError(t, s.Emit(ctx, sampleEntry()))
	require.Len(t, q.msgs, 1)
	assert.Equal(t, []byte("7"), q.msgs[0].Key)
	assert.Equal(t, "abc", q.msgs[0].Headers["trace_id"])
	assert.Equal(t, "ACTION", q.msgs[0].Headers["log_type"])
	assert.Empty(t, fb.got)

	m, err := Decode(q.msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "Product", m.Category)
}

func TestKafkaSink_FallsBackWhenQueueFull(t *testing.T) {
	q := &fakeQueue{accept: false}
	fb := &recordSink{}
	s := newKafkaSink(q, fb, nil)

	require.NoError(t, s.Emit(context.Background(), sampleEntry()))
	assert.Empty(t, q.msgs)
	require.Len(t, fb.got, 1)
	assert.Equal(t, "Product", fb.got[0].Category)
}

func TestHandler_PersistsValidMessage(t *testing.T) {
	w := &fakeWriter{}
	h := &Handler{Audit: w, Logger: logging.NewNop()}
	b, _ := FromEntry(sampleEntry(), "", time.Now()).Encode()

	require.NoError(t, h.Handle(context.Background(), kafkaGo.Message{Value: b}))
	require.Len(t, w.got, 1)
	assert.Equal(t, "EditPrice Product", w.got[0].Title)
}

func TestHandler_SkipsUndecodableAndInvalid(t *testing.T) {
	w := &fakeWriter{}
	h := &Handler{Audit: w, Logger: logging.NewNop()}

	assert.NoError(t, h.Handle(context.Background(), kafkaGo.Message{Value: []byte("{not json")}))

	e := sampleEntry()
	e.LogType = "NOPE"
	b, _ := FromEntry(e, "", time.Now()).Encode()
	assert.NoError(t, h.Handle(context.Background(), kafkaGo.Message{Value: b}))
	assert.Empty(t, w.got)
}

func TestHandler_ReturnsPersistenceError(t *testing.T) {
	boom := errors.New("db down")
	w := &fakeWriter{err: &service.PersistenceError{Op: "log audit event", Err: boom}}
	h := &Handler{Audit: w, Logger: logging.NewNop()}
	b, _ := FromEntry(sampleEntry(), "", time.Now()).Encode()

	err := h.Handle(context.Background(), kafkaGo.Message{Value: b})
	assert.ErrorIs(t, err, boom)
}
