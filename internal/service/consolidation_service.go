package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/logging"
	"go-storefront/internal/metrics"
	"go-storefront/internal/repository/dao"

	"go.uber.org/zap"
)

// LegacyReader 旧表只读访问（dao.LegacyLogDAO 实现）
type LegacyReader interface {
	CountAdminLogs(ctx context.Context) (int64, error)
	CountWebsiteUpdates(ctx context.Context) (int64, error)
	EachAdminLog(ctx context.Context, batch int, fn func([]model.AdminLog) error) error
	EachWebsiteUpdate(ctx context.Context, batch int, fn func([]model.WebsiteUpdate) error) error
}

// ConsolidationStore 统一表回填所需操作（dao.AuditEventDAO 实现）
type ConsolidationStore interface {
	CreateMigrated(ctx context.Context, e *model.AuditEvent) error
	MigratedLegacyIDs(ctx context.Context, source string) (map[int64]struct{}, error)
	ExistingAdminIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)
	CountByType(ctx context.Context) (map[model.LogType]int64, error)
}

// SchemaEnsurer 确保 audit_log 存在；失败即中止
type SchemaEnsurer func(ctx context.Context) error

type SourceReport struct {
	Source          string `json:"source"`
	LegacyRows      int64  `json:"legacy_rows"`
	AlreadyMigrated int    `json:"already_migrated"`
	Migrated        int    `json:"migrated"`
	Failed          int    `json:"failed"`
}

type ConsolidationReport struct {
	Sources      []SourceReport          `json:"sources"`
	TotalsByType map[model.LogType]int64 `json:"totals_by_type"`
	Total        int64                   `json:"total"`
	Duration     time.Duration           `json:"duration"`
}

// Failed 所有来源失败行之和
func (r *ConsolidationReport) Failed() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Failed
	}
	return n
}

type ConsolidationService struct {
	Legacy    LegacyReader
	Store     ConsolidationStore
	Ensure    SchemaEnsurer
	Logger    *logging.Logger
	BatchSize int
	now       func() time.Time
}

func NewConsolidationService(legacy LegacyReader, store ConsolidationStore, ensure SchemaEnsurer, lg *logging.Logger) *ConsolidationService {
	if lg == nil {
		lg = logging.NewNop()
	}
	return &ConsolidationService{Legacy: legacy, Store: store, Ensure: ensure, Logger: lg, BatchSize: 500, now: time.Now}
}

// Run 单行失败记录后继续；建表失败直接返回错误。需外部保证同一时刻只有一个实例运行
func (s *ConsolidationService) Run(ctx context.Context) (*ConsolidationReport, error) {
	start := s.now()
	if s.Ensure != nil {
		if err := s.Ensure(ctx); err != nil {
			return nil, fmt.Errorf("ensure audit_log schema: %w", err)
		}
	}
	rep := &ConsolidationReport{}

	adminRep, err := s.migrateAdminLogs(ctx)
	if err != nil {
		return nil, err
	}
	rep.Sources = append(rep.Sources, adminRep)

	updRep, err := s.migrateWebsiteUpdates(ctx)
	if err != nil {
		return nil, err
	}
	rep.Sources = append(rep.Sources, updRep)

	totals, err := s.Store.CountByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("count audit_log by type: %w", err)
	}
	rep.TotalsByType = totals
	for _, n := range totals {
		rep.Total += n
	}
	rep.Duration = s.now().Sub(start)
	s.Logger.Info("consolidation_done",
		zap.Int64("total", rep.Total),
		zap.Int("failed", rep.Failed()),
		zap.Duration("duration", rep.Duration))
	return rep, nil
}

func (s *ConsolidationService) migrateAdminLogs(ctx context.Context) (SourceReport, error) {
	src := model.LegacySourceAdminLogs
	rep := SourceReport{Source: src}
	n, err := s.Legacy.CountAdminLogs(ctx)
	if err != nil {
		return rep, fmt.Errorf("count %s: %w", src, err)
	}
	rep.LegacyRows = n
	done, err := s.Store.MigratedLegacyIDs(ctx, src)
	if err != nil {
		return rep, err
	}
	admins := newAdminResolver(s.Store)

	err = s.Legacy.EachAdminLog(ctx, s.BatchSize, func(rows []model.AdminLog) error {
		pending := make([]model.AdminLog, 0, len(rows))
		for _, r := range rows {
			if _, ok := done[r.ID]; ok {
				rep.AlreadyMigrated++
				metrics.ConsolidationRows.WithLabelValues(src, "skipped").Inc()
				continue
			}
			pending = append(pending, r)
		}
		if len(pending) == 0 {
			return nil
		}
		if err := admins.load(ctx, pending); err != nil {
			// 整批计失败，继续下一批
			rep.Failed += len(pending)
			metrics.ConsolidationRows.WithLabelValues(src, "failed").Add(float64(len(pending)))
			s.Logger.Error("consolidation_batch_failed", zap.String("source", src), zap.Int("rows", len(pending)), zap.Error(err))
			return nil
		}
		for _, r := range pending {
			e := s.fromAdminLog(r, admins)
			s.insert(ctx, src, r.ID, e, &rep, done)
		}
		return nil
	})
	if err != nil {
		return rep, err
	}
	s.logSource(rep)
	return rep, nil
}

func (s *ConsolidationService) migrateWebsiteUpdates(ctx context.Context) (SourceReport, error) {
	src := model.LegacySourceWebsiteUpdates
	rep := SourceReport{Source: src}
	n, err := s.Legacy.CountWebsiteUpdates(ctx)
	if err != nil {
		return rep, fmt.Errorf("count %s: %w", src, err)
	}
	rep.LegacyRows = n
	done, err := s.Store.MigratedLegacyIDs(ctx, src)
	if err != nil {
		return rep, err
	}
	err = s.Legacy.EachWebsiteUpdate(ctx, s.BatchSize, func(rows []model.WebsiteUpdate) error {
		for _, r := range rows {
			if _, ok := done[r.ID]; ok {
				rep.AlreadyMigrated++
				metrics.ConsolidationRows.WithLabelValues(src, "skipped").Inc()
				continue
			}
			s.insert(ctx, src, r.ID, s.fromWebsiteUpdate(r), &rep, done)
		}
		return nil
	})
	if err != nil {
		return rep, err
	}
	s.logSource(rep)
	return rep, nil
}

func (s *ConsolidationService) insert(ctx context.Context, src string, legacyID int64, e *model.AuditEvent, rep *SourceReport, done map[int64]struct{}) {
	err := s.Store.CreateMigrated(ctx, e)
	switch {
	case err == nil:
		rep.Migrated++
		done[legacyID] = struct{}{}
		metrics.ConsolidationRows.WithLabelValues(src, "migrated").Inc()
	case errors.Is(err, dao.ErrDuplicate):
		// 并发运行时另一实例已写入
		rep.AlreadyMigrated++
		done[legacyID] = struct{}{}
		metrics.ConsolidationRows.WithLabelValues(src, "skipped").Inc()
	default:
		rep.Failed++
		metrics.ConsolidationRows.WithLabelValues(src, "failed").Inc()
		s.Logger.Error("consolidation_row_failed", zap.String("source", src), zap.Int64("legacy_id", legacyID), zap.Error(err))
	}
}

func (s *ConsolidationService) logSource(rep SourceReport) {
	s.Logger.Info("consolidation_source_done",
		zap.String("source", rep.Source),
		zap.Int64("legacy_rows", rep.LegacyRows),
		zap.Int("already_migrated", rep.AlreadyMigrated),
		zap.Int("migrated", rep.Migrated),
		zap.Int("failed", rep.Failed))
}

func (s *ConsolidationService) fromAdminLog(r model.AdminLog, admins *adminResolver) *model.AuditEvent {
	src, id := model.LegacySourceAdminLogs, r.ID
	title := r.Action
	if title == "" {
		title = fmt.Sprintf("%s #%d", src, r.ID)
	}
	return &model.AuditEvent{
		AdminID:      admins.resolve(r.AdminID),
		LogType:      model.LogTypeAction,
		Category:     CategoryAdmin,
		ActionType:   clip(ParseActionType(r.Action), shortFieldMax),
		Title:        title,
		Description:  r.Details,
		Details:      r.Details,
		IPAddress:    clip(r.IPAddress, shortFieldMax),
		CreatedAt:    s.createdAt(r.CreatedAt),
		LegacySource: &src,
		LegacyID:     &id,
	}
}

func (s *ConsolidationService) fromWebsiteUpdate(r model.WebsiteUpdate) *model.AuditEvent {
	src, id := model.LegacySourceWebsiteUpdates, r.ID
	category := clip(r.Category, shortFieldMax)
	if category == "" {
		category = "General"
	}
	title := r.Title
	if title == "" {
		title = fmt.Sprintf("%s #%d", src, r.ID)
	}
	return &model.AuditEvent{
		LogType:      model.LogTypeChange,
		Category:     category,
		ActionType:   clip(r.ActionType, shortFieldMax),
		Title:        title,
		Description:  r.Description,
		CreatedAt:    s.createdAt(r.CreatedAt),
		LegacySource: &src,
		LegacyID:     &id,
	}
}

// createdAt 旧表时间原样保留；缺失时才使用迁移时间
func (s *ConsolidationService) createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

// adminResolver 已删除管理员的引用迁移后置空
type adminResolver struct {
	store ConsolidationStore
	known map[int64]bool
}

func newAdminResolver(store ConsolidationStore) *adminResolver {
	return &adminResolver{store: store, known: map[int64]bool{}}
}

func (a *adminResolver) load(ctx context.Context, rows []model.AdminLog) error {
	var ids []int64
	for _, r := range rows {
		if r.AdminID == nil {
			continue
		}
		if _, ok := a.known[*r.AdminID]; !ok {
			ids = append(ids, *r.AdminID)
			a.known[*r.AdminID] = false
		}
	}
	if len(ids) == 0 {
		return nil
	}
	found, err := a.store.ExistingAdminIDs(ctx, ids)
	if err != nil {
		for _, id := range ids {
			delete(a.known, id)
		}
		return err
	}
	for id := range found {
		a.known[id] = true
	}
	return nil
}

func (a *adminResolver) resolve(id *int64) *int64 {
	if id == nil || !a.known[*id] {
		return nil
	}
	v := *id
	return &v
}
