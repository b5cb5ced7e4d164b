package boot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go-storefront/internal/config"
	"go-storefront/internal/consumer/auditlog"
	"go-storefront/internal/discovery/etcd"
	"go-storefront/internal/logging"
	"go-storefront/internal/metrics"
	"go-storefront/internal/mq/kafka"
	"go-storefront/internal/pkg/cache"
	"go-storefront/internal/repository/dao"
	"go-storefront/internal/repository/postgres"
	redisrepo "go-storefront/internal/repository/redis"
	jwtsec "go-storefront/internal/security/jwt"
	"go-storefront/internal/security/screen"
	"go-storefront/internal/security/session"
	"go-storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"
	go_otel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
	"google.golang.org/grpc/credentials"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

type App struct {
	Config *config.Config
	Logger *logging.Logger
	DB     *gorm.DB
	Redis  *redisrepo.Client
	Kafka  *kafka.Producer
	Sender *kafka.AsyncSender
	Etcd   *etcd.Client
	JWT    *jwtsec.Manager
	HTTP   *gin.Engine

	mu         sync.Mutex
	serviceKey string
	leaseID    clientv3.LeaseID
	tracerProv *trace.TracerProvider
	stopCh     chan struct{}
	closeOnce  sync.Once
}

// ConsumerApp 审计主题消费进程
type ConsumerApp struct {
	Config   *config.Config
	Logger   *logging.Logger
	DB       *gorm.DB
	Redis    *redisrepo.Client
	Consumer *kafka.Consumer
	Handler  *auditlog.Handler
}

// Run 阻塞直到 ctx 取消
func (a *ConsumerApp) Run(ctx context.Context) error {
	if a.Consumer == nil {
		return errors.New("kafka.brokers and kafka.audit_topic are required")
	}
	installPropagator()
	a.Logger.Info("audit_consumer_start",
		zap.Strings("brokers", a.Config.Kafka.Brokers),
		zap.String("topic", a.Config.Kafka.AuditTopic),
		zap.String("group", a.Config.Kafka.GroupID))
	return auditlog.Run(ctx, a.Consumer, a.Handler)
}

func (a *ConsumerApp) Close() {
	if a.Consumer != nil {
		logClose(a.Logger, "kafka_consumer", a.Consumer.Close())
	}
	closeDB(a.Logger, a.DB)
	if a.Redis != nil {
		logClose(a.Logger, "redis", a.Redis.Close())
	}
}

// Consolidator 一次性迁移 legacy 日志表
type Consolidator struct {
	Config  *config.Config
	Logger  *logging.Logger
	DB      *gorm.DB
	Service *service.ConsolidationService
}

func (c *Consolidator) Close() { closeDB(c.Logger, c.DB) }

// Provider constructors for wire
func NewLogger(c *config.Config) (*logging.Logger, error) {
	return logging.New(c.Log.Level, c.Log.Format)
}

// NewPostgres auto_migrate 打开时先执行迁移
func NewPostgres(c *config.Config, l *logging.Logger) (*gorm.DB, error) {
	if c.Postgres.AutoMigrate {
		if err := postgres.RunMigrations(c.Postgres.DSN, l.Logger); err != nil {
			return nil, err
		}
	}
	return postgres.New(postgres.Config{DSN: c.Postgres.DSN, MaxOpen: c.Postgres.MaxOpen, MaxIdle: c.Postgres.MaxIdle})
}

func NewRedis(c *config.Config) *redisrepo.Client {
	return redisrepo.New(redisrepo.Config{Addr: c.Redis.Addr, Password: c.Redis.Password, DB: c.Redis.DB})
}

// NewKafkaProducer 未配置 broker 时返回 nil
func NewKafkaProducer(c *config.Config) *kafka.Producer {
	if !c.KafkaEnabled() {
		return nil
	}
	return kafka.NewProducer(kafka.Config{Brokers: c.Kafka.Brokers, Topic: c.Kafka.AuditTopic})
}

func NewAsyncSender(c *config.Config, p *kafka.Producer, l *logging.Logger) *kafka.AsyncSender {
	if p == nil {
		return nil
	}
	s := kafka.NewAsyncSender(p, l, kafka.AsyncOptions{
		QueueSize: c.Kafka.AsyncQueue,
		Workers:   c.Kafka.AsyncWorkers,
		MaxBatch:  c.Kafka.AsyncBatch,
		MaxWait:   time.Duration(c.Kafka.AsyncWaitMS) * time.Millisecond,
	})
	s.Start()
	return s
}

// NewAuditConsumer 未配置 broker 时返回 nil
func NewAuditConsumer(c *config.Config, l *logging.Logger) *kafka.Consumer {
	if !c.KafkaEnabled() {
		return nil
	}
	return kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: c.Kafka.Brokers,
		GroupID: c.Kafka.GroupID,
		Topics:  []string{c.Kafka.AuditTopic},
	}, l)
}

// NewEtcd 未配置 endpoints 时返回 nil
func NewEtcd(c *config.Config) (*etcd.Client, error) {
	if len(c.Etcd.Endpoints) == 0 {
		return nil, nil
	}
	return etcd.New(etcd.Config{Endpoints: c.Etcd.Endpoints, TTL: c.Etcd.TTL})
}

func NewJWTManager(c *config.Config) *jwtsec.Manager {
	return jwtsec.NewManager(c.JWT.Secret, c.JWT.ExpireSeconds, c.JWT.Issuer)
}

func NewAuditService(store *dao.AuditEventDAO, c cache.Cache, l *logging.Logger, cfg *config.Config) *service.AuditService {
	return service.NewAuditService(store, c, l, service.AuditOptions{
		PageSize: cfg.Audit.PageSize,
		MaxLimit: cfg.Audit.MaxLimit,
		StatsTTL: cfg.StatsCacheTTL(),
	})
}

func NewCatalogService(p *dao.ProductDAO, audit *service.AuditService, l *logging.Logger) *service.CatalogService {
	return service.NewCatalogService(p, audit, l)
}

func NewGuestCartStore(r *redisrepo.Client, c *config.Config) *redisrepo.GuestCartStore {
	return redisrepo.NewGuestCartStore(r, c.GuestCartTTL())
}

func NewCartService(g *redisrepo.GuestCartStore, u *dao.CartItemDAO, p *dao.ProductDAO, l *logging.Logger, c *config.Config) *service.CartService {
	return service.NewCartService(g, u, p, l, c.Cart.MaxQuantity)
}

func NewGuestSessions(c *config.Config) *session.GuestStore {
	return session.NewGuestStore(c.Session.Secret, c.Session.Name, c.Session.MaxAgeSec, c.AppMeta.Env == "prod")
}

func NewScreener(audit *service.AuditService, l *logging.Logger) *screen.Screener {
	return screen.New(audit, l)
}

// NewConsolidationService 目标表缺失时按迁移补齐
func NewConsolidationService(legacy *dao.LegacyLogDAO, store *dao.AuditEventDAO, c *config.Config, l *logging.Logger) *service.ConsolidationService {
	ensure := func(context.Context) error { return postgres.RunMigrations(c.Postgres.DSN, l.Logger) }
	return service.NewConsolidationService(legacy, store, ensure, l)
}

func NewAuditHandler(audit *service.AuditService, l *logging.Logger) *auditlog.Handler {
	return auditlog.NewHandler(audit, l)
}

func NewApp(c *config.Config, l *logging.Logger, db *gorm.DB, r *redisrepo.Client, k *kafka.Producer, s *kafka.AsyncSender, e *etcd.Client, j *jwtsec.Manager, engine *gin.Engine) *App {
	app := &App{Config: c, Logger: l, DB: db, Redis: r, Kafka: k, Sender: s, Etcd: e, JWT: j, HTTP: engine, stopCh: make(chan struct{})}
	installPropagator()
	if r != nil {
		app.pingRedis()
		go app.redisHeartbeat()
	}
	if e != nil {
		go app.register()
	}
	if c.OTel.Enable {
		app.initTracing()
	}
	return app
}

// installPropagator W3C tracecontext，HTTP 与 Kafka 头共用
func installPropagator() {
	go_otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
}

func (a *App) pingTimeout() time.Duration {
	return time.Duration(a.Config.Redis.PingTimeoutMS) * time.Millisecond
}

// pingRedis 启动时探测一次，失败只告警
func (a *App) pingRedis() {
	ctx, cancel := context.WithTimeout(context.Background(), a.pingTimeout())
	defer cancel()
	if err := a.Redis.Ping(ctx); err != nil {
		metrics.RedisUp.Set(0)
		a.Logger.Error("redis_ping_failed", zap.Error(err), zap.String("addr", a.Config.Redis.Addr))
		return
	}
	metrics.RedisUp.Set(1)
	a.Logger.Info("redis_ping_ok", zap.String("addr", a.Config.Redis.Addr))
}

// redisHeartbeat 只在状态切换时打日志
func (a *App) redisHeartbeat() {
	interval := time.Duration(a.Config.Redis.HeartbeatSec) * time.Second
	if interval < 2*time.Second {
		interval = 2 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	lastUp := true
	for {
		select {
		case <-a.stopCh:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), a.pingTimeout())
			err := a.Redis.Ping(ctx)
			cancel()
			if err != nil {
				metrics.RedisUp.Set(0)
				if lastUp {
					a.Logger.Warn("redis_down", zap.Error(err))
				}
				lastUp = false
				continue
			}
			metrics.RedisUp.Set(1)
			if !lastUp {
				a.Logger.Info("redis_recovered")
			}
			lastUp = true
		}
	}
}

// serviceKey /services/storefront/{env}/{version}/{ip}:{port}，重启后 key 不变
func serviceKey(c *config.Config, ip string) string {
	port := "0"
	addr := c.HTTP.Addr
	if _, p, err := net.SplitHostPort(addr); err == nil && p != "" {
		port = p
	}
	if ip == "" {
		ip = "127.0.0.1"
	}
	return fmt.Sprintf("/services/storefront/%s/%s/%s", c.AppMeta.Env, c.AppMeta.Version, net.JoinHostPort(ip, port))
}

// register 注册后守护租约，续约中断时用同一 key/value 重新注册
func (a *App) register() {
	c := a.Config
	ip := firstNonLoopbackIPv4()
	key := serviceKey(c, ip)
	val, _ := json.Marshal(map[string]interface{}{
		"instance_id":  uuid.New().String(),
		"env":          c.AppMeta.Env,
		"version":      c.AppMeta.Version,
		"ip":           ip,
		"addr":         c.HTTP.Addr,
		"startup_unix": time.Now().Unix(),
	})
	for {
		lease, ok := a.registerOnce(key, string(val))
		if !ok {
			return
		}
		select {
		case <-a.stopCh:
			return
		case <-lease.Lost:
		}
		select {
		case <-a.stopCh:
			return
		default:
		}
		metrics.EtcdUp.Set(0)
		a.Logger.Warn("etcd_lease_lost", zap.String("key", key))
	}
}

// registerOnce 指数退避，最多 5 次
func (a *App) registerOnce(key, val string) (etcd.Lease, bool) {
	const maxAttempts = 5
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		lease, err := a.Etcd.Register(ctx, key, val, int64(a.Config.Etcd.TTL))
		cancel()
		if err == nil {
			a.mu.Lock()
			a.serviceKey, a.leaseID = key, lease.ID
			a.mu.Unlock()
			metrics.EtcdUp.Set(1)
			a.Logger.Info("etcd_registered", zap.String("key", key))
			return lease, true
		}
		if attempt >= maxAttempts {
			metrics.EtcdUp.Set(0)
			a.Logger.Error("etcd_register_failed", zap.Error(err), zap.Int("attempt", attempt))
			return etcd.Lease{}, false
		}
		backoff := time.Duration(1<<attempt) * 100 * time.Millisecond
		a.Logger.Warn("etcd_register_retry", zap.Error(err), zap.Int("attempt", attempt), zap.Duration("backoff", backoff))
		select {
		case <-a.stopCh:
			return etcd.Lease{}, false
		case <-time.After(backoff):
		}
	}
}

// initTracing OTLP gRPC 导出；失败只记录，不阻断启动
func (a *App) initTracing() {
	c := a.Config
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.OTel.Endpoint)}
	if c.OTel.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}
	exp, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		a.Logger.Error("otel_exporter_init_failed", zap.Error(err))
		return
	}
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(c.AppMeta.Name),
		semconv.ServiceVersionKey.String(c.AppMeta.Version),
		semconv.DeploymentEnvironmentKey.String(c.AppMeta.Env),
	))
	sampler := trace.ParentBased(trace.TraceIDRatioBased(c.OTel.SamplerRatio))
	a.tracerProv = trace.NewTracerProvider(trace.WithBatcher(exp), trace.WithResource(res), trace.WithSampler(sampler))
	go_otel.SetTracerProvider(a.tracerProv)
	a.Logger.Info("otel_tracer_provider_initialized", zap.String("endpoint", c.OTel.Endpoint))
	if a.DB != nil {
		if err := a.DB.Use(tracing.NewPlugin()); err != nil {
			a.Logger.Error("gorm_tracing_plugin_failed", zap.Error(err))
		}
	}
}

// Close 先停发送器再关连接，保证队列里的审计事件有机会写出
func (a *App) Close() {
	a.closeOnce.Do(a.close)
}

func (a *App) close() {
	close(a.stopCh)
	if a.Sender != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		logClose(a.Logger, "audit_sender", a.Sender.Close(ctx))
		cancel()
	}
	if a.Kafka != nil {
		logClose(a.Logger, "kafka", a.Kafka.Close())
	}
	if a.Etcd != nil {
		a.mu.Lock()
		key, lease := a.serviceKey, a.leaseID
		a.mu.Unlock()
		if key != "" && lease != 0 {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			a.Etcd.Deregister(ctx, key, lease)
			cancel()
			metrics.EtcdUp.Set(0)
		}
		logClose(a.Logger, "etcd", a.Etcd.Close())
	}
	closeDB(a.Logger, a.DB)
	if a.Redis != nil {
		logClose(a.Logger, "redis", a.Redis.Close())
	}
	if a.tracerProv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		logClose(a.Logger, "otel_tracer", a.tracerProv.Shutdown(ctx))
		cancel()
	}
}

func closeDB(l *logging.Logger, db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		logClose(l, "db", sqlDB.Close())
	}
}

func logClose(l *logging.Logger, what string, err error) {
	if err != nil {
		l.Error(what+"_close_error", zap.Error(err))
	}
}

// 获取首个非 loopback IPv4
func firstNonLoopbackIPv4() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip4 := ip.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return ""
}
