package boot

import (
	"go-storefront/internal/config"
	"go-storefront/internal/consumer/auditlog"
	"go-storefront/internal/discovery/etcd"
	"go-storefront/internal/logging"
	"go-storefront/internal/mq/kafka"
	"go-storefront/internal/pkg/cache"
	"go-storefront/internal/repository/dao"
	redisrepo "go-storefront/internal/repository/redis"
	jwtsec "go-storefront/internal/security/jwt"
	"go-storefront/internal/security/screen"
	"go-storefront/internal/security/session"
	httpSrv "go-storefront/internal/server/http"
	handlerset "go-storefront/internal/server/http/handler"
	adminh "go-storefront/internal/server/http/handler/admin"
	debugh "go-storefront/internal/server/http/handler/debug"
	shoph "go-storefront/internal/server/http/handler/shop"
	"go-storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"gorm.io/gorm"
)

// ProvideConfig wraps config.Load for wire with external path param
func ProvideConfig(path string) (*config.Config, error) { return config.Load(path) }

// ProvideLayeredCache L1 本地 + L2 Redis
func ProvideLayeredCache(r *redisrepo.Client) cache.Cache {
	return cache.NewLayered(cache.NewLocal(), cache.NewRedisAdapter(r))
}

// ProvideConsumerCache 消费进程只需让统计缓存失效，直接作用于 Redis
func ProvideConsumerCache(r *redisrepo.Client) cache.Cache { return cache.NewRedisAdapter(r) }

// ProvideAuditSink 有异步发送器走 Kafka，队列满时退回直接写库
func ProvideAuditSink(sender *kafka.AsyncSender, audit *service.AuditService, l *logging.Logger) service.AuditSink {
	direct := service.NewDirectSink(audit)
	if sender == nil {
		return direct
	}
	return auditlog.NewKafkaSink(sender, direct, l)
}

func ProvideHandlerSet(c *config.Config, l *logging.Logger, audit *service.AuditService, catalog *service.CatalogService, cart *service.CartService, sc *screen.Screener, guests *session.GuestStore, lc cache.Cache) *handlerset.HandlerSet {
	ad := adminh.Dependencies{Audit: audit, Catalog: catalog, Screen: sc, Cache: lc, Logger: l}
	sd := shoph.Dependencies{Catalog: catalog, Cart: cart, Guests: guests, Logger: l}
	dbg := debugh.Dependencies{Config: c, Logger: l}
	return handlerset.NewHandlerSet(ad, sd, dbg)
}

func ProvideHealthChecker(db *gorm.DB, r *redisrepo.Client, p *kafka.Producer, e *etcd.Client) *httpSrv.HealthChecker {
	return httpSrv.NewHealthChecker(db, r, p, e)
}

// ProvideRouter 装配路由
func ProvideRouter(j *jwtsec.Manager, l *logging.Logger, hc *httpSrv.HealthChecker, sink service.AuditSink, h *handlerset.HandlerSet) *gin.Engine {
	return httpSrv.NewRouter(j, l, hc, sink, h)
}

func ProvideApp(c *config.Config, l *logging.Logger, db *gorm.DB, r *redisrepo.Client, k *kafka.Producer, s *kafka.AsyncSender, e *etcd.Client, j *jwtsec.Manager, engine *gin.Engine) *App {
	return NewApp(c, l, db, r, k, s, e, j, engine)
}

func ProvideConsumerApp(c *config.Config, l *logging.Logger, db *gorm.DB, r *redisrepo.Client, consumer *kafka.Consumer, h *auditlog.Handler) *ConsumerApp {
	return &ConsumerApp{Config: c, Logger: l, DB: db, Redis: r, Consumer: consumer, Handler: h}
}

func ProvideConsolidator(c *config.Config, l *logging.Logger, db *gorm.DB, svc *service.ConsolidationService) *Consolidator {
	return &Consolidator{Config: c, Logger: l, DB: db, Service: svc}
}

// 服务进程与消费进程共用
var baseSet = wire.NewSet(
	ProvideConfig,
	NewLogger,
	NewPostgres,
	NewRedis,
	dao.NewAuditEventDAO,
	NewAuditService,
)

var ProviderSet = wire.NewSet(
	baseSet,
	NewKafkaProducer,
	NewAsyncSender,
	NewEtcd,
	NewJWTManager,
	ProvideLayeredCache,
	// DAO
	dao.NewProductDAO,
	dao.NewCartItemDAO,
	NewGuestCartStore,
	// Service
	ProvideAuditSink,
	NewCatalogService,
	NewCartService,
	NewGuestSessions,
	NewScreener,
	ProvideHandlerSet,
	ProvideHealthChecker,
	ProvideRouter,
	ProvideApp,
)

var ConsumerSet = wire.NewSet(
	baseSet,
	ProvideConsumerCache,
	NewAuditConsumer,
	NewAuditHandler,
	ProvideConsumerApp,
)

var ConsolidatorSet = wire.NewSet(
	ProvideConfig,
	NewLogger,
	NewPostgres,
	dao.NewLegacyLogDAO,
	dao.NewAuditEventDAO,
	NewConsolidationService,
	ProvideConsolidator,
)
