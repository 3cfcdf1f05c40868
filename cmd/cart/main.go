package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	cartapp "github.com/wyfcoding/ecommerce/internal/cart/application"
	cartdomain "github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/internal/cart/infrastructure/messaging"
	cartmysql "github.com/wyfcoding/ecommerce/internal/cart/infrastructure/persistence/mysql"
	cartredis "github.com/wyfcoding/ecommerce/internal/cart/infrastructure/persistence/redis"
	carthttp "github.com/wyfcoding/ecommerce/internal/cart/interfaces/http"
	notifapp "github.com/wyfcoding/ecommerce/internal/notification/application"
	notifdomain "github.com/wyfcoding/ecommerce/internal/notification/domain"
	notifmysql "github.com/wyfcoding/ecommerce/internal/notification/infrastructure/persistence/mysql"
	"github.com/wyfcoding/ecommerce/internal/notification/infrastructure/sender"
	userdomain "github.com/wyfcoding/ecommerce/internal/user/domain"
	usermysql "github.com/wyfcoding/ecommerce/internal/user/infrastructure/persistence/mysql"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/db"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

var configPath = flag.String("config", "configs/cart/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(cfg.Logger); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 3. 初始化基础设施
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Auto Migrate (仅用于开发方便)
	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(
			&cartdomain.Cart{},
			&cartdomain.CartItem{},
			&cartdomain.CartSettings{},
			&userdomain.User{},
			&notifdomain.Notification{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	// 4. 事件发布
	var publisher cartdomain.EventPublisher
	if cfg.Kafka.Enabled {
		producer, err := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			slog.Error("failed to init kafka producer", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = messaging.NewKafkaEventPublisher(producer, cfg.Kafka.CartTopic)
	} else {
		publisher = messaging.NewNopEventPublisher()
	}

	// 5. 初始化仓储
	cartRepo := cartmysql.NewCartRepository(database.DB)
	settingsRepo := cartredis.NewCachedSettingsRepository(
		cartmysql.NewSettingsRepository(database.DB), redisCache, 30*time.Second)
	userRepo := usermysql.NewUserRepository(database.DB)
	notificationRepo := notifmysql.NewNotificationRepository(database.DB)

	// 6. 通知发送器，未启用真实通道时使用 mock
	var emailSender notifdomain.Sender
	if cfg.SMTP.Enabled {
		emailSender = sender.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		emailSender = sender.NewMockEmailSender()
	}
	var smsSender notifdomain.Sender
	if cfg.SMS.Enabled {
		smsSender = sender.NewSMSGatewaySender(cfg.SMS.Endpoint, cfg.SMS.APIKey, cfg.SMS.Sender,
			time.Duration(cfg.SMS.Timeout)*time.Second)
	} else {
		smsSender = sender.NewMockSMSSender()
	}
	notifier := notifapp.NewExpiryNotifier(notificationRepo, emailSender, smsSender)

	// 7. 初始化应用服务与定时任务
	commandSvc := cartapp.NewCartCommandService(cartRepo, settingsRepo, publisher)
	querySvc := cartapp.NewCartQueryService(cartRepo)
	appService := cartapp.NewCartService(commandSvc, querySvc)

	cleanupJob := cartapp.NewExpiryCleanupJob(cartRepo, publisher, slog.With("job", "cart_expiry_cleanup"))
	warningJob := cartapp.NewExpiryWarningJob(cartRepo, userRepo, settingsRepo, notifier, publisher,
		slog.With("job", "cart_expiry_warning"))

	// 启动时校验提醒窗口与生命周期的关系
	if settings, err := settingsRepo.Load(context.Background()); err == nil && settings.WarningWindowExceedsLifetime() {
		slog.Warn("Warning window is not shorter than cart lifetime, warnings will fire immediately",
			"warning_minutes", settings.ExpiryWarningMinutes,
			"expiration_days", settings.CartExpirationDays,
		)
	}

	// 8. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	sys := r.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":    "UP",
				"service":   cfg.ServiceName,
				"timestamp": time.Now().Unix(),
			})
		})
		sys.GET("/ready", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "READY"})
		})
	}

	httpHandler := carthttp.NewCartHandler(appService, settingsRepo, cleanupJob, warningJob)
	httpHandler.RegisterRoutes(r)

	// 9. 启动服务
	g, ctx := errgroup.WithContext(context.Background())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		cleanupJob.Start(ctx)
		return nil
	})

	g.Go(func() error {
		warningJob.Start(ctx)
		return nil
	})

	// 10. 优雅关闭
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
