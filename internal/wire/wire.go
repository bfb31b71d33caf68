package wire

import (
	"context"
	"errors"
	log "log/slog"
	"time"

	"Townhall/internal/access"
	"Townhall/internal/api"
	"Townhall/internal/api/config"
	"Townhall/internal/api/handler"
	"Townhall/internal/job"
	"Townhall/internal/pkg/cron"
	"Townhall/internal/pkg/erp"
	"Townhall/internal/pkg/kafka"
	"Townhall/internal/pkg/mongo"
	"Townhall/internal/pkg/realtime"
	"Townhall/internal/pkg/redis"
	"Townhall/internal/repository"
	"Townhall/internal/service"

	"github.com/gin-gonic/gin"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer top-level components the process runs and shuts down
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	Hub          *realtime.Hub
	Fanout       service.FanoutService
	Notify       service.NotifyService
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager
}

// BuildApplication mongoDB may be nil when storage.driver is "memory"
func BuildApplication(ctx context.Context, db *gorm.DB, mongoDB *mongodrv.Database, cfg *config.Config) (*ApplicationContainer, error) {
	postRepo, err := newPostRepo(mongoDB, cfg.Storage.Driver)
	if err != nil {
		return nil, err
	}
	userRepo := repository.NewUserRepo(db)
	userFollowRepo := repository.NewUserFollowRepo(db)

	backplane := realtime.NewRedisBackplane(redis.Rdb)
	hub := realtime.NewHub(ctx, backplane)

	policy := access.NewPolicy(cfg.Feed.ModeratorRoles)
	directory := erp.NewClient(cfg.ERP)

	fanoutService := service.NewFanoutService(backplane, millis(cfg.Feed.FanoutTimeoutMs))
	notifyService := service.NewNotifyService(backplane, cfg.Notify.Channel, cfg.Notify.Service, millis(cfg.Notify.TimeoutMs))
	viewerService := service.NewViewerService(userRepo, directory, policy)
	userService := service.NewUserService(userRepo, directory, viewerService)
	userFollowService := service.NewUserFollowService(userFollowRepo, userRepo)
	postService := service.NewPostService(postRepo, userRepo, fanoutService, notifyService)
	postActionService := service.NewPostActionService(postRepo, userRepo, notifyService)
	feedService := service.NewFeedService(postRepo, userRepo, userFollowService, service.FeedOptions{
		DefaultPageSize:    cfg.Feed.DefaultPageSize,
		MaxPageSize:        cfg.Feed.MaxPageSize,
		TrendingWindowDays: cfg.Feed.TrendingWindowDays,
		TrendingLimit:      cfg.Feed.TrendingLimit,
		RelatedLimit:       cfg.Feed.RelatedLimit,
	})

	handlers := &api.HandlersGroup{
		PostHandler:       handler.NewPostHandler(postService),
		FeedHandler:       handler.NewFeedHandler(feedService),
		PostActionHandler: handler.NewPostActionHandler(postActionService),
		UserHandler:       handler.NewUserHandler(userService),
		UserFollowHandler: handler.NewUserFollowHandler(userFollowService),
		WsHandler:         handler.NewWsHandler(hub, viewerService),
		ViewerService:     viewerService,
	}
	router := api.SetupRouter(handlers, cfg)

	cronMgr := cron.NewCronManager(job.NewDirectorySyncJob(userService), cfg.Cron.DirectorySync)

	var kafkaMgr *kafka.ConsumerManager
	if cfg.KafkaUserConsumer.Enable {
		kafkaMgr, err = kafka.NewConsumerManager(cfg, userService)
		if err != nil {
			return nil, err
		}
	}

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		Hub:          hub,
		Fanout:       fanoutService,
		Notify:       notifyService,
		CronMgr:      cronMgr,
		KafkaManager: kafkaMgr,
	}, nil
}

func newPostRepo(mongoDB *mongodrv.Database, driver string) (repository.PostRepo, error) {
	switch driver {
	case "", "mongo":
		if mongoDB == nil {
			return nil, errors.New("storage driver mongo needs a mongo connection")
		}
		return mongo.NewPostRepo(mongoDB), nil
	case "memory":
		log.Warn("posts are kept in process memory and lost on restart")
		return repository.NewMemoryPostRepo(), nil
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
