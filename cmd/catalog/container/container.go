package container

import (
	"github.com/openshelf/catalog/cmd/catalog/repository"
	"github.com/openshelf/catalog/cmd/catalog/service"
	"github.com/openshelf/catalog/common/bootstrap"
	"github.com/openshelf/catalog/common/ratelimit"
	rediscommon "github.com/openshelf/catalog/common/redis"
	commonrepo "github.com/openshelf/catalog/common/repository"
	"github.com/redis/go-redis/v9"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Redis      *rediscommon.Client
	Limiter    *ratelimit.Limiter

	// Repositories
	EditionRepo      *repository.EditionRepository
	WorkRepo         *repository.WorkRepository
	RevisionRepo     *repository.RevisionRepository
	LookupRepo       *repository.LookupRepository
	EditorRepo       *commonrepo.EditorRepository
	SubscriptionRepo *commonrepo.SubscriptionRepository
	NotificationRepo *commonrepo.NotificationRepository

	// Services
	EditionService  *service.EditionService
	WorkService     *service.WorkService
	RevisionService *service.RevisionService
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components, redisRaw *redis.Client) (*Container, error) {
	var redisClient *rediscommon.Client
	var limiter *ratelimit.Limiter
	if redisRaw != nil {
		redisClient = rediscommon.NewClient(redisRaw, components.Logger)
		if components.Config.RateLimit.Enabled {
			limiter = ratelimit.NewLimiter(redisClient)
		}
	}

	// Initialize repositories
	editionRepo := repository.NewEditionRepository(components.DB)
	workRepo := repository.NewWorkRepository(components.DB)
	revisionRepo := repository.NewRevisionRepository(components.DB)
	lookupRepo := repository.NewLookupRepository(components.DB, components.Cache, components.Logger)
	editorRepo := commonrepo.NewEditorRepository(components.DB)
	subscriptionRepo := commonrepo.NewSubscriptionRepository(components.DB)
	notificationRepo := commonrepo.NewNotificationRepository(components.DB)

	// Initialize services (bottom-up: dependencies first)
	editionService := service.NewEditionService(&service.EditionServiceOpts{
		Store:   editionRepo,
		Queue:   components.Queue,
		Topic:   components.Config.Queue.Topic,
		Metrics: components.Metrics,
		Logger:  components.Logger,
	})

	workService := service.NewWorkService(&service.WorkServiceOpts{
		Store:   workRepo,
		Queue:   components.Queue,
		Topic:   components.Config.Queue.Topic,
		Metrics: components.Metrics,
		Logger:  components.Logger,
	})

	revisionService := service.NewRevisionService(revisionRepo, components.Logger)

	return &Container{
		Components:       components,
		Redis:            redisClient,
		Limiter:          limiter,
		EditionRepo:      editionRepo,
		WorkRepo:         workRepo,
		RevisionRepo:     revisionRepo,
		LookupRepo:       lookupRepo,
		EditorRepo:       editorRepo,
		SubscriptionRepo: subscriptionRepo,
		NotificationRepo: notificationRepo,
		EditionService:   editionService,
		WorkService:      workService,
		RevisionService:  revisionService,
	}, nil
}
