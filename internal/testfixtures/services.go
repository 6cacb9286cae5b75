package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/postpilot/internal/application"
	"github.com/example/postpilot/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Users          persistence.UserRepository
	Sessions       persistence.SessionRepository
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	token := deps.TokenGenerator
	if token == nil {
		token = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAuthService(
		deps.Users,
		deps.Sessions,
		f.IDGenerator.NextFunc(),
		token,
		now,
		deps.SessionTTL,
		deps.Logger,
	)
}

// DraftServiceDeps captures dependencies for constructing a draft service.
type DraftServiceDeps struct {
	Drafts      persistence.DraftRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewDraftService builds a draft service using the supplied dependencies.
func (f *ServiceFactory) NewDraftService(deps DraftServiceDeps) *application.DraftService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewDraftService(
		deps.Drafts,
		idGen,
		now,
		deps.Logger,
	)
}

// PublishServiceDeps captures dependencies for constructing a publish service.
type PublishServiceDeps struct {
	Drafts      persistence.DraftRepository
	Connections persistence.ConnectionRepository
	Publisher   application.PublishClient
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewPublishService builds a publish service using the supplied dependencies.
func (f *ServiceFactory) NewPublishService(deps PublishServiceDeps) *application.PublishService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewPublishService(
		deps.Drafts,
		deps.Connections,
		deps.Publisher,
		now,
		deps.Logger,
	)
}
