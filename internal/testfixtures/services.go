package testfixtures

import (
	"time"

	"github.com/example/booking-engine/internal/application"
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

// NewBookingService builds a booking service using the supplied dependencies
// combined with the factory defaults. A zero-valued policy is replaced with
// the standard configuration.
func (f *ServiceFactory) NewBookingService(deps application.BookingServiceDeps) *application.BookingService {
	if deps.IDGenerator == nil {
		deps.IDGenerator = f.IDGenerator.NextFunc()
	}
	if deps.Now == nil {
		deps.Now = f.Clock.NowFunc()
	}
	if deps.Policy == (application.CheckInPolicy{}) {
		deps.Policy = application.DefaultCheckInPolicy()
	}
	return application.NewBookingService(deps)
}

// NewAnalyticsService builds an analytics service using the supplied
// dependencies.
func (f *ServiceFactory) NewAnalyticsService(bookings application.BookingRepository, resources application.ResourceCatalog) *application.AnalyticsService {
	return application.NewAnalyticsService(bookings, resources, nil, nil)
}
