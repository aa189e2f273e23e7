package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/booking-engine/internal/application"
	"github.com/example/booking-engine/internal/config"
	httptransport "github.com/example/booking-engine/internal/http"
	"github.com/example/booking-engine/internal/persistence"
	"github.com/example/booking-engine/internal/persistence/memory"
	"github.com/example/booking-engine/internal/persistence/sqlite"
	"github.com/example/booking-engine/internal/timeslot"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	displayZone, err := cfg.DisplayLocation()
	if err != nil {
		logger.Error("failed to resolve display timezone", "error", err)
		os.Exit(1)
	}

	storage, err := openStorage(cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	bookingRepo := newBookingRepositoryAdapter(storage.bookings)
	checkInRepo := newCheckInRepositoryAdapter(storage.checkIns)
	resourceDir := newResourceDirectoryAdapter(storage.resources)

	events := application.NewAsyncSink(application.LogSink{Logger: logger}, cfg.EventBuffer, logger)
	defer events.Close()

	bookingService := application.NewBookingService(application.BookingServiceDeps{
		Bookings:  bookingRepo,
		CheckIns:  checkInRepo,
		Resources: resourceDir,
		Policy: application.CheckInPolicy{
			EarlyArrival: cfg.EarlyArrival,
			EntryGrace:   cfg.EntryGrace,
			ReminderLead: cfg.ReminderLead,
		},
		Normalizer:  timeslot.NewNormalizer(displayZone),
		Events:      events,
		LockTimeout: cfg.LockTimeout,
		IDGenerator: uuid.NewString,
		Now:         time.Now,
		Logger:      logger,
	})
	analyticsService := application.NewAnalyticsService(bookingRepo, resourceDir, timeslot.NewNormalizer(displayZone), logger)

	sweeper := application.NewSweeper(bookingService, cfg.SweepInterval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Bookings:  httptransport.NewBookingHandler(bookingService, logger),
		Resources: httptransport.NewResourceHandler(bookingService, cfg.MaxAlternatives, logger),
		Analytics: httptransport.NewAnalyticsHandler(analyticsService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.ResolvePrincipal(),
		},
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// storageSet bundles the repositories of the selected backend with whatever
// teardown the backend needs.
type storageSet struct {
	bookings  persistence.BookingRepository
	checkIns  persistence.CheckInRepository
	resources persistence.ResourceRepository
	close     func() error
}

func openStorage(cfg config.Config, logger *slog.Logger) (storageSet, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		logger.Warn("using in-memory storage, data will not survive a restart")
		store := memory.Open()
		return storageSet{
			bookings:  store,
			checkIns:  store,
			resources: store,
			close:     store.Close,
		}, nil
	default:
		pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(cfg.SQLiteDSN))
		if err != nil {
			return storageSet{}, err
		}
		if err := sqlite.Migrate(context.Background(), pool); err != nil {
			_ = pool.Close()
			return storageSet{}, err
		}
		return storageSet{
			bookings:  sqlite.NewBookingRepository(pool),
			checkIns:  sqlite.NewCheckInRepository(pool),
			resources: sqlite.NewResourceRepository(pool),
			close:     pool.Close,
		}, nil
	}
}

type bookingRepositoryAdapter struct {
	repo persistence.BookingRepository
}

func newBookingRepositoryAdapter(repo persistence.BookingRepository) *bookingRepositoryAdapter {
	return &bookingRepositoryAdapter{repo: repo}
}

func (a *bookingRepositoryAdapter) CreateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	stored, err := a.repo.CreateBooking(ctx, toPersistenceBooking(booking))
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) GetBooking(ctx context.Context, id string) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) UpdateBooking(ctx context.Context, booking application.Booking, expected application.Status) (application.Booking, error) {
	stored, err := a.repo.UpdateBooking(ctx, toPersistenceBooking(booking), string(expected))
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) ListBookings(ctx context.Context, filter application.BookingListFilter) ([]application.Booking, error) {
	persistedFilter := persistence.BookingFilter{
		ResourceID:     filter.ResourceID,
		UserID:         filter.UserID,
		StartsBefore:   filter.StartsBefore,
		EndsAtOrBefore: filter.EndsAtOrBefore,
	}
	for _, status := range filter.Statuses {
		persistedFilter.Statuses = append(persistedFilter.Statuses, string(status))
	}
	if filter.Overlapping != nil {
		start := filter.Overlapping.Start
		end := filter.Overlapping.End
		persistedFilter.OverlapStart = &start
		persistedFilter.OverlapEnd = &end
	}

	models, err := a.repo.ListBookings(ctx, persistedFilter)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings, nil
}

type checkInRepositoryAdapter struct {
	repo persistence.CheckInRepository
}

func newCheckInRepositoryAdapter(repo persistence.CheckInRepository) *checkInRepositoryAdapter {
	return &checkInRepositoryAdapter{repo: repo}
}

func (a *checkInRepositoryAdapter) GetCheckIn(ctx context.Context, bookingID string) (application.CheckInRecord, error) {
	stored, err := a.repo.GetCheckIn(ctx, bookingID)
	if err != nil {
		return application.CheckInRecord{}, err
	}
	return toApplicationCheckIn(stored), nil
}

func (a *checkInRepositoryAdapter) SaveCheckIn(ctx context.Context, record application.CheckInRecord) (application.CheckInRecord, error) {
	stored, err := a.repo.SaveCheckIn(ctx, toPersistenceCheckIn(record))
	if err != nil {
		return application.CheckInRecord{}, err
	}
	return toApplicationCheckIn(stored), nil
}

type resourceDirectoryAdapter struct {
	repo persistence.ResourceRepository
}

func newResourceDirectoryAdapter(repo persistence.ResourceRepository) *resourceDirectoryAdapter {
	return &resourceDirectoryAdapter{repo: repo}
}

func (a *resourceDirectoryAdapter) GetResource(ctx context.Context, id string) (application.Resource, error) {
	stored, err := a.repo.GetResource(ctx, id)
	if err != nil {
		return application.Resource{}, err
	}
	return toApplicationResource(stored), nil
}

func (a *resourceDirectoryAdapter) ListResources(ctx context.Context) ([]application.Resource, error) {
	models, err := a.repo.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	resources := make([]application.Resource, 0, len(models))
	for _, model := range models {
		resources = append(resources, toApplicationResource(model))
	}
	return resources, nil
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	meetingName := ""
	if model.MeetingName != nil {
		meetingName = *model.MeetingName
	}
	purpose := ""
	if model.Purpose != nil {
		purpose = *model.Purpose
	}
	reason := ""
	if model.CancellationReason != nil {
		reason = *model.CancellationReason
	}
	return application.Booking{
		ID:                 model.ID,
		ResourceID:         model.ResourceID,
		UserID:             model.UserID,
		Start:              model.Start,
		End:                model.End,
		Status:             application.Status(model.Status),
		MeetingName:        meetingName,
		Purpose:            purpose,
		ParticipantCount:   model.ParticipantCount,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
		CancelledAt:        cloneTime(model.CancelledAt),
		CancellationReason: reason,
	}
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:                 booking.ID,
		ResourceID:         booking.ResourceID,
		UserID:             booking.UserID,
		Start:              booking.Start,
		End:                booking.End,
		Status:             string(booking.Status),
		MeetingName:        optionalString(booking.MeetingName),
		Purpose:            optionalString(booking.Purpose),
		ParticipantCount:   booking.ParticipantCount,
		CreatedAt:          booking.CreatedAt,
		UpdatedAt:          booking.UpdatedAt,
		CancelledAt:        cloneTime(booking.CancelledAt),
		CancellationReason: optionalString(booking.CancellationReason),
	}
}

func toApplicationCheckIn(model persistence.CheckIn) application.CheckInRecord {
	return application.CheckInRecord{
		BookingID:  model.BookingID,
		CheckInAt:  cloneTime(model.CheckInAt),
		CheckOutAt: cloneTime(model.CheckOutAt),
		NoShow:     model.NoShow,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toPersistenceCheckIn(record application.CheckInRecord) persistence.CheckIn {
	return persistence.CheckIn{
		BookingID:  record.BookingID,
		CheckInAt:  cloneTime(record.CheckInAt),
		CheckOutAt: cloneTime(record.CheckOutAt),
		NoShow:     record.NoShow,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}

func toApplicationResource(model persistence.Resource) application.Resource {
	blockReason := ""
	if model.BlockReason != nil {
		blockReason = *model.BlockReason
	}
	return application.Resource{
		ID:               model.ID,
		Name:             model.Name,
		Type:             application.ResourceType(model.Type),
		LocationID:       model.LocationID,
		Active:           model.Active,
		UnderMaintenance: model.UnderMaintenance,
		BlockedFrom:      cloneTime(model.BlockedFrom),
		BlockedUntil:     cloneTime(model.BlockedUntil),
		BlockReason:      blockReason,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	clone := value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
