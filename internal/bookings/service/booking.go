package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "rentio/internal/bookings/errors"
	"rentio/internal/bookings/repository"
	"rentio/internal/bookings/validator"
	propertieserrors "rentio/internal/properties/errors"
	"rentio/pkg/auth"
	"rentio/pkg/config"
	apperrors "rentio/pkg/errors"
	"rentio/pkg/kafka"
	"rentio/pkg/model"
	"rentio/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

const completerBatchSize = 500

// PropertyReader is the slice of the property store the booking flow needs.
type PropertyReader interface {
	FindByID(ctx context.Context, id string) (*model.Property, error)
	FindIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
}

// EventPublisher decouples the service from the Kafka producer. A nil
// publisher disables events.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type BookingService interface {
	Create(ctx context.Context, actor *auth.Principal, input *model.BookingCreate) (*model.Booking, error)
	GetByID(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error)
	List(ctx context.Context, actor *auth.Principal, status string, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, actor *auth.Principal, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Confirm(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error)
	Reject(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error)
	Cancel(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error)
	CompleteDue(ctx context.Context) (int, error)
}

type bookingService struct {
	repo       repository.BookingRepository
	holdRepo   repository.BookingHoldRepository
	properties PropertyReader
	validator  *validator.BookingValidator
	publisher  EventPublisher
	cfg        *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	holdRepo repository.BookingHoldRepository,
	properties PropertyReader,
	validator *validator.BookingValidator,
	publisher EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:       repo,
		holdRepo:   holdRepo,
		properties: properties,
		validator:  validator,
		publisher:  publisher,
		cfg:        cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, actor *auth.Principal, input *model.BookingCreate) (*model.Booking, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if !actor.IsTenant() {
		return nil, apperrors.Forbidden("Only tenants can create bookings")
	}

	checkIn, err := model.ParseDate(input.CheckIn)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	checkOut, err := model.ParseDate(input.CheckOut)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	if err := s.validator.ValidateDates(checkIn, checkOut); err != nil {
		return nil, err
	}

	property, err := s.loadProperty(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}

	if property.OwnerID == actor.UserID {
		return nil, apperrors.Forbidden("You cannot book your own property").
			WithDetails(map[string]any{"reason": apperrors.ReasonSelfBookingForbidden})
	}

	if property.Status != model.PropertyActive {
		return nil, apperrors.ValidationField("property_id", apperrors.ReasonPropertyInactive,
			"Property is not available for booking")
	}

	guests := input.GuestsCount
	if guests <= 0 {
		guests = 1
	}

	booking := &model.Booking{
		PropertyID:  property.ID,
		TenantID:    actor.UserID,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		GuestsCount: guests,
		Status:      model.BookingPending,
		TotalPrice:  float64(model.Nights(checkIn, checkOut)) * property.NightlyPrice,
		Notes:       sanitizer.TrimAndNormalize(input.Notes),
	}

	if err := s.validate(booking); err != nil {
		return nil, err
	}

	// Advisory holds plus a transactional overlap check close the window
	// between checking availability and inserting.
	holdIDs, err := s.acquireDateHolds(ctx, booking.PropertyID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	defer s.releaseDateHolds(ctx, holdIDs)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyAvailability(sessCtx, booking, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return nil, err
	}

	s.publishCreated(ctx, booking, property.OwnerID)

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"property_id", booking.PropertyID,
		"tenant_id", booking.TenantID,
		"check_in", booking.CheckIn.Format(model.DateLayout),
		"check_out", booking.CheckOut.Format(model.DateLayout),
		"total_price", booking.TotalPrice,
	)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.TenantID == actor.UserID {
		return booking, nil
	}

	property, err := s.loadProperty(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.OwnerID != actor.UserID {
		return nil, apperrors.Forbidden("You do not have access to this booking")
	}

	return booking, nil
}

// List scopes results to the caller: tenants see their own bookings,
// landlords see bookings against their properties.
func (s *bookingService) List(ctx context.Context, actor *auth.Principal, status string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if actor == nil {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}

	filter := &repository.BookingFilter{}
	if status != "" {
		parsed, err := model.ParseBookingStatus(status)
		if err != nil {
			return nil, 0, apperrors.InvalidInput(err.Error())
		}
		filter.Status = parsed
	}

	switch {
	case actor.IsTenant():
		filter.TenantID = actor.UserID
	case actor.IsLandlord():
		ids, err := s.properties.FindIDsByOwner(ctx, actor.UserID)
		if err != nil {
			s.cfg.Log.Error("Failed to resolve landlord properties", "error", err)
			return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
		}
		if len(ids) == 0 {
			return []*model.Booking{}, 0, nil
		}
		filter.PropertyIDs = ids
	default:
		return []*model.Booking{}, 0, nil
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.Find(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, actor *auth.Principal, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	property, err := s.loadProperty(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}

	// A status different from the stored one is a transition request and is
	// handled exclusively; other fields in the same payload are ignored.
	// Status changes through this endpoint belong to the property owner;
	// tenants cancel through the cancel endpoint.
	if updates.Status != "" && model.BookingStatus(updates.Status) != booking.Status {
		if property.OwnerID != actor.UserID {
			return nil, apperrors.Forbidden("Only the property owner can change booking status")
		}
		target, err := model.ParseBookingStatus(updates.Status)
		if err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
		return s.applyTransition(ctx, actor, booking, property, target)
	}

	if booking.TenantID != actor.UserID {
		return nil, apperrors.Forbidden("Only the booking tenant can modify booking details")
	}
	if booking.Status != model.BookingPending {
		return nil, apperrors.Conflict("Only pending bookings can be modified")
	}

	merged := *booking
	datesChanged := false

	if updates.CheckIn != nil {
		checkIn, err := model.ParseDate(*updates.CheckIn)
		if err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
		merged.CheckIn = checkIn
		datesChanged = true
	}
	if updates.CheckOut != nil {
		checkOut, err := model.ParseDate(*updates.CheckOut)
		if err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
		merged.CheckOut = checkOut
		datesChanged = true
	}
	if updates.GuestsCount != nil {
		merged.GuestsCount = *updates.GuestsCount
	}
	if updates.Notes != nil {
		merged.Notes = sanitizer.TrimAndNormalize(*updates.Notes)
	}

	if datesChanged {
		if err := s.validator.ValidateDates(merged.CheckIn, merged.CheckOut); err != nil {
			return nil, err
		}
		merged.TotalPrice = float64(model.Nights(merged.CheckIn, merged.CheckOut)) * property.NightlyPrice
	}

	if err := s.validate(&merged); err != nil {
		return nil, err
	}

	if datesChanged {
		holdIDs, err := s.acquireDateHolds(ctx, merged.PropertyID, merged.CheckIn, merged.CheckOut)
		if err != nil {
			return nil, err
		}
		defer s.releaseDateHolds(ctx, holdIDs)

		err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			if err := s.verifyAvailability(sessCtx, &merged, id); err != nil {
				return err
			}
			if err := s.repo.Update(sessCtx, id, &merged); err != nil {
				return apperrors.Internal("Failed to update booking", err)
			}
			return nil
		})
		if err != nil {
			s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
			return nil, err
		}
	} else {
		if err := s.repo.Update(ctx, id, &merged); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return nil, apperrors.NotFoundWithID("Booking", id)
			}
			s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
			return nil, apperrors.Internal("Failed to update booking", err)
		}
	}

	s.cfg.Log.Info("Booking updated successfully", "id", id)
	return &merged, nil
}

func (s *bookingService) Confirm(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error) {
	return s.transition(ctx, actor, id, model.BookingConfirmed)
}

func (s *bookingService) Reject(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error) {
	return s.transition(ctx, actor, id, model.BookingRejected)
}

func (s *bookingService) Cancel(ctx context.Context, actor *auth.Principal, id string) (*model.Booking, error) {
	return s.transition(ctx, actor, id, model.BookingCanceled)
}

// CompleteDue transitions confirmed bookings whose stay has ended to
// completed. It is the only path that produces the completed status.
func (s *bookingService) CompleteDue(ctx context.Context) (int, error) {
	today := model.Today()
	completed := 0

	for {
		due, err := s.repo.FindCompletable(ctx, today, completerBatchSize)
		if err != nil {
			return completed, apperrors.Internal("Failed to find completable bookings", err)
		}
		if len(due) == 0 {
			return completed, nil
		}

		for _, booking := range due {
			if err := s.repo.UpdateStatus(ctx, booking.ID, model.BookingCompleted); err != nil {
				s.cfg.Log.Error("Failed to complete booking", "id", booking.ID, "error", err)
				continue
			}
			s.publishStatusChanged(ctx, booking, booking.Status, model.BookingCompleted, "")
			completed++
		}

		if len(due) < completerBatchSize {
			return completed, nil
		}
	}
}

// --- Helpers ---

func (s *bookingService) transition(ctx context.Context, actor *auth.Principal, id string, target model.BookingStatus) (*model.Booking, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	booking, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	property, err := s.loadProperty(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}

	return s.applyTransition(ctx, actor, booking, property, target)
}

func (s *bookingService) applyTransition(ctx context.Context, actor *auth.Principal, booking *model.Booking, property *model.Property, target model.BookingStatus) (*model.Booking, error) {
	switch target {
	case model.BookingCompleted:
		return nil, apperrors.Forbidden("Bookings are completed automatically after checkout")
	case model.BookingConfirmed, model.BookingRejected:
		if property.OwnerID != actor.UserID {
			return nil, apperrors.Forbidden("Only the property owner can confirm or reject bookings")
		}
	case model.BookingCanceled:
		if booking.TenantID != actor.UserID {
			return nil, apperrors.Forbidden("Only the booking tenant can cancel")
		}
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid booking status: %q", target))
	}

	if !booking.Status.CanTransitionTo(target) {
		return nil, apperrors.InvalidTransition(
			fmt.Sprintf("Cannot transition booking from %s to %s", booking.Status, target),
			booking.Status.String(),
		)
	}

	if err := s.repo.UpdateStatus(ctx, booking.ID, target); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", booking.ID)
		}
		s.cfg.Log.Error("Failed to update booking status", "id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to update booking status", err)
	}

	from := booking.Status
	booking.Status = target
	s.publishStatusChanged(ctx, booking, from, target, actor.UserID)

	s.cfg.Log.Info("Booking status changed",
		"id", booking.ID,
		"from", from,
		"to", target,
		"changed_by", actor.UserID,
	)
	return booking, nil
}

func (s *bookingService) loadBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) loadProperty(ctx context.Context, id string) (*model.Property, error) {
	property, err := s.properties.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, propertieserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Property", id)
		}
		if errors.Is(err, propertieserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid property ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve property", err)
	}
	return property, nil
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) verifyAvailability(ctx context.Context, booking *model.Booking, excludeID string) error {
	overlapping, err := s.repo.FindOverlapping(ctx, booking.PropertyID, booking.CheckIn, booking.CheckOut, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	if len(overlapping) > 0 {
		existing := overlapping[0]
		return apperrors.ValidationField("check_in", apperrors.ReasonDateRangeConflict, fmt.Sprintf(
			"Requested dates overlap with an existing booking (%s - %s)",
			existing.CheckIn.Format(model.DateLayout),
			existing.CheckOut.Format(model.DateLayout),
		))
	}
	return nil
}

// acquireDateHolds creates one advisory hold per night of the stay, so two
// ranges contend as soon as they share a single night. Acquisition is
// all-or-nothing: on failure the holds created so far are released.
func (s *bookingService) acquireDateHolds(ctx context.Context, propertyID string, checkIn, checkOut time.Time) ([]string, error) {
	expiresAt := time.Now().Add(s.cfg.BookingHoldTTL)

	var acquired []string
	for night := checkIn; night.Before(checkOut); night = night.AddDate(0, 0, 1) {
		hold := &model.BookingHold{
			ID:        fmt.Sprintf("booking_hold_%s_%s", propertyID, night.Format(model.DateLayout)),
			ExpiresAt: expiresAt,
		}

		if _, err := s.holdRepo.Create(ctx, hold); err != nil {
			s.releaseDateHolds(ctx, acquired)
			if mongo.IsDuplicateKeyError(err) {
				return nil, apperrors.Conflict("These dates are currently being booked by another request. Please try again.")
			}
			return nil, apperrors.Internal("Failed to acquire booking hold", err)
		}
		acquired = append(acquired, hold.ID)
	}

	return acquired, nil
}

func (s *bookingService) releaseDateHolds(ctx context.Context, holdIDs []string) {
	for _, holdID := range holdIDs {
		if err := s.holdRepo.Delete(ctx, holdID); err != nil {
			s.cfg.Log.Warn("Failed to release booking hold", "hold_id", holdID, "error", err)
		}
	}
}

func (s *bookingService) publishCreated(ctx context.Context, booking *model.Booking, landlordID string) {
	if s.publisher == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithEventType(kafka.EventBookingCreated).
		WithSource("rentio").
		WithSchemaVersion("1").
		WithValue(kafka.BookingCreatedEvent{
			BookingID:  booking.ID,
			PropertyID: booking.PropertyID,
			TenantID:   booking.TenantID,
			LandlordID: landlordID,
			CheckIn:    booking.CheckIn.Format(model.DateLayout),
			CheckOut:   booking.CheckOut.Format(model.DateLayout),
			TotalPrice: booking.TotalPrice,
			CreatedAt:  booking.CreatedAt,
		}).
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish booking created event", "id", booking.ID, "error", err)
	}
}

func (s *bookingService) publishStatusChanged(ctx context.Context, booking *model.Booking, from, to model.BookingStatus, changedBy string) {
	if s.publisher == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(booking.ID).
		WithEventType(kafka.EventBookingStatusChanged).
		WithSource("rentio").
		WithSchemaVersion("1").
		WithValue(kafka.BookingStatusChangedEvent{
			BookingID:  booking.ID,
			PropertyID: booking.PropertyID,
			TenantID:   booking.TenantID,
			FromStatus: from.String(),
			ToStatus:   to.String(),
			ChangedBy:  changedBy,
			ChangedAt:  time.Now().UTC(),
		}).
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish booking status event", "id", booking.ID, "error", err)
	}
}
