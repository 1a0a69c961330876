package booking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"roomboss-cli/api"
)

type Step string

const (
	StepSearch       Step = "search"
	StepResults      Step = "results"
	StepRoom         Step = "room"
	StepGuest        Step = "guest"
	StepConfirmation Step = "confirmation"
)

const (
	actionSearch = "search"
	actionHotel  = "chooseHotel"
	actionSubmit = "submit"
)

// Provider is the subset of the RoomBoss client the wizard drives.
type Provider interface {
	ListHotels(ctx context.Context, countryCode, locationCode string) ([]api.Hotel, error)
	ListAvailable(ctx context.Context, q api.AvailabilityQuery) ([]api.Hotel, error)
	ListImages(ctx context.Context, hotelID string) (api.ImageSet, error)
	ListDescriptions(ctx context.Context, hotelID, locale string) (api.Descriptions, error)
	ListBookingsByDate(ctx context.Context, hotelID, date string) ([]api.Booking, error)
	CreateBooking(ctx context.Context, req api.CreateBookingRequest) (api.CreateBookingResult, error)
}

type Options struct {
	CountryCode string
	Locale      string
	Extent      api.Extent
	// RateTTL is how long a searched rate plan is trusted before it is
	// re-checked on submission. Zero disables the check.
	RateTTL time.Duration
	Dedup   Dedup
	Log     logrus.FieldLogger
	Now     func() time.Time
	NewKey  func() string
}

type submission struct {
	key       string
	attempted bool
}

// Flow is the booking wizard: search -> results -> room -> guest -> confirmation.
// Forward actions move one step at a time; back actions discard everything
// gathered after the step they return to.
type Flow struct {
	provider Provider
	opts     Options

	mu           sync.Mutex
	busy         map[string]bool
	step         Step
	criteria     SearchCriteria
	searchedAt   time.Time
	hotels       []api.Hotel
	hotel        *api.Hotel
	images       *api.ImageSet
	descriptions *api.Descriptions
	room         *api.RoomType
	ratePlan     *api.RatePlan
	guest        GuestInfo
	result       *Result
	errMsg       string
	submission   *submission
}

func New(provider Provider, opts Options) *Flow {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewKey == nil {
		opts.NewKey = uuid.NewString
	}
	if opts.Extent == "" {
		opts.Extent = api.ExtentReservation
	}
	if opts.Locale == "" {
		opts.Locale = "en"
	}
	return &Flow{
		provider: provider,
		opts:     opts,
		busy:     map[string]bool{},
		step:     StepSearch,
	}
}

// State is a snapshot of the wizard for rendering.
type State struct {
	Step             Step
	Criteria         SearchCriteria
	Hotels           []api.Hotel
	SelectedHotel    *api.Hotel
	Images           *api.ImageSet
	Descriptions     *api.Descriptions
	SelectedRoom     *api.RoomType
	SelectedRatePlan *api.RatePlan
	Guest            GuestInfo
	Result           *Result
	Error            string
	Nights           int
	TotalPrice       float64
	Busy             []string
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := State{
		Step:     f.step,
		Criteria: f.criteria,
		Hotels:   append([]api.Hotel(nil), f.hotels...),
		Guest:    f.guest,
		Error:    f.errMsg,
		Nights:   f.criteria.Nights(),
	}
	if f.hotel != nil {
		hotel := *f.hotel
		state.SelectedHotel = &hotel
	}
	if f.images != nil {
		images := *f.images
		state.Images = &images
	}
	if f.descriptions != nil {
		desc := *f.descriptions
		state.Descriptions = &desc
	}
	if f.room != nil {
		room := *f.room
		state.SelectedRoom = &room
	}
	if f.ratePlan != nil {
		rate := *f.ratePlan
		state.SelectedRatePlan = &rate
		state.TotalPrice = TotalPrice(rate.PriceRetail, state.Nights)
	}
	if f.result != nil {
		result := *f.result
		state.Result = &result
	}
	for action, busy := range f.busy {
		if busy {
			state.Busy = append(state.Busy, action)
		}
	}
	sort.Strings(state.Busy)
	return state
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Error is the message of the most recent failed action, or "".
func (f *Flow) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

func (f *Flow) Busy(action string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy[action]
}

// Search looks up the hotels of the location and their availability for the
// requested dates. The flow stays on the search step unless something is available.
func (f *Flow) Search(ctx context.Context, criteria SearchCriteria) error {
	if f.provider == nil {
		return ErrMissingProvider
	}
	release, err := f.begin(actionSearch)
	if err != nil {
		return err
	}
	defer release()

	f.mu.Lock()
	if f.step != StepSearch {
		f.mu.Unlock()
		return f.wrongStep("search", f.step)
	}
	f.errMsg = ""
	if strings.TrimSpace(criteria.CountryCode) == "" {
		criteria.CountryCode = f.opts.CountryCode
	}
	criteria.CountryCode = strings.ToUpper(strings.TrimSpace(criteria.CountryCode))
	criteria.LocationCode = strings.ToUpper(strings.TrimSpace(criteria.LocationCode))
	f.criteria = criteria
	f.mu.Unlock()

	if err := criteria.validate(); err != nil {
		return f.fail(err)
	}

	hotels, err := f.provider.ListHotels(ctx, criteria.CountryCode, criteria.LocationCode)
	if err != nil {
		return f.fail(fmt.Errorf("list hotels: %w", err))
	}
	if len(hotels) == 0 {
		return f.fail(ErrNoHotels)
	}

	byID := make(map[string]api.Hotel, len(hotels))
	ids := make([]string, 0, len(hotels))
	for _, hotel := range hotels {
		byID[hotel.HotelID] = hotel
		ids = append(ids, hotel.HotelID)
	}

	available, err := f.provider.ListAvailable(ctx, criteria.availabilityQuery(ids))
	if err != nil {
		return f.fail(fmt.Errorf("list availability: %w", err))
	}
	if len(available) == 0 {
		return f.fail(ErrNoAvailability)
	}
	for i := range available {
		mergeHotelDetails(&available[i], byID[available[i].HotelID])
	}

	f.mu.Lock()
	f.hotels = available
	f.searchedAt = f.opts.Now()
	f.step = StepResults
	f.mu.Unlock()

	f.opts.Log.WithFields(logrus.Fields{
		"location": criteria.LocationCode,
		"checkIn":  api.FormatDate(criteria.CheckIn),
		"checkOut": api.FormatDate(criteria.CheckOut),
		"hotels":   len(available),
	}).Info("availability search complete")
	return nil
}

// ChooseHotel opens the hotel detail view and fetches its images and
// descriptions concurrently. Either fetch may fail without affecting the other.
func (f *Flow) ChooseHotel(ctx context.Context, hotelID string) error {
	release, err := f.begin(actionHotel)
	if err != nil {
		return err
	}
	defer release()

	f.mu.Lock()
	if f.step != StepResults {
		f.mu.Unlock()
		return f.wrongStep("choose hotel", f.step)
	}
	var chosen *api.Hotel
	for i := range f.hotels {
		if f.hotels[i].HotelID == hotelID {
			hotel := f.hotels[i]
			chosen = &hotel
			break
		}
	}
	if chosen == nil {
		f.mu.Unlock()
		return f.fail(fmt.Errorf("%w: %s", ErrUnknownHotel, hotelID))
	}
	f.errMsg = ""
	f.hotel = chosen
	f.images = nil
	f.descriptions = nil
	f.step = StepRoom
	locale := f.opts.Locale
	f.mu.Unlock()

	var images *api.ImageSet
	var descriptions *api.Descriptions
	var g errgroup.Group
	g.Go(func() error {
		set, err := f.provider.ListImages(ctx, hotelID)
		if err != nil {
			f.opts.Log.WithField("hotelId", hotelID).Warnf("load hotel images: %v", err)
			return nil
		}
		images = &set
		return nil
	})
	g.Go(func() error {
		desc, err := f.provider.ListDescriptions(ctx, hotelID, locale)
		if err != nil {
			f.opts.Log.WithField("hotelId", hotelID).Warnf("load hotel descriptions: %v", err)
			return nil
		}
		descriptions = &desc
		return nil
	})
	_ = g.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == StepRoom && f.hotel != nil && f.hotel.HotelID == hotelID {
		f.images = images
		f.descriptions = descriptions
	}
	return nil
}

// CloseHotel returns from the hotel detail view to the result list.
func (f *Flow) CloseHotel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepRoom {
		return f.wrongStep("close hotel", f.step)
	}
	f.clearSelectionLocked()
	f.step = StepResults
	return nil
}

// ChooseRoom selects a room type and its rate plan from the open hotel.
func (f *Flow) ChooseRoom(roomTypeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepRoom || f.hotel == nil {
		return f.wrongStep("choose room", f.step)
	}
	room, ok := f.hotel.FindAvailableRoom(roomTypeID)
	if !ok {
		return f.failLocked(fmt.Errorf("%w: %s", ErrUnknownRoom, roomTypeID))
	}
	if room.RatePlan == nil || room.RatePlan.RatePlanID == "" {
		return f.failLocked(fmt.Errorf("%w: %s", ErrNoRatePlan, roomTypeID))
	}
	rate := *room.RatePlan
	f.errMsg = ""
	f.room = &room
	f.ratePlan = &rate
	f.result = nil
	f.submission = nil
	f.step = StepGuest
	return nil
}

// SubmitBooking validates the guest details and creates the booking. A
// declined booking keeps the flow on the guest step with the server's message.
func (f *Flow) SubmitBooking(ctx context.Context, guest GuestInfo) error {
	release, err := f.begin(actionSubmit)
	if err != nil {
		return err
	}
	defer release()

	f.mu.Lock()
	if f.step != StepGuest || f.hotel == nil || f.room == nil || f.ratePlan == nil {
		f.mu.Unlock()
		return f.wrongStep("submit booking", f.step)
	}
	f.errMsg = ""
	f.guest = guest
	if f.submission == nil {
		f.submission = &submission{key: f.opts.NewKey()}
	}
	sub := *f.submission
	hotel := *f.hotel
	room := *f.room
	rate := *f.ratePlan
	criteria := f.criteria
	searchedAt := f.searchedAt
	f.mu.Unlock()

	if err := guest.validate(); err != nil {
		return f.fail(err)
	}

	base := newResult(hotel, room, rate, criteria, guest, f.opts.Extent)
	log := f.opts.Log.WithFields(logrus.Fields{
		"hotelId":        hotel.HotelID,
		"roomTypeId":     room.RoomTypeID,
		"idempotencyKey": sub.key,
	})

	if f.opts.Dedup != nil {
		record, ok, err := f.opts.Dedup.Lookup(ctx, sub.key)
		switch {
		case err != nil:
			log.Warnf("idempotency lookup: %v", err)
		case ok && record.Status == DedupDone && record.Result != nil:
			if !record.Result.sameStay(base) {
				f.mu.Lock()
				f.submission = nil
				f.mu.Unlock()
				return f.fail(fmt.Errorf("%w: %s", ErrKeyReused, sub.key))
			}
			log.Info("submission already completed, reusing stored result")
			return f.confirm(*record.Result)
		case ok && record.Status == DedupPending:
			sub.attempted = true
			f.markAttempted(sub.key)
		}
	}

	// An unresolved attempt may already hold the room, so it is looked up
	// before the rate is re-checked.
	if sub.attempted {
		found, ok, err := f.reconcile(ctx, base)
		if err != nil {
			return f.fail(fmt.Errorf("check existing bookings: %w", err))
		}
		if ok {
			log.WithField("bookingId", found.BookingID).Info("found booking from earlier attempt")
			f.remember(ctx, sub.key, DedupRecord{Status: DedupDone, Result: &found})
			return f.confirm(found)
		}
	}

	if f.opts.RateTTL > 0 && f.opts.Now().Sub(searchedAt) > f.opts.RateTTL {
		fresh, err := f.revalidate(ctx, criteria, hotel.HotelID, room.RoomTypeID, rate)
		if err != nil {
			return f.fail(err)
		}
		rate = fresh
		base = newResult(hotel, room, rate, criteria, guest, f.opts.Extent)
	}

	f.remember(ctx, sub.key, DedupRecord{Status: DedupPending})

	req := api.CreateBookingRequest{
		HotelID:         hotel.HotelID,
		RoomTypeID:      room.RoomTypeID,
		RatePlanID:      rate.RatePlanID,
		CheckIn:         base.CheckIn,
		CheckOut:        base.CheckOut,
		NumberAdults:    criteria.Adults,
		NumberChildren:  criteria.Children,
		NumberInfants:   criteria.Infants,
		GuestGivenName:  strings.TrimSpace(guest.FirstName),
		GuestFamilyName: strings.TrimSpace(guest.LastName),
		GuestEmail:      base.Email,
		ContactNumber:   strings.TrimSpace(guest.Phone),
		PriceRetailMax:  api.Amount(PriceRetailMax(rate.PriceRetail, base.Nights)),
		BookingExtent:   f.opts.Extent,
		Comment:         strings.TrimSpace(guest.SpecialRequests),
		IdempotencyKey:  sub.key,
	}

	resp, err := f.provider.CreateBooking(ctx, req)
	if err != nil {
		f.markAttempted(sub.key)
		return f.fail(fmt.Errorf("create booking: %w", err))
	}

	if !resp.Success {
		message := strings.TrimSpace(resp.FailureMessage)
		if message == "" {
			message = "booking was declined"
		}
		f.remember(ctx, sub.key, DedupRecord{Status: DedupFailed})
		f.mu.Lock()
		f.submission = nil
		f.mu.Unlock()
		log.Warnf("booking declined: %s", message)
		return f.fail(&FailedError{Message: message})
	}

	result := base.withOrder(resp.Order)
	f.remember(ctx, sub.key, DedupRecord{Status: DedupDone, Result: &result})
	log.WithField("bookingId", result.BookingID).Info("booking confirmed")
	return f.confirm(result)
}

// ModifySearch returns to the search step, keeping the criteria for editing.
func (f *Flow) ModifySearch() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.step {
	case StepResults, StepRoom, StepGuest:
	default:
		return f.wrongStep("modify search", f.step)
	}
	if f.busy[actionSubmit] {
		return ErrBusy
	}
	f.clearSelectionLocked()
	f.hotels = nil
	f.errMsg = ""
	f.step = StepSearch
	return nil
}

// BackToResults leaves the guest step and discards the chosen hotel and room.
func (f *Flow) BackToResults() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepGuest {
		return f.wrongStep("back to results", f.step)
	}
	if f.busy[actionSubmit] {
		return ErrBusy
	}
	f.clearSelectionLocked()
	f.errMsg = ""
	f.step = StepResults
	return nil
}

// BookAnother starts over after a confirmation.
func (f *Flow) BookAnother() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepConfirmation {
		return f.wrongStep("book another", f.step)
	}
	f.clearSelectionLocked()
	f.hotels = nil
	f.guest = GuestInfo{}
	f.errMsg = ""
	f.step = StepSearch
	return nil
}

func (f *Flow) revalidate(ctx context.Context, criteria SearchCriteria, hotelID, roomTypeID string, current api.RatePlan) (api.RatePlan, error) {
	hotels, err := f.provider.ListAvailable(ctx, criteria.availabilityQuery([]string{hotelID}))
	if err != nil {
		return api.RatePlan{}, fmt.Errorf("recheck availability: %w", err)
	}

	var fresh *api.RatePlan
	for _, hotel := range hotels {
		if hotel.HotelID != hotelID {
			continue
		}
		if room, ok := hotel.FindAvailableRoom(roomTypeID); ok && room.RatePlan != nil {
			rate := *room.RatePlan
			fresh = &rate
		}
	}
	if fresh == nil {
		return api.RatePlan{}, ErrRateExpired
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchedAt = f.opts.Now()
	if fresh.RatePlanID == current.RatePlanID && fresh.PriceRetail == current.PriceRetail {
		return *fresh, nil
	}
	f.ratePlan = fresh
	if f.room != nil {
		f.room.RatePlan = fresh
	}
	return api.RatePlan{}, fmt.Errorf("%w: %s per night", ErrRateChanged, FormatPrice(f.currencyLocked(), fresh.PriceRetail))
}

// markAttempted records that the submission with key may have reached the server.
func (f *Flow) markAttempted(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submission != nil && f.submission.key == key {
		f.submission.attempted = true
	}
}

func (f *Flow) reconcile(ctx context.Context, base Result) (Result, bool, error) {
	bookings, err := f.provider.ListBookingsByDate(ctx, base.HotelID, base.CheckIn)
	if err != nil {
		return Result{}, false, err
	}
	for _, existing := range bookings {
		if !base.matches(existing) {
			continue
		}
		found := base
		found.BookingID = existing.BookingID
		found.GuestPortalURL = existing.GuestPortalURL
		found.Reconciled = true
		return found, true, nil
	}
	return Result{}, false, nil
}

func (f *Flow) remember(ctx context.Context, key string, record DedupRecord) {
	if f.opts.Dedup == nil {
		return
	}
	if err := f.opts.Dedup.Save(ctx, key, record); err != nil {
		f.opts.Log.WithField("idempotencyKey", key).Warnf("save idempotency record: %v", err)
	}
}

func (f *Flow) confirm(result Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = &result
	f.submission = nil
	f.errMsg = ""
	f.step = StepConfirmation
	return nil
}

func (f *Flow) begin(action string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy[action] {
		return nil, fmt.Errorf("%w: %s", ErrBusy, action)
	}
	f.busy[action] = true
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.busy, action)
	}, nil
}

func (f *Flow) fail(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failLocked(err)
}

func (f *Flow) failLocked(err error) error {
	f.errMsg = err.Error()
	return err
}

func (f *Flow) wrongStep(action string, step Step) error {
	return fmt.Errorf("%w: cannot %s from %s", ErrWrongStep, action, step)
}

func (f *Flow) clearSelectionLocked() {
	f.hotel = nil
	f.images = nil
	f.descriptions = nil
	f.room = nil
	f.ratePlan = nil
	f.result = nil
	f.submission = nil
}

func (f *Flow) currencyLocked() string {
	if f.hotel == nil {
		return ""
	}
	return f.hotel.Currency
}

func mergeHotelDetails(hotel *api.Hotel, listed api.Hotel) {
	if hotel.HotelName == "" {
		hotel.HotelName = listed.HotelName
	}
	if hotel.Currency == "" {
		hotel.Currency = listed.Currency
	}
	if hotel.CountryCode == "" {
		hotel.CountryCode = listed.CountryCode
	}
	if hotel.LocationCode == "" {
		hotel.LocationCode = listed.LocationCode
	}
	if len(hotel.RoomTypes) == 0 {
		hotel.RoomTypes = listed.RoomTypes
	}
	hotel.AvailableRoomTypes = append([]api.RoomType(nil), hotel.AvailableRoomTypes...)
	for i := range hotel.AvailableRoomTypes {
		if hotel.AvailableRoomTypes[i].RoomTypeName != "" {
			continue
		}
		for _, rt := range listed.RoomTypes {
			if rt.RoomTypeID == hotel.AvailableRoomTypes[i].RoomTypeID {
				rate := hotel.AvailableRoomTypes[i].RatePlan
				hotel.AvailableRoomTypes[i] = rt
				hotel.AvailableRoomTypes[i].RatePlan = rate
				break
			}
		}
	}
}
