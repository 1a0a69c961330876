package booking

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomboss-cli/api"
)

type fakeProvider struct {
	mu sync.Mutex

	hotels        []api.Hotel
	available     []api.Hotel
	availableErr  error
	imagesErr     error
	descErr       error
	existing      []api.Booking
	createResults []api.CreateBookingResult
	createErrs    []error
	// createGate, when set, holds CreateBooking until it is closed.
	createGate    chan struct{}
	createStarted chan struct{}

	availableCalls []api.AvailabilityQuery
	createCalls    []api.CreateBookingRequest
	listByDate     int
}

func (p *fakeProvider) ListHotels(ctx context.Context, countryCode, locationCode string) ([]api.Hotel, error) {
	return p.hotels, nil
}

func (p *fakeProvider) ListAvailable(ctx context.Context, q api.AvailabilityQuery) ([]api.Hotel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.availableCalls = append(p.availableCalls, q)
	if p.availableErr != nil {
		return nil, p.availableErr
	}
	out := make([]api.Hotel, len(p.available))
	copy(out, p.available)
	return out, nil
}

func (p *fakeProvider) ListImages(ctx context.Context, hotelID string) (api.ImageSet, error) {
	if p.imagesErr != nil {
		return api.ImageSet{}, p.imagesErr
	}
	return api.ImageSet{HotelID: hotelID, HotelImages: map[string]string{"main": "https://img.example/h1.jpg"}}, nil
}

func (p *fakeProvider) ListDescriptions(ctx context.Context, hotelID, locale string) (api.Descriptions, error) {
	if p.descErr != nil {
		return api.Descriptions{}, p.descErr
	}
	return api.Descriptions{HotelID: hotelID, Locale: locale, HotelDescription: "Ski-in lodge"}, nil
}

func (p *fakeProvider) ListBookingsByDate(ctx context.Context, hotelID, date string) ([]api.Booking, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listByDate++
	return p.existing, nil
}

func (p *fakeProvider) CreateBooking(ctx context.Context, req api.CreateBookingRequest) (api.CreateBookingResult, error) {
	if p.createGate != nil {
		close(p.createStarted)
		<-p.createGate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := len(p.createCalls)
	p.createCalls = append(p.createCalls, req)
	if idx < len(p.createErrs) && p.createErrs[idx] != nil {
		return api.CreateBookingResult{}, p.createErrs[idx]
	}
	if idx < len(p.createResults) {
		return p.createResults[idx], nil
	}
	return api.CreateBookingResult{}, errors.New("unexpected createBooking call")
}

type memoryDedup struct {
	mu      sync.Mutex
	records map[string]DedupRecord
}

func newMemoryDedup() *memoryDedup {
	return &memoryDedup{records: map[string]DedupRecord{}}
}

func (d *memoryDedup) Lookup(ctx context.Context, key string) (DedupRecord, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	record, ok := d.records[key]
	return record, ok, nil
}

func (d *memoryDedup) Save(ctx context.Context, key string, record DedupRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[key] = record
	return nil
}

func hakubaProvider() *fakeProvider {
	return &fakeProvider{
		hotels: []api.Hotel{{
			HotelID:      "h1",
			HotelName:    "Hakuba Lodge",
			CountryCode:  "JP",
			LocationCode: "HAKUBA",
			Currency:     "JPY",
			RoomTypes:    []api.RoomType{{RoomTypeID: "r1", RoomTypeName: "Twin Room", MaxNumberGuests: 2}},
		}},
		available: []api.Hotel{{
			HotelID: "h1",
			AvailableRoomTypes: []api.RoomType{{
				RoomTypeID: "r1",
				RatePlan:   &api.RatePlan{RatePlanID: "rp1", PriceRetail: 50000},
			}},
		}},
		createResults: []api.CreateBookingResult{{
			Success: true,
			Order: &api.Order{
				Bookings:        []api.Booking{{BookingID: "abc123"}},
				InvoicePayments: []api.InvoicePayment{{InvoiceNumber: "INV1", InvoiceAmount: 165000}},
			},
		}},
	}
}

func hakubaCriteria() SearchCriteria {
	return SearchCriteria{
		LocationCode: "HAKUBA",
		CheckIn:      time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:     time.Date(2025, 12, 13, 0, 0, 0, 0, time.UTC),
		Adults:       2,
	}
}

func johnDoe() GuestInfo {
	return GuestInfo{FirstName: "John", LastName: "Doe", Email: "john@x.com"}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestFlow(p *fakeProvider, opts Options) *Flow {
	if opts.CountryCode == "" {
		opts.CountryCode = "JP"
	}
	opts.Log = quietLogger()
	if opts.NewKey == nil {
		opts.NewKey = func() string { return "key-1" }
	}
	return New(p, opts)
}

func advanceToGuest(t *testing.T, f *Flow) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.Search(ctx, hakubaCriteria()))
	require.NoError(t, f.ChooseHotel(ctx, "h1"))
	require.NoError(t, f.ChooseRoom("r1"))
	require.Equal(t, StepGuest, f.Step())
}

func TestFlowHakubaEndToEnd(t *testing.T) {
	p := hakubaProvider()
	f := newTestFlow(p, Options{})
	ctx := context.Background()

	require.NoError(t, f.Search(ctx, hakubaCriteria()))
	state := f.State()
	assert.Equal(t, StepResults, state.Step)
	require.Len(t, state.Hotels, 1)
	assert.Equal(t, "Hakuba Lodge", state.Hotels[0].HotelName)
	assert.Equal(t, "JPY", state.Hotels[0].Currency)
	assert.Equal(t, "Twin Room", state.Hotels[0].AvailableRoomTypes[0].RoomTypeName)
	assert.Equal(t, 3, state.Nights)

	require.Len(t, p.availableCalls, 1)
	q := p.availableCalls[0]
	assert.Equal(t, []string{"h1"}, q.HotelIDs)
	assert.Equal(t, "20251210", q.CheckIn)
	assert.Equal(t, "20251213", q.CheckOut)
	assert.Equal(t, 2, q.NumberAdults)

	require.NoError(t, f.ChooseHotel(ctx, "h1"))
	require.NoError(t, f.ChooseRoom("r1"))
	assert.Equal(t, 150000.0, f.State().TotalPrice)

	require.NoError(t, f.SubmitBooking(ctx, johnDoe()))

	state = f.State()
	assert.Equal(t, StepConfirmation, state.Step)
	require.NotNil(t, state.Result)
	assert.Equal(t, "abc123", state.Result.BookingID)
	assert.Equal(t, "INV1", state.Result.InvoiceNumber)
	assert.Equal(t, "¥165,000", state.Result.FormattedTotal())
	assert.Empty(t, state.Error)

	require.Len(t, p.createCalls, 1)
	req := p.createCalls[0]
	assert.Equal(t, "h1", req.HotelID)
	assert.Equal(t, "r1", req.RoomTypeID)
	assert.Equal(t, "rp1", req.RatePlanID)
	assert.Equal(t, "John", req.GuestGivenName)
	assert.Equal(t, "Doe", req.GuestFamilyName)
	assert.Equal(t, "john@x.com", req.GuestEmail)
	assert.Equal(t, api.ExtentReservation, req.BookingExtent)
	assert.Equal(t, "key-1", req.IdempotencyKey)
	assert.InDelta(t, 165000, float64(req.PriceRetailMax), 0.001)
}

func TestFlowForwardStepsAreMonotonic(t *testing.T) {
	p := hakubaProvider()
	f := newTestFlow(p, Options{})
	ctx := context.Background()

	var steps []Step
	steps = append(steps, f.Step())
	require.NoError(t, f.Search(ctx, hakubaCriteria()))
	steps = append(steps, f.Step())
	require.NoError(t, f.ChooseHotel(ctx, "h1"))
	steps = append(steps, f.Step())
	require.NoError(t, f.ChooseRoom("r1"))
	steps = append(steps, f.Step())
	require.NoError(t, f.SubmitBooking(ctx, johnDoe()))
	steps = append(steps, f.Step())

	assert.Equal(t, []Step{StepSearch, StepResults, StepRoom, StepGuest, StepConfirmation}, steps)
}

func TestFlowForwardActionsRejectedOutOfOrder(t *testing.T) {
	f := newTestFlow(hakubaProvider(), Options{})
	ctx := context.Background()

	assert.ErrorIs(t, f.ChooseHotel(ctx, "h1"), ErrWrongStep)
	assert.ErrorIs(t, f.ChooseRoom("r1"), ErrWrongStep)
	assert.ErrorIs(t, f.SubmitBooking(ctx, johnDoe()), ErrWrongStep)
	assert.ErrorIs(t, f.BackToResults(), ErrWrongStep)
	assert.ErrorIs(t, f.BookAnother(), ErrWrongStep)
	assert.Equal(t, StepSearch, f.Step())
}

func TestFlowBackEdgesResetSelections(t *testing.T) {
	t.Run("modify search from guest", func(t *testing.T) {
		f := newTestFlow(hakubaProvider(), Options{})
		advanceToGuest(t, f)

		require.NoError(t, f.ModifySearch())
		state := f.State()
		assert.Equal(t, StepSearch, state.Step)
		assert.Nil(t, state.SelectedHotel)
		assert.Nil(t, state.SelectedRoom)
		assert.Nil(t, state.SelectedRatePlan)
		assert.Nil(t, state.Result)
		assert.Empty(t, state.Hotels)
		assert.Equal(t, "HAKUBA", state.Criteria.LocationCode)
	})

	t.Run("modify search from results", func(t *testing.T) {
		f := newTestFlow(hakubaProvider(), Options{})
		require.NoError(t, f.Search(context.Background(), hakubaCriteria()))
		require.NoError(t, f.ModifySearch())
		assert.Equal(t, StepSearch, f.Step())
	})

	t.Run("back to results from guest", func(t *testing.T) {
		f := newTestFlow(hakubaProvider(), Options{})
		advanceToGuest(t, f)

		require.NoError(t, f.BackToResults())
		state := f.State()
		assert.Equal(t, StepResults, state.Step)
		assert.Nil(t, state.SelectedHotel)
		assert.Nil(t, state.SelectedRoom)
		assert.Nil(t, state.SelectedRatePlan)
		assert.Nil(t, state.Result)
		assert.Len(t, state.Hotels, 1)
	})

	t.Run("close hotel", func(t *testing.T) {
		f := newTestFlow(hakubaProvider(), Options{})
		require.NoError(t, f.Search(context.Background(), hakubaCriteria()))
		require.NoError(t, f.ChooseHotel(context.Background(), "h1"))

		require.NoError(t, f.CloseHotel())
		state := f.State()
		assert.Equal(t, StepResults, state.Step)
		assert.Nil(t, state.SelectedHotel)
		assert.Nil(t, state.Images)
	})

	t.Run("book another", func(t *testing.T) {
		f := newTestFlow(hakubaProvider(), Options{})
		advanceToGuest(t, f)
		require.NoError(t, f.SubmitBooking(context.Background(), johnDoe()))

		require.NoError(t, f.BookAnother())
		state := f.State()
		assert.Equal(t, StepSearch, state.Step)
		assert.Nil(t, state.Result)
		assert.Nil(t, state.SelectedHotel)
		assert.Equal(t, GuestInfo{}, state.Guest)
	})
}

func TestFlowSearchValidation(t *testing.T) {
	p := hakubaProvider()
	f := newTestFlow(p, Options{})

	err := f.Search(context.Background(), SearchCriteria{
		CheckIn:  time.Date(2025, 12, 13, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
	})
	inputErr := IsInputError(err)
	require.NotNil(t, inputErr)
	assert.Contains(t, inputErr.Fields(), "checkOut")
	assert.Contains(t, inputErr.Fields(), "locationCode")
	assert.Contains(t, inputErr.Fields(), "adults")
	assert.Equal(t, StepSearch, f.Step())
	assert.NotEmpty(t, f.Error())
	assert.Empty(t, p.availableCalls)
}

func TestFlowSearchWithoutAvailabilityStays(t *testing.T) {
	p := hakubaProvider()
	p.available = nil
	f := newTestFlow(p, Options{})

	err := f.Search(context.Background(), hakubaCriteria())
	assert.ErrorIs(t, err, ErrNoAvailability)
	assert.Equal(t, StepSearch, f.Step())
	assert.Equal(t, ErrNoAvailability.Error(), f.Error())
}

func TestFlowSearchFailureSetsError(t *testing.T) {
	p := hakubaProvider()
	p.availableErr = api.ErrTimeout
	f := newTestFlow(p, Options{})

	err := f.Search(context.Background(), hakubaCriteria())
	assert.ErrorIs(t, err, api.ErrTimeout)
	assert.Equal(t, StepSearch, f.Step())
	assert.Contains(t, f.Error(), "list availability")

	p.availableErr = nil
	require.NoError(t, f.Search(context.Background(), hakubaCriteria()))
	assert.Empty(t, f.Error())
}

func TestFlowChooseHotelLoadsDetails(t *testing.T) {
	f := newTestFlow(hakubaProvider(), Options{Locale: "ja"})
	require.NoError(t, f.Search(context.Background(), hakubaCriteria()))
	require.NoError(t, f.ChooseHotel(context.Background(), "h1"))

	state := f.State()
	require.NotNil(t, state.Images)
	require.NotNil(t, state.Descriptions)
	assert.Equal(t, "ja", state.Descriptions.Locale)
	assert.Equal(t, "Ski-in lodge", state.Descriptions.HotelDescription)
}

func TestFlowChooseHotelDetailFailuresDoNotBlock(t *testing.T) {
	p := hakubaProvider()
	p.imagesErr = errors.New("images down")
	f := newTestFlow(p, Options{})
	require.NoError(t, f.Search(context.Background(), hakubaCriteria()))

	require.NoError(t, f.ChooseHotel(context.Background(), "h1"))
	state := f.State()
	assert.Equal(t, StepRoom, state.Step)
	assert.Nil(t, state.Images)
	assert.NotNil(t, state.Descriptions)
	assert.Empty(t, state.Error)

	require.NoError(t, f.ChooseRoom("r1"))
}

func TestFlowChooseUnknownHotelAndRoom(t *testing.T) {
	p := hakubaProvider()
	p.available[0].AvailableRoomTypes = append(p.available[0].AvailableRoomTypes, api.RoomType{RoomTypeID: "r2"})
	f := newTestFlow(p, Options{})
	require.NoError(t, f.Search(context.Background(), hakubaCriteria()))

	assert.ErrorIs(t, f.ChooseHotel(context.Background(), "nope"), ErrUnknownHotel)
	assert.Equal(t, StepResults, f.Step())

	require.NoError(t, f.ChooseHotel(context.Background(), "h1"))
	assert.ErrorIs(t, f.ChooseRoom("missing"), ErrUnknownRoom)
	assert.ErrorIs(t, f.ChooseRoom("r2"), ErrNoRatePlan)
	assert.Equal(t, StepRoom, f.Step())
}

func TestFlowSubmitValidatesGuest(t *testing.T) {
	p := hakubaProvider()
	f := newTestFlow(p, Options{})
	advanceToGuest(t, f)

	err := f.SubmitBooking(context.Background(), GuestInfo{FirstName: "John", Email: "not-an-email"})
	inputErr := IsInputError(err)
	require.NotNil(t, inputErr)
	assert.Contains(t, inputErr.Fields(), "lastName")
	assert.Contains(t, inputErr.Fields(), "email")
	assert.Empty(t, p.createCalls)
	assert.Equal(t, StepGuest, f.Step())
}

func TestFlowSubmitDeclined(t *testing.T) {
	p := hakubaProvider()
	p.createResults = []api.CreateBookingResult{{Success: false, FailureMessage: "Room no longer available"}}
	f := newTestFlow(p, Options{})
	advanceToGuest(t, f)

	err := f.SubmitBooking(context.Background(), johnDoe())
	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "Room no longer available", failed.Message)
	assert.Equal(t, StepGuest, f.Step())
	assert.Equal(t, "Room no longer available", f.Error())
	assert.Nil(t, f.State().Result)
}

func TestFlowRetryAfterTransportErrorReconciles(t *testing.T) {
	p := hakubaProvider()
	p.createErrs = []error{api.ErrTimeout}
	p.existing = []api.Booking{{
		BookingID:  "abc123",
		RoomTypeID: "r1",
		CheckIn:    "20251210",
		CheckOut:   "20251213",
		GuestEmail: "JOHN@x.com",
	}}
	dedup := newMemoryDedup()
	f := newTestFlow(p, Options{Dedup: dedup})
	advanceToGuest(t, f)

	err := f.SubmitBooking(context.Background(), johnDoe())
	require.ErrorIs(t, err, api.ErrTimeout)
	assert.Equal(t, StepGuest, f.Step())
	assert.Equal(t, DedupPending, dedup.records["key-1"].Status)

	require.NoError(t, f.SubmitBooking(context.Background(), johnDoe()))

	assert.Len(t, p.createCalls, 1)
	assert.Equal(t, 1, p.listByDate)
	state := f.State()
	assert.Equal(t, StepConfirmation, state.Step)
	require.NotNil(t, state.Result)
	assert.Equal(t, "abc123", state.Result.BookingID)
	assert.True(t, state.Result.Reconciled)
	assert.Equal(t, DedupDone, dedup.records["key-1"].Status)
}

func TestFlowRetryWithoutMatchReusesKey(t *testing.T) {
	p := hakubaProvider()
	p.createErrs = []error{errors.New("connection reset")}
	p.createResults = []api.CreateBookingResult{{}, p.createResults[0]}
	keys := 0
	f := newTestFlow(p, Options{NewKey: func() string {
		keys++
		return "key-" + string(rune('0'+keys))
	}})
	advanceToGuest(t, f)

	require.Error(t, f.SubmitBooking(context.Background(), johnDoe()))
	require.NoError(t, f.SubmitBooking(context.Background(), johnDoe()))

	require.Len(t, p.createCalls, 2)
	assert.Equal(t, p.createCalls[0].IdempotencyKey, p.createCalls[1].IdempotencyKey)
	assert.Equal(t, 1, p.listByDate)
	assert.Equal(t, 1, keys)
}

func TestFlowCompletedKeyIsNotResubmitted(t *testing.T) {
	p := hakubaProvider()
	dedup := newMemoryDedup()
	stored := Result{
		BookingID:     "abc123",
		HotelID:       "h1",
		RoomTypeID:    "r1",
		CheckIn:       "20251210",
		CheckOut:      "20251213",
		LeadGuest:     "John Doe",
		Currency:      "JPY",
		InvoiceAmount: 165000,
	}
	dedup.records["key-1"] = DedupRecord{Status: DedupDone, Result: &stored}
	f := newTestFlow(p, Options{Dedup: dedup})
	advanceToGuest(t, f)

	require.NoError(t, f.SubmitBooking(context.Background(), johnDoe()))
	assert.Empty(t, p.createCalls)
	assert.Equal(t, "abc123", f.State().Result.BookingID)
}

func TestFlowStaleRateRevalidated(t *testing.T) {
	now := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("unchanged rate submits", func(t *testing.T) {
		p := hakubaProvider()
		f := newTestFlow(p, Options{RateTTL: 15 * time.Minute, Now: clock})
		advanceToGuest(t, f)
		now = now.Add(20 * time.Minute)

		require.NoError(t, f.SubmitBooking(context.Background(), johnDoe()))
		assert.Len(t, p.availableCalls, 2)
		assert.Equal(t, []string{"h1"}, p.availableCalls[1].HotelIDs)
	})

	t.Run("changed rate stops submission", func(t *testing.T) {
		p := hakubaProvider()
		f := newTestFlow(p, Options{RateTTL: 15 * time.Minute, Now: clock})
		advanceToGuest(t, f)
		p.available[0].AvailableRoomTypes[0].RatePlan = &api.RatePlan{RatePlanID: "rp1", PriceRetail: 55000}
		now = now.Add(20 * time.Minute)

		err := f.SubmitBooking(context.Background(), johnDoe())
		assert.ErrorIs(t, err, ErrRateChanged)
		assert.Contains(t, err.Error(), "¥55,000")
		assert.Empty(t, p.createCalls)
		assert.Equal(t, 55000.0, f.State().SelectedRatePlan.PriceRetail)

		require.NoError(t, f.SubmitBooking(context.Background(), johnDoe()))
		require.Len(t, p.createCalls, 1)
		assert.InDelta(t, 181500, float64(p.createCalls[0].PriceRetailMax), 0.001)
	})

	t.Run("vanished rate", func(t *testing.T) {
		p := hakubaProvider()
		f := newTestFlow(p, Options{RateTTL: 15 * time.Minute, Now: clock})
		advanceToGuest(t, f)
		p.available = nil
		now = now.Add(20 * time.Minute)

		assert.ErrorIs(t, f.SubmitBooking(context.Background(), johnDoe()), ErrRateExpired)
		assert.Empty(t, p.createCalls)
		assert.Equal(t, StepGuest, f.Step())
	})
}

func TestFlowRetryAfterTimeoutReconcilesBeforeRateCheck(t *testing.T) {
	lostBooking := []api.Booking{{
		BookingID:  "abc123",
		RoomTypeID: "r1",
		CheckIn:    "20251210",
		CheckOut:   "20251213",
		GuestEmail: "john@x.com",
	}}

	setup := func(t *testing.T) (*fakeProvider, *memoryDedup, *Flow) {
		t.Helper()
		now := time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)
		p := hakubaProvider()
		p.createErrs = []error{api.ErrTimeout}
		dedup := newMemoryDedup()
		f := newTestFlow(p, Options{
			RateTTL: 15 * time.Minute,
			Now:     func() time.Time { return now },
			Dedup:   dedup,
		})
		advanceToGuest(t, f)
		require.ErrorIs(t, f.SubmitBooking(context.Background(), johnDoe()), api.ErrTimeout)
		now = now.Add(20 * time.Minute)
		return p, dedup, f
	}

	t.Run("price changed but earlier attempt booked", func(t *testing.T) {
		p, dedup, f := setup(t)
		p.existing = lostBooking
		p.available[0].AvailableRoomTypes[0].RatePlan = &api.RatePlan{RatePlanID: "rp1", PriceRetail: 52000}

		require.NoError(t, f.SubmitBooking(context.Background(), johnDoe()))
		assert.Len(t, p.createCalls, 1)
		assert.Equal(t, 1, p.listByDate)
		assert.Equal(t, "abc123", f.State().Result.BookingID)
		assert.True(t, f.State().Result.Reconciled)
		assert.Equal(t, DedupDone, dedup.records["key-1"].Status)
	})

	t.Run("room gone because earlier attempt took it", func(t *testing.T) {
		p, _, f := setup(t)
		p.existing = lostBooking
		p.available = nil

		require.NoError(t, f.SubmitBooking(context.Background(), johnDoe()))
		assert.Len(t, p.createCalls, 1)
		assert.Equal(t, "abc123", f.State().Result.BookingID)
	})

	t.Run("price changed and nothing booked keeps the key", func(t *testing.T) {
		p, _, f := setup(t)
		p.createResults = []api.CreateBookingResult{{}, p.createResults[0]}
		p.available[0].AvailableRoomTypes[0].RatePlan = &api.RatePlan{RatePlanID: "rp1", PriceRetail: 52000}

		assert.ErrorIs(t, f.SubmitBooking(context.Background(), johnDoe()), ErrRateChanged)
		assert.Len(t, p.createCalls, 1)

		require.NoError(t, f.SubmitBooking(context.Background(), johnDoe()))
		require.Len(t, p.createCalls, 2)
		assert.Equal(t, "key-1", p.createCalls[1].IdempotencyKey)
		assert.InDelta(t, 171600, float64(p.createCalls[1].PriceRetailMax), 0.001)
		assert.Equal(t, 2, p.listByDate)
	})

	t.Run("room gone and nothing booked", func(t *testing.T) {
		p, _, f := setup(t)
		p.available = nil

		assert.ErrorIs(t, f.SubmitBooking(context.Background(), johnDoe()), ErrRateExpired)
		assert.Equal(t, 1, p.listByDate)
		assert.Len(t, p.createCalls, 1)
	})
}

func TestFlowReusedKeyForDifferentStayIsRejected(t *testing.T) {
	p := hakubaProvider()
	p.available[0].AvailableRoomTypes = append(p.available[0].AvailableRoomTypes, api.RoomType{
		RoomTypeID: "r2",
		RatePlan:   &api.RatePlan{RatePlanID: "rp2", PriceRetail: 30000},
	})
	dedup := newMemoryDedup()
	f := newTestFlow(p, Options{Dedup: dedup, NewKey: func() string { return "fixed" }})
	ctx := context.Background()

	advanceToGuest(t, f)
	require.NoError(t, f.SubmitBooking(ctx, johnDoe()))
	require.NoError(t, f.BookAnother())

	require.NoError(t, f.Search(ctx, hakubaCriteria()))
	require.NoError(t, f.ChooseHotel(ctx, "h1"))
	require.NoError(t, f.ChooseRoom("r2"))
	err := f.SubmitBooking(ctx, GuestInfo{FirstName: "Jane", LastName: "Roe", Email: "jane@x.com"})

	assert.ErrorIs(t, err, ErrKeyReused)
	assert.Len(t, p.createCalls, 1)
	assert.Equal(t, StepGuest, f.Step())
	assert.Nil(t, f.State().Result)
}

func TestFlowSubmitIsBusyWhileInFlight(t *testing.T) {
	p := hakubaProvider()
	p.createGate = make(chan struct{})
	p.createStarted = make(chan struct{})
	f := newTestFlow(p, Options{})
	advanceToGuest(t, f)

	done := make(chan error, 1)
	go func() { done <- f.SubmitBooking(context.Background(), johnDoe()) }()
	<-p.createStarted

	assert.True(t, f.Busy("submit"))
	assert.Equal(t, []string{"submit"}, f.State().Busy)
	assert.ErrorIs(t, f.SubmitBooking(context.Background(), johnDoe()), ErrBusy)
	assert.ErrorIs(t, f.ModifySearch(), ErrBusy)

	close(p.createGate)
	require.NoError(t, <-done)
	assert.False(t, f.Busy("submit"))
	assert.Equal(t, StepConfirmation, f.Step())
}

func TestFlowSearchUsesDefaultCountry(t *testing.T) {
	p := hakubaProvider()
	f := newTestFlow(p, Options{CountryCode: "jp"})
	criteria := hakubaCriteria()
	criteria.LocationCode = " hakuba "

	require.NoError(t, f.Search(context.Background(), criteria))
	state := f.State()
	assert.Equal(t, "JP", state.Criteria.CountryCode)
	assert.Equal(t, "HAKUBA", state.Criteria.LocationCode)
}

func TestFlowNilProvider(t *testing.T) {
	f := New(nil, Options{Log: quietLogger()})
	assert.ErrorIs(t, f.Search(context.Background(), hakubaCriteria()), ErrMissingProvider)
}
