package cmd

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomboss-cli/api"
	"roomboss-cli/booking"
	"roomboss-cli/storage"
)

func TestParseDateInput(t *testing.T) {
	want := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)

	got, err := parseDateInput("2025-12-10")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = parseDateInput(" 20251210 ")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	today, err := parseDateInput("Today")
	require.NoError(t, err)
	tomorrow, err := parseDateInput("tomorrow")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, tomorrow.Sub(today))

	_, err = parseDateInput("")
	assert.EqualError(t, err, "date is required")

	_, err = parseDateInput("10/12/2025")
	assert.EqualError(t, err, `invalid date "10/12/2025" (expected YYYY-MM-DD)`)
}

func TestDisplayDate(t *testing.T) {
	assert.Equal(t, "2025-12-10", displayDate("20251210"))
	assert.Equal(t, "2025-12-10", displayDate("2025-12-10"))
	assert.Equal(t, "", displayDate(""))
}

func TestSearchFlagsCriteria(t *testing.T) {
	flags := searchFlags{location: "hakuba", checkIn: "2025-12-10", nights: 3, adults: 2}
	criteria, err := flags.criteria()
	require.NoError(t, err)
	assert.Equal(t, "hakuba", criteria.LocationCode)
	assert.Equal(t, time.Date(2025, 12, 13, 0, 0, 0, 0, time.UTC), criteria.CheckOut)
	assert.Equal(t, 3, criteria.Nights())

	flags = searchFlags{location: "HAKUBA", checkIn: "2025-12-10", checkOut: "2025-12-13", adults: 2}
	criteria, err = flags.criteria()
	require.NoError(t, err)
	assert.Equal(t, 3, criteria.Nights())

	cases := []struct {
		name  string
		flags searchFlags
		err   string
	}{
		{"no check-in", searchFlags{checkOut: "2025-12-13"}, "--check-in is required"},
		{"no check-out", searchFlags{checkIn: "2025-12-10"}, "--check-out or --nights is required"},
		{"both", searchFlags{checkIn: "2025-12-10", checkOut: "2025-12-13", nights: 3}, "use either --check-out or --nights, not both"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.flags.criteria()
			assert.EqualError(t, err, tc.err)
		})
	}
}

func TestParseExtent(t *testing.T) {
	extent, err := parseExtent("request")
	require.NoError(t, err)
	assert.Equal(t, api.ExtentRequest, extent)

	extent, err = parseExtent(" RESERVATION ")
	require.NoError(t, err)
	assert.Equal(t, api.ExtentReservation, extent)

	_, err = parseExtent("hold")
	assert.Error(t, err)
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(fmt.Errorf("create booking: %w", api.ErrTimeout)))
	assert.True(t, retryable(&api.HTTPError{StatusCode: 503, Status: "503 Service Unavailable"}))
	assert.True(t, retryable(fmt.Errorf("wrapped: %w", &api.HTTPError{StatusCode: 504})))
	assert.False(t, retryable(&api.HTTPError{StatusCode: 400}))
	assert.False(t, retryable(booking.ErrRateChanged))
}

func TestFirstKeyOnlyAppliesOnce(t *testing.T) {
	next := firstKey("retry-me")
	assert.Equal(t, "retry-me", next())

	second := next()
	assert.NotEqual(t, "retry-me", second)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, second, next())
}

func TestParseChoice(t *testing.T) {
	index, ok := parseChoice("2", 3)
	assert.True(t, ok)
	assert.Equal(t, 1, index)

	for _, input := range []string{"0", "4", "x", ""} {
		_, ok := parseChoice(input, 3)
		assert.False(t, ok, input)
	}
}

func TestLedgerFromRemote(t *testing.T) {
	got := ledgerFromRemote(api.Booking{
		BookingID:       "abc123",
		HotelID:         "h1",
		HotelName:       "Hakuba Lodge",
		CheckIn:         "20251210",
		CheckOut:        "20251213",
		NumberGuests:    2,
		GuestGivenName:  "John",
		GuestFamilyName: "Doe",
		Active:          true,
	})
	assert.Equal(t, "abc123", got.ID)
	assert.Equal(t, "2025-12-10", got.CheckIn)
	assert.Equal(t, "2025-12-13", got.CheckOut)
	assert.Equal(t, 3, got.Nights)
	assert.Equal(t, "John Doe", got.LeadGuest)
	assert.Equal(t, storage.BookingStatusConfirmed, got.Status)

	cancelled := ledgerFromRemote(api.Booking{BookingID: "x", CheckIn: "bad"})
	assert.Equal(t, storage.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, 0, cancelled.Nights)
}

func TestComputeBookingStats(t *testing.T) {
	bookings := []storage.Booking{
		{ID: "1", HotelID: "h1", HotelName: "Hakuba Lodge", CheckIn: "2025-01-05", Nights: 2, Currency: "JPY", Total: 40000, Status: storage.BookingStatusConfirmed},
		{ID: "2", HotelID: "h1", HotelName: "Hakuba Lodge", CheckIn: "2025-12-10", Nights: 3, Currency: "JPY", Total: 165000, Status: storage.BookingStatusConfirmed},
		{ID: "3", HotelID: "h2", CheckIn: "2025-03-01", Nights: 1, Currency: "AUD", Total: 300, Status: storage.BookingStatusConfirmed},
		{ID: "4", HotelID: "h2", CheckIn: "2025-02-01", Nights: 4, Currency: "AUD", Total: 900, Status: storage.BookingStatusCancelled},
	}

	stats := computeBookingStats(bookings, "2025-06-01")
	assert.Equal(t, 4, stats.TotalBookings)
	assert.Equal(t, 1, stats.Cancelled)
	assert.Equal(t, 6, stats.TotalNights)
	assert.Equal(t, map[string]float64{"JPY": 205000, "AUD": 300}, stats.SpentByCurrency)
	assert.Equal(t, "Hakuba Lodge", stats.FavouriteHotel)
	assert.Equal(t, 2, stats.FavouriteHotelCount)
	assert.Equal(t, "2025-03-01", stats.LastStay)
	assert.Equal(t, "2025-12-10", stats.NextStay)

	empty := computeBookingStats(nil, "2025-06-01")
	assert.Equal(t, "N/A", empty.FavouriteHotel)
	assert.Equal(t, "N/A", empty.LastStay)
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printHistory(&buf, nil))
	assert.Equal(t, "No API requests made.\n", buf.String())

	buf.Reset()
	records := []api.RequestRecord{{
		ID:         2,
		Timestamp:  time.Date(2025, 12, 1, 9, 30, 0, 0, time.UTC),
		Operation:  "createBooking",
		Status:     "error",
		StatusCode: 503,
		Duration:   1500 * time.Millisecond,
		Error:      "request failed: 503 Service Unavailable",
	}}
	require.NoError(t, printHistory(&buf, records))
	assert.Contains(t, buf.String(), "OPERATION")
	assert.Contains(t, buf.String(), "createBooking")
	assert.Contains(t, buf.String(), "503")
	assert.Contains(t, buf.String(), "1.5s")
}

func TestPrintConfirmation(t *testing.T) {
	var buf bytes.Buffer
	printConfirmation(&buf, booking.Result{
		BookingID:    "abc123",
		HotelName:    "Hakuba Lodge",
		RoomTypeName: "Twin Room",
		CheckIn:      "20251210",
		CheckOut:     "20251213",
		Nights:       3,
		Guests:       2,
		Currency:     "JPY",
		Extent:       api.ExtentRequest,
		Reconciled:   true,
	})
	out := buf.String()
	assert.Contains(t, out, "Requested: Hakuba Lodge, Twin Room")
	assert.Contains(t, out, "2025-12-10 to 2025-12-13 | 3 nights | 2 guests")
	assert.Contains(t, out, "Booking ID: abc123")
	assert.Contains(t, out, "no new booking was made")
}
