package booking

import (
	"context"
	"strings"

	"roomboss-cli/api"
)

// Result is the confirmation of a booking. It is immutable once received.
type Result struct {
	BookingID      string     `json:"bookingId"`
	OrderID        string     `json:"orderId,omitempty"`
	InvoiceNumber  string     `json:"invoiceNumber,omitempty"`
	InvoiceAmount  float64    `json:"invoiceAmount,omitempty"`
	Currency       string     `json:"currency,omitempty"`
	GuestPortalURL string     `json:"guestPortalUrl,omitempty"`
	HotelID        string     `json:"hotelId"`
	HotelName      string     `json:"hotelName,omitempty"`
	RoomTypeID     string     `json:"roomTypeId"`
	RoomTypeName   string     `json:"roomTypeName,omitempty"`
	RatePlanID     string     `json:"ratePlanId"`
	CheckIn        string     `json:"checkIn"`
	CheckOut       string     `json:"checkOut"`
	Nights         int        `json:"nights"`
	Guests         int        `json:"guests"`
	TotalPrice     float64    `json:"totalPrice"`
	Extent         api.Extent `json:"bookingExtent,omitempty"`
	LeadGuest      string     `json:"leadGuest,omitempty"`
	Email          string     `json:"email,omitempty"`
	// Reconciled is set when the booking was found on the server after an
	// earlier attempt with the same idempotency key ended without a response.
	Reconciled bool `json:"reconciled,omitempty"`
}

func newResult(hotel api.Hotel, room api.RoomType, rate api.RatePlan, criteria SearchCriteria, guest GuestInfo, extent api.Extent) Result {
	nights := criteria.Nights()
	return Result{
		Currency:     hotel.Currency,
		HotelID:      hotel.HotelID,
		HotelName:    hotel.HotelName,
		RoomTypeID:   room.RoomTypeID,
		RoomTypeName: room.RoomTypeName,
		RatePlanID:   rate.RatePlanID,
		CheckIn:      api.FormatDate(criteria.CheckIn),
		CheckOut:     api.FormatDate(criteria.CheckOut),
		Nights:       nights,
		Guests:       criteria.GuestTotal(),
		TotalPrice:   TotalPrice(rate.PriceRetail, nights),
		Extent:       extent,
		LeadGuest:    strings.TrimSpace(guest.FirstName + " " + guest.LastName),
		Email:        strings.TrimSpace(guest.Email),
	}
}

// Total prefers the invoiced amount over the quoted total.
func (r Result) Total() float64 {
	if r.InvoiceAmount > 0 {
		return r.InvoiceAmount
	}
	return r.TotalPrice
}

func (r Result) FormattedTotal() string {
	return FormatPrice(r.Currency, r.Total())
}

func (r Result) withOrder(order *api.Order) Result {
	if order == nil {
		return r
	}
	r.OrderID = order.OrderID
	if order.Currency != "" {
		r.Currency = order.Currency
	}
	if len(order.Bookings) > 0 {
		first := order.Bookings[0]
		r.BookingID = first.BookingID
		if first.GuestPortalURL != "" {
			r.GuestPortalURL = first.GuestPortalURL
		}
	}
	if len(order.InvoicePayments) > 0 {
		r.InvoiceNumber = order.InvoicePayments[0].InvoiceNumber
		r.InvoiceAmount = order.InvoicePayments[0].InvoiceAmount
	}
	return r
}

// matches reports whether an existing server booking is the one this result
// describes: same room type, dates and lead guest.
func (r Result) matches(b api.Booking) bool {
	if b.BookingID == "" {
		return false
	}
	if b.RoomTypeID != "" && b.RoomTypeID != r.RoomTypeID {
		return false
	}
	if b.CheckIn != "" && b.CheckIn != r.CheckIn {
		return false
	}
	if b.CheckOut != "" && b.CheckOut != r.CheckOut {
		return false
	}
	if b.GuestEmail != "" && r.Email != "" {
		return strings.EqualFold(strings.TrimSpace(b.GuestEmail), strings.TrimSpace(r.Email))
	}
	name := strings.TrimSpace(b.GuestGivenName + " " + b.GuestFamilyName)
	return name != "" && strings.EqualFold(name, r.LeadGuest)
}

// sameStay reports whether r and other book the same room for the same
// dates and lead guest.
func (r Result) sameStay(other Result) bool {
	return r.HotelID == other.HotelID &&
		r.RoomTypeID == other.RoomTypeID &&
		r.CheckIn == other.CheckIn &&
		r.CheckOut == other.CheckOut &&
		strings.EqualFold(strings.TrimSpace(r.LeadGuest), strings.TrimSpace(other.LeadGuest))
}

type DedupStatus string

const (
	DedupPending DedupStatus = "pending"
	DedupDone    DedupStatus = "done"
	DedupFailed  DedupStatus = "failed"
)

type DedupRecord struct {
	Status DedupStatus `json:"status"`
	Result *Result     `json:"result,omitempty"`
}

// Dedup remembers submissions by idempotency key so a retried submission can
// be collapsed onto the booking it already created.
type Dedup interface {
	Lookup(ctx context.Context, key string) (DedupRecord, bool, error)
	Save(ctx context.Context, key string, record DedupRecord) error
}
