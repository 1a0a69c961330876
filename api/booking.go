package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
)

// Amount is a money value encoded in plain decimal notation, rounded to cents.
type Amount float64

func (a Amount) EncodeValues(key string, v *url.Values) error {
	rounded := math.Round(float64(a)*100) / 100
	v.Set(key, strconv.FormatFloat(rounded, 'f', -1, 64))
	return nil
}

// CreateBookingRequest carries everything createBooking needs. PriceRetailMax
// is the ceiling the server must not exceed when pricing the stay.
type CreateBookingRequest struct {
	HotelID         string `url:"hotelId"`
	RoomTypeID      string `url:"roomTypeId"`
	RatePlanID      string `url:"ratePlanId"`
	CheckIn         string `url:"checkIn"`
	CheckOut        string `url:"checkOut"`
	NumberAdults    int    `url:"numberAdults,omitempty"`
	NumberChildren  int    `url:"numberChildren,omitempty"`
	NumberInfants   int    `url:"numberInfants,omitempty"`
	GuestGivenName  string `url:"guestGivenName"`
	GuestFamilyName string `url:"guestFamilyName"`
	GuestEmail      string `url:"guestEmail"`
	ContactNumber   string `url:"contactNumber,omitempty"`
	PriceRetailMax  Amount `url:"priceRetailMax"`
	BookingExtent   Extent `url:"bookingExtent,omitempty"`
	Comment         string `url:"comment,omitempty"`

	// IdempotencyKey is sent as a header, never as a query parameter.
	IdempotencyKey string `url:"-"`
}

type bookingIDParams struct {
	BookingID string `url:"bookingId"`
}

type bookingsByDateParams struct {
	HotelID string `url:"hotelId"`
	Date    string `url:"date"`
}

// CreateBooking submits a booking. A rejected booking is reported through
// Success/FailureMessage, not as an error.
func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (CreateBookingResult, error) {
	if req.HotelID == "" || req.RoomTypeID == "" || req.RatePlanID == "" {
		return CreateBookingResult{}, fmt.Errorf("createBooking: hotel, room type and rate plan are required")
	}
	var header http.Header
	if req.IdempotencyKey != "" {
		header = http.Header{}
		header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	var result CreateBookingResult
	if err := c.get(ctx, "createBooking", hotelPrefix+"/createBooking", req, header, &result); err != nil {
		return CreateBookingResult{}, err
	}
	return result, nil
}

func (c *Client) ListBooking(ctx context.Context, bookingID string) (Order, error) {
	var resp struct {
		Order Order `json:"order"`
	}
	if err := c.get(ctx, "listBooking", hotelPrefix+"/listBooking", bookingIDParams{BookingID: bookingID}, nil, &resp); err != nil {
		return Order{}, err
	}
	return resp.Order, nil
}

// CancelBooking is irreversible on the server side.
func (c *Client) CancelBooking(ctx context.Context, bookingID string) (CancelResult, error) {
	var result CancelResult
	if err := c.get(ctx, "cancelBooking", hotelPrefix+"/cancelBooking", bookingIDParams{BookingID: bookingID}, nil, &result); err != nil {
		return CancelResult{}, err
	}
	return result, nil
}

// ListBookingsByDate returns the bookings occupying date (yyyyMMdd) at a hotel.
func (c *Client) ListBookingsByDate(ctx context.Context, hotelID, date string) ([]Booking, error) {
	params := bookingsByDateParams{HotelID: hotelID, Date: date}

	var resp struct {
		Bookings []Booking `json:"bookings"`
	}
	if err := c.get(ctx, "listBookingsByDate", hotelPrefix+"/listBookings", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Bookings, nil
}
