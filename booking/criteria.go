package booking

import (
	"math"
	"net/mail"
	"strings"
	"time"

	"roomboss-cli/api"
)

type SearchCriteria struct {
	CountryCode  string
	LocationCode string
	CheckIn      time.Time
	CheckOut     time.Time
	Adults       int
	Children     int
	Infants      int
	Rate         string
	DiscountCode string
}

// Nights is the number of nights between check-in and check-out, rounded up.
// Equal dates give 0.
func (c SearchCriteria) Nights() int {
	return Nights(c.CheckIn, c.CheckOut)
}

// GuestTotal is used for display. It is not enforced against room capacity.
func (c SearchCriteria) GuestTotal() int {
	return c.Adults + c.Children + c.Infants
}

func (c SearchCriteria) validate() error {
	inputErr := newInputError()
	if c.CheckIn.IsZero() {
		inputErr.add("checkIn", "provide a check-in date")
	}
	if c.CheckOut.IsZero() {
		inputErr.add("checkOut", "provide a check-out date")
	}
	if !c.CheckIn.IsZero() && !c.CheckOut.IsZero() && calendarDay(c.CheckOut).Before(calendarDay(c.CheckIn)) {
		inputErr.add("checkOut", "check-out must not be before check-in")
	}
	if strings.TrimSpace(c.LocationCode) == "" {
		inputErr.add("locationCode", "provide a location code")
	}
	if c.Adults < 1 {
		inputErr.add("adults", "at least one adult is required")
	}
	if c.Children < 0 || c.Infants < 0 {
		inputErr.add("guests", "guest counts must not be negative")
	}
	if inputErr.empty() {
		return nil
	}
	return inputErr
}

func (c SearchCriteria) availabilityQuery(hotelIDs []string) api.AvailabilityQuery {
	return api.AvailabilityQuery{
		HotelIDs:       hotelIDs,
		CheckIn:        api.FormatDate(c.CheckIn),
		CheckOut:       api.FormatDate(c.CheckOut),
		NumberGuests:   c.GuestTotal(),
		NumberAdults:   c.Adults,
		NumberChildren: c.Children,
		NumberInfants:  c.Infants,
		Rate:           c.Rate,
		DiscountCode:   c.DiscountCode,
	}
}

type GuestInfo struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	SpecialRequests string
}

func (g GuestInfo) validate() error {
	inputErr := newInputError()
	if strings.TrimSpace(g.FirstName) == "" {
		inputErr.add("firstName", "provide the lead guest's first name")
	}
	if strings.TrimSpace(g.LastName) == "" {
		inputErr.add("lastName", "provide the lead guest's last name")
	}
	if strings.TrimSpace(g.Email) == "" {
		inputErr.add("email", "provide an email address")
	} else if _, err := mail.ParseAddress(g.Email); err != nil {
		inputErr.add("email", "provide a valid email address")
	}
	if inputErr.empty() {
		return nil
	}
	return inputErr
}

// Nights counts calendar nights between two dates regardless of their zones.
func Nights(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 0
	}
	days := calendarDay(checkOut).Sub(calendarDay(checkIn)).Hours() / 24
	if days <= 0 {
		return 0
	}
	return int(math.Ceil(days))
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
