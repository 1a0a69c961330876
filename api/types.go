package api

type Hotel struct {
	HotelID            string     `json:"hotelId"`
	HotelName          string     `json:"hotelName"`
	CountryCode        string     `json:"countryCode"`
	LocationCode       string     `json:"locationCode"`
	Currency           string     `json:"currency"`
	RoomTypes          []RoomType `json:"roomTypes,omitempty"`
	AvailableRoomTypes []RoomType `json:"availableRoomTypes,omitempty"`
}

// FindAvailableRoom looks up a room type returned by an availability search.
func (h Hotel) FindAvailableRoom(roomTypeID string) (RoomType, bool) {
	for _, room := range h.AvailableRoomTypes {
		if room.RoomTypeID == roomTypeID {
			return room, true
		}
	}
	return RoomType{}, false
}

// CheapestRoom returns the available room type with the lowest retail rate.
func (h Hotel) CheapestRoom() (RoomType, bool) {
	var best RoomType
	found := false
	for _, room := range h.AvailableRoomTypes {
		if room.RatePlan == nil {
			continue
		}
		if !found || room.RatePlan.PriceRetail < best.RatePlan.PriceRetail {
			best = room
			found = true
		}
	}
	return best, found
}

type RoomType struct {
	RoomTypeID        string    `json:"roomTypeId"`
	RoomTypeName      string    `json:"roomTypeName"`
	MaxNumberGuests   int       `json:"maxNumberGuests"`
	MaxNumberAdults   int       `json:"maxNumberAdults"`
	MaxNumberChildren int       `json:"maxNumberChildren"`
	MaxNumberInfants  int       `json:"maxNumberInfants"`
	NumberBedrooms    int       `json:"numberBedrooms"`
	NumberBathrooms   float64   `json:"numberBathrooms"`
	RatePlan          *RatePlan `json:"ratePlan,omitempty"`
}

// RatePlan is a priced offer for one room type over the searched dates.
// PriceRetail is per night.
type RatePlan struct {
	RatePlanID  string   `json:"ratePlanId"`
	Name        string   `json:"name,omitempty"`
	PriceRetail float64  `json:"priceRetail"`
	PriceRack   *float64 `json:"priceRack,omitempty"`
	PriceNet    *float64 `json:"priceNet,omitempty"`
}

type ImageSet struct {
	HotelID        string                       `json:"hotelId"`
	HotelImages    map[string]string            `json:"hotelImages"`
	RoomTypeImages map[string]map[string]string `json:"roomTypeImages"`
}

type Descriptions struct {
	HotelID              string            `json:"hotelId"`
	Locale               string            `json:"locale"`
	HotelDescription     string            `json:"hotelDescription"`
	RoomTypeDescriptions map[string]string `json:"roomTypeDescriptions"`
}

type RatePlanDescription struct {
	RatePlanID  string `json:"ratePlanId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Extent is the server-side classification of a booking.
type Extent string

const (
	ExtentReservation Extent = "RESERVATION"
	ExtentRequest     Extent = "REQUEST"
)

type Booking struct {
	BookingID       string `json:"bookingId"`
	HotelID         string `json:"hotelId,omitempty"`
	HotelName       string `json:"hotelName,omitempty"`
	RoomTypeID      string `json:"roomTypeId,omitempty"`
	RoomTypeName    string `json:"roomTypeName,omitempty"`
	CheckIn         string `json:"checkIn,omitempty"`
	CheckOut        string `json:"checkOut,omitempty"`
	NumberGuests    int    `json:"numberGuests,omitempty"`
	GuestGivenName  string `json:"guestGivenName,omitempty"`
	GuestFamilyName string `json:"guestFamilyName,omitempty"`
	GuestEmail      string `json:"guestEmail,omitempty"`
	Extent          Extent `json:"bookingExtent,omitempty"`
	Active          bool   `json:"active,omitempty"`
	GuestPortalURL  string `json:"eTicketUrl,omitempty"`
}

type InvoicePayment struct {
	InvoiceNumber string  `json:"invoiceNumber"`
	InvoiceAmount float64 `json:"invoiceAmount"`
	PaymentAmount float64 `json:"paymentAmount,omitempty"`
	InvoiceDate   string  `json:"invoiceDate,omitempty"`
}

type Order struct {
	OrderID         string           `json:"orderId,omitempty"`
	Currency        string           `json:"currency,omitempty"`
	Bookings        []Booking        `json:"bookings"`
	InvoicePayments []InvoicePayment `json:"invoicePayments"`
}

type CreateBookingResult struct {
	Success        bool   `json:"success"`
	FailureMessage string `json:"failureMessage,omitempty"`
	Order          *Order `json:"order,omitempty"`
}

type CancelResult struct {
	Success        bool   `json:"success"`
	FailureMessage string `json:"failureMessage,omitempty"`
}

type Vendor struct {
	VendorID     string `json:"vendorId"`
	Name         string `json:"name"`
	LocationCode string `json:"locationCode,omitempty"`
	Currency     string `json:"currency,omitempty"`
}

type Category struct {
	CategoryID string `json:"categoryId"`
	Name       string `json:"name"`
}

type Product struct {
	ProductID  string  `json:"productId"`
	Name       string  `json:"name"`
	VendorID   string  `json:"vendorId,omitempty"`
	CategoryID string  `json:"categoryId,omitempty"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency,omitempty"`
}
