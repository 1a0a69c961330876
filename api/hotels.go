package api

import "context"

// AvailabilityQuery is the parameter set of listAvailable. Dates are yyyyMMdd;
// HotelIDs are sent as repeated hotelId parameters.
type AvailabilityQuery struct {
	HotelIDs       []string `url:"hotelId"`
	CheckIn        string   `url:"checkIn"`
	CheckOut       string   `url:"checkOut"`
	NumberGuests   int      `url:"numberGuests,omitempty"`
	NumberAdults   int      `url:"numberAdults,omitempty"`
	NumberChildren int      `url:"numberChildren,omitempty"`
	NumberInfants  int      `url:"numberInfants,omitempty"`
	Rate           string   `url:"rate,omitempty"`
	DiscountCode   string   `url:"discountCode,omitempty"`
}

type listHotelsParams struct {
	CountryCode  string `url:"countryCode,omitempty"`
	LocationCode string `url:"locationCode,omitempty"`
}

type hotelParams struct {
	HotelID string `url:"hotelId"`
}

type localizedHotelParams struct {
	HotelID string `url:"hotelId"`
	Locale  string `url:"locale,omitempty"`
}

func (c *Client) ListHotels(ctx context.Context, countryCode, locationCode string) ([]Hotel, error) {
	params := listHotelsParams{CountryCode: countryCode, LocationCode: locationCode}

	var resp struct {
		HotelList []Hotel `json:"hotelList"`
	}
	if err := c.get(ctx, "listHotels", hotelPrefix+"/list", params, nil, &resp); err != nil {
		return nil, err
	}
	c.cacheHotels(resp.HotelList)
	return resp.HotelList, nil
}

// CachedHotel returns a hotel seen by an earlier ListHotels call.
func (c *Client) CachedHotel(hotelID string) (Hotel, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	hotel, ok := c.hotels[hotelID]
	return hotel, ok
}

func (c *Client) cacheHotels(hotels []Hotel) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if c.hotels == nil {
		c.hotels = map[string]Hotel{}
	}
	for _, hotel := range hotels {
		if hotel.HotelID != "" {
			c.hotels[hotel.HotelID] = hotel
		}
	}
}

// fillFromCache completes the listing fields listAvailable leaves out.
func (c *Client) fillFromCache(hotel *Hotel) {
	cached, ok := c.CachedHotel(hotel.HotelID)
	if !ok {
		return
	}
	if hotel.HotelName == "" {
		hotel.HotelName = cached.HotelName
	}
	if hotel.Currency == "" {
		hotel.Currency = cached.Currency
	}
	if hotel.CountryCode == "" {
		hotel.CountryCode = cached.CountryCode
	}
	if hotel.LocationCode == "" {
		hotel.LocationCode = cached.LocationCode
	}
	if len(hotel.RoomTypes) == 0 {
		hotel.RoomTypes = cached.RoomTypes
	}
}

// ListAvailable returns only the hotels that have at least one available room type.
func (c *Client) ListAvailable(ctx context.Context, q AvailabilityQuery) ([]Hotel, error) {
	if q.NumberGuests == 0 {
		q.NumberGuests = q.NumberAdults + q.NumberChildren + q.NumberInfants
	}

	var resp struct {
		AvailableHotels []Hotel `json:"availableHotels"`
	}
	if err := c.get(ctx, "listAvailable", hotelPrefix+"/listAvailable", q, nil, &resp); err != nil {
		return nil, err
	}

	hotels := make([]Hotel, 0, len(resp.AvailableHotels))
	for _, hotel := range resp.AvailableHotels {
		if len(hotel.AvailableRoomTypes) == 0 {
			continue
		}
		c.fillFromCache(&hotel)
		hotels = append(hotels, hotel)
	}
	return hotels, nil
}

func (c *Client) ListImages(ctx context.Context, hotelID string) (ImageSet, error) {
	var images ImageSet
	if err := c.get(ctx, "listImages", hotelPrefix+"/listImage", hotelParams{HotelID: hotelID}, nil, &images); err != nil {
		return ImageSet{}, err
	}
	if images.HotelID == "" {
		images.HotelID = hotelID
	}
	return images, nil
}

func (c *Client) ListDescriptions(ctx context.Context, hotelID, locale string) (Descriptions, error) {
	params := localizedHotelParams{HotelID: hotelID, Locale: locale}

	var desc Descriptions
	if err := c.get(ctx, "listDescriptions", hotelPrefix+"/listDescription", params, nil, &desc); err != nil {
		return Descriptions{}, err
	}
	if desc.HotelID == "" {
		desc.HotelID = hotelID
	}
	if desc.Locale == "" {
		desc.Locale = locale
	}
	return desc, nil
}

func (c *Client) ListRatePlanDescriptions(ctx context.Context, hotelID, locale string) ([]RatePlanDescription, error) {
	params := localizedHotelParams{HotelID: hotelID, Locale: locale}

	var resp struct {
		RatePlanDescriptions []RatePlanDescription `json:"ratePlanDescriptions"`
	}
	if err := c.get(ctx, "listRatePlanDescriptions", hotelPrefix+"/listRatePlanDescription", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.RatePlanDescriptions, nil
}
