package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"roomboss-cli/api"
	"roomboss-cli/booking"

	"github.com/spf13/cobra"
)

type AvailableRoom struct {
	HotelID      string  `json:"hotel_id"`
	HotelName    string  `json:"hotel_name"`
	RoomTypeID   string  `json:"room_type_id"`
	RoomTypeName string  `json:"room_type_name"`
	MaxGuests    int     `json:"max_guests"`
	Bedrooms     int     `json:"bedrooms"`
	RatePlanID   string  `json:"rate_plan_id"`
	Currency     string  `json:"currency"`
	PerNight     float64 `json:"per_night"`
	Total        float64 `json:"total"`
}

type AvailabilityOutput struct {
	Location string          `json:"location"`
	CheckIn  string          `json:"check_in"`
	CheckOut string          `json:"check_out"`
	Nights   int             `json:"nights"`
	Guests   int             `json:"guests"`
	Rooms    []AvailableRoom `json:"rooms"`
}

// searchFlags are shared by availability and book.
type searchFlags struct {
	country      string
	location     string
	checkIn      string
	checkOut     string
	nights       int
	adults       int
	children     int
	infants      int
	rate         string
	discountCode string
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.country, "country", "", "Country code (default: $ROOMBOSS_COUNTRY)")
	cmd.Flags().StringVar(&f.location, "location", "", "Location code, e.g. HAKUBA (default: $ROOMBOSS_LOCATION)")
	cmd.Flags().StringVar(&f.checkIn, "check-in", "", "Check-in date (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVar(&f.checkOut, "check-out", "", "Check-out date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.nights, "nights", 0, "Number of nights, instead of --check-out")
	cmd.Flags().IntVar(&f.adults, "adults", 2, "Number of adults")
	cmd.Flags().IntVar(&f.children, "children", 0, "Number of children")
	cmd.Flags().IntVar(&f.infants, "infants", 0, "Number of infants")
	cmd.Flags().StringVar(&f.rate, "rate", "", "Rate filter")
	cmd.Flags().StringVar(&f.discountCode, "discount-code", "", "Discount code")
}

func (f *searchFlags) criteria() (booking.SearchCriteria, error) {
	criteria := booking.SearchCriteria{
		CountryCode:  f.country,
		LocationCode: f.location,
		Adults:       f.adults,
		Children:     f.children,
		Infants:      f.infants,
		Rate:         strings.TrimSpace(f.rate),
		DiscountCode: strings.TrimSpace(f.discountCode),
	}
	if criteria.CountryCode == "" {
		criteria.CountryCode = cfg.Defaults.CountryCode
	}
	if criteria.LocationCode == "" {
		criteria.LocationCode = cfg.Defaults.LocationCode
	}
	if f.checkIn == "" {
		return criteria, fmt.Errorf("--check-in is required")
	}
	checkIn, err := parseDateInput(f.checkIn)
	if err != nil {
		return criteria, err
	}
	criteria.CheckIn = checkIn

	switch {
	case f.checkOut != "" && f.nights > 0:
		return criteria, fmt.Errorf("use either --check-out or --nights, not both")
	case f.checkOut != "":
		checkOut, err := parseDateInput(f.checkOut)
		if err != nil {
			return criteria, err
		}
		criteria.CheckOut = checkOut
	case f.nights > 0:
		criteria.CheckOut = checkIn.AddDate(0, 0, f.nights)
	default:
		return criteria, fmt.Errorf("--check-out or --nights is required")
	}
	return criteria, nil
}

func availabilityCmd() *cobra.Command {
	var search searchFlags
	var hotelInputs []string

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Show available rooms for a location and dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := search.criteria()
			if err != nil {
				return err
			}
			hotelIDs, err := resolveHotelIDs(hotelInputs)
			if err != nil {
				return err
			}

			ctx := context.Background()
			hotels, err := findAvailability(ctx, criteria, hotelIDs)
			if err != nil {
				return err
			}

			output := AvailabilityOutput{
				Location: strings.ToUpper(criteria.LocationCode),
				CheckIn:  criteria.CheckIn.Format("2006-01-02"),
				CheckOut: criteria.CheckOut.Format("2006-01-02"),
				Nights:   criteria.Nights(),
				Guests:   criteria.GuestTotal(),
				Rooms:    flattenAvailability(hotels, criteria.Nights()),
			}

			if outputJSON {
				return writeJSON(output)
			}
			return renderAvailability(output)
		},
	}

	search.register(cmd)
	cmd.Flags().StringSliceVar(&hotelInputs, "hotel", nil, "Hotel id or saved alias (repeatable); skips the location lookup")
	return cmd
}

// findAvailability runs listAvailable for the given hotels, or for every hotel
// of the criteria's location when none are given.
func findAvailability(ctx context.Context, criteria booking.SearchCriteria, hotelIDs []string) ([]api.Hotel, error) {
	names := map[string]api.Hotel{}
	if len(hotelIDs) == 0 {
		if criteria.LocationCode == "" {
			return nil, fmt.Errorf("--location or --hotel is required")
		}
		hotels, err := client.ListHotels(ctx, strings.ToUpper(criteria.CountryCode), strings.ToUpper(criteria.LocationCode))
		if err != nil {
			return nil, err
		}
		for _, hotel := range hotels {
			hotelIDs = append(hotelIDs, hotel.HotelID)
			names[hotel.HotelID] = hotel
		}
		if len(hotelIDs) == 0 {
			return nil, booking.ErrNoHotels
		}
	}

	available, err := client.ListAvailable(ctx, api.AvailabilityQuery{
		HotelIDs:       hotelIDs,
		CheckIn:        api.FormatDate(criteria.CheckIn),
		CheckOut:       api.FormatDate(criteria.CheckOut),
		NumberAdults:   criteria.Adults,
		NumberChildren: criteria.Children,
		NumberInfants:  criteria.Infants,
		Rate:           criteria.Rate,
		DiscountCode:   criteria.DiscountCode,
	})
	if err != nil {
		return nil, err
	}
	for i := range available {
		listed, ok := names[available[i].HotelID]
		if !ok {
			continue
		}
		if available[i].HotelName == "" {
			available[i].HotelName = listed.HotelName
		}
		if available[i].Currency == "" {
			available[i].Currency = listed.Currency
		}
	}
	return available, nil
}

func flattenAvailability(hotels []api.Hotel, nights int) []AvailableRoom {
	rooms := []AvailableRoom{}
	for _, hotel := range hotels {
		for _, room := range hotel.AvailableRoomTypes {
			if room.RatePlan == nil {
				continue
			}
			rooms = append(rooms, AvailableRoom{
				HotelID:      hotel.HotelID,
				HotelName:    hotel.HotelName,
				RoomTypeID:   room.RoomTypeID,
				RoomTypeName: room.RoomTypeName,
				MaxGuests:    room.MaxNumberGuests,
				Bedrooms:     room.NumberBedrooms,
				RatePlanID:   room.RatePlan.RatePlanID,
				Currency:     hotel.Currency,
				PerNight:     room.RatePlan.PriceRetail,
				Total:        booking.TotalPrice(room.RatePlan.PriceRetail, nights),
			})
		}
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].HotelName == rooms[j].HotelName {
			return rooms[i].PerNight < rooms[j].PerNight
		}
		return rooms[i].HotelName < rooms[j].HotelName
	})
	return rooms
}

func renderAvailability(output AvailabilityOutput) error {
	fmt.Printf("%s | %s to %s | %d nights | %d guests\n", output.Location, output.CheckIn, output.CheckOut, output.Nights, output.Guests)
	if len(output.Rooms) == 0 {
		fmt.Println("No available rooms.")
		return nil
	}

	if outputCompact {
		for _, room := range output.Rooms {
			fmt.Printf("%s/%s %s\n", room.HotelID, room.RoomTypeID, formatPrice(room.Currency, room.Total))
		}
		return nil
	}

	writer := newTable(os.Stdout)
	fmt.Fprintln(writer, "HOTEL\tROOM\tHOTEL ID\tROOM ID\tGUESTS\tPER NIGHT\tTOTAL")
	for _, room := range output.Rooms {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			room.HotelName,
			room.RoomTypeName,
			room.HotelID,
			room.RoomTypeID,
			room.MaxGuests,
			formatPrice(room.Currency, room.PerNight),
			formatPrice(room.Currency, room.Total),
		)
	}
	return writer.Flush()
}
