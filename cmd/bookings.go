package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"roomboss-cli/api"
	"roomboss-cli/storage"

	"github.com/spf13/cobra"
)

type BookingStats struct {
	TotalBookings       int                `json:"total_bookings"`
	Cancelled           int                `json:"cancelled"`
	TotalNights         int                `json:"total_nights"`
	SpentByCurrency     map[string]float64 `json:"spent_by_currency"`
	FavouriteHotel      string             `json:"favourite_hotel"`
	FavouriteHotelCount int                `json:"favourite_hotel_count"`
	LastStay            string             `json:"last_stay"`
	NextStay            string             `json:"next_stay"`
}

func bookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Manage bookings",
	}

	cmd.AddCommand(bookingsListCmd())
	cmd.AddCommand(bookingsShowCmd())
	cmd.AddCommand(bookingsCancelCmd())
	cmd.AddCommand(bookingsOnDateCmd())
	cmd.AddCommand(bookingsSyncCmd())
	cmd.AddCommand(bookingsRemoveCmd())
	cmd.AddCommand(bookingsStatsCmd())
	return cmd
}

func bookingsListCmd() *cobra.Command {
	var past bool
	var all bool
	var from string
	var to string
	var hotelInput string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings made from this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.BookingFilter{}

			if from != "" {
				date, err := parseDateInput(from)
				if err != nil {
					return err
				}
				filter.From = date.Format("2006-01-02")
			}
			if to != "" {
				date, err := parseDateInput(to)
				if err != nil {
					return err
				}
				filter.To = date.Format("2006-01-02")
			}
			if filter.From != "" && filter.To != "" && filter.From > filter.To {
				return fmt.Errorf("--from must be on or before --to")
			}
			if hotelInput != "" {
				ids, err := resolveHotelIDs([]string{hotelInput})
				if err != nil {
					return err
				}
				if len(ids) > 0 {
					filter.HotelID = ids[0]
				}
			}

			if !all && filter.From == "" && filter.To == "" {
				filter.NowDate = time.Now().Format("2006-01-02")
				if past {
					filter.Past = true
				} else {
					filter.Upcoming = true
				}
			}

			db, err := storage.OpenBookingsDB()
			if err != nil {
				return err
			}
			defer db.Close()

			bookings, err := storage.ListBookings(db, filter)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(bookings)
			}

			if len(bookings) == 0 {
				fmt.Println("No bookings found.")
				return nil
			}

			writer := newTable(os.Stdout)
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tCHECK-IN\tNIGHTS\tHOTEL\tROOM\tGUEST\tTOTAL\tSTATUS")
			}
			for _, booking := range bookings {
				fmt.Fprintf(writer, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
					booking.ID,
					booking.CheckIn,
					booking.Nights,
					booking.HotelName,
					booking.RoomTypeName,
					booking.LeadGuest,
					formatPrice(booking.Currency, booking.Total),
					booking.Status,
				)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().BoolVar(&past, "past", false, "List past stays")
	cmd.Flags().BoolVar(&all, "all", false, "List every booking")
	cmd.Flags().StringVar(&from, "from", "", "Earliest check-in (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Latest check-in (YYYY-MM-DD)")
	cmd.Flags().StringVar(&hotelInput, "hotel", "", "Hotel id or saved alias")
	return cmd
}

func bookingsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <booking-id>",
		Short: "Show a booking as RoomBoss has it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])

			ctx := context.Background()
			order, err := client.ListBooking(ctx, id)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(order)
			}

			if order.OrderID != "" {
				fmt.Printf("Order: %s\n", order.OrderID)
			}
			writer := newTable(os.Stdout)
			if !outputCompact {
				fmt.Fprintln(writer, "BOOKING\tHOTEL\tROOM\tCHECK-IN\tCHECK-OUT\tGUEST\tEXTENT\tACTIVE")
			}
			for _, b := range order.Bookings {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
					b.BookingID,
					b.HotelName,
					b.RoomTypeName,
					displayDate(b.CheckIn),
					displayDate(b.CheckOut),
					guestName(b),
					b.Extent,
					b.Active,
				)
			}
			if err := writer.Flush(); err != nil {
				return err
			}
			for _, invoice := range order.InvoicePayments {
				fmt.Printf("Invoice %s: %s (paid %s)\n",
					invoice.InvoiceNumber,
					formatPrice(order.Currency, invoice.InvoiceAmount),
					formatPrice(order.Currency, invoice.PaymentAmount),
				)
			}
			return nil
		},
	}

	return cmd
}

func bookingsCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <booking-id>",
		Short: "Cancel a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])

			ctx := context.Background()
			result, err := client.CancelBooking(ctx, id)
			if err != nil {
				return err
			}
			if !result.Success {
				message := result.FailureMessage
				if message == "" {
					message = "cancellation was declined"
				}
				return fmt.Errorf("cancel booking %s: %s", id, message)
			}

			db, err := storage.OpenBookingsDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := storage.UpdateBookingStatus(db, id, storage.BookingStatusCancelled); err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(result)
			}
			fmt.Printf("Cancelled booking %s.\n", id)
			return nil
		},
	}

	return cmd
}

func bookingsOnDateCmd() *cobra.Command {
	var hotelInput string
	var date string

	cmd := &cobra.Command{
		Use:   "on-date",
		Short: "List the bookings at a hotel on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			bookings, err := fetchBookingsOnDate(hotelInput, date)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(bookings)
			}

			if len(bookings) == 0 {
				fmt.Println("No bookings found.")
				return nil
			}

			writer := newTable(os.Stdout)
			if !outputCompact {
				fmt.Fprintln(writer, "BOOKING\tROOM\tCHECK-IN\tCHECK-OUT\tGUESTS\tGUEST\tEXTENT")
			}
			for _, b := range bookings {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					b.BookingID,
					firstNonEmpty(b.RoomTypeName, b.RoomTypeID),
					displayDate(b.CheckIn),
					displayDate(b.CheckOut),
					b.NumberGuests,
					guestName(b),
					b.Extent,
				)
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&hotelInput, "hotel", "", "Hotel id or saved alias")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD)")
	return cmd
}

func bookingsSyncCmd() *cobra.Command {
	var hotelInput string
	var date string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy a hotel's bookings on a date into the local ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, err := fetchBookingsOnDate(hotelInput, date)
			if err != nil {
				return err
			}

			db, err := storage.OpenBookingsDB()
			if err != nil {
				return err
			}
			defer db.Close()

			added := 0
			skipped := 0
			for _, b := range remote {
				inserted, err := storage.AddBookingIfNotExists(db, ledgerFromRemote(b))
				if err != nil {
					return err
				}
				if inserted {
					added++
				} else {
					skipped++
				}
			}

			if outputJSON {
				return writeJSON(map[string]int{
					"synced":  added,
					"skipped": skipped,
					"total":   len(remote),
				})
			}

			fmt.Printf("Sync complete. Added %d, skipped %d (total %d).\n", added, skipped, len(remote))
			return nil
		},
	}

	cmd.Flags().StringVar(&hotelInput, "hotel", "", "Hotel id or saved alias")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD)")
	return cmd
}

func bookingsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <booking-id>",
		Short: "Remove a booking from the local ledger (RoomBoss is not changed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			db, err := storage.OpenBookingsDB()
			if err != nil {
				return err
			}
			defer db.Close()

			removed, err := storage.RemoveBooking(db, id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("booking %q not found", id)
			}

			fmt.Printf("Removed booking %s.\n", id)
			return nil
		},
	}

	return cmd
}

func bookingsStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show booking stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.OpenBookingsDB()
			if err != nil {
				return err
			}
			defer db.Close()

			bookings, err := storage.ListBookings(db, storage.BookingFilter{})
			if err != nil {
				return err
			}
			if len(bookings) == 0 {
				fmt.Println("No bookings found.")
				return nil
			}

			stats := computeBookingStats(bookings, time.Now().Format("2006-01-02"))
			if outputJSON {
				return writeJSON(stats)
			}

			fmt.Printf("Total bookings: %d (%d cancelled)\n", stats.TotalBookings, stats.Cancelled)
			fmt.Printf("Total nights: %d\n", stats.TotalNights)
			for _, currency := range sortedKeys(stats.SpentByCurrency) {
				fmt.Printf("Total spent: %s\n", formatPrice(currency, stats.SpentByCurrency[currency]))
			}
			fmt.Printf("Favourite hotel: %s (%d bookings)\n", stats.FavouriteHotel, stats.FavouriteHotelCount)
			fmt.Printf("Last stay: %s\n", stats.LastStay)
			fmt.Printf("Next stay: %s\n", stats.NextStay)
			return nil
		},
	}

	return cmd
}

func fetchBookingsOnDate(hotelInput, date string) ([]api.Booking, error) {
	if hotelInput == "" || date == "" {
		return nil, fmt.Errorf("--hotel and --date are required")
	}
	ids, err := resolveHotelIDs([]string{hotelInput})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("--hotel is required")
	}
	day, err := parseDateInput(date)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	return client.ListBookingsByDate(ctx, ids[0], api.FormatDate(day))
}

func ledgerFromRemote(b api.Booking) storage.Booking {
	checkIn := displayDate(b.CheckIn)
	checkOut := displayDate(b.CheckOut)
	nights := 0
	if in, err := api.ParseDate(b.CheckIn); err == nil {
		if out, err := api.ParseDate(b.CheckOut); err == nil && out.After(in) {
			nights = int(out.Sub(in).Hours() / 24)
		}
	}
	status := storage.BookingStatusConfirmed
	if !b.Active {
		status = storage.BookingStatusCancelled
	}
	return storage.Booking{
		ID:             b.BookingID,
		HotelID:        b.HotelID,
		HotelName:      b.HotelName,
		RoomTypeID:     b.RoomTypeID,
		RoomTypeName:   b.RoomTypeName,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Nights:         nights,
		Guests:         b.NumberGuests,
		LeadGuest:      guestName(b),
		Email:          b.GuestEmail,
		Extent:         string(b.Extent),
		Status:         status,
		GuestPortalURL: b.GuestPortalURL,
		BookedAt:       time.Now().UTC().Format(time.RFC3339),
		Source:         "roomboss_sync",
	}
}

func computeBookingStats(bookings []storage.Booking, today string) BookingStats {
	stats := BookingStats{
		TotalBookings:   len(bookings),
		SpentByCurrency: map[string]float64{},
		LastStay:        "N/A",
		NextStay:        "N/A",
	}

	hotelCounts := map[string]int{}
	hotelNames := map[string]string{}
	for _, booking := range bookings {
		if booking.Status == storage.BookingStatusCancelled {
			stats.Cancelled++
			continue
		}
		stats.TotalNights += booking.Nights
		if booking.Total > 0 {
			stats.SpentByCurrency[booking.Currency] += booking.Total
		}
		key := booking.HotelID
		hotelCounts[key]++
		if booking.HotelName != "" {
			hotelNames[key] = booking.HotelName
		}

		if booking.CheckIn < today && (stats.LastStay == "N/A" || booking.CheckIn > stats.LastStay) {
			stats.LastStay = booking.CheckIn
		}
		if booking.CheckIn >= today && (stats.NextStay == "N/A" || booking.CheckIn < stats.NextStay) {
			stats.NextStay = booking.CheckIn
		}
	}

	stats.FavouriteHotel, stats.FavouriteHotelCount = topHotel(hotelCounts, hotelNames)
	return stats
}

func topHotel(counts map[string]int, names map[string]string) (string, int) {
	top := ""
	max := 0
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		count := counts[key]
		if count > max {
			max = count
			top = key
		}
	}
	if top == "" {
		return "N/A", 0
	}
	if name, ok := names[top]; ok && name != "" {
		return name, max
	}
	return top, max
}
