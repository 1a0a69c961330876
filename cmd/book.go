package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"roomboss-cli/api"
	"roomboss-cli/booking"
	"roomboss-cli/logging"
	"roomboss-cli/storage"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func bookCmd() *cobra.Command {
	var search searchFlags
	var hotelInput string
	var roomTypeID string
	var guest booking.GuestInfo
	var extent string
	var idempotencyKey string
	var retries int
	var interactive bool

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a room",
		Long: "Book a room at a RoomBoss hotel. With --interactive the booking wizard walks\n" +
			"through search, results, room, guest details and confirmation.",
		RunE: func(cmd *cobra.Command, args []string) error {
			bookingExtent, err := parseExtent(extent)
			if err != nil {
				return err
			}

			ctx := context.Background()
			db, err := storage.OpenBookingsDB()
			if err != nil {
				return err
			}
			defer db.Close()

			dedup, closeDedup := openDedup(ctx, db)
			defer closeDedup()

			opts := booking.Options{
				CountryCode: cfg.Defaults.CountryCode,
				Locale:      cfg.Defaults.Locale,
				Extent:      bookingExtent,
				RateTTL:     cfg.Booking.RateTTL,
				Dedup:       dedup,
				Log:         logging.Log,
			}
			if key := strings.TrimSpace(idempotencyKey); key != "" {
				opts.NewKey = firstKey(key)
			}
			flow := booking.New(client, opts)

			if interactive {
				w := newWizard(flow, db, search, guest)
				return w.run(ctx)
			}

			criteria, err := search.criteria()
			if err != nil {
				return err
			}
			hotelID := ""
			if hotelInput != "" {
				ids, err := resolveHotelIDs([]string{hotelInput})
				if err != nil {
					return err
				}
				if len(ids) > 0 {
					hotelID = ids[0]
				}
			}

			result, err := runBooking(ctx, flow, criteria, hotelID, roomTypeID, guest, retries)
			if err != nil {
				return err
			}

			if err := recordBooking(db, result); err != nil {
				logging.Log.Warnf("save booking to ledger: %v", err)
			}

			if outputJSON {
				return writeJSON(result)
			}
			printConfirmation(os.Stdout, result)
			return nil
		},
	}

	search.register(cmd)
	cmd.Flags().StringVar(&hotelInput, "hotel", "", "Hotel id or saved alias (required when the location has several available hotels)")
	cmd.Flags().StringVar(&roomTypeID, "room", "", "Room type id (default: cheapest available)")
	cmd.Flags().StringVar(&guest.FirstName, "first-name", "", "Lead guest first name")
	cmd.Flags().StringVar(&guest.LastName, "last-name", "", "Lead guest last name")
	cmd.Flags().StringVar(&guest.Email, "email", "", "Lead guest email")
	cmd.Flags().StringVar(&guest.Phone, "phone", "", "Contact number")
	cmd.Flags().StringVar(&guest.SpecialRequests, "requests", "", "Special requests")
	cmd.Flags().StringVar(&extent, "extent", "", "Booking extent: RESERVATION or REQUEST (default: $ROOMBOSS_BOOKING_EXTENT)")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Reuse the key of an earlier attempt to avoid a duplicate booking")
	cmd.Flags().IntVar(&retries, "retries", 1, "Retries after a timeout or gateway error")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run the step-by-step booking wizard")
	return cmd
}

// runBooking drives the flow from search to confirmation without prompting.
func runBooking(ctx context.Context, flow *booking.Flow, criteria booking.SearchCriteria, hotelID, roomTypeID string, guest booking.GuestInfo, retries int) (booking.Result, error) {
	if err := flow.Search(ctx, criteria); err != nil {
		return booking.Result{}, err
	}

	state := flow.State()
	if hotelID == "" {
		if len(state.Hotels) != 1 {
			ids := make([]string, 0, len(state.Hotels))
			for _, hotel := range state.Hotels {
				ids = append(ids, hotel.HotelID)
			}
			return booking.Result{}, fmt.Errorf("%d hotels available (%s). Use --hotel", len(ids), strings.Join(ids, ", "))
		}
		hotelID = state.Hotels[0].HotelID
	}
	if err := flow.ChooseHotel(ctx, hotelID); err != nil {
		return booking.Result{}, err
	}

	if roomTypeID == "" {
		hotel := flow.State().SelectedHotel
		room, ok := hotel.CheapestRoom()
		if !ok {
			return booking.Result{}, booking.ErrNoRatePlan
		}
		roomTypeID = room.RoomTypeID
	}
	if err := flow.ChooseRoom(roomTypeID); err != nil {
		return booking.Result{}, err
	}

	err := flow.SubmitBooking(ctx, guest)
	for attempt := 0; err != nil && attempt < retries && retryable(err); attempt++ {
		logging.Log.Warnf("booking attempt failed, retrying: %v", err)
		err = flow.SubmitBooking(ctx, guest)
	}
	if err != nil {
		return booking.Result{}, err
	}

	result := flow.State().Result
	if result == nil {
		return booking.Result{}, fmt.Errorf("booking finished without a confirmation")
	}
	return *result, nil
}

// firstKey hands out key for the first submission and fresh keys after that.
func firstKey(key string) func() string {
	used := false
	return func() string {
		if used {
			return uuid.NewString()
		}
		used = true
		return key
	}
}

func retryable(err error) bool {
	if errors.Is(err, api.ErrTimeout) {
		return true
	}
	return api.IsHTTPStatus(err, http.StatusBadGateway) ||
		api.IsHTTPStatus(err, http.StatusServiceUnavailable) ||
		api.IsHTTPStatus(err, http.StatusGatewayTimeout)
}

func parseExtent(input string) (api.Extent, error) {
	if strings.TrimSpace(input) == "" {
		input = cfg.Booking.Extent
	}
	switch api.Extent(strings.ToUpper(strings.TrimSpace(input))) {
	case "", api.ExtentReservation:
		return api.ExtentReservation, nil
	case api.ExtentRequest:
		return api.ExtentRequest, nil
	}
	return "", fmt.Errorf("invalid booking extent %q (expected RESERVATION or REQUEST)", input)
}

// openDedup prefers redis when REDIS_URL is set and falls back to the ledger
// database.
func openDedup(ctx context.Context, db *sql.DB) (booking.Dedup, func()) {
	if cfg.Redis.URL != "" {
		dedup, err := storage.OpenRedisDedup(ctx, cfg.Redis.URL, cfg.Booking.IdempotencyTTL)
		if err == nil {
			return dedup, func() { _ = dedup.Close() }
		}
		logging.Log.Warnf("redis unavailable, using local idempotency store: %v", err)
	}

	dedup := storage.NewSQLiteDedup(db, cfg.Booking.IdempotencyTTL)
	if removed, err := dedup.CleanupExpired(ctx); err != nil {
		logging.Log.Debugf("clean idempotency keys: %v", err)
	} else if removed > 0 {
		logging.Log.Debugf("removed %d expired idempotency keys", removed)
	}
	return dedup, func() {}
}

func recordBooking(db *sql.DB, result booking.Result) error {
	if result.BookingID == "" {
		return fmt.Errorf("booking has no id")
	}
	source := "cli"
	if result.Reconciled {
		source = "cli_reconciled"
	}
	_, err := storage.AddBookingIfNotExists(db, ledgerBooking(result, source))
	return err
}

func printConfirmation(w io.Writer, result booking.Result) {
	label := "Booked"
	if result.Extent == api.ExtentRequest {
		label = "Requested"
	}
	fmt.Fprintf(w, "%s: %s, %s\n", label, result.HotelName, result.RoomTypeName)
	fmt.Fprintf(w, "%s to %s | %d nights | %d guests\n", displayDate(result.CheckIn), displayDate(result.CheckOut), result.Nights, result.Guests)
	fmt.Fprintf(w, "Total: %s\n", result.FormattedTotal())
	fmt.Fprintf(w, "Booking ID: %s\n", result.BookingID)
	if result.InvoiceNumber != "" {
		fmt.Fprintf(w, "Invoice: %s\n", result.InvoiceNumber)
	}
	if result.GuestPortalURL != "" {
		fmt.Fprintf(w, "Guest portal: %s\n", result.GuestPortalURL)
	}
	if result.Reconciled {
		fmt.Fprintln(w, "(found from an earlier attempt; no new booking was made)")
	}
}
