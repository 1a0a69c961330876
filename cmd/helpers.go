package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"roomboss-cli/api"
	"roomboss-cli/booking"
	"roomboss-cli/storage"
)

// parseDateInput accepts today, tomorrow, YYYY-MM-DD or yyyyMMdd and returns
// the calendar date at midnight UTC.
func parseDateInput(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	now := time.Now()
	switch strings.ToLower(input) {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	case "tomorrow":
		t := now.AddDate(0, 0, 1)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	if parsed, err := time.ParseInLocation("2006-01-02", input, time.UTC); err == nil {
		return parsed, nil
	}
	if parsed, err := api.ParseDate(input); err == nil {
		return parsed, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", input)
}

// displayDate turns a yyyyMMdd wire date into YYYY-MM-DD, leaving anything
// else untouched.
func displayDate(wire string) string {
	parsed, err := api.ParseDate(wire)
	if err != nil {
		return wire
	}
	return parsed.Format("2006-01-02")
}

func writeJSON(v any) error {
	return writeJSONTo(os.Stdout, v)
}

func writeJSONTo(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 2, 2, 2, ' ', 0)
}

func formatPrice(currency string, amount float64) string {
	return booking.FormatPrice(currency, amount)
}

func printHistory(w io.Writer, records []api.RequestRecord) error {
	if outputJSON {
		return writeJSONTo(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No API requests made.")
		return nil
	}

	writer := newTable(w)
	if !outputCompact {
		fmt.Fprintln(writer, "ID\tTIME\tOPERATION\tSTATUS\tCODE\tDURATION\tERROR")
	}
	for _, record := range records {
		code := "-"
		if record.StatusCode > 0 {
			code = fmt.Sprintf("%d", record.StatusCode)
		}
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			record.ID,
			record.Timestamp.Format("15:04:05"),
			record.Operation,
			record.Status,
			code,
			record.Duration.Round(time.Millisecond),
			record.Error,
		)
	}
	return writer.Flush()
}

// resolveHotelIDs maps saved aliases to hotel ids; anything else is taken as an id.
func resolveHotelIDs(inputs []string) ([]string, error) {
	hotels, err := storage.LoadHotels()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(inputs))
	for _, input := range inputs {
		for _, part := range strings.Split(input, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			ids = append(ids, storage.ResolveHotelID(hotels, part))
		}
	}
	return ids, nil
}

func ledgerBooking(result booking.Result, source string) storage.Booking {
	return storage.Booking{
		ID:             result.BookingID,
		OrderID:        result.OrderID,
		HotelID:        result.HotelID,
		HotelName:      result.HotelName,
		RoomTypeID:     result.RoomTypeID,
		RoomTypeName:   result.RoomTypeName,
		RatePlanID:     result.RatePlanID,
		CheckIn:        displayDate(result.CheckIn),
		CheckOut:       displayDate(result.CheckOut),
		Nights:         result.Nights,
		Guests:         result.Guests,
		LeadGuest:      result.LeadGuest,
		Email:          result.Email,
		Currency:       result.Currency,
		Total:          result.Total(),
		InvoiceNumber:  result.InvoiceNumber,
		Extent:         string(result.Extent),
		Status:         storage.BookingStatusConfirmed,
		GuestPortalURL: result.GuestPortalURL,
		BookedAt:       time.Now().UTC().Format(time.RFC3339),
		Source:         source,
	}
}

func guestName(b api.Booking) string {
	return strings.TrimSpace(b.GuestGivenName + " " + b.GuestFamilyName)
}
