package cmd

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"roomboss-cli/booking"
	"roomboss-cli/logging"
)

var errQuit = errors.New("quit")

// wizard is the interactive front end of booking.Flow. Each step renders the
// flow state and maps one line of input to a flow action.
type wizard struct {
	flow   *booking.Flow
	db     *sql.DB
	search searchFlags
	guest  booking.GuestInfo
	in     *bufio.Reader
	out    io.Writer
	booked []booking.Result
}

func newWizard(flow *booking.Flow, db *sql.DB, search searchFlags, guest booking.GuestInfo) *wizard {
	return &wizard{
		flow:   flow,
		db:     db,
		search: search,
		guest:  guest,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func (w *wizard) run(ctx context.Context) error {
	for {
		var err error
		switch w.flow.Step() {
		case booking.StepSearch:
			err = w.searchStep(ctx)
		case booking.StepResults:
			err = w.resultsStep(ctx)
		case booking.StepRoom:
			err = w.roomStep()
		case booking.StepGuest:
			err = w.guestStep(ctx)
		case booking.StepConfirmation:
			err = w.confirmationStep()
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			if outputJSON && len(w.booked) > 0 {
				return writeJSON(w.booked)
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (w *wizard) searchStep(ctx context.Context) error {
	fmt.Fprintln(w.out, "\n== Search ==")
	var err error
	if w.search.location, err = w.ask("Location code", firstNonEmpty(w.search.location, cfg.Defaults.LocationCode)); err != nil {
		return err
	}
	if w.search.checkIn, err = w.ask("Check-in (YYYY-MM-DD)", w.search.checkIn); err != nil {
		return err
	}
	if w.search.checkOut, err = w.ask("Check-out (YYYY-MM-DD)", w.search.checkOut); err != nil {
		return err
	}
	w.search.nights = 0
	if w.search.adults, err = w.askInt("Adults", w.search.adults); err != nil {
		return err
	}
	if w.search.children, err = w.askInt("Children", w.search.children); err != nil {
		return err
	}
	if w.search.infants, err = w.askInt("Infants", w.search.infants); err != nil {
		return err
	}

	criteria, err := w.search.criteria()
	if err != nil {
		fmt.Fprintf(w.out, "Error: %v\n", err)
		return nil
	}
	fmt.Fprintln(w.out, "Searching...")
	if err := w.flow.Search(ctx, criteria); err != nil {
		fmt.Fprintf(w.out, "Error: %s\n", w.flow.Error())
	}
	return nil
}

func (w *wizard) resultsStep(ctx context.Context) error {
	state := w.flow.State()
	fmt.Fprintf(w.out, "\n== %d hotels available in %s, %d nights ==\n", len(state.Hotels), state.Criteria.LocationCode, state.Nights)

	writer := newTable(w.out)
	for i, hotel := range state.Hotels {
		from := "-"
		if room, ok := hotel.CheapestRoom(); ok {
			from = formatPrice(hotel.Currency, booking.TotalPrice(room.RatePlan.PriceRetail, state.Nights))
		}
		fmt.Fprintf(writer, "%d)\t%s\t%d rooms\tfrom %s\n", i+1, hotel.HotelName, len(hotel.AvailableRoomTypes), from)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	choice, err := w.ask("Choose a hotel, [m]odify search or [q]uit", "")
	if err != nil {
		return err
	}
	switch strings.ToLower(choice) {
	case "q":
		return errQuit
	case "m":
		return w.flow.ModifySearch()
	}
	index, ok := parseChoice(choice, len(state.Hotels))
	if !ok {
		fmt.Fprintln(w.out, "Invalid choice.")
		return nil
	}
	if err := w.flow.ChooseHotel(ctx, state.Hotels[index].HotelID); err != nil {
		fmt.Fprintf(w.out, "Error: %s\n", w.flow.Error())
	}
	return nil
}

func (w *wizard) roomStep() error {
	state := w.flow.State()
	hotel := state.SelectedHotel
	fmt.Fprintf(w.out, "\n== %s ==\n", hotel.HotelName)
	if state.Descriptions != nil && state.Descriptions.HotelDescription != "" {
		fmt.Fprintln(w.out, oneLine(state.Descriptions.HotelDescription, 240))
	}
	if state.Images != nil && len(state.Images.HotelImages) > 0 {
		fmt.Fprintf(w.out, "%d photos available (roomboss hotels images %s)\n", len(state.Images.HotelImages), hotel.HotelID)
	}

	writer := newTable(w.out)
	for i, room := range hotel.AvailableRoomTypes {
		perNight, total := "-", "-"
		if room.RatePlan != nil {
			perNight = formatPrice(hotel.Currency, room.RatePlan.PriceRetail)
			total = formatPrice(hotel.Currency, booking.TotalPrice(room.RatePlan.PriceRetail, state.Nights))
		}
		fmt.Fprintf(writer, "%d)\t%s\tsleeps %d\t%s / night\t%s total\n", i+1, room.RoomTypeName, room.MaxNumberGuests, perNight, total)
		if state.Descriptions != nil {
			if desc := state.Descriptions.RoomTypeDescriptions[room.RoomTypeID]; desc != "" {
				fmt.Fprintf(writer, "\t%s\t\t\t\n", oneLine(desc, 80))
			}
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	choice, err := w.ask("Choose a room, [b]ack to results, [m]odify search or [q]uit", "")
	if err != nil {
		return err
	}
	switch strings.ToLower(choice) {
	case "q":
		return errQuit
	case "b":
		return w.flow.CloseHotel()
	case "m":
		return w.flow.ModifySearch()
	}
	index, ok := parseChoice(choice, len(hotel.AvailableRoomTypes))
	if !ok {
		fmt.Fprintln(w.out, "Invalid choice.")
		return nil
	}
	if err := w.flow.ChooseRoom(hotel.AvailableRoomTypes[index].RoomTypeID); err != nil {
		fmt.Fprintf(w.out, "Error: %s\n", w.flow.Error())
	}
	return nil
}

func (w *wizard) guestStep(ctx context.Context) error {
	state := w.flow.State()
	fmt.Fprintf(w.out, "\n== Guest details ==\n%s, %s\n%s to %s | %d nights | %s\n",
		state.SelectedHotel.HotelName,
		state.SelectedRoom.RoomTypeName,
		state.Criteria.CheckIn.Format("2006-01-02"),
		state.Criteria.CheckOut.Format("2006-01-02"),
		state.Nights,
		formatPrice(state.SelectedHotel.Currency, state.TotalPrice),
	)

	var err error
	if w.guest.FirstName, err = w.ask("First name", w.guest.FirstName); err != nil {
		return err
	}
	if w.guest.LastName, err = w.ask("Last name", w.guest.LastName); err != nil {
		return err
	}
	if w.guest.Email, err = w.ask("Email", w.guest.Email); err != nil {
		return err
	}
	if w.guest.Phone, err = w.ask("Phone (optional)", w.guest.Phone); err != nil {
		return err
	}
	if w.guest.SpecialRequests, err = w.ask("Special requests (optional)", w.guest.SpecialRequests); err != nil {
		return err
	}

	choice, err := w.ask("[s]ubmit, [b]ack to results, [m]odify search or [q]uit", "s")
	if err != nil {
		return err
	}
	switch strings.ToLower(choice) {
	case "q":
		return errQuit
	case "b":
		return w.flow.BackToResults()
	case "m":
		return w.flow.ModifySearch()
	case "s":
	default:
		fmt.Fprintln(w.out, "Invalid choice.")
		return nil
	}

	fmt.Fprintln(w.out, "Submitting booking...")
	if err := w.flow.SubmitBooking(ctx, w.guest); err != nil {
		fmt.Fprintf(w.out, "Error: %s\n", w.flow.Error())
		if retryable(err) {
			fmt.Fprintln(w.out, "Submitting again is safe; an existing booking will be found instead of creating a new one.")
		}
	}
	return nil
}

func (w *wizard) confirmationStep() error {
	result := w.flow.State().Result
	fmt.Fprintln(w.out, "\n== Confirmed ==")
	printConfirmation(w.out, *result)
	if len(w.booked) == 0 || w.booked[len(w.booked)-1].BookingID != result.BookingID {
		w.booked = append(w.booked, *result)
		if err := recordBooking(w.db, *result); err != nil {
			logging.Log.Warnf("save booking to ledger: %v", err)
		}
	}

	choice, err := w.ask("Book another? [y/N]", "n")
	if err != nil {
		return err
	}
	if strings.EqualFold(choice, "y") {
		w.guest = booking.GuestInfo{}
		return w.flow.BookAnother()
	}
	return errQuit
}

func (w *wizard) ask(label, fallback string) (string, error) {
	if fallback != "" {
		fmt.Fprintf(w.out, "%s [%s]: ", label, fallback)
	} else {
		fmt.Fprintf(w.out, "%s: ", label)
	}
	line, err := w.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	if line == "" {
		return fallback, nil
	}
	return line, nil
}

func (w *wizard) askInt(label string, fallback int) (int, error) {
	for {
		value, err := w.ask(label, strconv.Itoa(fallback))
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(value)
		if convErr == nil && n >= 0 {
			return n, nil
		}
		fmt.Fprintln(w.out, "Enter a whole number.")
	}
}

func parseChoice(input string, count int) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n - 1, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
