package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking is a row of the local ledger. Dates are YYYY-MM-DD.
type Booking struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"order_id,omitempty"`
	HotelID        string  `json:"hotel_id"`
	HotelName      string  `json:"hotel_name"`
	RoomTypeID     string  `json:"room_type_id"`
	RoomTypeName   string  `json:"room_type_name"`
	RatePlanID     string  `json:"rate_plan_id,omitempty"`
	CheckIn        string  `json:"check_in"`
	CheckOut       string  `json:"check_out"`
	Nights         int     `json:"nights"`
	Guests         int     `json:"guests"`
	LeadGuest      string  `json:"lead_guest"`
	Email          string  `json:"email,omitempty"`
	Currency       string  `json:"currency"`
	Total          float64 `json:"total"`
	InvoiceNumber  string  `json:"invoice_number,omitempty"`
	Extent         string  `json:"extent,omitempty"`
	Status         string  `json:"status"`
	GuestPortalURL string  `json:"guest_portal_url,omitempty"`
	BookedAt       string  `json:"booked_at"`
	Source         string  `json:"source"`
}

type BookingFilter struct {
	From     string
	To       string
	HotelID  string
	Status   string
	Past     bool
	Upcoming bool
	NowDate  string
}

func OpenBookingsDB() (*sql.DB, error) {
	if _, err := ensureConfigDir(); err != nil {
		return nil, err
	}
	path, err := BookingsPath()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := ensureBookingsSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureIdempotencySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func ensureBookingsSchema(db *sql.DB) error {
	createTable := `
CREATE TABLE IF NOT EXISTS bookings (
  id TEXT PRIMARY KEY,
  order_id TEXT,
  hotel_id TEXT,
  hotel_name TEXT,
  room_type_id TEXT,
  room_type_name TEXT,
  rate_plan_id TEXT,
  check_in TEXT,
  check_out TEXT,
  nights INTEGER,
  guests INTEGER,
  lead_guest TEXT,
  email TEXT,
  currency TEXT,
  total REAL,
  invoice_number TEXT,
  booked_at TEXT,
  source TEXT
);`

	if _, err := db.Exec(createTable); err != nil {
		return fmt.Errorf("create bookings table: %w", err)
	}

	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_bookings_check_in ON bookings(check_in);"); err != nil {
		return fmt.Errorf("create bookings index: %w", err)
	}

	if err := ensureBookingsColumns(db, []string{"extent", "status", "guest_portal_url"}); err != nil {
		return err
	}

	return nil
}

func ensureBookingsColumns(db *sql.DB, columns []string) error {
	rows, err := db.Query("PRAGMA table_info(bookings);")
	if err != nil {
		return fmt.Errorf("inspect bookings table: %w", err)
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var cid int
		var name string
		var ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("inspect bookings columns: %w", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect bookings columns: %w", err)
	}

	for _, column := range columns {
		if _, ok := existing[column]; ok {
			continue
		}
		_, err := db.Exec(fmt.Sprintf("ALTER TABLE bookings ADD COLUMN %s TEXT;", column))
		if err != nil {
			return fmt.Errorf("add bookings column %s: %w", column, err)
		}
	}
	return nil
}

const bookingColumns = `id, order_id, hotel_id, hotel_name, room_type_id, room_type_name, rate_plan_id,
  check_in, check_out, nights, guests, lead_guest, email, currency, total, invoice_number,
  extent, status, guest_portal_url, booked_at, source`

func bookingArgs(booking Booking) []any {
	status := booking.Status
	if status == "" {
		status = BookingStatusConfirmed
	}
	return []any{
		booking.ID,
		booking.OrderID,
		booking.HotelID,
		booking.HotelName,
		booking.RoomTypeID,
		booking.RoomTypeName,
		booking.RatePlanID,
		booking.CheckIn,
		booking.CheckOut,
		booking.Nights,
		booking.Guests,
		booking.LeadGuest,
		booking.Email,
		booking.Currency,
		booking.Total,
		booking.InvoiceNumber,
		booking.Extent,
		status,
		booking.GuestPortalURL,
		booking.BookedAt,
		booking.Source,
	}
}

func AddBooking(db *sql.DB, booking Booking) error {
	query := `INSERT INTO bookings (` + bookingColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	_, err := db.Exec(query, bookingArgs(booking)...)
	return err
}

// AddBookingIfNotExists reports whether a new row was written.
func AddBookingIfNotExists(db *sql.DB, booking Booking) (bool, error) {
	query := `INSERT OR IGNORE INTO bookings (` + bookingColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	res, err := db.Exec(query, bookingArgs(booking)...)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func UpdateBookingStatus(db *sql.DB, id, status string) (bool, error) {
	res, err := db.Exec("UPDATE bookings SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func RemoveBooking(db *sql.DB, id string) (bool, error) {
	res, err := db.Exec("DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetBooking returns nil, nil when the id is not in the ledger.
func GetBooking(db *sql.DB, id string) (*Booking, error) {
	row := db.QueryRow("SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func ListBookings(db *sql.DB, filter BookingFilter) ([]Booking, error) {
	conds := []string{}
	args := []any{}

	if filter.From != "" {
		conds = append(conds, "check_in >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conds = append(conds, "check_in <= ?")
		args = append(args, filter.To)
	}
	if filter.HotelID != "" {
		conds = append(conds, "hotel_id = ?")
		args = append(args, filter.HotelID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.From == "" && filter.To == "" && filter.NowDate != "" {
		if filter.Past {
			conds = append(conds, "check_out < ?")
			args = append(args, filter.NowDate)
		}
		if filter.Upcoming {
			conds = append(conds, "check_out >= ?")
			args = append(args, filter.NowDate)
		}
	}

	query := "SELECT " + bookingColumns + " FROM bookings"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY check_in, hotel_name"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (Booking, error) {
	var booking Booking
	var orderID, ratePlanID, email, invoice sql.NullString
	var extent, status, portal sql.NullString
	var total sql.NullFloat64
	if err := row.Scan(
		&booking.ID,
		&orderID,
		&booking.HotelID,
		&booking.HotelName,
		&booking.RoomTypeID,
		&booking.RoomTypeName,
		&ratePlanID,
		&booking.CheckIn,
		&booking.CheckOut,
		&booking.Nights,
		&booking.Guests,
		&booking.LeadGuest,
		&email,
		&booking.Currency,
		&total,
		&invoice,
		&extent,
		&status,
		&portal,
		&booking.BookedAt,
		&booking.Source,
	); err != nil {
		return Booking{}, err
	}
	booking.OrderID = orderID.String
	booking.RatePlanID = ratePlanID.String
	booking.Email = email.String
	booking.InvoiceNumber = invoice.String
	booking.Extent = extent.String
	booking.Status = status.String
	booking.GuestPortalURL = portal.String
	if total.Valid {
		booking.Total = total.Float64
	}
	if booking.Status == "" {
		booking.Status = BookingStatusConfirmed
	}
	return booking, nil
}
