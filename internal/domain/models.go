package domain

import "strings"

// PassengerBooking is a booked passenger as served by the booking backend.
// Seat encodes class and fare in one string, e.g. "1A 1200".
type PassengerBooking struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Train       string `json:"train"`
	Code        string `json:"code"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Seat        string `json:"seat"`
}

// SeatClass returns the class portion of the seat string, "" when absent.
func (b PassengerBooking) SeatClass() string {
	parts := strings.Fields(b.Seat)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// Fare returns the fare portion of the seat string, "" when absent.
func (b PassengerBooking) Fare() string {
	parts := strings.Fields(b.Seat)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

type SeatClassAvailability struct {
	Class string `json:"class"`
	Avail int    `json:"avail"`
}

// TrainSeatRecord is the backend's seat inventory for one train. Rev is the
// revision token the backend checks on writes so concurrent purchasers
// cannot silently overwrite each other.
type TrainSeatRecord struct {
	ID          string                  `json:"_id"`
	Code        string                  `json:"code"`
	Seats       []SeatClassAvailability `json:"seats"`
	BookedSeats int                     `json:"bookedSeats"`
	Rev         int64                   `json:"rev"`
}

// SettleFor returns a copy of the record with availability for the given
// class decremented by one and BookedSeats incremented by one. All other
// seat entries are carried over untouched.
func (r TrainSeatRecord) SettleFor(class string) (TrainSeatRecord, error) {
	if strings.TrimSpace(class) == "" {
		return r, ValidationError{Field: "class", Msg: "booked class is empty"}
	}
	out := r
	out.Seats = make([]SeatClassAvailability, len(r.Seats))
	copy(out.Seats, r.Seats)

	found := false
	for i := range out.Seats {
		if out.Seats[i].Class != class {
			continue
		}
		if out.Seats[i].Avail <= 0 {
			return r, ConflictError{Resource: "seat", Msg: "class " + class + " is sold out"}
		}
		out.Seats[i].Avail--
		found = true
		break
	}
	if !found {
		return r, NotFoundError{Resource: "seat class " + class}
	}
	out.BookedSeats = r.BookedSeats + 1
	return out, nil
}

// PaymentSession authorizes a single attempt with the hosted checkout.
// SessionID is handed to the widget and never reused; OrderID is kept to
// correlate the later verification call.
type PaymentSession struct {
	SessionID string `json:"payment_session_id"`
	OrderID   string `json:"order_id"`
}

// TicketDocumentData carries the fields printed on the downloadable ticket.
type TicketDocumentData struct {
	Name     string
	Title    string
	Location string
	Date     string
}
