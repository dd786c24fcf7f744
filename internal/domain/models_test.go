package domain

import (
	"reflect"
	"testing"
)

func TestSeatStringParsing(t *testing.T) {
	b := PassengerBooking{Seat: "1A 1200"}
	if b.SeatClass() != "1A" {
		t.Fatalf("class = %q", b.SeatClass())
	}
	if b.Fare() != "1200" {
		t.Fatalf("fare = %q", b.Fare())
	}

	empty := PassengerBooking{}
	if empty.SeatClass() != "" || empty.Fare() != "" {
		t.Fatalf("empty seat parsed to %q/%q", empty.SeatClass(), empty.Fare())
	}

	classOnly := PassengerBooking{Seat: "2S"}
	if classOnly.SeatClass() != "2S" || classOnly.Fare() != "" {
		t.Fatalf("class-only seat parsed to %q/%q", classOnly.SeatClass(), classOnly.Fare())
	}
}

func TestSettleForDecrementsExactlyOne(t *testing.T) {
	rec := TrainSeatRecord{
		ID: "t1",
		Seats: []SeatClassAvailability{
			{Class: "1A", Avail: 5},
			{Class: "2S", Avail: 9},
			{Class: "SL", Avail: 0},
		},
		BookedSeats: 10,
		Rev:         3,
	}

	out, err := rec.SettleFor("2S")
	if err != nil {
		t.Fatalf("SettleFor returned error: %v", err)
	}
	if out.Seats[1].Avail != 8 {
		t.Fatalf("2S avail = %d, want 8", out.Seats[1].Avail)
	}
	if out.Seats[0] != rec.Seats[0] || out.Seats[2] != rec.Seats[2] {
		t.Fatalf("untouched entries changed: %+v", out.Seats)
	}
	if out.BookedSeats != 11 {
		t.Fatalf("bookedSeats = %d, want 11", out.BookedSeats)
	}
	if out.Rev != 3 {
		t.Fatalf("rev = %d, must carry the fetched revision", out.Rev)
	}

	// Original record must be untouched.
	want := []SeatClassAvailability{{Class: "1A", Avail: 5}, {Class: "2S", Avail: 9}, {Class: "SL", Avail: 0}}
	if !reflect.DeepEqual(rec.Seats, want) || rec.BookedSeats != 10 {
		t.Fatalf("source record mutated: %+v", rec)
	}
}

func TestSettleForUnknownClass(t *testing.T) {
	rec := TrainSeatRecord{Seats: []SeatClassAvailability{{Class: "1A", Avail: 5}}}
	if _, err := rec.SettleFor("3A"); !IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestSettleForSoldOut(t *testing.T) {
	rec := TrainSeatRecord{Seats: []SeatClassAvailability{{Class: "1A", Avail: 0}}}
	if _, err := rec.SettleFor("1A"); !IsConflict(err) {
		t.Fatalf("error = %v, want conflict", err)
	}
}

func TestSettleForEmptyClass(t *testing.T) {
	rec := TrainSeatRecord{Seats: []SeatClassAvailability{{Class: "1A", Avail: 5}}}
	if _, err := rec.SettleFor(""); !IsValidation(err) {
		t.Fatalf("error = %v, want validation", err)
	}
}
