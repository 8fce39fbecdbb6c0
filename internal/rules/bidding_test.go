package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpeningBidBoundary(t *testing.T) {
	// 79 is rejected, 80 is accepted
	assert.NotEmpty(t, ValidateBid(nil, Bid{Seat: 0, Kind: KindSpades, Value: 79}, false))
	assert.Empty(t, ValidateBid(nil, Bid{Seat: 0, Kind: KindSpades, Value: 80}, false))
}

func TestBidDomination(t *testing.T) {
	prev := Bid{Seat: 0, Kind: KindHearts, Value: 90}

	tests := []struct {
		name  string
		next  Bid
		legal bool
	}{
		{"higher value", Bid{Seat: 1, Kind: KindClubs, Value: 100}, true},
		{"equal value higher priority", Bid{Seat: 1, Kind: KindSpades, Value: 90}, true},
		{"equal value no-trump beats suit", Bid{Seat: 1, Kind: KindNoTrump, Value: 90}, true},
		{"equal value all-trump beats no-trump", Bid{Seat: 1, Kind: KindAllTrump, Value: 90}, true},
		{"equal value lower priority", Bid{Seat: 1, Kind: KindDiamonds, Value: 90}, false},
		{"equal value same kind", Bid{Seat: 1, Kind: KindHearts, Value: 90}, false},
		{"lower value", Bid{Seat: 1, Kind: KindAllTrump, Value: 80}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := ValidateBid(&prev, tt.next, false)
			if tt.legal {
				assert.Empty(t, violations)
			} else {
				assert.NotEmpty(t, violations)
			}
		})
	}
}

func TestBidRejectedWhenClosed(t *testing.T) {
	prev := Bid{Seat: 0, Kind: KindHearts, Value: 90}
	assert.NotEmpty(t, ValidateBid(&prev, Bid{Seat: 1, Kind: KindSpades, Value: 100}, true))
}

func TestValidateDouble(t *testing.T) {
	bid := Bid{Seat: 0, Kind: KindSpades, Value: 80} // seat 0 = team A

	assert.Empty(t, ValidateDouble(&bid, false, false, 1), "opponent may coinche")
	assert.NotEmpty(t, ValidateDouble(&bid, false, false, 2), "partner may not coinche")
	assert.NotEmpty(t, ValidateDouble(&bid, true, false, 1), "already doubled")
	assert.NotEmpty(t, ValidateDouble(nil, false, false, 1), "no bid to double")
	assert.NotEmpty(t, ValidateDouble(&bid, false, true, 1), "bidding closed")
}

func TestValidateRedouble(t *testing.T) {
	bid := Bid{Seat: 0, Kind: KindSpades, Value: 80}

	assert.Empty(t, ValidateRedouble(&bid, true, false, 2), "declaring team may redouble")
	assert.NotEmpty(t, ValidateRedouble(&bid, true, false, 1), "defenders may not redouble")
	assert.NotEmpty(t, ValidateRedouble(&bid, false, false, 0), "must be doubled first")
	assert.NotEmpty(t, ValidateRedouble(&bid, true, true, 0), "already redoubled")
}

func TestTeamsAndPartners(t *testing.T) {
	assert.Equal(t, TeamA, TeamOf(0))
	assert.Equal(t, TeamB, TeamOf(1))
	assert.Equal(t, TeamA, TeamOf(2))
	assert.Equal(t, TeamB, TeamOf(3))
	for seat := 0; seat < NumSeats; seat++ {
		assert.Equal(t, TeamOf(seat), TeamOf(Partner(seat)))
		assert.NotEqual(t, seat, Partner(seat))
	}
}
