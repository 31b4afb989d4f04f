package events

import (
	"fmt"
	"strings"
)

// Kind is the raffle program instruction an event was emitted for
type Kind string

const (
	KindBuyTickets      Kind = "BUY_TICKETS"
	KindCreateRaffle    Kind = "CREATE_RAFFLE"
	KindCancelRaffle    Kind = "CANCEL_RAFFLE"
	KindCollectProceeds Kind = "COLLECT_PROCEEDS"
	KindClaimPrize      Kind = "CLAIM_PRIZE"
	KindAddPrize        Kind = "ADD_PRIZE"
)

// Kinds lists every known raffle event kind in display order
var Kinds = []Kind{
	KindBuyTickets,
	KindCreateRaffle,
	KindCancelRaffle,
	KindCollectProceeds,
	KindClaimPrize,
	KindAddPrize,
}

// KindStrings returns Kinds as plain strings
func KindStrings() []string {
	out := make([]string, len(Kinds))
	for i, k := range Kinds {
		out[i] = string(k)
	}
	return out
}

// RawEvent is one raffle program event as returned by the indexer.
// Nullable fields are pointers; a RawEvent is never modified after decoding.
type RawEvent struct {
	BlockTime           int64   `json:"blockTime"`
	BlockID             *uint64 `json:"blockId"`
	TransactionID       string  `json:"transactionId"`
	InstructionOrdinal  int     `json:"instructionOrdinal"`
	TransactionPosition int     `json:"transactionPosition"`
	UserAccount         string  `json:"userAccount"`
	Event               Kind    `json:"event"`

	RaffleAccount        *string  `json:"raffleAccount"`
	RaffleOwner          *string  `json:"raffleOwner"`
	RafflePaymentAmount  *float64 `json:"rafflePaymentAmount"`
	RafflePaymentMint    *string  `json:"rafflePaymentMint"`
	NumberOfTickets      *float64 `json:"numberoftickets"`
	RaffleEarningsAmount *float64 `json:"raffleEarningsAmount"`
	RaffleFeesAmount     *float64 `json:"raffleFeesAmount"`
	PrizeMint            *string  `json:"prizeMint"`
	TotalTickets         *float64 `json:"totalTickets"`
	PricePerTicket       *float64 `json:"pricePerTicket"`
	RaffleEndTime        *int64   `json:"raffleEndTime"`
	WinnerAccount        *string  `json:"winnerAccount"`
}

// Validate checks the fields every raffle event must carry
func (e RawEvent) Validate() error {
	var problems []string
	if e.TransactionID == "" {
		problems = append(problems, "missing transactionId")
	}
	if e.UserAccount == "" {
		problems = append(problems, "missing userAccount")
	}
	if e.Event == "" {
		problems = append(problems, "missing event")
	}
	if e.BlockTime < 0 {
		problems = append(problems, "negative blockTime")
	}
	amounts := []struct {
		name  string
		value *float64
	}{
		{"rafflePaymentAmount", e.RafflePaymentAmount},
		{"numberoftickets", e.NumberOfTickets},
		{"pricePerTicket", e.PricePerTicket},
		{"totalTickets", e.TotalTickets},
	}
	for _, a := range amounts {
		if a.value != nil && *a.value < 0 {
			problems = append(problems, "negative "+a.name)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("validate raffle event %q: %s", e.TransactionID, strings.Join(problems, ", "))
	}
	return nil
}

// Slot returns the grouping key for the event's block
func (e RawEvent) Slot() SlotKey {
	return SlotKeyOf(e.BlockID)
}
