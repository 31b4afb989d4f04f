package events

// RaffleRow is the display projection of one raffle event
type RaffleRow struct {
	// Slot is the block shared by the row's group; nil when the event has no block
	Slot      *uint64
	Signature string
	BlockTime int64
	Event     Kind
	Status    Status

	RaffleAccount   *string
	PrizeMint       *string
	NumberOfTickets *float64
	PaymentAmount   *float64
	PricePerTicket  *float64
	WinnerAccount   *string
	UserAccount     string

	// UnitPrice is the effective price per ticket, nil when it cannot be derived
	UnitPrice *float64
}

// HasTimestamp reports whether the row carries a block time
func (r RaffleRow) HasTimestamp() bool {
	return r.BlockTime != 0
}

// RaffleRows derives one row per event, in input order.
//
// Events are grouped into contiguous runs sharing a block id; every row of a
// run carries the run's slot and block status. The input is expected newest
// first and is not modified.
func RaffleRows(events []RawEvent) []RaffleRow {
	rows := make([]RaffleRow, 0, len(events))
	for _, group := range GroupContiguous(events, RawEvent.Slot) {
		slot := group[0].Slot()
		status := BlockStatus(slot)
		for _, e := range group {
			rows = append(rows, RaffleRow{
				Slot:            slot.Ptr(),
				Signature:       e.TransactionID,
				BlockTime:       e.BlockTime,
				Event:           e.Event,
				Status:          status,
				RaffleAccount:   e.RaffleAccount,
				PrizeMint:       e.PrizeMint,
				NumberOfTickets: e.NumberOfTickets,
				PaymentAmount:   e.RafflePaymentAmount,
				PricePerTicket:  e.PricePerTicket,
				WinnerAccount:   e.WinnerAccount,
				UserAccount:     e.UserAccount,
				UnitPrice:       UnitPrice(e.PricePerTicket, e.RafflePaymentAmount, e.NumberOfTickets),
			})
		}
	}
	return rows
}

// UnitPrice returns the explicit price when set, otherwise amount/quantity.
// A zero or missing price falls through to the quotient, and a zero or
// missing amount or quantity yields nil rather than zero or infinity.
func UnitPrice(price, amount, quantity *float64) *float64 {
	if price != nil && *price != 0 {
		p := *price
		return &p
	}
	if amount == nil || quantity == nil || *amount == 0 || *quantity == 0 {
		return nil
	}
	p := *amount / *quantity
	return &p
}

// Winner returns the first winner account found in rows
func Winner(rows []RaffleRow) (string, bool) {
	for _, r := range rows {
		if r.WinnerAccount != nil && *r.WinnerAccount != "" {
			return *r.WinnerAccount, true
		}
	}
	return "", false
}

// AnyTimestamp reports whether at least one row has a block time, which
// decides whether a timestamp column is shown
func AnyTimestamp(rows []RaffleRow) bool {
	for _, r := range rows {
		if r.HasTimestamp() {
			return true
		}
	}
	return false
}

// EventField returns the row's event kind for filtering
func EventField(r RaffleRow) string {
	return string(r.Event)
}
