package events

import (
	"errors"
	"fmt"
)

// ActivityBuyNow is the marketplace activity type for a completed instant sale
const ActivityBuyNow = "buyNow"

// MaxTokenRows caps how many token activity rows are displayed
const MaxTokenRows = 25

// TokenActivity is one marketplace activity for a wallet
type TokenActivity struct {
	Signature        string  `json:"signature"`
	Type             string  `json:"type"`
	Source           string  `json:"source"`
	TokenMint        string  `json:"tokenMint"`
	Collection       string  `json:"collection"`
	CollectionSymbol string  `json:"collectionSymbol"`
	Slot             uint64  `json:"slot"`
	BlockTime        int64   `json:"blockTime"`
	Buyer            string  `json:"buyer"`
	BuyerReferral    string  `json:"buyerReferral"`
	Seller           string  `json:"seller"`
	SellerReferral   string  `json:"sellerReferral"`
	Price            float64 `json:"price"`
}

// Validate checks the fields every activity must carry
func (a TokenActivity) Validate() error {
	if a.Signature == "" {
		return errors.New("validate token activity: missing signature")
	}
	if a.Type == "" {
		return fmt.Errorf("validate token activity %q: missing type", a.Signature)
	}
	if a.Price < 0 {
		return fmt.Errorf("validate token activity %q: negative price", a.Signature)
	}
	return nil
}

// TokenRow is the display projection of one token activity
type TokenRow struct {
	Slot      uint64
	BlockTime int64
	Price     float64
	TokenMint string
	Source    string
	Signature string
	Buyer     string
	Seller    string
	Status    Status
}

// TokenRows derives display rows from buy-now activities, keeping input order
// and at most MaxTokenRows rows
func TokenRows(activities []TokenActivity) []TokenRow {
	rows := make([]TokenRow, 0, min(len(activities), MaxTokenRows))
	groups := GroupContiguous(activities, func(a TokenActivity) uint64 { return a.Slot })
	for _, group := range groups {
		status := BlockStatus(SlotKey{Valid: true, Slot: group[0].Slot})
		for _, a := range group {
			if a.Type != ActivityBuyNow {
				continue
			}
			if len(rows) == MaxTokenRows {
				return rows
			}
			rows = append(rows, TokenRow{
				Slot:      a.Slot,
				BlockTime: a.BlockTime,
				Price:     a.Price,
				TokenMint: a.TokenMint,
				Source:    a.Source,
				Signature: a.Signature,
				Buyer:     a.Buyer,
				Seller:    a.Seller,
				Status:    status,
			})
		}
	}
	return rows
}

// MintField returns the row's token mint for filtering
func MintField(r TokenRow) string {
	return r.TokenMint
}
