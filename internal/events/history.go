package events

import (
	"errors"
	"fmt"
)

// SignatureInfo is one entry of an address's confirmed signature history
type SignatureInfo struct {
	Signature          string
	Slot               uint64
	BlockTime          *int64
	Err                *string
	Memo               *string
	ConfirmationStatus string
}

// Validate checks the fields every signature entry must carry
func (s SignatureInfo) Validate() error {
	if s.Signature == "" {
		return errors.New("validate signature info: missing signature")
	}
	if s.Slot == 0 {
		return fmt.Errorf("validate signature info %q: missing slot", s.Signature)
	}
	return nil
}

// TransactionRow is the display projection of one history entry
type TransactionRow struct {
	Slot      uint64
	Signature string
	BlockTime *int64
	Err       *string
	Status    Status
}

// TransactionRows derives one row per signature, in input order, grouping
// contiguous entries of the same slot. A signature that carries an error is
// classified as failed.
func TransactionRows(infos []SignatureInfo) []TransactionRow {
	rows := make([]TransactionRow, 0, len(infos))
	groups := GroupContiguous(infos, func(s SignatureInfo) uint64 { return s.Slot })
	for _, group := range groups {
		slot := group[0].Slot
		for _, info := range group {
			status := StatusSuccess
			if info.Err != nil {
				status = StatusFailed
			}
			rows = append(rows, TransactionRow{
				Slot:      slot,
				Signature: info.Signature,
				BlockTime: info.BlockTime,
				Err:       info.Err,
				Status:    status,
			})
		}
	}
	return rows
}

// SignatureCursor returns the oldest signature held, which is where the next
// older page starts
func SignatureCursor(infos []SignatureInfo) string {
	if len(infos) == 0 {
		return ""
	}
	return infos[len(infos)-1].Signature
}
