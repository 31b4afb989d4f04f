package balances

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL = 1_000_000_000

// UIAmount is a token amount as reported by the RPC node
type UIAmount struct {
	Amount   string
	Decimals uint8
	UIAmount *float64
	// UIAmountString is the human readable amount. Nodes using the deprecated
	// representation leave it empty.
	UIAmountString string
}

// TokenBalance is the balance of one token account before or after a transaction
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	Amount       UIAmount
}

// Row is one token balance change within a transaction
type Row struct {
	Account      string
	AccountIndex int
	Mint         string
	Owner        string
	Balance      UIAmount
	Delta        decimal.Decimal
}

// Rows computes token balance changes from the pre and post balances of a
// transaction. accounts maps account index to address.
//
// An account with a pre balance but no post balance is treated as fully
// withdrawn. When the mint of an account changes between pre and post, two rows
// are emitted: the old mint going to zero, then the new mint appearing.
// Balances without a displayable amount are skipped. Rows are sorted by
// account index.
func Rows(pre, post []TokenBalance, accounts []string) ([]Row, error) {
	preByIndex := make(map[int]TokenBalance, len(pre))
	postByIndex := make(map[int]TokenBalance, len(post))
	for _, b := range pre {
		preByIndex[b.AccountIndex] = b
	}
	for _, b := range post {
		postByIndex[b.AccountIndex] = b
	}

	for index, b := range preByIndex {
		if _, ok := postByIndex[index]; !ok {
			postByIndex[index] = TokenBalance{
				AccountIndex: index,
				Mint:         b.Mint,
				Owner:        b.Owner,
				Amount: UIAmount{
					Amount:         "0",
					Decimals:       b.Amount.Decimals,
					UIAmountString: "0",
				},
			}
		}
	}

	indexes := make([]int, 0, len(postByIndex))
	for index := range postByIndex {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	var rows []Row
	for _, index := range indexes {
		postBalance := postByIndex[index]
		if postBalance.Amount.UIAmountString == "" {
			continue
		}
		if index < 0 || index >= len(accounts) {
			return nil, fmt.Errorf("token balance account index %d out of range (%d accounts)", index, len(accounts))
		}
		account := accounts[index]

		postAmount, err := decimal.NewFromString(postBalance.Amount.UIAmountString)
		if err != nil {
			return nil, fmt.Errorf("parse post balance of account %d: %w", index, err)
		}

		preBalance, hasPre := preByIndex[index]
		if hasPre && preBalance.Amount.UIAmountString == "" {
			continue
		}

		var preAmount decimal.Decimal
		if hasPre {
			preAmount, err = decimal.NewFromString(preBalance.Amount.UIAmountString)
			if err != nil {
				return nil, fmt.Errorf("parse pre balance of account %d: %w", index, err)
			}
		}

		if hasPre && preBalance.Mint != postBalance.Mint {
			zero := 0.0
			rows = append(rows,
				Row{
					Account:      account,
					AccountIndex: index,
					Mint:         preBalance.Mint,
					Owner:        postBalance.Owner,
					Balance: UIAmount{
						Amount:         "0",
						Decimals:       preBalance.Amount.Decimals,
						UIAmount:       &zero,
						UIAmountString: "0",
					},
					Delta: preAmount.Neg(),
				},
				Row{
					Account:      account,
					AccountIndex: index,
					Mint:         postBalance.Mint,
					Owner:        postBalance.Owner,
					Balance:      postBalance.Amount,
					Delta:        postAmount,
				},
			)
			continue
		}

		rows = append(rows, Row{
			Account:      account,
			AccountIndex: index,
			Mint:         postBalance.Mint,
			Owner:        postBalance.Owner,
			Balance:      postBalance.Amount,
			Delta:        postAmount.Sub(preAmount),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AccountIndex < rows[j].AccountIndex
	})
	return rows, nil
}

// LamportDelta returns post minus pre lamports for the account at index
func LamportDelta(pre, post []uint64, index int) (decimal.Decimal, bool) {
	if index < 0 || index >= len(pre) || index >= len(post) {
		return decimal.Zero, false
	}
	return lamports(post[index]).Sub(lamports(pre[index])), true
}

func lamports(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// LamportsToSOL converts a lamport amount to SOL
func LamportsToSOL(lamports decimal.Decimal) decimal.Decimal {
	return lamports.Shift(-9)
}

// FormatSOL renders a lamport amount as SOL without trailing zeros
func FormatSOL(lamports float64) string {
	return LamportsToSOL(decimal.NewFromFloat(lamports)).String()
}

// FormatDelta renders a signed change, prefixing increases with "+"
func FormatDelta(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.String()
	}
	return d.String()
}
