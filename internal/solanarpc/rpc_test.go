package solanarpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"

	"chainexplorer/internal/fetcher"
	"chainexplorer/internal/ratelimit"
)

const (
	testAddress = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	wrappedSOL  = "So11111111111111111111111111111111111111112"
	usdcMint    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// newRPCServer answers JSON-RPC calls with the result registered for the method
func newRPCServer(t *testing.T, results map[string]string, seen func(rpcRequest)) *Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if seen != nil {
			seen(req)
		}
		result, ok := results[req.Method]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"Method not found"}}`, req.ID)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, ratelimit.Unlimited())
	t.Cleanup(func() { client.Close() })
	return client
}

func testSignature(b byte) solana.Signature {
	var sig solana.Signature
	sig[0] = b
	sig[63] = b
	return sig
}

func TestSignaturesFetcher_FetchPage(t *testing.T) {
	first := testSignature(1)
	second := testSignature(2)
	cursor := testSignature(9)

	var params []json.RawMessage
	client := newRPCServer(t, map[string]string{
		"getSignaturesForAddress": fmt.Sprintf(`[
			{"signature": %q, "slot": 200, "blockTime": 1680000000, "err": null, "memo": null, "confirmationStatus": "finalized"},
			{"signature": %q, "slot": 199, "blockTime": null, "err": {"InstructionError": [0, {"Custom": 1}]}, "memo": "hi", "confirmationStatus": "confirmed"}
		]`, first, second),
	}, func(req rpcRequest) { params = req.Params })

	f := NewSignaturesFetcher(client)
	page, err := f.FetchPage(context.Background(), fetcher.Request{
		Key:    testAddress,
		Cursor: cursor.String(),
		Limit:  25,
	})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	if len(params) != 2 {
		t.Fatalf("len(params) = %d, want 2", len(params))
	}
	var opts map[string]any
	if err := json.Unmarshal(params[1], &opts); err != nil {
		t.Fatalf("decode opts: %v", err)
	}
	if opts["before"] != cursor.String() {
		t.Errorf("before = %v, want %s", opts["before"], cursor)
	}
	if opts["limit"] != float64(25) {
		t.Errorf("limit = %v, want 25", opts["limit"])
	}

	if len(page.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(page.Records))
	}
	if !page.IsLast {
		t.Error("IsLast = false for a short page")
	}

	got := page.Records[0]
	if got.Signature != first.String() || got.Slot != 200 || got.Err != nil {
		t.Errorf("Records[0] = %+v", got)
	}
	if got.BlockTime == nil || *got.BlockTime != 1680000000 {
		t.Errorf("BlockTime = %v", got.BlockTime)
	}

	failed := page.Records[1]
	if failed.Err == nil {
		t.Fatal("Records[1].Err = nil, want error text")
	}
	if failed.BlockTime != nil {
		t.Errorf("Records[1].BlockTime = %v, want nil", *failed.BlockTime)
	}
	if failed.Memo == nil || *failed.Memo != "hi" {
		t.Errorf("Records[1].Memo = %v", failed.Memo)
	}
}

func TestSignaturesFetcher_InvalidInput(t *testing.T) {
	f := NewSignaturesFetcher(NewClient("http://127.0.0.1:0", ratelimit.Unlimited()))

	tests := []struct {
		name string
		req  fetcher.Request
	}{
		{"bad address", fetcher.Request{Key: "not-an-address"}},
		{"bad cursor", fetcher.Request{Key: testAddress, Cursor: "0OIl"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.FetchPage(context.Background(), tt.req)
			if got := fetcher.TypeOf(err); got != fetcher.ErrorTypeClient {
				t.Errorf("TypeOf(err) = %s, want %s (err = %v)", got, fetcher.ErrorTypeClient, err)
			}
		})
	}
}

func TestSignaturesFetcher_RPCError(t *testing.T) {
	client := newRPCServer(t, map[string]string{}, nil)
	_, err := NewSignaturesFetcher(client).FetchPage(context.Background(), fetcher.Request{Key: testAddress})
	if got := fetcher.TypeOf(err); got != fetcher.ErrorTypeClient {
		t.Errorf("TypeOf(err) = %s, want %s (err = %v)", got, fetcher.ErrorTypeClient, err)
	}
}

func encodedTransaction(t *testing.T, keys ...string) string {
	t.Helper()
	accounts := make(solana.PublicKeySlice, 0, len(keys))
	for _, k := range keys {
		accounts = append(accounts, solana.MustPublicKeyFromBase58(k))
	}
	tx := solana.Transaction{
		Signatures: []solana.Signature{testSignature(7)},
		Message: solana.Message{
			Header:      solana.MessageHeader{NumRequiredSignatures: 1},
			AccountKeys: accounts,
		},
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestTransactionFetcher_FetchPage(t *testing.T) {
	sig := testSignature(7)
	encoded := encodedTransaction(t, testAddress, wrappedSOL)

	client := newRPCServer(t, map[string]string{
		"getTransaction": fmt.Sprintf(`{
			"slot": 300,
			"blockTime": 1680000100,
			"transaction": [%q, "base64"],
			"meta": {
				"err": null,
				"fee": 5000,
				"preBalances": [1000000000, 0, 0],
				"postBalances": [899995000, 0, 0],
				"preTokenBalances": [
					{"accountIndex": 1, "mint": %q, "owner": %q, "uiTokenAmount": {"amount": "100", "decimals": 2, "uiAmount": 1, "uiAmountString": "1"}}
				],
				"postTokenBalances": [
					{"accountIndex": 1, "mint": %q, "owner": %q, "uiTokenAmount": {"amount": "250", "decimals": 2, "uiAmount": 2.5, "uiAmountString": "2.5"}}
				],
				"loadedAddresses": {"writable": [%q], "readonly": []}
			}
		}`, encoded, usdcMint, testAddress, usdcMint, testAddress, usdcMint),
	}, nil)

	page, err := NewTransactionFetcher(client).FetchPage(context.Background(), fetcher.Request{Key: sig.String()})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if !page.IsLast || len(page.Records) != 1 {
		t.Fatalf("page = %+v, want one record", page)
	}

	tx := page.Records[0]
	if err := tx.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if tx.Slot != 300 || tx.Fee != 5000 || tx.Err != nil {
		t.Errorf("tx = %+v", tx)
	}
	wantAccounts := []string{testAddress, wrappedSOL, usdcMint}
	if len(tx.Accounts) != len(wantAccounts) {
		t.Fatalf("Accounts = %v, want %v", tx.Accounts, wantAccounts)
	}
	for i, want := range wantAccounts {
		if tx.Accounts[i] != want {
			t.Errorf("Accounts[%d] = %s, want %s", i, tx.Accounts[i], want)
		}
	}
	if len(tx.PostTokenBalances) != 1 || tx.PostTokenBalances[0].Amount.UIAmountString != "2.5" {
		t.Errorf("PostTokenBalances = %+v", tx.PostTokenBalances)
	}
	if tx.PreTokenBalances[0].Owner != testAddress || tx.PreTokenBalances[0].Mint != usdcMint {
		t.Errorf("PreTokenBalances = %+v", tx.PreTokenBalances)
	}
}

func TestTransactionFetcher_NotFound(t *testing.T) {
	client := newRPCServer(t, map[string]string{"getTransaction": "null"}, nil)

	page, err := NewTransactionFetcher(client).FetchPage(context.Background(), fetcher.Request{Key: testSignature(3).String()})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if len(page.Records) != 0 || !page.IsLast {
		t.Errorf("page = %+v, want empty last page", page)
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
	}{
		{"valid", Transaction{Signature: "s", Accounts: []string{"a"}, PreLamports: []uint64{1}, PostLamports: []uint64{2}}, false},
		{"missing signature", Transaction{Accounts: []string{"a"}}, true},
		{"no accounts", Transaction{Signature: "s"}, true},
		{"balance length mismatch", Transaction{Signature: "s", Accounts: []string{"a"}, PreLamports: []uint64{1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tx.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_Stats(t *testing.T) {
	client := newRPCServer(t, map[string]string{
		"getEpochInfo":        `{"absoluteSlot": 1000, "blockHeight": 900, "epoch": 5, "slotIndex": 100, "slotsInEpoch": 400, "transactionCount": 12}`,
		"getTransactionCount": `123456`,
	}, nil)

	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Epoch != 5 || stats.AbsoluteSlot != 1000 || stats.TransactionCount != 123456 {
		t.Errorf("stats = %+v", stats)
	}
	if got := stats.EpochProgress(); got != 0.25 {
		t.Errorf("EpochProgress() = %v, want 0.25", got)
	}
}

func TestClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, ratelimit.Unlimited())
	defer client.Close()

	_, err := client.Stats(context.Background())
	if err == nil {
		t.Fatal("Stats() error = nil")
	}
	if !fetcher.IsRetryable(err) {
		t.Errorf("error %v should be retryable", err)
	}
}
