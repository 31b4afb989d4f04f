package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"chainexplorer/internal/cli"
	"chainexplorer/internal/config"
	"chainexplorer/internal/ratelimit"
)

const (
	wallet = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	raffle = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	wsol   = "So11111111111111111111111111111111111111112"
)

func testSignature(b byte) solana.Signature {
	var sig solana.Signature
	sig[0] = b
	sig[63] = b
	return sig
}

type servers struct {
	helloMoon *httptest.Server
	magicEden *httptest.Server
	rpc       *httptest.Server
}

// newServers starts mock Hello Moon, Magic Eden and JSON-RPC servers
func newServers(t *testing.T, helloMoonStatus int) *servers {
	t.Helper()

	helloMoon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test_key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if helloMoonStatus != http.StatusOK {
			w.WriteHeader(helloMoonStatus)
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		if _, ok := body["raffleAccount"]; ok {
			w.Write([]byte(`{"data": [
				{"blockTime": 1680000300, "blockId": 30, "transactionId": "claimSig", "instructionOrdinal": 0, "transactionPosition": 1,
				 "userAccount": "` + wallet + `", "event": "CLAIM_PRIZE", "raffleAccount": "` + raffle + `", "winnerAccount": "` + wallet + `"},
				{"blockTime": 1680000200, "blockId": 20, "transactionId": "buySig", "instructionOrdinal": 0, "transactionPosition": 4,
				 "userAccount": "` + wallet + `", "event": "BUY_TICKETS", "raffleAccount": "` + raffle + `", "rafflePaymentAmount": 100, "numberoftickets": 4}
			]}`))
			return
		}
		w.Write([]byte(`{"data": [
			{"blockTime": 1680000000, "blockId": 10, "transactionId": "ev1", "instructionOrdinal": 0, "transactionPosition": 1,
			 "userAccount": "` + wallet + `", "event": "BUY_TICKETS", "rafflePaymentAmount": 100, "numberoftickets": 4},
			{"blockTime": 1680000000, "blockId": 10, "transactionId": "ev2", "instructionOrdinal": 1, "transactionPosition": 1,
			 "userAccount": "` + wallet + `", "event": "CREATE_RAFFLE", "pricePerTicket": 3},
			{"blockTime": 1679999000, "blockId": 9, "transactionId": "ev3", "instructionOrdinal": 0, "transactionPosition": 2,
			 "userAccount": "` + wallet + `", "event": "BUY_TICKETS", "rafflePaymentAmount": 100, "numberoftickets": 0}
		]}`))
	}))
	t.Cleanup(helloMoon.Close)

	magicEden := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"signature": "me1", "type": "buyNow", "source": "magiceden_v2", "tokenMint": "MintA", "slot": 50, "blockTime": 1680000000, "price": 1.25},
			{"signature": "me2", "type": "list", "source": "magiceden_v2", "tokenMint": "MintB", "slot": 49, "blockTime": 1679990000, "price": 9}
		]`))
	}))
	t.Cleanup(magicEden.Close)

	sig := testSignature(7)
	tx := solana.Transaction{
		Signatures: []solana.Signature{sig},
		Message: solana.Message{
			Header:      solana.MessageHeader{NumRequiredSignatures: 1},
			AccountKeys: solana.PublicKeySlice{solana.MustPublicKeyFromBase58(wallet), solana.MustPublicKeyFromBase58(raffle)},
		},
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}

	results := map[string]string{
		"getSignaturesForAddress": fmt.Sprintf(`[
			{"signature": %q, "slot": 300, "blockTime": 1680000100, "err": null, "confirmationStatus": "finalized"}
		]`, sig),
		"getTransaction": fmt.Sprintf(`{
			"slot": 300,
			"blockTime": 1680000100,
			"transaction": [%q, "base64"],
			"meta": {
				"err": null,
				"fee": 5000,
				"preBalances": [1000005000, 0],
				"postBalances": [1000000000, 0],
				"preTokenBalances": [],
				"postTokenBalances": [
					{"accountIndex": 1, "mint": %q, "owner": %q, "uiTokenAmount": {"amount": "5", "decimals": 0, "uiAmount": 5, "uiAmountString": "5"}}
				],
				"loadedAddresses": {"writable": [], "readonly": []}
			}
		}`, base64.StdEncoding.EncodeToString(raw), wsol, wallet),
		"getEpochInfo":        `{"absoluteSlot": 1000, "blockHeight": 900, "epoch": 5, "slotIndex": 100, "slotsInEpoch": 400}`,
		"getTransactionCount": `777`,
	}

	rpc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		result, ok := results[req.Method]
		if !ok {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"Method not found"}}`, req.ID)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
	}))
	t.Cleanup(rpc.Close)

	return &servers{helloMoon: helloMoon, magicEden: magicEden, rpc: rpc}
}

// run executes the CLI against the mock servers and returns stdout
func run(t *testing.T, s *servers, args ...string) (string, error) {
	t.Helper()
	return runWith(t, s, nil, args...)
}

// runWith is run with a hook that adjusts the configuration first
func runWith(t *testing.T, s *servers, adjust func(*config.Config), args ...string) (string, error) {
	t.Helper()

	cfg := &config.Config{
		Cluster:          "devnet",
		DevnetRPCURL:     s.rpc.URL,
		TestnetRPCURL:    s.rpc.URL,
		HelloMoonAPIKey:  "test_key",
		HelloMoonBaseURL: s.helloMoon.URL,
		MagicEdenBaseURL: s.magicEden.URL,
		PageSize:         25,
		TokenPageSize:    200,
		StatsInterval:    20 * time.Millisecond,
		RequestTimeout:   2 * time.Second,
		RequestRetries:   -1,
		LogLevel:         "error",
	}
	if adjust != nil {
		adjust(cfg)
	}
	load := func() (*config.Config, error) {
		c := *cfg
		return &c, nil
	}

	cmd := cli.NewRootCmd(cli.Options{
		Load:         load,
		LoadClusters: load,
		Limiter:      ratelimit.Unlimited(),
	})

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := cmd.ExecuteContext(ctx)
	return stdout.String(), err
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output does not contain %q:\n%s", w, out)
		}
	}
}

func TestIntegration_Raffles(t *testing.T) {
	s := newServers(t, http.StatusOK)

	out, err := run(t, s, "raffles", wallet)
	if err != nil {
		t.Fatalf("raffles error = %v", err)
	}
	assertContains(t, out, "Filter: All", "Raffles of "+wallet, "ev1", "ev2", "ev3", "Success", "25", "2023-03-28T10:40:00Z")

	// ev3 has zero tickets so its unit price stays a placeholder
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "ev3") && strings.Contains(line, "Infinity") {
			t.Errorf("unexpected derived price in %q", line)
		}
	}
}

func TestIntegration_RafflesFilter(t *testing.T) {
	s := newServers(t, http.StatusOK)

	out, err := run(t, s, "raffles", wallet, "--filter", "create_raffle")
	if err != nil {
		t.Fatalf("raffles error = %v", err)
	}
	assertContains(t, out, "Filter: CREATE_RAFFLE", "ev2")
	if strings.Contains(out, "ev1") || strings.Contains(out, "ev3") {
		t.Errorf("filtered output contains other events:\n%s", out)
	}
}

func TestIntegration_RafflesFailure(t *testing.T) {
	s := newServers(t, http.StatusInternalServerError)

	out, err := run(t, s, "raffles", wallet)
	if err != nil {
		t.Fatalf("raffles error = %v", err)
	}
	assertContains(t, out, "Failed to fetch raffles")
}

func TestIntegration_RafflesInvalidAddress(t *testing.T) {
	s := newServers(t, http.StatusOK)

	out, err := run(t, s, "raffles", "not-a-wallet", wallet)
	if err != nil {
		t.Fatalf("raffles error = %v", err)
	}
	assertContains(t, out, "raffles not loaded", "ev1")
}

func TestIntegration_RaffleWinner(t *testing.T) {
	s := newServers(t, http.StatusOK)

	out, err := run(t, s, "raffle", raffle)
	if err != nil {
		t.Fatalf("raffle error = %v", err)
	}
	assertContains(t, out, "Winner: "+wallet, "claimSig", "buySig", "USER")
}

func TestIntegration_Tokens(t *testing.T) {
	s := newServers(t, http.StatusOK)

	out, err := run(t, s, "tokens", wallet)
	if err != nil {
		t.Fatalf("tokens error = %v", err)
	}
	assertContains(t, out, "me1", "MintA", "1.25")
	if strings.Contains(out, "me2") {
		t.Errorf("listing shown as a purchase:\n%s", out)
	}
}

func TestIntegration_HistoryWithDetails(t *testing.T) {
	s := newServers(t, http.StatusOK)

	out, err := run(t, s, "history", wallet, "--details")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	sig := testSignature(7).String()
	assertContains(t, out,
		"Transaction history of "+wallet+" on Devnet",
		sig,
		"Fetched full history",
		"Fee payer change: -0.000005 SOL",
		wsol,
		"+5",
	)
}

func TestIntegration_Stats(t *testing.T) {
	s := newServers(t, http.StatusOK)

	out, err := run(t, s, "stats", "--count", "2")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	if got := strings.Count(out, "epoch 5 (25.0%)"); got != 2 {
		t.Errorf("printed %d updates, want 2:\n%s", got, out)
	}
	assertContains(t, out, "transactions 777")
}

func TestIntegration_ClusterFlag(t *testing.T) {
	s := newServers(t, http.StatusOK)

	out, err := run(t, s, "clusters", "--cluster", "testnet")
	if err != nil {
		t.Fatalf("clusters error = %v", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "testnet") && !strings.Contains(line, "*") {
			t.Errorf("testnet not marked active: %q", line)
		}
	}

	if _, err := run(t, s, "clusters", "--cluster", "localnet"); err == nil {
		t.Error("unknown cluster accepted")
	}
}

func TestIntegration_StatsFailureFlushesReports(t *testing.T) {
	s := newServers(t, http.StatusOK)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(down.Close)

	var received atomic.Int32
	sentryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(sentryServer.Close)
	dsn := "http://public@" + strings.TrimPrefix(sentryServer.URL, "http://") + "/1"

	_, err := runWith(t, s, func(c *config.Config) {
		c.DevnetRPCURL = down.URL
		c.SentryDSN = dsn
	}, "stats")
	if err == nil || !strings.Contains(err.Error(), "cluster stats unavailable") {
		t.Fatalf("stats error = %v, want cluster stats unavailable", err)
	}

	if received.Load() == 0 {
		t.Error("failure report was not flushed to Sentry before the command returned")
	}
}

func TestIntegration_ClustersWithoutCredentials(t *testing.T) {
	s := newServers(t, http.StatusOK)

	cmd := cli.NewRootCmd(cli.Options{
		Load: func() (*config.Config, error) {
			return nil, errors.New("missing required configuration: HELLOMOON_API_KEY")
		},
		LoadClusters: func() (*config.Config, error) {
			return &config.Config{
				Cluster:      "devnet",
				DevnetRPCURL: s.rpc.URL,
				LogLevel:     "error",
			}, nil
		},
		Limiter: ratelimit.Unlimited(),
	})

	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{"clusters"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("clusters error = %v", err)
	}
	assertContains(t, stdout.String(), "devnet", s.rpc.URL)

	cmd.SetArgs([]string{"raffles", wallet})
	if err := cmd.ExecuteContext(context.Background()); err == nil || !strings.Contains(err.Error(), "HELLOMOON_API_KEY") {
		t.Errorf("raffles error = %v, want missing HELLOMOON_API_KEY", err)
	}
}
