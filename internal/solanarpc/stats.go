package solanarpc

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
)

// ClusterStats is a snapshot of cluster progress
type ClusterStats struct {
	Epoch            uint64
	SlotIndex        uint64
	SlotsInEpoch     uint64
	AbsoluteSlot     uint64
	BlockHeight      uint64
	TransactionCount uint64
}

// EpochProgress returns the fraction of the current epoch that has elapsed
func (s ClusterStats) EpochProgress() float64 {
	if s.SlotsInEpoch == 0 {
		return 0
	}
	return float64(s.SlotIndex) / float64(s.SlotsInEpoch)
}

// Stats fetches epoch info and the total transaction count
func (c *Client) Stats(ctx context.Context) (ClusterStats, error) {
	if err := c.wait(ctx); err != nil {
		return ClusterStats{}, err
	}
	epoch, err := c.rpc.GetEpochInfo(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return ClusterStats{}, fmt.Errorf("failed to fetch epoch info: %w", classify(err))
	}

	if err := c.wait(ctx); err != nil {
		return ClusterStats{}, err
	}
	count, err := c.rpc.GetTransactionCount(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return ClusterStats{}, fmt.Errorf("failed to fetch transaction count: %w", classify(err))
	}

	return ClusterStats{
		Epoch:            epoch.Epoch,
		SlotIndex:        epoch.SlotIndex,
		SlotsInEpoch:     epoch.SlotsInEpoch,
		AbsoluteSlot:     epoch.AbsoluteSlot,
		BlockHeight:      epoch.BlockHeight,
		TransactionCount: count,
	}, nil
}
