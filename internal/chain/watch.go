package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/idilsaglam/itemsubmit/internal/logging"
	"github.com/idilsaglam/itemsubmit/internal/model"
)

var errSubscriptionClosed = errors.New("status subscription closed")

// watch forwards updates from a status subscription until a terminal one.
func watch(ctx context.Context, statuses <-chan types.ExtrinsicStatus, errs <-chan error, onStatus func(model.Status)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok || err == nil {
				return errSubscriptionClosed
			}
			return fmt.Errorf("watch: %w", err)
		case raw, ok := <-statuses:
			if !ok {
				return errSubscriptionClosed
			}
			st := Convert(raw)
			logging.Debugf("status %s %s", st.Kind, st.BlockHash)
			if onStatus != nil {
				onStatus(st)
			}
			if !st.Terminal() {
				continue
			}
			if st.Kind == model.StatusFinalized {
				return nil
			}
			return fmt.Errorf("%w: %s", ErrNotFinalized, st.Kind)
		}
	}
}

// Convert maps a transaction pool update onto model.Status.
func Convert(s types.ExtrinsicStatus) model.Status {
	switch {
	case s.IsFuture:
		return model.Status{Kind: model.StatusFuture}
	case s.IsReady:
		return model.Status{Kind: model.StatusReady}
	case s.IsBroadcast:
		return model.Status{Kind: model.StatusBroadcast}
	case s.IsInBlock:
		return model.Status{Kind: model.StatusInBlock, BlockHash: s.AsInBlock.Hex()}
	case s.IsRetracted:
		return model.Status{Kind: model.StatusRetracted, BlockHash: s.AsRetracted.Hex()}
	case s.IsFinalityTimeout:
		return model.Status{Kind: model.StatusFinalityTimeout, BlockHash: s.AsFinalityTimeout.Hex()}
	case s.IsFinalized:
		return model.Status{Kind: model.StatusFinalized, BlockHash: s.AsFinalized.Hex()}
	case s.IsUsurped:
		return model.Status{Kind: model.StatusUsurped, BlockHash: s.AsUsurped.Hex()}
	case s.IsDropped:
		return model.Status{Kind: model.StatusDropped}
	}
	return model.Status{Kind: model.StatusInvalid}
}
