// Package chain talks to a logion node over WebSocket RPC. Connection
// handling, extrinsic signing and SCALE encoding are done by
// go-substrate-rpc-client; this package only sequences the calls and turns
// transaction pool updates into model.Status values.
package chain

import (
	"context"
	"errors"
	"fmt"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/idilsaglam/itemsubmit/internal/logging"
	"github.com/idilsaglam/itemsubmit/internal/model"
)

// ErrNotFinalized is returned when the watch ends on a terminal status other
// than Finalized (dropped, invalid, usurped or finality timeout).
var ErrNotFinalized = errors.New("transaction not finalized")

// Session is an open connection to one node.
type Session struct {
	url string
	api *gsrpc.SubstrateAPI
}

// Dial connects to the node at url. The connection attempt is abandoned when
// ctx is done.
func Dial(ctx context.Context, url string) (*Session, error) {
	type result struct {
		api *gsrpc.SubstrateAPI
		err error
	}
	done := make(chan result, 1)
	go func() {
		api, err := gsrpc.NewSubstrateAPI(url)
		done <- result{api, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil {
				closeClient(r.api)
			}
		}()
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("connect %s: %w", url, r.err)
		}
		logging.Debugf("connected to %s", url)
		return &Session{url: url, api: r.api}, nil
	}
}

// Close releases the connection.
func (s *Session) Close() {
	closeClient(s.api)
}

func closeClient(api *gsrpc.SubstrateAPI) {
	if c, ok := api.Client.(interface{ Close() }); ok {
		c.Close()
	}
}

// SubmitAndWatch signs call with signer, submits it and reports every status
// update to onStatus until a terminal status is seen or ctx is done.
func (s *Session) SubmitAndWatch(ctx context.Context, signer signature.KeyringPair, call string, args []any, onStatus func(model.Status)) error {
	ext, err := s.signedExtrinsic(signer, call, args)
	if err != nil {
		return err
	}

	sub, err := s.api.RPC.Author.SubmitAndWatchExtrinsic(ext)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	defer sub.Unsubscribe()
	logging.Infof("submitted %s from %s to %s", call, signer.Address, s.url)

	return watch(ctx, sub.Chan(), sub.Err(), onStatus)
}

func (s *Session) signedExtrinsic(signer signature.KeyringPair, call string, args []any) (types.Extrinsic, error) {
	meta, err := s.api.RPC.State.GetMetadataLatest()
	if err != nil {
		return types.Extrinsic{}, fmt.Errorf("get metadata: %w", err)
	}
	c, err := types.NewCall(meta, call, args...)
	if err != nil {
		return types.Extrinsic{}, fmt.Errorf("build call %s: %w", call, err)
	}
	genesis, err := s.api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		return types.Extrinsic{}, fmt.Errorf("get genesis hash: %w", err)
	}
	rv, err := s.api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return types.Extrinsic{}, fmt.Errorf("get runtime version: %w", err)
	}
	var nonce uint32
	if err := s.api.Client.Call(&nonce, "system_accountNextIndex", signer.Address); err != nil {
		return types.Extrinsic{}, fmt.Errorf("get account nonce: %w", err)
	}
	logging.Debugf("signing %s: spec %d, tx version %d, nonce %d", call, rv.SpecVersion, rv.TransactionVersion, nonce)

	ext := types.NewExtrinsic(c)
	opts := types.SignatureOptions{
		BlockHash:          genesis,
		Era:                types.ExtrinsicEra{IsMortalEra: false},
		GenesisHash:        genesis,
		Nonce:              types.NewUCompactFromUInt(uint64(nonce)),
		SpecVersion:        rv.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: rv.TransactionVersion,
	}
	if err := ext.Sign(signer, opts); err != nil {
		return types.Extrinsic{}, fmt.Errorf("sign: %w", err)
	}
	return ext, nil
}
