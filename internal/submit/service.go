// Package submit runs one collection item submission end to end: derive the
// signer, encode the call arguments, connect, sign, submit and watch.
package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"

	"github.com/idilsaglam/itemsubmit/internal/chain"
	"github.com/idilsaglam/itemsubmit/internal/chaintypes"
	"github.com/idilsaglam/itemsubmit/internal/keys"
	"github.com/idilsaglam/itemsubmit/internal/logging"
	"github.com/idilsaglam/itemsubmit/internal/model"
)

// AddCollectionItem is the pallet call every submission uses.
const AddCollectionItem = "LogionLoc.add_collection_item"

// MaxDescriptionBytes is the size limit of an item description in UTF-8
// bytes.
const MaxDescriptionBytes = 4096

var (
	ErrMissingURL         = errors.New("web socket URL is empty")
	ErrDescriptionTooLong = errors.New("item description is too long")
)

// Conn is an open node connection.
type Conn interface {
	SubmitAndWatch(ctx context.Context, signer signature.KeyringPair, call string, args []any, onStatus func(model.Status)) error
	Close()
}

// Dialer opens a Conn to url.
type Dialer func(ctx context.Context, url string) (Conn, error)

// ChainDialer dials real nodes.
func ChainDialer(ctx context.Context, url string) (Conn, error) {
	s, err := chain.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Recorder keeps receipts of finished submissions.
type Recorder interface {
	Append(model.Receipt) error
}

// Service holds what every submission shares.
type Service struct {
	Dial       Dialer
	Registry   *chaintypes.Registry
	SS58Prefix uint16
	// Timeout bounds a whole submission; zero means no limit.
	Timeout time.Duration
	// Receipts is optional.
	Receipts Recorder

	now func() time.Time
}

// New returns a Service with the embedded type dictionary and the generic
// SS58 prefix.
func New(dial Dialer) *Service {
	return &Service{
		Dial:       dial,
		Registry:   chaintypes.Default(),
		SS58Prefix: keys.DefaultSS58Prefix,
	}
}

// SignerAddress is the SS58 address shown next to the signer URI.
func (s *Service) SignerAddress(uri string) string {
	return keys.Address(uri, s.SS58Prefix)
}

// Submit runs sub and calls onStatus for each update. The returned receipt
// is filled as far as the submission got.
func (s *Service) Submit(ctx context.Context, sub model.Submission, onStatus func(model.Status)) (model.Receipt, error) {
	sub = trim(sub)
	receipt := model.Receipt{
		CollectionItem: sub.Item,
		URL:            sub.URL,
		SubmittedAt:    s.clock(),
	}

	if sub.URL == "" {
		return receipt, ErrMissingURL
	}
	if n := len(sub.Item.Description); n > MaxDescriptionBytes {
		return receipt, fmt.Errorf("%w: %d bytes, max %d", ErrDescriptionTooLong, n, MaxDescriptionBytes)
	}
	pair, err := keys.Derive(sub.SignerURI, s.SS58Prefix)
	if err != nil {
		return receipt, fmt.Errorf("signer: %w", err)
	}
	receipt.Signer = pair.Address

	args, err := s.registry().EncodeArgs(AddCollectionItem, []string{
		sub.Item.CollectionID,
		sub.Item.ItemID,
		sub.Item.Description,
	})
	if err != nil {
		return receipt, err
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	conn, err := s.Dial(ctx, sub.URL)
	if err != nil {
		return receipt, err
	}
	defer conn.Close()

	var last model.Status
	err = conn.SubmitAndWatch(ctx, pair.KeyringPair, AddCollectionItem, args, func(st model.Status) {
		last = st
		if st.BlockHash != "" {
			receipt.BlockHash = st.BlockHash
		}
		receipt.Status = st.Kind.String()
		if onStatus != nil {
			onStatus(st)
		}
	})
	if last.Kind == model.StatusFinalized {
		at := s.clock()
		receipt.FinalizedAt = &at
	}
	if last.Terminal() && s.Receipts != nil {
		if rerr := s.Receipts.Append(receipt); rerr != nil {
			logging.Warnf("record receipt: %v", rerr)
		}
	}
	if err != nil {
		return receipt, err
	}
	logging.Infof("item %s of collection %s finalized at %s", receipt.ItemID, receipt.CollectionID, receipt.BlockHash)
	return receipt, nil
}

func (s *Service) registry() *chaintypes.Registry {
	if s.Registry != nil {
		return s.Registry
	}
	return chaintypes.Default()
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func trim(sub model.Submission) model.Submission {
	sub.URL = strings.TrimSpace(sub.URL)
	sub.SignerURI = strings.TrimSpace(sub.SignerURI)
	sub.Item.CollectionID = strings.TrimSpace(sub.Item.CollectionID)
	sub.Item.ItemID = strings.TrimSpace(sub.Item.ItemID)
	return sub
}
