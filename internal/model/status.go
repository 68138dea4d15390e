package model

import "fmt"

// StatusKind mirrors the transaction pool statuses reported by the node.
type StatusKind int

const (
	StatusFuture StatusKind = iota
	StatusReady
	StatusBroadcast
	StatusInBlock
	StatusRetracted
	StatusFinalityTimeout
	StatusFinalized
	StatusUsurped
	StatusDropped
	StatusInvalid
)

var statusNames = [...]string{
	StatusFuture:          "Future",
	StatusReady:           "Ready",
	StatusBroadcast:       "Broadcast",
	StatusInBlock:         "InBlock",
	StatusRetracted:       "Retracted",
	StatusFinalityTimeout: "FinalityTimeout",
	StatusFinalized:       "Finalized",
	StatusUsurped:         "Usurped",
	StatusDropped:         "Dropped",
	StatusInvalid:         "Invalid",
}

func (k StatusKind) String() string {
	if k < 0 || int(k) >= len(statusNames) {
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
	return statusNames[k]
}

// Status is one update of a watched extrinsic. BlockHash is set for the
// statuses that carry one (InBlock, Retracted, FinalityTimeout, Finalized,
// Usurped).
type Status struct {
	Kind      StatusKind
	BlockHash string
}

// String is the text shown to the user for this update.
func (s Status) String() string {
	switch s.Kind {
	case StatusInBlock:
		return "Transaction included at blockHash " + s.BlockHash
	case StatusFinalized:
		return "Transaction finalized at blockHash " + s.BlockHash
	}
	return "Current status is " + s.Kind.String()
}

// Terminal reports whether no further update will follow.
func (s Status) Terminal() bool {
	switch s.Kind {
	case StatusFinalized, StatusUsurped, StatusDropped, StatusInvalid, StatusFinalityTimeout:
		return true
	}
	return false
}
