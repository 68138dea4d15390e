package model

import "time"

// CollectionItem is one item to add to a logion collection, as entered.
type CollectionItem struct {
	CollectionID string `json:"collection"`
	ItemID       string `json:"item_id"`
	Description  string `json:"description"`
}

// Submission holds everything the form collects. The signer address is
// derived from SignerURI and never stored.
type Submission struct {
	URL       string
	SignerURI string
	Item      CollectionItem
}

// Receipt records a submission that reached a terminal status.
type Receipt struct {
	CollectionItem
	Signer      string     `json:"signer"`
	URL         string     `json:"url"`
	BlockHash   string     `json:"block_hash"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}
