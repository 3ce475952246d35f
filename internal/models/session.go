package models

import (
	"time"
)

// OperatorSession is the per-operator interaction state that the dashboard used
// to keep in process globals: the selected distributor and the last pasted ICCIDs.
type OperatorSession struct {
	ID                  string               `json:"id"`
	Actor               string               `json:"actor"`
	SelectedDistributor *DistributorSnapshot `json:"selected_distributor,omitempty"`
	PendingICCIDs       []string             `json:"pending_iccids,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	ExpiresAt           time.Time            `json:"expires_at"`
}
