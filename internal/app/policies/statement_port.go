package policies

import "context"

// StatementStore keeps exported folio statements and hands back a link the
// front desk can share with the guest.
type StatementStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
