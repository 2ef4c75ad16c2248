package coordinator

import (
	"context"
	"errors"

	"github.com/dalemusser/matchdesk/internal/app/system/notify"
	"github.com/dalemusser/matchdesk/internal/app/system/paging"
	"github.com/dalemusser/matchdesk/internal/domain/models"
)

// Backend is the service the coordinator reads from and mutates.
type Backend interface {
	ListUnmatchedClients(ctx context.Context, page, size int) (paging.Page[models.Person], error)
	ListPotentialHelpers(ctx context.Context, clientID int64, page, size int) (paging.Page[models.Person], error)
	ListMatchedPairs(ctx context.Context, page, size int) (paging.Page[models.Pairing], error)
	Assign(ctx context.Context, clientID, helperID int64) error
	Unassign(ctx context.Context, clientID, helperID int64) error
}

// Notifier receives one notification per completed or failed operation.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification)
}

var (
	// ErrNoSelection is returned by Assign when no client is selected.
	ErrNoSelection = errors.New("coordinator: no client selected")
	// ErrSelectionMismatch is returned by Assign when the client differs from the selection.
	ErrSelectionMismatch = errors.New("coordinator: client is not the selected client")
	// ErrStale is returned by a load whose response was superseded and discarded.
	ErrStale = errors.New("coordinator: response superseded")
	// ErrClosed is returned by operations on a closed view or coordinator.
	ErrClosed = errors.New("coordinator: closed")
)

// Operator-facing messages.
const (
	msgFetchClientsFailed = "Error fetching unmatched clients."
	msgFetchHelpersFailed = "Error fetching potential helpers."
	msgFetchPairsFailed   = "Error fetching matched pairs."
	msgAssigned           = "Helper assigned successfully."
	msgAssignFailed       = "Error assigning helper."
	msgUnassigned         = "Helper unassigned successfully."
	msgUnassignFailed     = "Error unassigning helper."
)
