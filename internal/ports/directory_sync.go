package ports

import "context"

// DirectorySync mirrors change requests into an external directory/list
// service. Every call is best-effort from the lifecycle's point of view:
// failures are logged by the caller and never fail the primary operation.
//
// The concrete variant (which downstream protocol, which credentials) is a
// deployment concern; the core only sees this surface.
type DirectorySync interface {
	// CreateChangeRequest mirrors a newly persisted record and returns the
	// remote item identity.
	CreateChangeRequest(ctx context.Context, record ChangeRequest) (string, error)
	// UpdateChangeRequest pushes allow-listed field changes for requestID.
	UpdateChangeRequest(ctx context.Context, requestID string, fields map[string]any) error
	GetChangeRequests(ctx context.Context) ([]ChangeRequest, error)
}
