// Package platform defines the cloud save platform the save manager talks to.
package platform

import (
	"context"

	"github.com/mcoot/savebridge/internal/model"
)

// Credentials identify an account when signing in
type Credentials struct {
	Username string
	Password string
}

// LocalUser is the identity currently signed in on this device
type LocalUser struct {
	ID            model.AccountID
	DisplayName   string
	Authenticated bool
}

// Platform is the account and saved-games surface of a cloud save service
type Platform interface {
	Authenticate(ctx context.Context, creds Credentials) error
	SignOut(ctx context.Context) error
	LocalUser() LocalUser

	// OpenWithAutomaticConflictResolution opens a named slot, resolving any pending
	// conflict with strategy before returning the head's metadata.
	OpenWithAutomaticConflictResolution(ctx context.Context, name string, source model.DataSource, strategy model.ConflictStrategy) (*model.SlotMetadata, error)
	ReadBinaryData(ctx context.Context, meta *model.SlotMetadata) ([]byte, error)
	CommitUpdate(ctx context.Context, meta *model.SlotMetadata, update model.MetadataUpdate, data []byte) (*model.SlotMetadata, error)
}
