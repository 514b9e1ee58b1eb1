package service

import (
	"context"
	"fmt"

	"server_go/internal/domain"
)

// IdentityService resolves external identity-provider user IDs to internal
// user records. Account provisioning happens in the identity layer; this is
// a lookup only.
type IdentityService struct {
	users domain.UserRepository
}

func NewIdentityService(users domain.UserRepository) *IdentityService {
	return &IdentityService{users: users}
}

// ResolveExternal maps an external identity ID to the internal user record.
func (s *IdentityService) ResolveExternal(ctx context.Context, externalID string) (*domain.User, error) {
	if externalID == "" {
		return nil, domain.NewInvalidInput("user id is required")
	}
	u, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("resolve external id: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: unknown user %q", domain.ErrNotFound, externalID)
	}
	return u, nil
}
