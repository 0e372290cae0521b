package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository reads and writes users. Returned users carry no groups;
// the service attaches them through GroupRepository.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByRegistration(ctx context.Context, registration string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type GroupRepository interface {
	List(ctx context.Context) ([]Group, error)
	GetByName(ctx context.Context, name string) (*Group, error)
	AddMember(ctx context.Context, userID, groupID uuid.UUID) error
	RemoveMember(ctx context.Context, userID, groupID uuid.UUID) error
	ForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]Group, error)
}
