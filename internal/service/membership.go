package service

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/mschachner/drop-in/internal/model"
	"github.com/mschachner/drop-in/internal/repository"
)

// MembershipService coordinates join/unjoin of participants.
//
// Every change is delegated to a single atomic repository primitive, so concurrent
// joins by different participants on the same event never overwrite each other.
// Repeating a join or an unjoin is a no-op.
type MembershipService interface {
	// Join adds participant to the event's joiners.
	Join(ctx context.Context, sess model.Session, id uuid.UUID, participant string) (*model.Availability, error)
	// Unjoin removes participant from the event's joiners.
	Unjoin(ctx context.Context, sess model.Session, id uuid.UUID, participant string) (*model.Availability, error)
	// Toggle flips membership and reports whether participant is now a joiner.
	Toggle(ctx context.Context, sess model.Session, id uuid.UUID, participant string) (*model.Availability, bool, error)
}

type MembershipServiceImpl struct {
	repo   repository.MembershipRepository
	policy Policy
}

// NewMembershipService constructs MembershipService.
func NewMembershipService(repo repository.MembershipRepository, policy Policy) *MembershipServiceImpl {
	return &MembershipServiceImpl{repo: repo, policy: policy}
}

func (s *MembershipServiceImpl) participant(sess model.Session, name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := model.ValidateParticipant(name); err != nil {
		return "", err
	}
	if err := s.policy.actAs(sess, name); err != nil {
		return "", err
	}
	return name, nil
}

// Join adds participant; already joined is not an error.
func (s *MembershipServiceImpl) Join(
	ctx context.Context, sess model.Session, id uuid.UUID, participant string,
) (*model.Availability, error) {
	name, err := s.participant(sess, participant)
	if err != nil {
		return nil, err
	}
	return s.repo.AddJoiner(ctx, sess.Calendar(), id, name)
}

// Unjoin removes participant; not joined is not an error.
func (s *MembershipServiceImpl) Unjoin(
	ctx context.Context, sess model.Session, id uuid.UUID, participant string,
) (*model.Availability, error) {
	name, err := s.participant(sess, participant)
	if err != nil {
		return nil, err
	}
	return s.repo.RemoveJoiner(ctx, sess.Calendar(), id, name)
}

// Toggle flips membership in one statement.
func (s *MembershipServiceImpl) Toggle(
	ctx context.Context, sess model.Session, id uuid.UUID, participant string,
) (*model.Availability, bool, error) {
	name, err := s.participant(sess, participant)
	if err != nil {
		return nil, false, err
	}
	return s.repo.ToggleJoiner(ctx, sess.Calendar(), id, name)
}
