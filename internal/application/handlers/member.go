package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/services"
)

// MemberHandler handles member use cases.
type MemberHandler struct {
	registry *services.RegistryService
}

// NewMemberHandler creates a new member handler.
func NewMemberHandler(registry *services.RegistryService) *MemberHandler {
	return &MemberHandler{registry: registry}
}

// MemberInput is a member as typed by the user. BirthDate is YYYY-MM-DD.
type MemberInput struct {
	Name          string
	Relationship  string
	BirthDate     string
	WalletAddress string
}

// MemberPatch holds the fields to change; nil fields are left as they are.
// An empty BirthDate removes it.
type MemberPatch struct {
	Name          *string
	Relationship  *string
	BirthDate     *string
	WalletAddress *string
}

// MemberView is a member with its age on the listing date.
type MemberView struct {
	Member entities.Member
	Age    *int
}

// HandleCreate adds a member to the session's union.
func (h *MemberHandler) HandleCreate(ctx context.Context, session entities.Session, in MemberInput) (*entities.Member, error) {
	birthDate, err := parseBirthDate(in.BirthDate)
	if err != nil {
		return nil, err
	}
	draft := services.MemberDraft{
		Name:          in.Name,
		Relationship:  entities.ParseRelationship(in.Relationship),
		BirthDate:     birthDate,
		WalletAddress: in.WalletAddress,
	}
	return h.registry.CreateMember(ctx, session, draft)
}

// HandleUpdate applies patch to an existing member.
func (h *MemberHandler) HandleUpdate(
	ctx context.Context,
	session entities.Session,
	memberID string,
	patch MemberPatch,
) (*entities.Member, error) {
	union, err := h.registry.LoadUnion(ctx, session)
	if err != nil {
		return nil, err
	}
	current := union.FindMember(memberID)
	if current == nil {
		return nil, fmt.Errorf("member %s: %w", memberID, entities.ErrUnknownMember)
	}

	draft := services.MemberDraft{
		Name:          current.Name,
		Relationship:  current.Relationship,
		BirthDate:     current.BirthDate,
		WalletAddress: current.WalletAddress,
	}
	if patch.Name != nil {
		draft.Name = *patch.Name
	}
	if patch.Relationship != nil {
		draft.Relationship = entities.ParseRelationship(*patch.Relationship)
	}
	if patch.BirthDate != nil {
		if draft.BirthDate, err = parseBirthDate(*patch.BirthDate); err != nil {
			return nil, err
		}
	}
	if patch.WalletAddress != nil {
		draft.WalletAddress = *patch.WalletAddress
	}

	return h.registry.UpdateMember(ctx, session, memberID, draft)
}

// HandleList returns the union's members with their ages as of asOf.
func (h *MemberHandler) HandleList(ctx context.Context, session entities.Session, asOf time.Time) ([]MemberView, error) {
	union, err := h.registry.LoadUnion(ctx, session)
	if err != nil {
		return nil, err
	}
	views := make([]MemberView, 0, len(union.Members))
	for i := range union.Members {
		view := MemberView{Member: union.Members[i]}
		if age, ok := services.CurrentAge(&union.Members[i], asOf); ok {
			view.Age = &age
		}
		views = append(views, view)
	}
	return views, nil
}

func parseBirthDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := services.ParseDate(s)
	if err != nil {
		return nil, entities.NewFieldError("birthDate", nil, "birth date must be YYYY-MM-DD, got %q", s)
	}
	return &t, nil
}
