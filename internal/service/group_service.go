package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/relateos/internal/calculator"
	"github.com/mmynk/relateos/internal/models"
	"github.com/mmynk/relateos/internal/storage"
)

// GroupService implements group planning operations on top of the store.
// Every read or write of a group requires the caller to be a member;
// non-members get storage.ErrNotFound so group IDs are not disclosed.
type GroupService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, logger *slog.Logger) *GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{store: store, logger: logger}
}

// CreateGroupInput holds the caller-supplied fields of a new group.
type CreateGroupInput struct {
	Name         string
	CodeName     string
	PersonName   string
	TargetAmount float64
}

// GroupDetail is everything a member sees on the group page.
type GroupDetail struct {
	Group         *models.Group
	Members       []*models.User
	Ideas         []*models.Idea // Most votes first
	Contributions []*models.Contribution
	Pool          *calculator.PoolSummary
}

// CreateGroup creates a group owned by userID. The creator becomes its first member.
func (s *GroupService) CreateGroup(ctx context.Context, userID string, in CreateGroupInput) (*models.Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if in.TargetAmount < 0 {
		return nil, fmt.Errorf("%w: target_amount must not be negative", ErrInvalidArgument)
	}

	group := &models.Group{
		Name:         name,
		CodeName:     strings.TrimSpace(in.CodeName),
		PersonName:   strings.TrimSpace(in.PersonName),
		CreatorID:    userID,
		TargetAmount: in.TargetAmount,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		s.logger.Error("CreateGroup failed", "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Info("Group created",
		"group_id", group.ID,
		"user_id", userID,
		"invite_code", group.InviteCode,
	)
	return group, nil
}

// ListGroups returns the caller's groups, newest first.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		s.logger.Error("ListGroups failed", "user_id", userID, "error", err)
		return nil, err
	}
	return groups, nil
}

// GetGroupDetail loads a group with its members, ranked ideas,
// contributions and pool summary.
func (s *GroupService) GetGroupDetail(ctx context.Context, userID, groupID string) (*GroupDetail, error) {
	group, err := s.memberGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	users, err := s.store.GetUsersByIDs(ctx, group.Members)
	if err != nil {
		return nil, err
	}
	members := make([]*models.User, 0, len(group.Members))
	for _, id := range group.Members {
		if u, ok := users[id]; ok {
			members = append(members, u)
		}
	}

	ideas, err := s.store.ListIdeas(ctx, groupID)
	if err != nil {
		return nil, err
	}

	contributions, err := s.store.ListContributions(ctx, groupID)
	if err != nil {
		return nil, err
	}

	pool, err := summarizePool(group, contributions)
	if err != nil {
		return nil, err
	}

	return &GroupDetail{
		Group:         group,
		Members:       members,
		Ideas:         rankIdeas(ideas),
		Contributions: contributions,
		Pool:          pool,
	}, nil
}

// JoinByInviteCode adds the caller to the group with the given invite code.
// Joining a group twice is not an error.
func (s *GroupService) JoinByInviteCode(ctx context.Context, userID, code string) (*models.Group, error) {
	code = models.NormalizeInviteCode(code)
	if code == "" {
		return nil, fmt.Errorf("%w: invite_code is required", ErrInvalidArgument)
	}

	group, err := s.store.GetGroupByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Join with unknown invite code", "user_id", userID, "invite_code", code)
		}
		return nil, err
	}

	if err := s.store.AddMember(ctx, group.ID, userID); err != nil {
		s.logger.Error("AddMember failed", "group_id", group.ID, "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Info("User joined group", "group_id", group.ID, "user_id", userID)
	return group, nil
}

// AddIdea proposes a gift or activity in the group.
func (s *GroupService) AddIdea(ctx context.Context, userID, groupID, title, description string) (*models.Idea, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if _, err := s.memberGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}

	idea := &models.Idea{
		GroupID:     groupID,
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(description),
	}
	if err := s.store.AddIdea(ctx, idea); err != nil {
		s.logger.Error("AddIdea failed", "group_id", groupID, "error", err)
		return nil, err
	}

	s.logger.Info("Idea added", "group_id", groupID, "idea_id", idea.ID, "user_id", userID)
	return idea, nil
}

// ToggleVote adds the caller's vote to an idea, or removes it if present.
func (s *GroupService) ToggleVote(ctx context.Context, userID, groupID, ideaID string) (*models.Idea, error) {
	if _, err := s.memberGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}

	idea, err := s.store.ToggleVote(ctx, groupID, ideaID, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Vote toggled",
		"group_id", groupID,
		"idea_id", ideaID,
		"user_id", userID,
		"voted", calculator.HasVoted(idea.Votes, userID),
	)
	return idea, nil
}

// Contribute records a pledge toward the group's pool.
func (s *GroupService) Contribute(ctx context.Context, userID, groupID string, amount float64) (*models.Contribution, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	}
	if _, err := s.memberGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}

	contribution := &models.Contribution{
		GroupID: groupID,
		UserID:  userID,
		Amount:  amount,
		Status:  models.ContributionCompleted,
	}
	if err := s.store.AddContribution(ctx, contribution); err != nil {
		s.logger.Error("AddContribution failed", "group_id", groupID, "error", err)
		return nil, err
	}

	s.logger.Info("Contribution recorded",
		"group_id", groupID,
		"user_id", userID,
		"amount", amount,
	)
	return contribution, nil
}

// Pool returns the group's pool summary.
func (s *GroupService) Pool(ctx context.Context, userID, groupID string) (*calculator.PoolSummary, error) {
	group, err := s.memberGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}
	contributions, err := s.store.ListContributions(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return summarizePool(group, contributions)
}

// memberGroup loads the group and checks that userID belongs to it.
func (s *GroupService) memberGroup(ctx context.Context, userID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		s.logger.Warn("Non-member access refused", "group_id", groupID, "user_id", userID)
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return group, nil
}

func summarizePool(group *models.Group, contributions []*models.Contribution) (*calculator.PoolSummary, error) {
	input := make([]calculator.ContributionForPool, len(contributions))
	for i, c := range contributions {
		input[i] = calculator.ContributionForPool{UserID: c.UserID, Amount: c.Amount}
	}
	summary, err := calculator.Summarize(group.TargetAmount, input)
	if err != nil {
		return nil, fmt.Errorf("summarize pool for group %s: %w", group.ID, err)
	}
	return summary, nil
}

func rankIdeas(ideas []*models.Idea) []*models.Idea {
	byID := make(map[string]*models.Idea, len(ideas))
	input := make([]calculator.IdeaForRanking, len(ideas))
	for i, idea := range ideas {
		byID[idea.ID] = idea
		input[i] = calculator.IdeaForRanking{ID: idea.ID, Votes: idea.VoteCount(), CreatedAt: idea.CreatedAt}
	}

	ranked := calculator.RankIdeas(input)
	out := make([]*models.Idea, len(ranked))
	for i, r := range ranked {
		out[i] = byID[r.ID]
	}
	return out
}
