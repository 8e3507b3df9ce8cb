package handler

import (
	"github.com/mmynk/relateos/internal/calculator"
	"github.com/mmynk/relateos/internal/models"
	"github.com/mmynk/relateos/internal/service"
)

// UserResponse is the public view of a user. The password hash never leaves the server.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// SessionResponse is returned by signup and login.
type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CodeName     string   `json:"code_name"`
	PersonName   string   `json:"person_name"`
	InviteCode   string   `json:"invite_code"`
	CreatorID    string   `json:"creator_id"`
	TargetAmount float64  `json:"target_amount"`
	Status       string   `json:"status"`
	Members      []string `json:"members"`
	CreatedAt    int64    `json:"created_at"`
}

// MemberResponse is a group member as shown on the group page.
type MemberResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IdeaResponse represents an idea with its voters.
type IdeaResponse struct {
	ID          string   `json:"id"`
	GroupID     string   `json:"group_id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Votes       []string `json:"votes"`
	VoteCount   int      `json:"vote_count"`
	CreatedAt   int64    `json:"created_at"`
}

// ContributionResponse represents one pledge.
type ContributionResponse struct {
	ID        string  `json:"id"`
	GroupID   string  `json:"group_id"`
	UserID    string  `json:"user_id"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
	CreatedAt int64   `json:"created_at"`
}

// ContributorResponse is one member's share of the pool.
type ContributorResponse struct {
	UserID string  `json:"user_id"`
	Total  float64 `json:"total"`
	Count  int     `json:"count"`
}

// PoolResponse is the aggregated pool of a group.
type PoolResponse struct {
	Total        float64               `json:"total"`
	Target       float64               `json:"target"`
	Progress     float64               `json:"progress"`
	Remaining    float64               `json:"remaining"`
	Count        int                   `json:"count"`
	Contributors []ContributorResponse `json:"contributors"`
}

// GroupDetailResponse is the full group page payload.
type GroupDetailResponse struct {
	GroupResponse
	MemberList    []MemberResponse       `json:"member_list"`
	Ideas         []IdeaResponse         `json:"ideas"`
	Contributions []ContributionResponse `json:"contributions"`
	Pool          PoolResponse           `json:"pool"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.DisplayName,
		CreatedAt: u.CreatedAt,
	}
}

func toGroupResponse(g *models.Group) GroupResponse {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	return GroupResponse{
		ID:           g.ID,
		Name:         g.Name,
		CodeName:     g.CodeName,
		PersonName:   g.PersonName,
		InviteCode:   g.InviteCode,
		CreatorID:    g.CreatorID,
		TargetAmount: g.TargetAmount,
		Status:       string(g.Status),
		Members:      members,
		CreatedAt:    g.CreatedAt,
	}
}

func toIdeaResponse(i *models.Idea) IdeaResponse {
	votes := i.Votes
	if votes == nil {
		votes = []string{}
	}
	return IdeaResponse{
		ID:          i.ID,
		GroupID:     i.GroupID,
		UserID:      i.UserID,
		Title:       i.Title,
		Description: i.Description,
		Votes:       votes,
		VoteCount:   i.VoteCount(),
		CreatedAt:   i.CreatedAt,
	}
}

func toContributionResponse(c *models.Contribution) ContributionResponse {
	return ContributionResponse{
		ID:        c.ID,
		GroupID:   c.GroupID,
		UserID:    c.UserID,
		Amount:    c.Amount,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
	}
}

func toPoolResponse(p *calculator.PoolSummary) PoolResponse {
	contributors := make([]ContributorResponse, len(p.Contributors))
	for i, c := range p.Contributors {
		contributors[i] = ContributorResponse{UserID: c.UserID, Total: c.Total, Count: c.Count}
	}
	return PoolResponse{
		Total:        p.Total,
		Target:       p.Target,
		Progress:     p.Progress,
		Remaining:    p.Remaining,
		Count:        p.Count,
		Contributors: contributors,
	}
}

func toGroupDetailResponse(d *service.GroupDetail) GroupDetailResponse {
	resp := GroupDetailResponse{
		GroupResponse: toGroupResponse(d.Group),
		MemberList:    make([]MemberResponse, len(d.Members)),
		Ideas:         make([]IdeaResponse, len(d.Ideas)),
		Contributions: make([]ContributionResponse, len(d.Contributions)),
		Pool:          toPoolResponse(d.Pool),
	}
	for i, m := range d.Members {
		resp.MemberList[i] = MemberResponse{ID: m.ID, Name: m.DisplayName, Email: m.Email}
	}
	for i, idea := range d.Ideas {
		resp.Ideas[i] = toIdeaResponse(idea)
	}
	for i, c := range d.Contributions {
		resp.Contributions[i] = toContributionResponse(c)
	}
	return resp
}
