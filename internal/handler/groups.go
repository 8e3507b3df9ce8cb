package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/relateos/internal/middleware"
	"github.com/mmynk/relateos/internal/service"
)

// CreateGroupRequest represents the request to start a planning group
type CreateGroupRequest struct {
	Name         string  `json:"name" binding:"required"`
	CodeName     string  `json:"code_name"`
	PersonName   string  `json:"person_name"`
	TargetAmount float64 `json:"target_amount"`
}

// JoinGroupRequest represents the request to join by invite code
type JoinGroupRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

// AddIdeaRequest represents the request to propose an idea
type AddIdeaRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// ContributeRequest represents the request to pledge to the pool
type ContributeRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// CreateGroup starts a new group owned by the caller.
func (h *Handler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), middleware.GetUserID(c), service.CreateGroupInput{
		Name:         req.Name,
		CodeName:     req.CodeName,
		PersonName:   req.PersonName,
		TargetAmount: req.TargetAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toGroupResponse(group))
}

// ListGroups returns the caller's groups.
func (h *Handler) ListGroups(c *gin.Context) {
	groups, err := h.groups.ListGroups(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]GroupResponse, len(groups))
	for i, g := range groups {
		resp[i] = toGroupResponse(g)
	}
	c.JSON(http.StatusOK, resp)
}

// GetGroup returns the full group page for a member.
func (h *Handler) GetGroup(c *gin.Context) {
	detail, err := h.groups.GetGroupDetail(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGroupDetailResponse(detail))
}

// JoinGroup adds the caller to the group behind an invite code.
func (h *Handler) JoinGroup(c *gin.Context) {
	var req JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invite_code is required"})
		return
	}

	group, err := h.groups.JoinByInviteCode(c.Request.Context(), middleware.GetUserID(c), req.InviteCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": group.ID})
}

// AddIdea proposes an idea in the group.
func (h *Handler) AddIdea(c *gin.Context) {
	var req AddIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	idea, err := h.groups.AddIdea(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Title, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toIdeaResponse(idea))
}

// ToggleVote flips the caller's vote on an idea.
func (h *Handler) ToggleVote(c *gin.Context) {
	idea, err := h.groups.ToggleVote(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), c.Param("ideaId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toIdeaResponse(idea))
}

// Contribute records a pledge toward the group's pool.
func (h *Handler) Contribute(c *gin.Context) {
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}

	contribution, err := h.groups.Contribute(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toContributionResponse(contribution))
}

// Pool returns the group's pool summary.
func (h *Handler) Pool(c *gin.Context) {
	pool, err := h.groups.Pool(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPoolResponse(pool))
}
