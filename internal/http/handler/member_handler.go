package handler

import (
	"net/http"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

// MemberHandler manages the landlord's agents
type MemberHandler struct {
	memberService *service.MemberService
	logger        *zap.Logger
}

func NewMemberHandler(memberService *service.MemberService, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
		logger:        logger,
	}
}

// List godoc
// @Summary List members
// @Tags Members
// @Produce json
// @Success 200 {object} domain.ListResponse{data=[]domain.MemberDTO}
// @Security BearerAuth
// @Router /members [get]
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberService.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list members")
		return
	}
	respondJSON(w, http.StatusOK, domain.ListResponse{Data: members, Count: len(members)})
}

// Add godoc
// @Summary Add or update member
// @Description Upsert by email. The user must have signed in before. New members count against the agent limit. Changing an existing role is owner only.
// @Tags Members
// @Accept json
// @Produce json
// @Param request body domain.AddMemberRequest true "Member"
// @Success 200 {object} domain.MemberDTO
// @Failure 403 {object} domain.APIError "Forbidden or quota_exceeded"
// @Failure 404 {object} domain.APIError "user not found"
// @Security BearerAuth
// @Router /members [post]
func (h *MemberHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req domain.AddMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.memberService.Add(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "add member")
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// UpdateRole godoc
// @Summary Change member role
// @Description Owner only. The last owner cannot be demoted.
// @Tags Members
// @Accept json
// @Param userId path string true "User ID" format(uuid)
// @Param request body domain.UpdateMemberRoleRequest true "Role"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "cannot remove the last owner"
// @Security BearerAuth
// @Router /members/{userId} [put]
func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	var req domain.UpdateMemberRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.memberService.UpdateRole(r.Context(), userID, req.Role); err != nil {
		handleServiceError(w, h.logger, err, "update member role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Remove godoc
// @Summary Remove member
// @Tags Members
// @Param userId path string true "User ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "cannot remove the last owner"
// @Security BearerAuth
// @Router /members/{userId} [delete]
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	if err := h.memberService.Remove(r.Context(), userID); err != nil {
		handleServiceError(w, h.logger, err, "remove member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
