package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

// OrganizationHandler handles collaborative organizations and their memberships
type OrganizationHandler struct {
	organizationService *service.OrganizationService
	logger              *zap.Logger
}

func NewOrganizationHandler(organizationService *service.OrganizationService, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		organizationService: organizationService,
		logger:              logger,
	}
}

// EnsurePersonal godoc
// @Summary Ensure personal organization
// @Description Returns the caller's first organization, creating one with the caller as OWNER if there is none. The body is optional.
// @Tags Organizations
// @Accept json
// @Produce json
// @Param request body domain.CreateOrganizationRequest false "Name for a new organization"
// @Success 200 {object} domain.OrganizationDTO
// @Security BearerAuth
// @Router /organizations/personal [post]
func (h *OrganizationHandler) EnsurePersonal(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrganizationRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	org, err := h.organizationService.EnsurePersonal(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, h.logger, err, "ensure personal organization")
		return
	}
	respondJSON(w, http.StatusOK, org)
}

// List godoc
// @Summary List organizations
// @Tags Organizations
// @Produce json
// @Success 200 {object} domain.ListResponse{data=[]domain.OrganizationDTO}
// @Security BearerAuth
// @Router /organizations [get]
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.organizationService.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list organizations")
		return
	}
	respondJSON(w, http.StatusOK, domain.ListResponse{Data: orgs, Count: len(orgs)})
}

// Get godoc
// @Summary Get organization
// @Description Organization with its members. Non-members get 404.
// @Tags Organizations
// @Produce json
// @Param orgId path string true "Organization ID" format(uuid)
// @Success 200 {object} domain.OrganizationDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /organizations/{orgId} [get]
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "orgId")
	if !ok {
		return
	}

	org, err := h.organizationService.Get(r.Context(), orgID)
	if err != nil {
		handleServiceError(w, h.logger, err, "get organization")
		return
	}
	respondJSON(w, http.StatusOK, org)
}

// AddMember godoc
// @Summary Add organization member
// @Description Owner or admin. Upsert by email; only owners may grant OWNER.
// @Tags Organizations
// @Accept json
// @Produce json
// @Param orgId path string true "Organization ID" format(uuid)
// @Param request body domain.AddMemberRequest true "Member"
// @Success 200 {object} domain.MembershipDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError "user not found"
// @Security BearerAuth
// @Router /organizations/{orgId}/members [post]
func (h *OrganizationHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "orgId")
	if !ok {
		return
	}
	var req domain.AddMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	membership, err := h.organizationService.AddMember(r.Context(), orgID, req.Email, req.Role)
	if err != nil {
		handleServiceError(w, h.logger, err, "add organization member")
		return
	}
	respondJSON(w, http.StatusOK, membership)
}

// UpdateMemberRole godoc
// @Summary Change organization member role
// @Tags Organizations
// @Accept json
// @Param orgId path string true "Organization ID" format(uuid)
// @Param userId path string true "User ID" format(uuid)
// @Param request body domain.UpdateMemberRoleRequest true "Role"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "cannot remove the last owner"
// @Security BearerAuth
// @Router /organizations/{orgId}/members/{userId} [put]
func (h *OrganizationHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "orgId")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	var req domain.UpdateMemberRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.organizationService.UpdateMemberRole(r.Context(), orgID, userID, req.Role); err != nil {
		handleServiceError(w, h.logger, err, "update organization member role")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember godoc
// @Summary Remove organization member
// @Description Removing someone who is not a member succeeds without change
// @Tags Organizations
// @Param orgId path string true "Organization ID" format(uuid)
// @Param userId path string true "User ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "cannot remove the last owner"
// @Security BearerAuth
// @Router /organizations/{orgId}/members/{userId} [delete]
func (h *OrganizationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "orgId")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	if err := h.organizationService.RemoveMember(r.Context(), orgID, userID); err != nil {
		handleServiceError(w, h.logger, err, "remove organization member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
