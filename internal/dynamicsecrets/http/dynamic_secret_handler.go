// Package http provides HTTP handlers for dynamic secret lifecycle operations.
// Requests arrive pre-authenticated; the actor identity is taken from headers
// set by the fronting auth proxy.
package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/http/dto"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/usecase"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
	"github.com/allisson/dynamic-secrets/internal/httputil"
	customValidation "github.com/allisson/dynamic-secrets/internal/validation"
)

// errMissingActor is returned when a route is reached without the actor
// middleware having run.
var errMissingActor = apperrors.Wrap(apperrors.ErrUnauthorized, "request actor is not set")

// DynamicSecretHandler handles HTTP requests for dynamic secret definitions.
type DynamicSecretHandler struct {
	useCase usecase.DynamicSecretUseCase
	logger  *slog.Logger
}

// NewDynamicSecretHandler creates a new dynamic secret handler.
func NewDynamicSecretHandler(useCase usecase.DynamicSecretUseCase, logger *slog.Logger) *DynamicSecretHandler {
	return &DynamicSecretHandler{useCase: useCase, logger: logger}
}

// CreateHandler registers a new definition after validating the provider
// connection.
// POST /v1/dynamic-secrets
func (h *DynamicSecretHandler) CreateHandler(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		httputil.HandleErrorGin(c, errMissingActor, h.logger)
		return
	}

	var req dto.CreateDynamicSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	dynamicSecret, err := h.useCase.Create(c.Request.Context(), actor, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapDynamicSecretToResponse(dynamicSecret))
}

// UpdateHandler applies a partial update to a definition.
// PATCH /v1/dynamic-secrets/:name
func (h *DynamicSecretHandler) UpdateHandler(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		httputil.HandleErrorGin(c, errMissingActor, h.logger)
		return
	}

	var req dto.UpdateDynamicSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	selector := req.ToSelector(c.Param("name"))
	dynamicSecret, err := h.useCase.UpdateByName(c.Request.Context(), actor, selector, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDynamicSecretToResponse(dynamicSecret))
}

// DeleteHandler deletes a definition. Without isForced the definition is
// marked for background pruning when live leases exist; with isForced every
// queued revocation is cancelled first and the row is removed.
// DELETE /v1/dynamic-secrets/:name
func (h *DynamicSecretHandler) DeleteHandler(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		httputil.HandleErrorGin(c, errMissingActor, h.logger)
		return
	}

	var req dto.DeleteDynamicSecretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	selector := req.ToSelector(c.Param("name"))
	dynamicSecret, err := h.useCase.DeleteByName(c.Request.Context(), actor, selector, req.IsForced)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDynamicSecretToResponse(dynamicSecret))
}

// GetDetailsHandler returns a definition with its decrypted provider inputs.
// GET /v1/dynamic-secrets/:name
func (h *DynamicSecretHandler) GetDetailsHandler(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		httputil.HandleErrorGin(c, errMissingActor, h.logger)
		return
	}

	params := dto.SelectorParams{
		ProjectID:   c.Query("projectId"),
		ProjectSlug: c.Query("projectSlug"),
		Environment: c.Query("environment"),
		SecretPath:  c.Query("secretPath"),
	}
	if err := params.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	details, err := h.useCase.GetDetails(c.Request.Context(), actor, params.ToSelector(c.Param("name")))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDetailsToResponse(details))
}

// ListHandler lists definitions in one environment or across several. With a
// comma-separated environments parameter each row is annotated with the
// environment and path it was found under.
// GET /v1/dynamic-secrets
func (h *DynamicSecretHandler) ListHandler(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		httputil.HandleErrorGin(c, errMissingActor, h.logger)
		return
	}

	params, multiEnv, err := listParamsFromQuery(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	query, err := h.buildListQuery(c, params)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var list []domain.DynamicSecret
	if multiEnv {
		list, err = h.useCase.ListByEnvs(c.Request.Context(), actor, query)
	} else {
		list, err = h.useCase.ListByEnv(c.Request.Context(), actor, query)
	}
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDynamicSecretsToListResponse(list))
}

// CountHandler counts definitions in one environment or distinct definitions
// across several.
// GET /v1/dynamic-secrets-count
func (h *DynamicSecretHandler) CountHandler(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		httputil.HandleErrorGin(c, errMissingActor, h.logger)
		return
	}

	params, multiEnv, err := listParamsFromQuery(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	query := params.ToQuery()
	query.Search = c.Query("search")

	var total int64
	if multiEnv {
		total, err = h.useCase.CountByEnvs(c.Request.Context(), actor, query)
	} else {
		total, err = h.useCase.CountByEnv(c.Request.Context(), actor, query)
	}
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.CountResponse{Total: total})
}

// ListByFoldersHandler lists definitions across caller-resolved folders.
// POST /v1/dynamic-secrets-by-folders
func (h *DynamicSecretHandler) ListByFoldersHandler(c *gin.Context) {
	actor, ok := ActorFromContext(c)
	if !ok {
		httputil.HandleErrorGin(c, errMissingActor, h.logger)
		return
	}

	var req dto.ListByFoldersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	projectID := uuid.MustParse(req.ProjectID)
	query := usecase.ListQuery{
		Search: req.Search,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	list, err := h.useCase.ListByFolderMappings(c.Request.Context(), actor, projectID, req.ToMappings(), query)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapDynamicSecretsToListResponse(list))
}

// FetchEntraIDUsersHandler lists Azure Entra ID directory users with
// caller-supplied credentials. Used by clients to pick a target user before a
// definition exists, so no stored resource is checked.
// POST /v1/dynamic-secrets-providers/azure-entra-id/users
func (h *DynamicSecretHandler) FetchEntraIDUsersHandler(c *gin.Context) {
	var req dto.FetchEntraIDUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	users, err := h.useCase.FetchAzureEntraIDUsers(c.Request.Context(), req.Inputs)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEntraIDUsersToListResponse(users))
}

func (h *DynamicSecretHandler) buildListQuery(c *gin.Context, params dto.ListParams) (usecase.ListQuery, error) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		return usecase.ListQuery{}, err
	}
	orderBy, orderDirection, err := httputil.ParseOrder(c)
	if err != nil {
		return usecase.ListQuery{}, err
	}

	query := params.ToQuery()
	query.Search = c.Query("search")
	query.Limit = limit
	query.Offset = offset
	query.OrderBy = orderBy
	query.OrderDirection = orderDirection
	return query, nil
}

// listParamsFromQuery reads the list selector from query parameters. The
// multi-environment form uses a comma-separated environments parameter and
// wins over the single environment parameter when both are present.
func listParamsFromQuery(c *gin.Context) (dto.ListParams, bool, error) {
	params := dto.ListParams{
		ProjectID:   c.Query("projectId"),
		ProjectSlug: c.Query("projectSlug"),
		SecretPath:  c.Query("secretPath"),
	}

	multiEnv := false
	if environments := c.Query("environments"); environments != "" {
		multiEnv = true
		for _, environment := range strings.Split(environments, ",") {
			params.Environments = append(params.Environments, strings.TrimSpace(environment))
		}
	} else if environment := c.Query("environment"); environment != "" {
		params.Environments = []string{environment}
	}

	if err := params.Validate(); err != nil {
		return dto.ListParams{}, false, err
	}
	return params, multiEnv, nil
}
