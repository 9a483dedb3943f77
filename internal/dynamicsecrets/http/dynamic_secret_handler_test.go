package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/dynamic-secrets/internal/authz"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/domain"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/http/dto"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/provider"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/usecase"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/usecase/mocks"
	apperrors "github.com/allisson/dynamic-secrets/internal/errors"
)

// setupTestHandler creates a test handler with a mocked lifecycle engine.
func setupTestHandler(t *testing.T) (*DynamicSecretHandler, *mocks.MockDynamicSecretUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockDynamicSecretUseCase{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewDynamicSecretHandler(mockUseCase, logger), mockUseCase
}

func testHandlerActor() authz.Actor {
	return authz.Actor{
		ID:         uuid.MustParse("018f0000-0000-7000-8000-000000000001"),
		OrgID:      uuid.MustParse("018f0000-0000-7000-8000-000000000002"),
		Type:       authz.ActorTypeUser,
		AuthMethod: "token",
	}
}

// createTestContext builds a gin test context with an optional JSON body and
// the actor already injected, as the middleware would have done.
func createTestContext(t *testing.T, method, target string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(actorContextKey, testHandlerActor())

	return c, w
}

func testDefinition() *domain.DynamicSecret {
	gatewayID := uuid.MustParse("018f0000-0000-7000-8000-00000000000a")
	now := time.Now().UTC()
	return &domain.DynamicSecret{
		ID:             uuid.MustParse("018f0000-0000-7000-8000-000000000003"),
		Name:           "pg-reader",
		Version:        1,
		Type:           domain.ProviderTypePostgres,
		DefaultTTL:     "1h",
		MaxTTL:         "24h",
		EncryptedInput: "opaque-ciphertext",
		FolderID:       uuid.MustParse("018f0000-0000-7000-8000-000000000004"),
		GatewayID:      &gatewayID,
		Metadata: []domain.ResourceMetadata{
			{ID: uuid.MustParse("018f0000-0000-7000-8000-000000000005"), Key: "team", Value: "payments"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestDynamicSecretHandler_CreateHandler(t *testing.T) {
	request := dto.CreateDynamicSecretRequest{
		SelectorParams: dto.SelectorParams{
			ProjectSlug: "backend",
			Environment: "dev",
			SecretPath:  "/db",
		},
		Name:       "pg-reader",
		Type:       string(domain.ProviderTypePostgres),
		DefaultTTL: "1h",
		Inputs:     json.RawMessage(`{"host":"db.internal"}`),
		Metadata:   []dto.MetadataTag{{Key: "team", Value: "payments"}},
	}

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Create", mock.Anything, testHandlerActor(), mock.MatchedBy(func(input usecase.CreateInput) bool {
			return input.Name == "pg-reader" && input.ProjectSlug == "backend" && input.Type == domain.ProviderTypePostgres
		})).Return(testDefinition(), nil).Once()

		c, w := createTestContext(t, http.MethodPost, "/v1/dynamic-secrets", request)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response dto.DynamicSecretResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "pg-reader", response.Name)
		assert.Equal(t, "team", response.Metadata[0].Key)
		assert.NotContains(t, w.Body.String(), "opaque-ciphertext")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(t, http.MethodPost, "/v1/dynamic-secrets", nil)
		c.Request.Body = io.NopCloser(bytes.NewReader([]byte("invalid json")))

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_MissingName", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		invalid := request
		invalid.Name = ""

		c, w := createTestContext(t, http.MethodPost, "/v1/dynamic-secrets", invalid)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "Create")
	})

	t.Run("Error_BothProjectIDAndSlug", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		invalid := request
		invalid.ProjectID = uuid.Must(uuid.NewV7()).String()

		c, w := createTestContext(t, http.MethodPost, "/v1/dynamic-secrets", invalid)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_NameConflict", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, domain.ErrNameAlreadyExists).Once()

		c, w := createTestContext(t, http.MethodPost, "/v1/dynamic-secrets", request)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Error_Forbidden", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.ErrForbidden).Once()

		c, w := createTestContext(t, http.MethodPost, "/v1/dynamic-secrets", request)
		handler.CreateHandler(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Error_MissingActor", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/v1/dynamic-secrets", nil)

		handler.CreateHandler(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDynamicSecretHandler_UpdateHandler(t *testing.T) {
	newName := "pg-writer"
	request := dto.UpdateDynamicSecretRequest{
		SelectorParams: dto.SelectorParams{
			ProjectSlug: "backend",
			Environment: "dev",
			SecretPath:  "/db",
		},
		NewName: &newName,
	}

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		updated := testDefinition()
		updated.Name = newName

		mockUseCase.On("UpdateByName", mock.Anything, testHandlerActor(), mock.MatchedBy(func(selector usecase.Selector) bool {
			return selector.Name == "pg-reader" && selector.ProjectSlug == "backend"
		}), mock.MatchedBy(func(input usecase.UpdateInput) bool {
			return input.NewName != nil && *input.NewName == newName && input.Metadata == nil
		})).Return(updated, nil).Once()

		c, w := createTestContext(t, http.MethodPatch, "/v1/dynamic-secrets/pg-reader", request)
		c.Params = gin.Params{{Key: "name", Value: "pg-reader"}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.DynamicSecretResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, newName, response.Name)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_DefinitionDeleting", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("UpdateByName", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, domain.ErrDefinitionDeleting).Once()

		c, w := createTestContext(t, http.MethodPatch, "/v1/dynamic-secrets/pg-reader", request)
		c.Params = gin.Params{{Key: "name", Value: "pg-reader"}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Error_InvalidTTL", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		badTTL := "soon"
		invalid := request
		invalid.DefaultTTL = &badTTL

		c, w := createTestContext(t, http.MethodPatch, "/v1/dynamic-secrets/pg-reader", invalid)
		c.Params = gin.Params{{Key: "name", Value: "pg-reader"}}

		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "UpdateByName")
	})
}

func TestDynamicSecretHandler_DeleteHandler(t *testing.T) {
	request := dto.DeleteDynamicSecretRequest{
		SelectorParams: dto.SelectorParams{
			ProjectSlug: "backend",
			Environment: "dev",
			SecretPath:  "/db",
		},
		IsForced: true,
	}

	t.Run("Success_Forced", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("DeleteByName", mock.Anything, testHandlerActor(), mock.MatchedBy(func(selector usecase.Selector) bool {
			return selector.Name == "pg-reader"
		}), true).Return(testDefinition(), nil).Once()

		c, w := createTestContext(t, http.MethodDelete, "/v1/dynamic-secrets/pg-reader", request)
		c.Params = gin.Params{{Key: "name", Value: "pg-reader"}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Success_MarkedForPruning", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		deleting := testDefinition()
		status := domain.StatusDeleting
		deleting.Status = &status

		unforced := request
		unforced.IsForced = false

		mockUseCase.On("DeleteByName", mock.Anything, mock.Anything, mock.Anything, false).
			Return(deleting, nil).Once()

		c, w := createTestContext(t, http.MethodDelete, "/v1/dynamic-secrets/pg-reader", unforced)
		c.Params = gin.Params{{Key: "name", Value: "pg-reader"}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.DynamicSecretResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.NotNil(t, response.Status)
		assert.Equal(t, string(domain.StatusDeleting), *response.Status)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("DeleteByName", mock.Anything, mock.Anything, mock.Anything, true).
			Return(nil, domain.ErrDynamicSecretNotFound).Once()

		c, w := createTestContext(t, http.MethodDelete, "/v1/dynamic-secrets/pg-reader", request)
		c.Params = gin.Params{{Key: "name", Value: "pg-reader"}}

		handler.DeleteHandler(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDynamicSecretHandler_GetDetailsHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		details := &usecase.Details{
			DynamicSecret: *testDefinition(),
			Inputs:        json.RawMessage(`{"host":"db.internal","port":5432}`),
		}

		mockUseCase.On("GetDetails", mock.Anything, testHandlerActor(), mock.MatchedBy(func(selector usecase.Selector) bool {
			return selector.Name == "pg-reader" && selector.Environment == "dev"
		})).Return(details, nil).Once()

		target := "/v1/dynamic-secrets/pg-reader?projectSlug=backend&environment=dev&secretPath=/db"
		c, w := createTestContext(t, http.MethodGet, target, nil)
		c.Params = gin.Params{{Key: "name", Value: "pg-reader"}}

		handler.GetDetailsHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.DynamicSecretDetailsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "pg-reader", response.Name)
		assert.JSONEq(t, `{"host":"db.internal","port":5432}`, string(response.Inputs))
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_MissingSelector", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(t, http.MethodGet, "/v1/dynamic-secrets/pg-reader", nil)
		c.Params = gin.Params{{Key: "name", Value: "pg-reader"}}

		handler.GetDetailsHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "GetDetails")
	})
}

func TestDynamicSecretHandler_ListHandler(t *testing.T) {
	t.Run("SingleEnvironment", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("ListByEnv", mock.Anything, testHandlerActor(), mock.MatchedBy(func(query usecase.ListQuery) bool {
			return query.Environment == "dev" && len(query.Environments) == 0 && query.Limit == 50
		})).Return([]domain.DynamicSecret{*testDefinition()}, nil).Once()

		target := "/v1/dynamic-secrets?projectSlug=backend&environment=dev&secretPath=/db"
		c, w := createTestContext(t, http.MethodGet, target, nil)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListDynamicSecretsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Len(t, response.Data, 1)
		mockUseCase.AssertNotCalled(t, "ListByEnvs")
	})

	t.Run("MultiEnvironment", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("ListByEnvs", mock.Anything, testHandlerActor(), mock.MatchedBy(func(query usecase.ListQuery) bool {
			return len(query.Environments) == 2 && query.Environments[0] == "dev" && query.Environments[1] == "prod"
		})).Return([]domain.DynamicSecret{}, nil).Once()

		target := "/v1/dynamic-secrets?projectSlug=backend&environments=dev,prod&secretPath=/db"
		c, w := createTestContext(t, http.MethodGet, target, nil)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertNotCalled(t, "ListByEnv")
	})

	t.Run("Error_InvalidLimit", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		target := "/v1/dynamic-secrets?projectSlug=backend&environment=dev&secretPath=/db&limit=1000"
		c, w := createTestContext(t, http.MethodGet, target, nil)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Error_MissingEnvironment", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		target := "/v1/dynamic-secrets?projectSlug=backend&secretPath=/db"
		c, w := createTestContext(t, http.MethodGet, target, nil)

		handler.ListHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestDynamicSecretHandler_CountHandler(t *testing.T) {
	t.Run("SingleEnvironment", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("CountByEnv", mock.Anything, testHandlerActor(), mock.MatchedBy(func(query usecase.ListQuery) bool {
			return query.Environment == "dev"
		})).Return(int64(7), nil).Once()

		target := "/v1/dynamic-secrets-count?projectSlug=backend&environment=dev&secretPath=/db"
		c, w := createTestContext(t, http.MethodGet, target, nil)

		handler.CountHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.CountResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, int64(7), response.Total)
	})

	t.Run("MultiEnvironment", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("CountByEnvs", mock.Anything, testHandlerActor(), mock.MatchedBy(func(query usecase.ListQuery) bool {
			return len(query.Environments) == 2
		})).Return(int64(3), nil).Once()

		target := "/v1/dynamic-secrets-count?projectSlug=backend&environments=dev,prod&secretPath=/db"
		c, w := createTestContext(t, http.MethodGet, target, nil)

		handler.CountHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertNotCalled(t, "CountByEnv")
	})
}

func TestDynamicSecretHandler_ListByFoldersHandler(t *testing.T) {
	projectID := uuid.MustParse("018f0000-0000-7000-8000-000000000006")
	folderID := uuid.MustParse("018f0000-0000-7000-8000-000000000007")

	request := dto.ListByFoldersRequest{
		ProjectID: projectID.String(),
		Folders: []dto.FolderMappingParam{
			{FolderID: folderID.String(), Environment: "dev", SecretPath: "/db"},
		},
	}

	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		mockUseCase.On("ListByFolderMappings", mock.Anything, testHandlerActor(), projectID,
			mock.MatchedBy(func(mappings []usecase.FolderMapping) bool {
				return len(mappings) == 1 && mappings[0].FolderID == folderID
			}), mock.Anything).Return([]domain.DynamicSecret{*testDefinition()}, nil).Once()

		c, w := createTestContext(t, http.MethodPost, "/v1/dynamic-secrets-by-folders", request)
		handler.ListByFoldersHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUseCase.AssertExpectations(t)
	})

	t.Run("Error_NoFolders", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		invalid := request
		invalid.Folders = nil

		c, w := createTestContext(t, http.MethodPost, "/v1/dynamic-secrets-by-folders", invalid)
		handler.ListByFoldersHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "ListByFolderMappings")
	})
}

func TestDynamicSecretHandler_FetchEntraIDUsersHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		users := []provider.EntraIDUser{
			{ID: "user-1", DisplayName: "Alice", UserPrincipalName: "alice@example.com"},
		}
		mockUseCase.On("FetchAzureEntraIDUsers", mock.Anything, mock.Anything).
			Return(users, nil).Once()

		request := dto.FetchEntraIDUsersRequest{Inputs: json.RawMessage(`{"tenantId":"t","applicationId":"a","clientSecret":"s"}`)}
		c, w := createTestContext(t, http.MethodPost, "/v1/dynamic-secrets-providers/azure-entra-id/users", request)

		handler.FetchEntraIDUsersHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.ListEntraIDUsersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, "alice@example.com", response.Data[0].UserPrincipalName)
	})

	t.Run("Error_MissingInputs", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)

		c, w := createTestContext(t, http.MethodPost, "/v1/dynamic-secrets-providers/azure-entra-id/users", dto.FetchEntraIDUsersRequest{})
		handler.FetchEntraIDUsersHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		mockUseCase.AssertNotCalled(t, "FetchAzureEntraIDUsers")
	})
}
