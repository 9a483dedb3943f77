package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/allisson/dynamic-secrets/internal/authz"
	cryptoDomain "github.com/allisson/dynamic-secrets/internal/crypto/domain"
	cryptoRepository "github.com/allisson/dynamic-secrets/internal/crypto/repository"
	cryptoService "github.com/allisson/dynamic-secrets/internal/crypto/service"
	dynamicSecretsHTTP "github.com/allisson/dynamic-secrets/internal/dynamicsecrets/http"
	"github.com/allisson/dynamic-secrets/internal/dynamicsecrets/provider"
	dynamicSecretsRepository "github.com/allisson/dynamic-secrets/internal/dynamicsecrets/repository"
	dynamicSecretsUsecase "github.com/allisson/dynamic-secrets/internal/dynamicsecrets/usecase"
	leasesRepository "github.com/allisson/dynamic-secrets/internal/leases/repository"
	leasesUsecase "github.com/allisson/dynamic-secrets/internal/leases/usecase"
	"github.com/allisson/dynamic-secrets/internal/license"
	projectsRepository "github.com/allisson/dynamic-secrets/internal/projects/repository"
)

// dynamicSecretsDeps holds the dynamic secrets context components. It is
// embedded in Container so the lifecycle engine wiring lives in one place.
type dynamicSecretsDeps struct {
	projectRepo          *projectsRepository.PostgreSQLProjectRepository
	folderRepo           *projectsRepository.PostgreSQLFolderRepository
	gatewayRepo          *projectsRepository.PostgreSQLGatewayRepository
	dynamicSecretRepo    *dynamicSecretsRepository.PostgreSQLDynamicSecretRepository
	metadataRepo         *dynamicSecretsRepository.PostgreSQLResourceMetadataRepository
	dataKeyRepo          *cryptoRepository.PostgreSQLDataKeyRepository
	leaseRepo            *leasesRepository.PostgreSQLLeaseRepository
	revocationJobRepo    *leasesRepository.PostgreSQLRevocationJobRepository
	cipherService        *cryptoService.ProjectCipherService
	policyChecker        *authz.PolicyChecker
	licenseService       *license.StaticService
	azureProvider        *provider.AzureEntraIDProvider
	providerRegistry     *provider.Registry
	revocationQueue      *leasesUsecase.RevocationQueue
	dynamicSecretUseCase dynamicSecretsUsecase.DynamicSecretUseCase
	dynamicSecretHandler *dynamicSecretsHTTP.DynamicSecretHandler

	repositoriesInit         sync.Once
	cipherServiceInit        sync.Once
	policyCheckerInit        sync.Once
	licenseServiceInit       sync.Once
	providerRegistryInit     sync.Once
	revocationQueueInit      sync.Once
	dynamicSecretUseCaseInit sync.Once
	dynamicSecretHandlerInit sync.Once
}

// initRepositories creates all PostgreSQL repositories in one step since they
// share the same connections.
func (c *Container) initRepositories() error {
	db, err := c.DB()
	if err != nil {
		return fmt.Errorf("failed to get database for repositories: %w", err)
	}

	replica, err := c.ReplicaDB()
	if err != nil {
		return fmt.Errorf("failed to get replica database for repositories: %w", err)
	}

	c.projectRepo = projectsRepository.NewPostgreSQLProjectRepository(db, replica)
	c.folderRepo = projectsRepository.NewPostgreSQLFolderRepository(db, replica)
	c.gatewayRepo = projectsRepository.NewPostgreSQLGatewayRepository(db, replica)
	c.dynamicSecretRepo = dynamicSecretsRepository.NewPostgreSQLDynamicSecretRepository(db, replica)
	c.metadataRepo = dynamicSecretsRepository.NewPostgreSQLResourceMetadataRepository(db)
	c.dataKeyRepo = cryptoRepository.NewPostgreSQLDataKeyRepository(db)
	c.leaseRepo = leasesRepository.NewPostgreSQLLeaseRepository(db)
	c.revocationJobRepo = leasesRepository.NewPostgreSQLRevocationJobRepository(db)

	return nil
}

func (c *Container) repositories() error {
	c.repositoriesInit.Do(func() {
		if err := c.initRepositories(); err != nil {
			c.initErrors["repositories"] = err
		}
	})
	if storedErr, exists := c.initErrors["repositories"]; exists {
		return storedErr
	}
	return nil
}

// ProjectRepository returns the project repository.
func (c *Container) ProjectRepository() (*projectsRepository.PostgreSQLProjectRepository, error) {
	if err := c.repositories(); err != nil {
		return nil, err
	}
	return c.projectRepo, nil
}

// FolderRepository returns the folder repository.
func (c *Container) FolderRepository() (*projectsRepository.PostgreSQLFolderRepository, error) {
	if err := c.repositories(); err != nil {
		return nil, err
	}
	return c.folderRepo, nil
}

// GatewayRepository returns the gateway repository.
func (c *Container) GatewayRepository() (*projectsRepository.PostgreSQLGatewayRepository, error) {
	if err := c.repositories(); err != nil {
		return nil, err
	}
	return c.gatewayRepo, nil
}

// DynamicSecretRepository returns the dynamic secret repository.
func (c *Container) DynamicSecretRepository() (*dynamicSecretsRepository.PostgreSQLDynamicSecretRepository, error) {
	if err := c.repositories(); err != nil {
		return nil, err
	}
	return c.dynamicSecretRepo, nil
}

// ResourceMetadataRepository returns the resource metadata repository.
func (c *Container) ResourceMetadataRepository() (*dynamicSecretsRepository.PostgreSQLResourceMetadataRepository, error) {
	if err := c.repositories(); err != nil {
		return nil, err
	}
	return c.metadataRepo, nil
}

// DataKeyRepository returns the project data key repository.
func (c *Container) DataKeyRepository() (*cryptoRepository.PostgreSQLDataKeyRepository, error) {
	if err := c.repositories(); err != nil {
		return nil, err
	}
	return c.dataKeyRepo, nil
}

// LeaseRepository returns the lease repository.
func (c *Container) LeaseRepository() (*leasesRepository.PostgreSQLLeaseRepository, error) {
	if err := c.repositories(); err != nil {
		return nil, err
	}
	return c.leaseRepo, nil
}

// RevocationJobRepository returns the revocation job repository.
func (c *Container) RevocationJobRepository() (*leasesRepository.PostgreSQLRevocationJobRepository, error) {
	if err := c.repositories(); err != nil {
		return nil, err
	}
	return c.revocationJobRepo, nil
}

// CipherService returns the per-project envelope encryption service.
func (c *Container) CipherService() (*cryptoService.ProjectCipherService, error) {
	c.cipherServiceInit.Do(func() {
		dataKeyRepo, err := c.DataKeyRepository()
		if err != nil {
			c.initErrors["cipherService"] = fmt.Errorf("failed to get data key repository for cipher service: %w", err)
			return
		}

		keeper, err := cryptoService.NewKMSService().OpenKeeper(context.Background(), c.config.KMSKeyURI)
		if err != nil {
			c.initErrors["cipherService"] = fmt.Errorf("failed to open kms keeper: %w", err)
			return
		}

		c.cipherService = cryptoService.NewProjectCipherService(
			keeper,
			cryptoService.NewAEADManager(),
			dataKeyRepo,
			cryptoDomain.AESGCM,
		)
	})
	if storedErr, exists := c.initErrors["cipherService"]; exists {
		return nil, storedErr
	}
	return c.cipherService, nil
}

// PolicyChecker returns the permission checker loaded from the policy
// document file.
func (c *Container) PolicyChecker() (*authz.PolicyChecker, error) {
	c.policyCheckerInit.Do(func() {
		documents, err := authz.LoadDocuments(c.config.AuthzPolicyPath)
		if err != nil {
			c.initErrors["policyChecker"] = fmt.Errorf("failed to load authorization policy documents: %w", err)
			return
		}
		c.policyChecker = authz.NewPolicyChecker(documents)
	})
	if storedErr, exists := c.initErrors["policyChecker"]; exists {
		return nil, storedErr
	}
	return c.policyChecker, nil
}

// LicenseService returns the plan entitlement service.
func (c *Container) LicenseService() *license.StaticService {
	c.licenseServiceInit.Do(func() {
		c.licenseService = license.NewStaticService(license.Plan{
			DynamicSecret: c.config.PlanDynamicSecretEnabled,
		})
	})
	return c.licenseService
}

// ProviderRegistry returns the registry of supported secret providers.
func (c *Container) ProviderRegistry() *provider.Registry {
	c.providerRegistryInit.Do(func() {
		c.azureProvider = provider.NewAzureEntraIDProvider(c.config.ProviderProbeTimeout)
		c.providerRegistry = provider.NewRegistry(
			provider.NewPostgresProvider(c.config.ProviderProbeTimeout),
			provider.NewMySQLProvider(c.config.ProviderProbeTimeout),
			provider.NewAuth0Provider(c.config.ProviderProbeTimeout),
			c.azureProvider,
		)
	})
	return c.providerRegistry
}

// RevocationQueue returns the revocation job queue.
func (c *Container) RevocationQueue() (*leasesUsecase.RevocationQueue, error) {
	c.revocationQueueInit.Do(func() {
		jobRepo, err := c.RevocationJobRepository()
		if err != nil {
			c.initErrors["revocationQueue"] = fmt.Errorf("failed to get revocation job repository for revocation queue: %w", err)
			return
		}
		c.revocationQueue = leasesUsecase.NewRevocationQueue(jobRepo)
	})
	if storedErr, exists := c.initErrors["revocationQueue"]; exists {
		return nil, storedErr
	}
	return c.revocationQueue, nil
}

// DynamicSecretUseCase returns the dynamic secret lifecycle engine, wrapped
// with business metrics when metrics are enabled.
func (c *Container) DynamicSecretUseCase() (dynamicSecretsUsecase.DynamicSecretUseCase, error) {
	c.dynamicSecretUseCaseInit.Do(func() {
		useCase, err := c.initDynamicSecretUseCase()
		if err != nil {
			c.initErrors["dynamicSecretUseCase"] = err
			return
		}
		c.dynamicSecretUseCase = useCase
	})
	if storedErr, exists := c.initErrors["dynamicSecretUseCase"]; exists {
		return nil, storedErr
	}
	return c.dynamicSecretUseCase, nil
}

func (c *Container) initDynamicSecretUseCase() (dynamicSecretsUsecase.DynamicSecretUseCase, error) {
	if err := c.repositories(); err != nil {
		return nil, fmt.Errorf("failed to get repositories for dynamic secret use case: %w", err)
	}

	revocationQueue, err := c.RevocationQueue()
	if err != nil {
		return nil, err
	}

	cipherService, err := c.CipherService()
	if err != nil {
		return nil, fmt.Errorf("failed to get cipher service for dynamic secret use case: %w", err)
	}

	policyChecker, err := c.PolicyChecker()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy checker for dynamic secret use case: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for dynamic secret use case: %w", err)
	}

	// Registry construction also creates the Azure provider used for
	// directory user listing.
	registry := c.ProviderRegistry()

	useCase := dynamicSecretsUsecase.NewDynamicSecretUseCase(
		c.projectRepo,
		c.folderRepo,
		c.gatewayRepo,
		c.dynamicSecretRepo,
		c.metadataRepo,
		c.leaseRepo,
		revocationQueue,
		registry,
		cipherService,
		policyChecker,
		c.LicenseService(),
		txManager,
		c.azureProvider,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for dynamic secret use case: %w", err)
	}

	return dynamicSecretsUsecase.NewDynamicSecretUseCaseWithMetrics(useCase, businessMetrics), nil
}

// DynamicSecretHandler returns the HTTP handler for dynamic secret endpoints.
func (c *Container) DynamicSecretHandler() (*dynamicSecretsHTTP.DynamicSecretHandler, error) {
	c.dynamicSecretHandlerInit.Do(func() {
		useCase, err := c.DynamicSecretUseCase()
		if err != nil {
			c.initErrors["dynamicSecretHandler"] = fmt.Errorf("failed to get dynamic secret use case for handler: %w", err)
			return
		}
		c.dynamicSecretHandler = dynamicSecretsHTTP.NewDynamicSecretHandler(useCase, c.Logger())
	})
	if storedErr, exists := c.initErrors["dynamicSecretHandler"]; exists {
		return nil, storedErr
	}
	return c.dynamicSecretHandler, nil
}
