package domain

// ProviderType tags which dynamic secret provider a definition is bound to.
// The set is closed; the registry is built at process start.
type ProviderType string

const (
	// ProviderTypePostgres mints PostgreSQL roles.
	ProviderTypePostgres ProviderType = "postgres"

	// ProviderTypeMySQL mints MySQL users.
	ProviderTypeMySQL ProviderType = "mysql"

	// ProviderTypeAuth0ClientSecret rotates Auth0 application client secrets.
	ProviderTypeAuth0ClientSecret ProviderType = "auth0-client-secret"

	// ProviderTypeAzureEntraID rotates Azure Entra ID user passwords.
	ProviderTypeAzureEntraID ProviderType = "azure-entra-id"
)

// Status is the lifecycle marker of a definition. A nil status means active.
type Status string

// StatusDeleting marks a definition whose leases are being pruned in the
// background. The only exit from this state is physical deletion.
const StatusDeleting Status = "deleting"

// OrderBy names the supported list orderings.
type OrderBy string

// OrderByName is currently the only supported ordering.
const OrderByName OrderBy = "name"

// OrderDirection is the sort direction for list operations.
type OrderDirection string

const (
	// OrderAsc sorts ascending.
	OrderAsc OrderDirection = "asc"

	// OrderDesc sorts descending.
	OrderDesc OrderDirection = "desc"
)
