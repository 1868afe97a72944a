package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/trainops/workshop-portal/internal/config"
)

// NewCredential builds the service principal credential used for all
// management-plane and Graph calls.
func NewCredential(cfg *config.Config) (azcore.TokenCredential, error) {
	cred, err := azidentity.NewClientSecretCredential(cfg.AzureTenantID, cfg.AzureClientID, cfg.AzureClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("create azure credential: %w", err)
	}
	return cred, nil
}
