package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
)

// ProvisionerClient asks the remote deployer to create a consent app for a wallet
type ProvisionerClient struct {
	url    string
	client *http.Client
}

// NewProvisionerClient creates a new app provisioner client
func NewProvisionerClient(url string, timeout time.Duration) *ProvisionerClient {
	return &ProvisionerClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type provisionRequest struct {
	Address string `json:"address"`
}

type provisionResponse struct {
	AppID      uint64 `json:"appId"`
	AppAddress string `json:"appAddress"`
}

// Provision creates an app bound to walletAddress and returns its id and escrow address
func (c *ProvisionerClient) Provision(ctx context.Context, walletAddress string) (uint64, string, error) {
	if c.url == "" {
		return 0, "", &model.RemoteServiceError{Service: "provisioner", Err: errors.New("provision URL not configured")}
	}

	var resp provisionResponse
	if err := doJSON(ctx, c.client, "provisioner", http.MethodPost, c.url, nil, provisionRequest{Address: walletAddress}, &resp); err != nil {
		return 0, "", err
	}
	if resp.AppID == 0 {
		return 0, "", &model.RemoteServiceError{Service: "provisioner", Err: errors.New("provisioner returned no app id")}
	}

	appAddress := resp.AppAddress
	if appAddress == "" {
		appAddress = crypto.GetApplicationAddress(resp.AppID).String()
	}
	return resp.AppID, appAddress, nil
}
