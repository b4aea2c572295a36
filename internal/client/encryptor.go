package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// EncryptorClient encrypts consent payloads through the remote encryption endpoint
type EncryptorClient struct {
	url    string
	client *http.Client
}

// NewEncryptorClient creates a new encryption endpoint client
func NewEncryptorClient(url string, timeout time.Duration) *EncryptorClient {
	return &EncryptorClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type encryptRequest struct {
	Data string `json:"data"`
}

type encryptResponse struct {
	EncryptedData string `json:"encryptedData"`
	Result        string `json:"result"`
}

// Encrypt returns the ciphertext the endpoint produced for data
func (c *EncryptorClient) Encrypt(ctx context.Context, data string) (string, error) {
	if c.url == "" {
		return "", &model.RemoteServiceError{Service: "encryption", Err: errors.New("encryption URL not configured")}
	}

	var resp encryptResponse
	if err := doJSON(ctx, c.client, "encryption", http.MethodPost, c.url, nil, encryptRequest{Data: data}, &resp); err != nil {
		return "", err
	}

	if resp.EncryptedData != "" {
		return resp.EncryptedData, nil
	}
	if resp.Result != "" {
		return resp.Result, nil
	}
	return "", &model.RemoteServiceError{Service: "encryption", Err: errors.New("empty encryption result")}
}
