package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// GeneratorClient fetches freshly generated mnemonics from the remote generator
type GeneratorClient struct {
	url    string
	client *http.Client
}

// NewGeneratorClient creates a new generator client
func NewGeneratorClient(url string, timeout time.Duration) *GeneratorClient {
	return &GeneratorClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// generatorResponse response from the generator endpoint.
// address arrives either as a plain string or as an object.
type generatorResponse struct {
	Mnemonic string          `json:"mnemonic"`
	Address  json.RawMessage `json:"address"`
}

// Generate returns a new mnemonic and the address the generator claims for it.
// The address may be empty when the generator does not send a recognizable one.
func (c *GeneratorClient) Generate(ctx context.Context) (mnemonic, address string, err error) {
	if c.url == "" {
		return "", "", errors.New("generator URL not configured")
	}

	var resp generatorResponse
	if err := doJSON(ctx, c.client, "generator", http.MethodGet, c.url, nil, nil, &resp); err != nil {
		return "", "", err
	}
	if resp.Mnemonic == "" {
		return "", "", fmt.Errorf("generator returned no mnemonic")
	}

	return resp.Mnemonic, parseGeneratedAddress(resp.Address), nil
}

func parseGeneratedAddress(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Addr      string `json:"addr"`
		Address   string `json:"address"`
		PublicKey string `json:"publicKey"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	switch {
	case obj.Addr != "":
		return obj.Addr
	case obj.Address != "":
		return obj.Address
	default:
		return obj.PublicKey
	}
}
