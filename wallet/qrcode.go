package wallet

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// generateQRCode generates QR code of an algorand:// payment URI in base64
func generateQRCode(address string) (string, error) {
	qr, err := qrcode.New("algorand://"+address, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to generate PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
