package qrtokens

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRImageSize is the rendered PNG edge length in pixels.
const QRImageSize = 256

// EncodePNG renders the registration URL as a QR PNG. The image is a pure
// function of the URL; nothing is stored.
func EncodePNG(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, QRImageSize)
	if err != nil {
		return nil, fmt.Errorf("qrtokens: encode qr image: %w", err)
	}
	return png, nil
}
