package services

import (
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

// BuildUPIDeepLink assembles a upi://pay intent for a scan-on-delivery
// collection. amount is in whole rupees.
func BuildUPIDeepLink(payeeVPA, payeeName, reference string, amount int64) string {
	params := url.Values{}
	params.Set("pa", payeeVPA)
	params.Set("pn", payeeName)
	params.Set("tr", reference)
	params.Set("am", fmt.Sprintf("%d", amount))
	params.Set("cu", "INR")
	return "upi://pay?" + params.Encode()
}

// UPIQRCodePNG renders the deep link as a QR code PNG suitable for the
// delivery rider's screen.
func UPIQRCodePNG(payeeVPA, payeeName, reference string, amount int64) ([]byte, error) {
	link := BuildUPIDeepLink(payeeVPA, payeeName, reference, amount)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("upi qr encode: %w", err)
	}
	return png, nil
}
