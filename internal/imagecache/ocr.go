package imagecache

import (
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "insightdeal/dealworker/pkg/errors"
)

// HTTPOCRClient talks to the OCR sidecar service over HTTP.
type HTTPOCRClient struct {
	addr   string
	client *resty.Client
}

// NewHTTPOCRClient creates a client for the OCR sidecar. Returns a nil
// OCRClient when no address is configured, which disables OCR entirely. The
// interface return matters: a typed-nil *HTTPOCRClient stored in an OCRClient
// field would pass nil checks and blow up on the first Recognize call.
func NewHTTPOCRClient(addr string) OCRClient {
	if addr == "" {
		return nil
	}
	return &HTTPOCRClient{
		addr:   addr,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// Recognize uploads an image file and returns the recognized text.
func (c *HTTPOCRClient) Recognize(imagePath string) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	resp, err := c.client.R().
		SetFile("image", imagePath).
		SetResult(&out).
		Post(c.addr + "/ocr")
	if err != nil {
		return "", apperrors.NewImage("", "OCR 서비스 요청 실패", err)
	}
	if resp.IsError() {
		return "", apperrors.NewImage("", "OCR 서비스 응답 오류", nil)
	}
	return out.Text, nil
}
