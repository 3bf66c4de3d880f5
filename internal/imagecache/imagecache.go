package imagecache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"insightdeal/dealworker/helpers"
	"insightdeal/dealworker/logger"
)

// Placeholder is served whenever a post image cannot be fetched.
const Placeholder = "https://placehold.co/400x400/E9E2FD/333?text=Deal"

var extRe = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)`)

// OCRClient extracts text from a locally cached image file.
type OCRClient interface {
	Recognize(imagePath string) (string, error)
}

// Cache is a content-addressed on-disk image store. Downloads are keyed by
// the MD5 of the source URL, so re-scraping the same post never re-downloads.
type Cache struct {
	dir    string
	client *resty.Client
	ocr    OCRClient
	log    *logger.Logger
}

// New creates an image cache rooted at dir. ocr may be nil when no OCR
// sidecar is configured.
func New(dir string, ocr OCRClient) *Cache {
	return &Cache{
		dir: dir,
		client: resty.New().
			SetTimeout(15 * time.Second).
			SetHeader("User-Agent", helpers.RandomUserAgent()),
		ocr: ocr,
		log: logger.ForComponent("imagecache"),
	}
}

// FetchAndCache downloads an image into the cache and optionally runs OCR on
// it. It never fails: any problem degrades to the placeholder path and empty
// OCR text. Returns the web path served under /images, the local file path,
// and the OCR text.
func (c *Cache) FetchAndCache(imageURL string, performOCR bool) (string, string, string) {
	if imageURL == "" || strings.Contains(imageURL, "placehold.co") {
		return Placeholder, "", ""
	}

	parsed, err := url.Parse(imageURL)
	if err != nil {
		return Placeholder, "", ""
	}

	hash := md5.Sum([]byte(imageURL))
	ext := extRe.FindString(parsed.Path)
	if ext == "" {
		ext = ".jpg"
	}
	filename := hex.EncodeToString(hash[:]) + strings.ToLower(ext)
	savePath := filepath.Join(c.dir, filename)

	if _, err := os.Stat(savePath); err != nil {
		if err := c.download(imageURL, parsed, savePath); err != nil {
			c.log.Warn().Str("url", imageURL).Err(err).Msg("Image download failed")
			return Placeholder, "", ""
		}
	}

	ocrText := ""
	if performOCR && c.ocr != nil {
		text, err := c.ocr.Recognize(savePath)
		if err != nil {
			c.log.Warn().Str("path", savePath).Err(err).Msg("OCR failed")
		} else {
			ocrText = text
		}
	}

	return "/images/" + filename, savePath, ocrText
}

func (c *Cache) download(imageURL string, parsed *url.URL, savePath string) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	resp, err := c.client.R().
		SetHeader("Referer", fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host)).
		SetOutput(savePath).
		Get(imageURL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		os.Remove(savePath)
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}
	return nil
}
