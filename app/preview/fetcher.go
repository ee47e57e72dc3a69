package preview

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// FetchResult is the outcome of a successful HTTP exchange. Body holds at
// most the configured byte cap; larger responses are silently truncated.
type FetchResult struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Insecure   bool
}

// Reason returns the HTTP reason phrase without the leading status code.
func (r *FetchResult) Reason() string {
	return strings.TrimSpace(strings.TrimPrefix(r.Status, strconv.Itoa(r.StatusCode)))
}

// ContentType returns the media type of the response without parameters.
func (r *FetchResult) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// Fetcher issues bounded GET requests. A TLS certificate verification
// failure is retried exactly once with verification disabled; the result is
// marked Insecure so the formatter can flag it. Any other transport failure
// is returned as-is.
type Fetcher struct {
	client         *http.Client
	insecureClient *http.Client
	userAgent      string
	timeout        time.Duration
	maxBodySize    int64
}

func NewFetcher(userAgent string, timeout time.Duration, maxBodySize int64) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		insecureClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		userAgent:   userAgent,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	result, err := f.do(ctx, f.client, rawURL)
	if err == nil {
		return result, nil
	}

	if !isTLSVerificationError(err) {
		return nil, err
	}

	slog.Info("TLS verification failed, retrying without verification", "url", rawURL)

	result, err = f.do(ctx, f.insecureClient, rawURL)
	if err != nil {
		return nil, err
	}
	result.Insecure = true

	return result, nil
}

func (f *Fetcher) do(ctx context.Context, client *http.Client, rawURL string) (*FetchResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	// Read up to the cap and stop; an oversized page yields a truncated
	// body, not an error.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &FetchResult{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func isTLSVerificationError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var invalidCert x509.CertificateInvalidError
	return errors.As(err, &invalidCert)
}
