package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Session is an HTTP client bound to one server-side CAGR session. It is not
// safe to share between scrapes: the server tracks pagination per session.
type Session struct {
	client *http.Client
	url    string
}

// NewSession creates a cookie-holding client and primes it. The site ignores
// form queries from a client that has not been issued a session cookie yet.
func NewSession(ctx context.Context, baseURL string, timeout time.Duration) (*Session, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	s := &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		url: baseURL,
	}

	if err := s.prime(ctx); err != nil {
		return nil, fmt.Errorf("priming session: %w", err)
	}

	return s, nil
}

// prime posts an empty form. Only transport errors matter here; the body is discarded.
func (s *Session) prime(ctx context.Context) error {
	resp, err := s.post(ctx, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, err = io.Copy(io.Discard, resp.Body)
	return err
}

// Submit posts a form and returns the raw response body
func (s *Session) Submit(ctx context.Context, form url.Values) ([]byte, error) {
	resp, err := s.post(ctx, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return body, nil
}

func (s *Session) post(ctx context.Context, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting form: %w", err)
	}
	return resp, nil
}
