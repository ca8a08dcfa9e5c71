// Package fetch implements the client for downloading the index and the log
// files from the log-management API.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fujiwara/shapeio"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Fetcher downloads a file relative to the base URL.
type Fetcher interface {
	// FetchText returns the contents of the file at path as text.
	FetchText(ctx context.Context, path string) (string, error)

	// FetchBytes returns the contents of the file at path.
	FetchBytes(ctx context.Context, path string) ([]byte, error)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	// BaseURL all paths are relative to.
	BaseURL string

	// Username and Password for HTTP Basic authentication. They are sent
	// with every request.
	Username string
	Password string

	// Proxy is the URL of a forward proxy, optional.
	Proxy string

	// Timeout for a single request, 0 for no timeout.
	Timeout time.Duration

	// RateLimit is the max. download rate in kbit/s, 0 for unlimited.
	RateLimit int

	// ClientName and ClientVersion are sent as a cookie with every
	// request. ClientName defaults to "logrelay".
	ClientName    string
	ClientVersion string

	// Client is used for the requests. If nil, a client with its own
	// transport is created such that the proxy can be changed.
	Client HTTPClient
}

// Client is a Fetcher whose proxy can be changed while it is in use.
type Client interface {
	Fetcher

	// SetProxy sets the URL of the forward proxy. An empty string
	// disables the proxy.
	SetProxy(proxy string) error

	// Proxy returns the current URL of the forward proxy.
	Proxy() string
}

type client struct {
	baseURL   *url.URL
	username  string
	password  string
	timeout   time.Duration
	rateLimit int
	cookie    *http.Cookie

	proxy     *url.URL
	proxyLock sync.RWMutex

	client HTTPClient
}

// New returns a new Client for the given config.
func New(config Config) (Client, error) {
	if len(config.BaseURL) == 0 {
		return nil, ErrNoBaseURL
	}

	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if len(base.Scheme) == 0 || len(base.Host) == 0 {
		return nil, fmt.Errorf("invalid base URL: %s", config.BaseURL)
	}

	c := &client{
		baseURL:   base,
		username:  config.Username,
		password:  config.Password,
		timeout:   config.Timeout,
		rateLimit: config.RateLimit,
		client:    config.Client,
	}

	if len(config.ClientName) == 0 {
		config.ClientName = "logrelay"
	}

	if len(config.ClientVersion) == 0 {
		config.ClientVersion = "0.0.0"
	}

	c.cookie = &http.Cookie{
		Name:  config.ClientName,
		Value: config.ClientVersion,
	}

	if err := c.SetProxy(config.Proxy); err != nil {
		return nil, err
	}

	if c.client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = c.proxyFunc

		c.client = &http.Client{
			Transport: transport,
		}
	}

	return c, nil
}

func (c *client) proxyFunc(req *http.Request) (*url.URL, error) {
	c.proxyLock.RLock()
	defer c.proxyLock.RUnlock()

	return c.proxy, nil
}

func (c *client) SetProxy(proxy string) error {
	var u *url.URL

	if len(proxy) != 0 {
		var err error

		u, err = url.Parse(proxy)
		if err != nil {
			return fmt.Errorf("invalid proxy URL: %w", err)
		}

		if len(u.Scheme) == 0 || len(u.Host) == 0 {
			return fmt.Errorf("invalid proxy URL: %s", proxy)
		}
	}

	c.proxyLock.Lock()
	defer c.proxyLock.Unlock()

	c.proxy = u

	return nil
}

func (c *client) Proxy() string {
	c.proxyLock.RLock()
	defer c.proxyLock.RUnlock()

	if c.proxy == nil {
		return ""
	}

	return c.proxy.String()
}

func (c *client) FetchText(ctx context.Context, path string) (string, error) {
	data, err := c.FetchBytes(ctx, path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (c *client) FetchBytes(ctx context.Context, path string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := c.stream(ctx, path)
	if err != nil {
		return nil, err
	}

	defer body.Close()

	var reader io.Reader = body

	if c.rateLimit > 0 {
		shapedReader := shapeio.NewReaderWithContext(reader, ctx)
		shapedReader.SetRateLimit(float64(c.rateLimit) * 1024 / 8) // Calculate kbit to bytes

		reader = shapedReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &TransportError{Path: path, Err: fmt.Errorf("read body: %w", err)}
	}

	return data, nil
}

func (c *client) stream(ctx context.Context, path string) (io.ReadCloser, error) {
	u := c.baseURL.JoinPath(strings.TrimPrefix(path, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransportError{Path: path, Err: fmt.Errorf("create request: %w", err)}
	}

	req.SetBasicAuth(c.username, c.password)
	req.AddCookie(c.cookie)
	req.Header.Set("Accept-Encoding", "zstd, gzip")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()

		return nil, &TransportError{
			Path:       path,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", http.StatusText(resp.StatusCode)),
		}
	}

	reader, err := decodeBody(resp)
	if err != nil {
		resp.Body.Close()
		return nil, &TransportError{Path: path, StatusCode: resp.StatusCode, Err: err}
	}

	return reader, nil
}

func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}

		return &readCloser{Reader: reader, close: func() error {
			reader.Close()
			return resp.Body.Close()
		}}, nil
	case "zstd":
		reader, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}

		return &readCloser{Reader: reader, close: func() error {
			reader.Close()
			return resp.Body.Close()
		}}, nil
	}

	return resp.Body, nil
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error {
	return r.close()
}
