// Package qbit provides a client for the qBittorrent Web API.
// It authenticates once per client and hands magnet links off for download.
package qbit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/litescript/magnet-finder/internal/logging"
)

// ErrLoginFailed means qBittorrent rejected the credentials.
var ErrLoginFailed = errors.New("qbittorrent login failed")

// Client interfaces with qBittorrent Web API
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client

	mu       sync.Mutex
	loggedIn bool
}

// NewClient creates a new qBittorrent API client
func NewClient(host string, port int, username, password string) *Client {
	return NewClientURL(fmt.Sprintf("http://%s:%d", host, port), username, password)
}

// NewClientURL creates a client for a full base URL such as
// "http://nas.local:8080".
func NewClientURL(baseURL, username, password string) *Client {
	jar, _ := cookiejar.New(nil)

	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// Login authenticates with the qBittorrent API
func (c *Client) Login(ctx context.Context) error {
	data := url.Values{}
	data.Set("username", c.username)
	data.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/auth/login", strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to qBittorrent: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "Ok." {
		return fmt.Errorf("%w: HTTP %d: %s", ErrLoginFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	c.mu.Lock()
	c.loggedIn = true
	c.mu.Unlock()
	logging.Debug().Str("host", c.baseURL).Msg("qbittorrent login ok")
	return nil
}

// Version returns the qBittorrent version
func (c *Client) Version(ctx context.Context) (string, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/app/version", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("version: HTTP %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return strings.TrimSpace(string(body)), nil
}

// AddMagnet adds a torrent via magnet link. A 403 is retried once after
// logging in again, since qBittorrent expires sessions silently.
func (c *Client) AddMagnet(ctx context.Context, magnet string, savePath string) error {
	if err := c.ensureLogin(ctx); err != nil {
		return err
	}

	status, body, err := c.postMagnet(ctx, magnet, savePath)
	if err != nil {
		return err
	}
	if status == http.StatusForbidden {
		c.mu.Lock()
		c.loggedIn = false
		c.mu.Unlock()
		if err := c.Login(ctx); err != nil {
			return err
		}
		status, body, err = c.postMagnet(ctx, magnet, savePath)
		if err != nil {
			return err
		}
	}

	if status != http.StatusOK {
		return fmt.Errorf("failed to add torrent: HTTP %d: %s", status, body)
	}
	if strings.TrimSpace(body) == "Fails." {
		return fmt.Errorf("failed to add torrent: rejected by qBittorrent")
	}

	logging.Info().Str("host", c.baseURL).Msg("magnet sent to qbittorrent")
	return nil
}

func (c *Client) postMagnet(ctx context.Context, magnet, savePath string) (int, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	_ = writer.WriteField("urls", magnet)
	if savePath != "" {
		_ = writer.WriteField("savepath", savePath)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/torrents/add", &body)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to connect to qBittorrent: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, strings.TrimSpace(string(respBody)), nil
}

func (c *Client) ensureLogin(ctx context.Context) error {
	c.mu.Lock()
	ok := c.loggedIn
	c.mu.Unlock()
	if ok {
		return nil
	}
	return c.Login(ctx)
}
