package acinfinity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	DefaultHost = "http://www.acinfinityserver.com"

	loginPath        = "/api/user/appUserLogin"
	devicesPath      = "/api/user/devInfoListAll"
	portSettingsPath = "/api/dev/getdevModeSettingList"

	// the vendor silently truncates passwords at this length.
	maxPasswordLength = 25

	codeSuccess      = 200
	codeUnauthorized = 403
	codeTokenExpired = 10001

	userAgent = "ACController/1.8.2 (com.acinfinity.humiture; build:489; iOS 16.5.1) Alamofire/5.4.4"
)

var (
	ErrAuth = errors.New("acinfinity: authentication failed")
	ErrAPI  = errors.New("acinfinity: api error")
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type loginData struct {
	AppID string `json:"appId"`
}

// Client talks to the AC Infinity cloud API. It logs in lazily and logs in
// again once when the server rejects the session token.
type Client struct {
	host       string
	email      string
	password   string
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.Mutex
	token string
}

func NewClient(host, email, password string) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		host:       strings.TrimRight(host, "/"),
		email:      email,
		password:   password,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.L(),
	}
}

func (c *Client) IsLoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

func (c *Client) Login(ctx context.Context) error {
	password := c.password
	if utf8.RuneCountInString(password) > maxPasswordLength {
		password = string([]rune(password)[:maxPasswordLength])
	}
	form := url.Values{}
	form.Set("appEmail", c.email)
	form.Set("appPasswordl", password)

	var data loginData
	if err := c.post(ctx, loginPath, form, "", &data); err != nil {
		if errors.Is(err, ErrAPI) {
			return fmt.Errorf("%w: %w", ErrAuth, err)
		}
		return err
	}
	if data.AppID == "" {
		return fmt.Errorf("%w: empty session token", ErrAuth)
	}

	c.mu.Lock()
	c.token = data.AppID
	c.mu.Unlock()
	c.logger.Debug("logged in to ac infinity", zap.String("email", c.email))
	return nil
}

// GetDevicesListAll returns every controller on the account as loosely
// typed objects.
func (c *Client) GetDevicesListAll(ctx context.Context) ([]map[string]any, error) {
	var controllers []map[string]any
	err := c.authedPost(ctx, devicesPath, func(token string) url.Values {
		form := url.Values{}
		form.Set("userId", token)
		return form
	}, &controllers)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	return controllers, nil
}

// GetDeviceModeSettingsList returns the automation settings of one port.
func (c *Client) GetDeviceModeSettingsList(ctx context.Context, controllerID string, port int) (map[string]any, error) {
	var settings map[string]any
	err := c.authedPost(ctx, portSettingsPath, func(string) url.Values {
		form := url.Values{}
		form.Set("devId", controllerID)
		form.Set("port", strconv.Itoa(port))
		return form
	}, &settings)
	if err != nil {
		return nil, fmt.Errorf("port settings for %s port %d: %w", controllerID, port, err)
	}
	return settings, nil
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) authedPost(ctx context.Context, path string, form func(token string) url.Values, out any) error {
	if !c.IsLoggedIn() {
		if err := c.Login(ctx); err != nil {
			return err
		}
	}
	token := c.currentToken()
	err := c.post(ctx, path, form(token), token, out)
	if !errors.Is(err, ErrAuth) {
		return err
	}

	c.logger.Info("session token rejected, logging in again")
	if err := c.Login(ctx); err != nil {
		return err
	}
	token = c.currentToken()
	return c.post(ctx, path, form(token), token, out)
}

func (c *Client) post(ctx context.Context, path string, form url.Values, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("token", token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: http status %d", ErrAPI, res.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	switch env.Code {
	case codeSuccess:
	case codeUnauthorized, codeTokenExpired:
		return fmt.Errorf("%w: %s", ErrAuth, env.Msg)
	default:
		return fmt.Errorf("%w: code %d: %s", ErrAPI, env.Code, env.Msg)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding data from %s: %w", path, err)
	}
	return nil
}
