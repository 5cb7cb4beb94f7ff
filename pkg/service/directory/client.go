package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/interfaces"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/utils/logging"
	"github.com/secmon-lab/portalos/pkg/utils/safe"
)

// DefaultEndpoint is the deployed script that backs the user sheet
const DefaultEndpoint = "https://script.google.com/macros/s/AKfycbxDcySN9e36K7njXP7HvgaIY6q6jFlYrVQOUsyu85rE-qZueUY66XOfWqgIl4CBaf5wog/exec"

// maxResponseSize caps the body read from the directory service
const maxResponseSize = 4 << 20

const (
	actionVerifyCredentials = "verifyCredentials"
	actionGetUsers          = "getUsers"
	actionAddUser           = "addUser"
	actionUpdateUser        = "updateUser"
	actionDeleteUser        = "deleteUser"
)

// Client talks to the directory service. Every operation is a single GET
// without retries.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
	timeout    time.Duration
}

var _ interfaces.Directory = &Client{}

type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(x *Client) {
		x.httpClient = c
	}
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(x *Client) {
		x.timeout = d
	}
}

// New creates a client for endpoint. An empty endpoint uses DefaultEndpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse directory endpoint", goerr.V("endpoint", endpoint))
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, goerr.New("directory endpoint must be an absolute http(s) URL", goerr.V("endpoint", endpoint))
	}

	c := &Client{
		endpoint:   u,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// Endpoint returns the endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

type userRecord struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type usersResponse struct {
	Success bool         `json:"success"`
	Users   []userRecord `json:"users"`
	Message string       `json:"message"`
}

type mutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// VerifyCredentials checks username and password against the directory.
// Empty input is rejected without a request.
func (c *Client) VerifyCredentials(ctx context.Context, username, password string) *model.Outcome {
	if strings.TrimSpace(username) == "" || password == "" {
		return &model.Outcome{
			Message: msgMissingCredentials,
			Err:     goerr.Wrap(model.ErrValidation, "username or password is empty"),
		}
	}

	params := url.Values{}
	params.Set("username", username)
	params.Set("passwordHash", HashPassword(password))

	var resp verifyResponse
	if err := c.call(ctx, actionVerifyCredentials, params, &resp); err != nil {
		logging.From(ctx).Warn("credential check failed", "error", err, "username", username)
		return &model.Outcome{Message: msgVerifyFailed, Err: err}
	}

	if !resp.Success {
		return &model.Outcome{
			Message: fallback(resp.Message, msgInvalidCredentials),
			Err: goerr.Wrap(model.ErrAuth, "credentials rejected",
				goerr.V(model.UsernameKey, username)),
		}
	}

	return &model.Outcome{
		Success: true,
		Role:    resp.Role,
		Name:    resp.Name,
	}
}

// ListUsers fetches every user. Records with an empty username or an
// unknown role are dropped.
func (c *Client) ListUsers(ctx context.Context) *model.UserList {
	var resp usersResponse
	if err := c.call(ctx, actionGetUsers, url.Values{}, &resp); err != nil {
		logging.From(ctx).Warn("user listing failed", "error", err)
		return &model.UserList{Message: msgListFailed, Err: err}
	}

	if !resp.Success {
		return &model.UserList{
			Message: fallback(resp.Message, msgListRejected),
			Err:     goerr.Wrap(model.ErrRemoteRejection, "user listing rejected", goerr.V(model.ActionKey, actionGetUsers)),
		}
	}

	users := make([]model.User, 0, len(resp.Users))
	for _, rec := range resp.Users {
		role, err := types.ParseRole(rec.Role)
		if err != nil || strings.TrimSpace(rec.Username) == "" {
			logging.From(ctx).Warn("dropping malformed user record",
				"username", rec.Username,
				"role", rec.Role,
			)
			continue
		}
		users = append(users, model.User{
			Name:     rec.Name,
			Username: rec.Username,
			Role:     role,
		})
	}

	return &model.UserList{Success: true, Users: users}
}

// AddUser creates a user. The password is always sent as a digest.
func (c *Client) AddUser(ctx context.Context, input model.NewUser) *model.Result {
	params := url.Values{}
	params.Set("name", input.Name)
	params.Set("username", input.Username)
	params.Set("passwordHash", HashPassword(input.Password))
	params.Set("role", input.Role.String())

	return c.mutate(ctx, actionAddUser, input.Username, params, msgAdded, msgAddFailed, msgAddRejected)
}

// UpdateUser changes name and role of a user. passwordHash is only sent
// when the update carries a new password.
func (c *Client) UpdateUser(ctx context.Context, input model.UserUpdate) *model.Result {
	params := url.Values{}
	params.Set("username", input.Username)
	params.Set("name", input.Name)
	params.Set("role", input.Role.String())
	if input.ChangesPassword() {
		params.Set("passwordHash", HashPassword(input.Password))
	}

	return c.mutate(ctx, actionUpdateUser, input.Username, params, msgUpdated, msgUpdateFailed, msgUpdateRejected)
}

// DeleteUser removes a user
func (c *Client) DeleteUser(ctx context.Context, username string) *model.Result {
	params := url.Values{}
	params.Set("username", username)

	return c.mutate(ctx, actionDeleteUser, username, params, msgDeleted, msgDeleteFailed, msgDeleteRejected)
}

func (c *Client) mutate(ctx context.Context, action, username string, params url.Values, okMsg, failMsg, rejectMsg string) *model.Result {
	var resp mutationResponse
	if err := c.call(ctx, action, params, &resp); err != nil {
		logging.From(ctx).Warn("directory mutation failed", "action", action, "username", username, "error", err)
		return model.Failed(err, failMsg)
	}

	if !resp.Success {
		return model.Failed(
			goerr.Wrap(model.ErrRemoteRejection, "directory mutation rejected",
				goerr.V(model.ActionKey, action),
				goerr.V(model.UsernameKey, username),
				goerr.V("remote_message", resp.Message)),
			fallback(resp.Message, rejectMsg),
		)
	}

	return model.Succeeded(fallback(resp.Message, okMsg))
}

// call issues one request. Every returned error wraps model.ErrNetwork.
func (c *Client) call(ctx context.Context, action string, params url.Values, out any) error {
	params.Set("action", action)
	u := *c.endpoint
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return goerr.Wrap(errors.Join(model.ErrNetwork, err), "failed to create request", goerr.V(model.ActionKey, action))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(errors.Join(model.ErrNetwork, err), "failed to send request", goerr.V(model.ActionKey, action))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		safe.Drain(ctx, io.LimitReader(resp.Body, maxResponseSize))
		return goerr.Wrap(model.ErrNetwork, "directory returned non-success status",
			goerr.V(model.ActionKey, action),
			goerr.V(model.StatusKey, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return goerr.Wrap(errors.Join(model.ErrNetwork, err), "failed to read response", goerr.V(model.ActionKey, action))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return goerr.Wrap(errors.Join(model.ErrNetwork, err), "failed to parse response",
			goerr.V(model.ActionKey, action),
			goerr.V("body_size", len(body)))
	}

	return nil
}

func fallback(msg, def string) string {
	if strings.TrimSpace(msg) == "" {
		return def
	}
	return msg
}
