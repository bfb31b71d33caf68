package erp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"Townhall/internal/api/config"
	"Townhall/internal/pkg/logger"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

var (
	ErrUserNotFound = errors.New("erp: user not found")
	ErrUnavailable  = errors.New("erp: directory unavailable")
)

var userFields = []string{
	"name", "email", "full_name", "first_name", "middle_name", "last_name",
	"user_image", "enabled", "location", "department", "job_title", "designation",
}

// Client HR/ERP directory client
type Client struct {
	http     *resty.Client
	pageSize int
}

func NewClient(cfg config.ERPConfig) *Client {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetTransport(logger.NewHTTPTransport("erp")).
		SetHeader("Accept", "application/json")
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	if cfg.ApiKey != "" && cfg.ApiSecret != "" {
		client.SetHeader("Authorization", fmt.Sprintf("token %s:%s", cfg.ApiKey, cfg.ApiSecret))
	}

	return &Client{http: client, pageSize: pageSize}
}

type userResp struct {
	Data DirectoryUser `json:"data"`
}

type userListResp struct {
	Data []DirectoryUser `json:"data"`
}

// GetUser fetches one user by its ERP name
func (c *Client) GetUser(ctx context.Context, id string) (*DirectoryUser, error) {
	var out userResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/resource/User/" + url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}
	if out.Data.Name == "" {
		return nil, ErrUserNotFound
	}
	return &out.Data, nil
}

// ListEnabledUsers one page (0-based) of enabled users ordered by name
func (c *Client) ListEnabledUsers(ctx context.Context, page int) ([]DirectoryUser, error) {
	fields, _ := json.Marshal(userFields)
	filters, _ := json.Marshal([][]any{{"User", "enabled", "=", 1}})

	var out userListResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"fields":            string(fields),
			"filters":           string(filters),
			"limit_start":       fmt.Sprint(page * c.pageSize),
			"limit_page_length": fmt.Sprint(c.pageSize),
			"order_by":          "name asc",
		}).
		SetResult(&out).
		Get("/api/resource/User")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
	}
	return out.Data, nil
}

// ListAllEnabledUsers walks every page
func (c *Client) ListAllEnabledUsers(ctx context.Context) ([]DirectoryUser, error) {
	all := make([]DirectoryUser, 0)
	for page := 0; ; page++ {
		users, err := c.ListEnabledUsers(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, users...)
		if len(users) < c.pageSize {
			return all, nil
		}
	}
}
