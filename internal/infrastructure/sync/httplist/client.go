package httplist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"changectl/internal/errs"
	"changectl/internal/ports"
)

// Client mirrors change requests into an external list service over REST.
// It is the single concrete sync variant at this boundary; which downstream
// (SharePoint list, Graph-backed portal, plain JSON service) sits behind the
// URL is a deployment concern.
type Client struct {
	httpClient *http.Client
	baseURL    string
	listName   string
	token      string
	kv         ports.KV
}

var _ ports.DirectorySync = (*Client)(nil)

type Config struct {
	BaseURL  string
	ListName string
	Token    string
	Timeout  time.Duration
}

func New(cfg Config, kv ports.KV) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("sync base url is required")
	}
	listName := strings.TrimSpace(cfg.ListName)
	if listName == "" {
		return nil, errors.New("sync list name is required")
	}
	if kv == nil {
		return nil, errors.New("kv store is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		listName:   listName,
		token:      strings.TrimSpace(cfg.Token),
		kv:         kv,
	}, nil
}

// listItem is the wire shape of a mirrored record. Field names match the
// original portal's list columns.
type listItem struct {
	RequestID      string `json:"requestId"`
	Title          string `json:"title"`
	RequestorName  string `json:"requestorName"`
	RequestorEmail string `json:"requestorEmail"`
	Department     string `json:"department"`
	Summary        string `json:"summary"`
	Description    string `json:"description"`
	ChangeType     string `json:"changeType"`
	Priority       string `json:"priority"`
	Status         string `json:"status"`
	SubmittedDate  string `json:"submittedDate"`
}

type createItemResponse struct {
	ID string `json:"id"`
}

func (c *Client) CreateChangeRequest(ctx context.Context, record ports.ChangeRequest) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}

	item := listItem{
		RequestID:      record.RequestID,
		Title:          record.Title,
		RequestorName:  record.RequestorName,
		RequestorEmail: record.RequestorEmail,
		Department:     record.Department,
		Summary:        record.Summary,
		Description:    record.Description,
		ChangeType:     record.ChangeType,
		Priority:       record.Priority,
		Status:         record.Status,
		SubmittedDate:  record.SubmittedDate,
	}

	var created createItemResponse
	if err := c.do(ctx, http.MethodPost, c.itemsURL(), item, &created); err != nil {
		return "", errs.Wrap(err, "create remote list item")
	}
	if created.ID == "" {
		return "", errors.New("remote list returned no item id")
	}

	if err := c.kv.Set(ctx, remoteItemKey(record.RequestID), created.ID, 0); err != nil {
		return "", errs.Wrap(err, "remember remote item id")
	}
	return created.ID, nil
}

func (c *Client) UpdateChangeRequest(ctx context.Context, requestID string, fields map[string]any) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if len(fields) == 0 {
		return errors.New("no fields to sync")
	}

	remoteID, found, err := c.kv.Get(ctx, remoteItemKey(requestID))
	if err != nil {
		return errs.Wrap(err, "load remote item id")
	}
	if !found {
		return fmt.Errorf("no remote item mapping for request %s", requestID)
	}

	if err := c.do(ctx, http.MethodPatch, c.itemsURL()+"/"+url.PathEscape(remoteID), fields, nil); err != nil {
		return errs.Wrap(err, "update remote list item")
	}
	return nil
}

func (c *Client) GetChangeRequests(ctx context.Context) ([]ports.ChangeRequest, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	var items []listItem
	if err := c.do(ctx, http.MethodGet, c.itemsURL(), nil, &items); err != nil {
		return nil, errs.Wrap(err, "list remote items")
	}

	records := make([]ports.ChangeRequest, 0, len(items))
	for _, item := range items {
		records = append(records, ports.ChangeRequest{
			RequestID:      item.RequestID,
			Title:          item.Title,
			RequestorName:  item.RequestorName,
			RequestorEmail: item.RequestorEmail,
			Department:     item.Department,
			Summary:        item.Summary,
			Description:    item.Description,
			ChangeType:     item.ChangeType,
			Priority:       item.Priority,
			Status:         item.Status,
			SubmittedDate:  item.SubmittedDate,
		})
	}
	return records, nil
}

func (c *Client) itemsURL() string {
	return c.baseURL + "/lists/" + url.PathEscape(c.listName) + "/items"
}

func (c *Client) do(ctx context.Context, method string, rawURL string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return errs.Wrap(err, "encode payload")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return errs.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(err, "call list service")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("list service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(err, "decode response")
	}
	return nil
}

func remoteItemKey(requestID string) string {
	return "remote_item:" + strings.TrimSpace(requestID)
}
