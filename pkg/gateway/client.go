// Package gateway is the HTTP client for the content-block API.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"site-admin/pkg/apierr"
	"site-admin/pkg/staging"
)

// ErrNotFound is returned by Get when no record exists yet.
var ErrNotFound = errors.New("gateway: record not found")

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Ref addresses one record. Form records use Key as their type.
type Ref struct {
	Subtype string
	Mode    string
	Key     string
}

func (r Ref) Path() string {
	return path.Join("/", r.Subtype, r.Mode, r.Key)
}

func (r Ref) String() string { return r.Subtype + "/" + r.Mode + "/" + r.Key }

// Envelope is what GET and save calls return. Values is an object in json
// mode and an item array in form mode.
type Envelope struct {
	ID        string      `json:"id,omitempty"`
	Values    interface{} `json:"values"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SaveRequest is one save. ItemFiles go out as "file<index>" parts and
// PathFiles as "file:<path>" parts.
type SaveRequest struct {
	Values    interface{}
	ItemFiles map[int]*staging.File
	PathFiles map[string]*staging.File
	ListPath  string
	FileField string
}

// Error is a non-2xx response decoded from the API error body.
type Error struct {
	Status  int
	Code    string
	Message string
	Field   string
	Details string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Code != "" {
		return fmt.Sprintf("gateway: %s: %s", e.Code, msg)
	}
	return fmt.Sprintf("gateway: backend error (%d): %s", e.Status, msg)
}

// Client talks to /api/<subtype>/<mode>/<key>.
type Client struct {
	base   *url.URL
	client HTTPClient
}

func NewClient(baseURL string, client HTTPClient) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("gateway: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base URL: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{base: parsed, client: client}, nil
}

// Get loads a record.
func (c *Client) Get(ctx context.Context, ref Ref) (*Envelope, error) {
	req, err := c.newRequest(ctx, http.MethodGet, ref.Path(), nil)
	if err != nil {
		return nil, err
	}
	return c.doEnvelope(req, "get")
}

// Save sends values and staged files as multipart. method is POST for a new
// record and PUT for an existing one.
func (c *Client) Save(ctx context.Context, ref Ref, method string, sr SaveRequest) (*Envelope, error) {
	if method != http.MethodPost && method != http.MethodPut {
		return nil, fmt.Errorf("gateway: unsupported save method %q", method)
	}
	body, contentType, err := encodeSave(sr)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, method, ref.Path(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.doEnvelope(req, "save")
}

// Delete removes a record. A non-empty id is sent as {"id": ...} so the
// server can refuse a record that was replaced meanwhile.
func (c *Client) Delete(ctx context.Context, ref Ref, id string) error {
	var body io.Reader
	if id != "" {
		data, err := json.Marshal(map[string]string{"id": id})
		if err != nil {
			return fmt.Errorf("gateway: encode delete: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, http.MethodDelete, ref.Path(), body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errorFromResponse(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func encodeSave(sr SaveRequest) (io.Reader, string, error) {
	values, err := json.Marshal(sr.Values)
	if err != nil {
		return nil, "", fmt.Errorf("gateway: encode values: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("values", string(values)); err != nil {
		return nil, "", err
	}
	if sr.ListPath != "" {
		if err := w.WriteField("listPath", sr.ListPath); err != nil {
			return nil, "", err
		}
	}
	if sr.FileField != "" {
		if err := w.WriteField("fileField", sr.FileField); err != nil {
			return nil, "", err
		}
	}

	indices := make([]int, 0, len(sr.ItemFiles))
	for i := range sr.ItemFiles {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	for _, i := range indices {
		if err := writeFile(w, "file"+strconv.Itoa(i), sr.ItemFiles[i]); err != nil {
			return nil, "", err
		}
	}

	paths := make([]string, 0, len(sr.PathFiles))
	for p := range sr.PathFiles {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := writeFile(w, "file:"+p, sr.PathFiles[p]); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field string, f *staging.File) error {
	if f == nil {
		return nil
	}
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("gateway: open staged %s: %w", f.Name, err)
	}
	defer src.Close()

	part, err := w.CreateFormFile(field, f.Name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("gateway: copy staged %s: %w", f.Name, err)
	}
	return nil
}

func (c *Client) doEnvelope(req *http.Request, op string) (*Envelope, error) {
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && req.Method == http.MethodGet {
		return nil, ErrNotFound
	}
	if resp.StatusCode/100 != 2 {
		return nil, errorFromResponse(resp)
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("gateway: decode %s response: %w", op, err)
	}
	return &env, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) resolve(endpoint string) string {
	ref := &url.URL{Path: strings.TrimPrefix(endpoint, "/")}
	return c.base.ResolveReference(ref).String()
}

func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	e := &Error{Status: resp.StatusCode}
	var payload apierr.Response
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		e.Code = payload.Code
		e.Message = payload.Message
		e.Field = payload.Field
		e.Details = payload.Details
		return e
	}
	if len(body) > 0 {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}
