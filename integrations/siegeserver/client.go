package siegeserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
)

type Client struct {
	Server string
	HTTP   *http.Client
}

var (
	ErrUnexpectedResponse = errors.New("unexpected response code")
)

func NewClient(server string) *Client {
	return &Client{
		Server: server,
		HTTP:   &http.Client{},
	}
}

type CreateRequest struct {
	LiteralKeys []string `json:"literalKeys,omitempty"`
}

type createResponse struct {
	ID string `json:"id"`
}

// Create starts a builder on the server and returns its id. Nil literalKeys selects the
// server default.
func (c *Client) Create(ctx context.Context, literalKeys []string) (string, error) {
	bs, err := json.Marshal(&CreateRequest{LiteralKeys: literalKeys})
	if err != nil {
		return "", err
	}

	var res createResponse
	if err := c.do(ctx, http.MethodPost, "/schemas", bs, http.StatusCreated, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

type SamplesResponse struct {
	Accepted int `json:"accepted"`
	Samples  int `json:"samples"`
}

// AddSamples uploads newline delimited samples to builder id.
func (c *Client) AddSamples(ctx context.Context, id string, ndjson []byte) (*SamplesResponse, error) {
	var res SamplesResponse
	u := fmt.Sprintf("/schemas/%s/samples", url.PathEscape(id))
	if err := c.do(ctx, http.MethodPost, u, ndjson, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Schema fetches the rendered schema of builder id.
func (c *Client) Schema(ctx context.Context, id, format, encoding string) ([]byte, error) {
	q := url.Values{}
	if format != "" {
		q.Set("format", format)
	}
	if encoding != "" {
		q.Set("encoding", encoding)
	}
	u := fmt.Sprintf("/schemas/%s", url.PathEscape(id))
	if len(q) != 0 {
		u += "?" + q.Encode()
	}

	var res bytes.Buffer
	if err := c.do(ctx, http.MethodGet, u, nil, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return res.Bytes(), nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	u := fmt.Sprintf("/schemas/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, u, nil, http.StatusNoContent, nil)
}

// do decodes a JSON response into out, or copies the raw body when out is a *bytes.Buffer.
func (c *Client) do(ctx context.Context, method, path string, body []byte, want int, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.formatURL(path), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != want {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		if e.Error != "" {
			return fmt.Errorf("%w %d: %s", ErrUnexpectedResponse, res.StatusCode, e.Error)
		}
		return fmt.Errorf("%w %d", ErrUnexpectedResponse, res.StatusCode)
	}

	switch o := out.(type) {
	case nil:
		return nil
	case *bytes.Buffer:
		_, err := o.ReadFrom(res.Body)
		return err
	default:
		return json.NewDecoder(res.Body).Decode(out)
	}
}

func (c *Client) formatURL(path string) string {
	return fmt.Sprintf("%s%s", c.Server, path)
}
