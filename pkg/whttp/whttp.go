// Package whttp sends requests to a running shortscroll control server.
package whttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/sw33tLie/shortscroll/pkg/control"
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL      string
	Method   string
	Body     []byte
	Headers  []WHTTPHeader
	Username string
	Password string
}

type WHTTPRes struct {
	StatusCode int
	BodyString string
}

// NewClient returns a quiet retrying client.
func NewClient(retryMax int) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.Logger = log.New(io.Discard, "", 0)
	c.RetryMax = retryMax
	return c
}

func SendHTTPRequest(ctx context.Context, wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	var body any
	if wReq.Body != nil {
		body = bytes.NewReader(wReq.Body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, wReq.Method, wReq.URL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "shortscroll")
	if wReq.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range wReq.Headers {
		req.Header.Add(h.Name, h.Value)
	}
	if wReq.Username != "" || wReq.Password != "" {
		req.SetBasicAuth(wReq.Username, wReq.Password)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &WHTTPRes{StatusCode: resp.StatusCode, BodyString: string(bodyBytes)}, nil
}

// Target is a control server address with optional basic auth.
type Target struct {
	BaseURL  string
	Username string
	Password string
}

// BaseURLFor turns a listen address such as "127.0.0.1:7878" into a URL.
func BaseURLFor(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimSuffix(addr, "/")
	}
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr
}

// SendControl posts msg to the control server and returns how many sessions
// accepted it.
func SendControl(ctx context.Context, client *retryablehttp.Client, t Target, msg control.Message) (int, error) {
	body, err := msg.JSON()
	if err != nil {
		return 0, err
	}
	res, err := SendHTTPRequest(ctx, &WHTTPReq{
		URL:      t.BaseURL + "/api/control",
		Method:   http.MethodPost,
		Body:     body,
		Username: t.Username,
		Password: t.Password,
	}, client)
	if err != nil {
		return 0, fmt.Errorf("send %s: %w", msg, err)
	}
	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("send %s: server returned %d: %s", msg, res.StatusCode, strings.TrimSpace(res.BodyString))
	}
	delivered := gjson.Get(res.BodyString, "delivered")
	if !delivered.Exists() {
		return 0, fmt.Errorf("send %s: unexpected response %q", msg, res.BodyString)
	}
	return int(delivered.Int()), nil
}
