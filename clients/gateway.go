package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"storefront-bff/fault"
)

// RequestHook mutates an outbound request before dispatch. The credential
// hook registered by the session package lives here.
type RequestHook func(ctx context.Context, req *http.Request)

// UnauthorizedHook runs when the backend answers 401, after which the
// original error still propagates to the caller.
type UnauthorizedHook func(ctx context.Context)

// GatewayClient is the single outbound client for the shop backend. All
// cross-cutting request behavior hangs off its hooks; it applies no retries
// and no timeout beyond the transport default.
type GatewayClient struct {
	baseURL     string
	client      *http.Client
	reqHooks    []RequestHook
	unauthHooks []UnauthorizedHook
}

func NewGatewayClient(baseURL string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// UseRequest registers a hook run against every outbound request.
func (g *GatewayClient) UseRequest(h RequestHook) {
	g.reqHooks = append(g.reqHooks, h)
}

// OnUnauthorized registers a hook run whenever the backend answers 401.
func (g *GatewayClient) OnUnauthorized(h UnauthorizedHook) {
	g.unauthHooks = append(g.unauthHooks, h)
}

// Do dispatches a request to the backend. A 401 response triggers the
// unauthorized hooks and is then returned to the caller as a fault; the
// cleanup never swallows the failure. Every other status passes through
// untouched for the caller to interpret.
func (g *GatewayClient) Do(ctx context.Context, method, path string, query url.Values, headers http.Header, body io.Reader) (*http.Response, error) {
	u := g.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}

	for k, v := range headers {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}

	for _, h := range g.reqHooks {
		h(ctx, req)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fault.New(http.StatusBadGateway, "Upstream request failed", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		for _, h := range g.unauthHooks {
			h(ctx)
		}
	}

	return resp, nil
}

// DoJSON dispatches a request and decodes a 2xx response body into out.
// Non-2xx responses become a *fault.Fault carrying the backend payload.
func (g *GatewayClient) DoJSON(ctx context.Context, method, path string, query url.Values, body io.Reader, out interface{}) error {
	var headers http.Header
	if body != nil {
		headers = http.Header{"Content-Type": []string{"application/json"}}
	}

	resp, err := g.Do(ctx, method, path, query, headers, body)
	if err != nil {
		return err
	}

	return DecodeJSON(resp, out)
}

// DecodeJSON consumes the response body, mapping error statuses to faults.
// A nil out discards the body.
func DecodeJSON(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fault.FromResponse(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// JSONBody marshals v for use as a request body.
func JSONBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

// ReadJSONBody drains a request body for replay toward the backend.
func ReadJSONBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// BodyFromBytes wraps b as a reader, or nil when empty.
func BodyFromBytes(b []byte) io.Reader {
	if len(b) == 0 {
		return nil
	}
	return bytes.NewReader(b)
}

// CopyResponse relays a backend response to the client verbatim.
func CopyResponse(w http.ResponseWriter, resp *http.Response) error {
	defer resp.Body.Close()

	for k, v := range resp.Header {
		for _, vv := range v {
			w.Header().Add(k, vv)
		}
	}
	w.WriteHeader(resp.StatusCode)

	_, err := io.Copy(w, resp.Body)
	return err
}
