package babel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/samvad-hq/babel-client/pkg/httpclient"
)

// execute sends the call and returns the response when its status is 2xx.
func (c *Client) execute(ctx context.Context, rc call) (httpclient.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	resp, err := c.transport().Do(ctx, httpclient.Request{
		Method:  rc.method,
		URL:     c.baseURL + rc.path,
		Headers: c.headersFor(rc),
		Body:    rc.body,
	})
	if err != nil {
		return nil, &Error{Kind: KindRequestFailed, Method: rc.method, Path: rc.path, Err: err}
	}
	if err := classifyStatus(rc, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// do sends the call and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, rc call, out any) error {
	resp, err := c.execute(ctx, rc)
	if err != nil {
		return err
	}
	return decodeBody(rc, resp.Body(), out)
}

func classifyStatus(rc call, resp httpclient.Response) error {
	status := resp.StatusCode()
	if status >= 200 && status < 300 {
		return nil
	}

	e := &Error{
		Kind:   KindRequestFailed,
		Status: status,
		Method: rc.method,
		Path:   rc.path,
	}
	// HEAD responses have no body to carry a message.
	if rc.method != http.MethodHead {
		e.Message = errorMessage(resp.Body())
	}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindInvalidToken
	case status == http.StatusNotFound && rc.notFound:
		e.Kind = KindNotFound
	}
	return e
}

// errorMessage extracts the "message" field of a JSON error body.
func errorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	msg, _ := payload["message"].(string)
	return strings.TrimSpace(msg)
}

// decodeBody rejects a top-level null, which would otherwise leave out zero-valued.
func decodeBody(rc call, body []byte, out any) error {
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return &Error{Kind: KindDecode, Method: rc.method, Path: rc.path, Err: errors.New("response body is null")}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindDecode, Method: rc.method, Path: rc.path, Err: err}
	}
	return nil
}
