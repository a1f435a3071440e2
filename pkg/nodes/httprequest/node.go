// Package httprequest provides a module performing an HTTP request for each input.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/fluxrt/pkg/cache"
	"github.com/dukex/fluxrt/pkg/configuration"
	"github.com/dukex/fluxrt/pkg/module"
	"github.com/dukex/fluxrt/pkg/template"
	"github.com/dukex/fluxrt/pkg/tracing"
)

// Config is the persistent data of the module. URL and Body are templates rendered
// against the input.
type Config struct {
	URL     string `json:"url"`
	Method  string `json:"method"`
	Body    string `json:"body"`
	Timeout int    `json:"timeout"`
	Retries int    `json:"retries"`
	Cache   bool   `json:"cache"`
}

// HTTPError is a response with an error status.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// Response is the emitted result of a request.
type Response struct {
	StatusCode int                 `json:"statusCode"`
	Headers    map[string][]string `json:"headers"`
	Body       string              `json:"body"`
	JSON       any                 `json:"json,omitempty"`
}

// Node performs a request for each input and emits the response. With "cache" set,
// identical requests are served from the module cache.
type Node struct {
	*module.Module
	output *module.Output
	client *http.Client
}

func New(params module.Params) (*Node, error) {
	base, err := module.New(params)
	if err != nil {
		return nil, err
	}

	n := &Node{Module: base, client: &http.Client{}}

	n.output, err = base.AddOutput(module.DefaultOutputID)
	if err != nil {
		return nil, err
	}

	_, err = base.AddInput(module.InputSpec{
		Description: "triggers the request; available to the url and body templates",
		OnTriggered: n.request,
	})
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (n *Node) Output() *module.Output { return n.output }

func (n *Node) request(in module.Input, c *cache.Cache) error {
	var config Config
	if err := configuration.Decode(in.Configuration, &config); err != nil {
		return err
	}

	scope := template.Scope{Data: in.Data, Configuration: in.Configuration, Context: in.Context.UserContext()}

	url, err := template.Text(config.URL, scope)
	if err != nil {
		return fmt.Errorf("failed to render URL template: %w", err)
	}

	body, err := template.Text(config.Body, scope)
	if err != nil {
		return fmt.Errorf("failed to render body template: %w", err)
	}

	method := strings.ToUpper(config.Method)
	if method == "" {
		method = http.MethodGet
	}

	perform := func(ctx *tracing.Context) (*Response, error) {
		return n.performWithRetries(ctx, config, method, url, body)
	}

	var response *Response

	if config.Cache {
		response, err = cache.GetOrCreate(c, cache.NewValueKey("response", []string{method, url, body}), perform, in.Context)
	} else {
		response, err = perform(in.Context)
	}

	if err != nil {
		return err
	}

	n.output.Emit(response, in.Context)

	return nil
}

func (n *Node) performWithRetries(ctx *tracing.Context, config Config, method, url, body string) (*Response, error) {
	attempts := max(config.Retries, 0) + 1

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		response, err := n.perform(config, method, url, body)
		if err == nil {
			return response, nil
		}

		lastErr = err
		ctx.Warning(fmt.Sprintf("attempt %d of %s %s failed", attempt, method, url), err.Error())

		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode < http.StatusInternalServerError {
			break
		}
	}

	return nil, fmt.Errorf("%s %s: %w", method, url, lastErr)
}

func (n *Node) perform(config Config, method, url, body string) (*Response, error) {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	response := &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: string(respBody)}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		response.JSON = jsonBody
	}

	return response, nil
}
