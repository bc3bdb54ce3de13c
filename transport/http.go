package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"fluxstate/apperrors"
)

// HTTPConfig configures NewHTTPBaseQuery, the default transport spec §4.6
// assumes when an endpoint set declares none of its own.
type HTTPConfig struct {
	BaseURL        string
	Client         *http.Client
	PrepareHeaders func(headers http.Header) http.Header
}

// NewHTTPBaseQuery builds a BaseQuery[S] that issues args as an
// *http.Request against cfg.BaseURL, decoding a JSON response body into
// Result.Data. PrepareHeaders runs on every request, the hook RTK Query's
// fetchBaseQuery exposes for attaching auth headers.
func NewHTTPBaseQuery[S any](cfg HTTPConfig) BaseQuery[S] {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context, args Args, extra Extra[S]) (Result, error) {
		reqURL, err := buildURL(cfg.BaseURL, args.Path, args.Query)
		if err != nil {
			return Result{}, &QueryError{Err: apperrors.BaseQuery("build request URL", err)}
		}

		var bodyReader io.Reader
		if args.Body != nil {
			encoded, err := json.Marshal(args.Body)
			if err != nil {
				return Result{}, &QueryError{Err: apperrors.BaseQuery("encode request body", err)}
			}
			bodyReader = bytes.NewReader(encoded)
		}

		method := args.Method
		if method == "" {
			method = http.MethodGet
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return Result{}, &QueryError{Err: apperrors.BaseQuery("build request", err)}
		}
		if bodyReader != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range args.Headers {
			req.Header.Set(k, v)
		}
		if cfg.PrepareHeaders != nil {
			req.Header = cfg.PrepareHeaders(req.Header)
		}

		resp, err := client.Do(req)
		if err != nil {
			return Result{}, &QueryError{Err: apperrors.BaseQuery("execute request", err)}
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return Result{}, &QueryError{
				StatusCode: resp.StatusCode,
				Err:        apperrors.BaseQuery("read response body", err),
			}
		}

		var data any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &data); err != nil {
				data = string(raw)
			}
		}

		if resp.StatusCode >= 400 {
			return Result{}, &QueryError{
				StatusCode: resp.StatusCode,
				Data:       data,
				Err:        fmt.Errorf("base query: unexpected status %d", resp.StatusCode),
			}
		}

		return Result{Data: data, StatusCode: resp.StatusCode}, nil
	}
}

func buildURL(base, path string, query map[string]string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
