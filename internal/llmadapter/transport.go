package llmadapter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oldnordic/odincode/internal/odinerrors"
)

// Transport is the synchronous HTTP boundary every provider adapter
// sends its request bodies through. Separating it from the adapters
// lets tests substitute fakeTransport instead of hitting the network.
type Transport interface {
	// PostJSON sends body and returns the full response body.
	PostJSON(ctx context.Context, url string, headers map[string]string, body string) (string, error)
	// PostStream sends body and invokes onLine for each line of the
	// response as it arrives, returning the full concatenated body once
	// the stream closes.
	PostStream(ctx context.Context, url string, headers map[string]string, body string, onLine func(string)) (string, error)
}

// httpTransport is the real network transport, built on net/http and a
// line scanner rather than an SDK — mirroring the teacher's own
// proxy handlers, which read streaming chat bodies with a plain
// bufio.Scanner over the response body instead of a client library.
type httpTransport struct {
	client *http.Client
}

// NewHTTPTransport builds a transport whose requests (streaming or
// not) are bounded by timeout.
func NewHTTPTransport(timeout time.Duration) Transport {
	return &httpTransport{client: &http.Client{Timeout: timeout}}
}

func (t *httpTransport) do(ctx context.Context, url string, headers map[string]string, body string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return nil, odinerrors.Wrap(odinerrors.KindTransport, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, odinerrors.Wrap(odinerrors.KindTransport, "network error", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, httpStatusError(resp.StatusCode, string(msg))
	}
	return resp, nil
}

func httpStatusError(status int, message string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return odinerrors.New(odinerrors.KindAuthentication, message)
	case http.StatusTooManyRequests:
		return odinerrors.New(odinerrors.KindRateLimited, message)
	default:
		return odinerrors.New(odinerrors.KindTransport, fmt.Sprintf("http %d: %s", status, message))
	}
}

func (t *httpTransport) PostJSON(ctx context.Context, url string, headers map[string]string, body string) (string, error) {
	resp, err := t.do(ctx, url, headers, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", odinerrors.Wrap(odinerrors.KindTransport, "read response body", err)
	}
	return string(data), nil
}

func (t *httpTransport) PostStream(ctx context.Context, url string, headers map[string]string, body string, onLine func(string)) (string, error) {
	resp, err := t.do(ctx, url, headers, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full bytes.Buffer
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		full.WriteString(line)
		full.WriteByte('\n')
		onLine(line)
	}
	if err := scanner.Err(); err != nil {
		return "", odinerrors.Wrap(odinerrors.KindStreaming, "read stream", err)
	}
	return full.String(), nil
}

// fakeTransport is an in-memory Transport for tests: it returns a
// canned response body (and, for PostStream, feeds it line by line to
// onLine) without touching the network.
type fakeTransport struct {
	response string
	err      error
}

func newFakeTransport(response string) *fakeTransport {
	return &fakeTransport{response: response}
}

func (f *fakeTransport) PostJSON(ctx context.Context, url string, headers map[string]string, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeTransport) PostStream(ctx context.Context, url string, headers map[string]string, body string, onLine func(string)) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var full bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewBufferString(f.response))
	for scanner.Scan() {
		line := scanner.Text()
		full.WriteString(line)
		full.WriteByte('\n')
		onLine(line)
	}
	return full.String(), nil
}
