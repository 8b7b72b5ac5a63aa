package client

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/protoqsar/protopred-go/pkg/errors"
)

// rawResponse is one successful (2xx) HTTP exchange, before any decoding.
type rawResponse struct {
	status int
	body   []byte
	header http.Header
}

// send issues the POST with retry. Each attempt performs exactly one POST;
// only connection-establishment failures and timeouts are retried, never a
// received HTTP status. Attempt k waits retryDelay * 2^k before the next.
func (c *Client) send(ctx context.Context, p *payload) (*rawResponse, error) {
	var (
		lastErr        error
		lastWasTimeout bool
	)

	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.retryDelay * (1 << uint(attempt-1))
			c.logger.Debugf("retrying in %s (attempt %d/%d)", backoff, attempt+1, c.retryMax+1)
			if c.metrics != nil {
				c.metrics.IncRetry(p.fields["module"])
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		raw, err := c.attempt(ctx, p)
		if err == nil {
			return raw, nil
		}

		var ae *errors.AppError
		if stderrors.As(err, &ae) && !errors.IsTransport(ae.Code) {
			// Terminal: classified HTTP status, scheme-downgrade refusal,
			// or a local failure such as an unreadable upload file.
			return nil, err
		}
		if stderrors.Is(err, context.Canceled) {
			return nil, err
		}
		if stderrors.Is(err, errSchemeDowngrade) {
			return nil, errSchemeDowngrade
		}

		lastErr = err
		lastWasTimeout = isTimeout(err)
		c.logger.Errorf("attempt %d/%d failed: %v", attempt+1, c.retryMax+1, err)
	}

	attempts := c.retryMax + 1
	if lastWasTimeout {
		return nil, errors.Timeout(fmt.Sprintf("request timed out after %d attempts", attempts)).WithCause(lastErr)
	}
	return nil, errors.Network(fmt.Sprintf("connection failed after %d attempts", attempts)).WithCause(lastErr)
}

// attempt performs one POST. File uploads open their handle here and release
// it before the method returns, so the next attempt reopens it fresh.
func (c *Client) attempt(ctx context.Context, p *payload) (*rawResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(attemptCtx, p)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if stderrors.Is(err, errSchemeDowngrade) {
			return nil, errSchemeDowngrade
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debugf("POST %s -> %d, %d bytes (%s)", c.baseURL, resp.StatusCode, len(body), time.Since(start))

	return classifyStatus(resp, body)
}

// classifyStatus maps terminal HTTP statuses onto typed errors. Received
// statuses are never retried.
func classifyStatus(resp *http.Response, body []byte) (*rawResponse, error) {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.Authentication("invalid authentication credentials")
	case resp.StatusCode == http.StatusBadRequest:
		return nil, errors.New(errors.ErrCodeValidation, "request rejected by the API").
			WithDetail(string(body))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.API(resp.StatusCode, string(body))
	}
	return &rawResponse{status: resp.StatusCode, body: body, header: resp.Header}, nil
}

// newRequest builds the attempt's *http.Request for the payload's wire mode.
func (c *Client) newRequest(ctx context.Context, p *payload) (*http.Request, error) {
	switch p.mode {
	case modeForm:
		encoded := p.formValues().Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil

	case modeJSON:
		var buf bytes.Buffer
		if err := encodeJSONBody(&buf, p); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeValidation, "failed to encode request body")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil

	case modeMultipart:
		return c.newMultipartRequest(ctx, p)
	}
	return nil, errors.Validation("unknown transport mode")
}

// newMultipartRequest streams the input file through an io.Pipe so the file
// is never held in memory as a whole. The writer goroutine owns the file
// handle and closes it when the copy finishes or the transport abandons the
// body, which also bounds the handle's lifetime to this attempt.
func (c *Client) newMultipartRequest(ctx context.Context, p *payload) (*http.Request, error) {
	f, err := os.Open(p.filePath)
	if err != nil {
		return nil, errors.File(fmt.Sprintf("cannot open input file %q", p.filePath)).WithCause(err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		var werr error
		defer func() {
			f.Close()
			pw.CloseWithError(werr)
		}()
		for k, v := range p.fields {
			if werr = mw.WriteField(k, v); werr != nil {
				return
			}
		}
		part, perr := mw.CreateFormFile("input_data", filepath.Base(p.filePath))
		if perr != nil {
			werr = perr
			return
		}
		if _, werr = io.Copy(part, f); werr != nil {
			return
		}
		werr = mw.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, pr)
	if err != nil {
		f.Close()
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

// isTimeout distinguishes the timeout flavour of a transport failure from a
// plain connection failure, for terminal error classification.
func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return stderrors.As(err, &ne) && ne.Timeout()
}
