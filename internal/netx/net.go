// Package netx holds small HTTP helpers shared by collaborators that talk to
// remote hosts.
package netx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrTooLarge is returned by Fetch when the body exceeds the size cap.
var ErrTooLarge = errors.New("remote object too large")

// Object is a downloaded remote resource.
type Object struct {
	Body        []byte
	ContentType string
}

var defaultClient = NewPublicClient(time.Minute)

// Fetch downloads url with GET and returns its body. Bodies larger than
// maxBytes are rejected with ErrTooLarge; maxBytes <= 0 disables the cap.
// A nil client means a client restricted to public addresses.
func Fetch(ctx context.Context, client *http.Client, url string, maxBytes int64) (*Object, error) {
	if client == nil {
		client = defaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}

	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, ErrTooLarge
	}

	var r io.Reader = resp.Body
	if maxBytes > 0 {
		r = io.LimitReader(resp.Body, maxBytes+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(len(body)) > maxBytes {
		return nil, ErrTooLarge
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(body)
	}

	return &Object{Body: body, ContentType: ct}, nil
}
