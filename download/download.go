// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

// Package download fetches update payloads over HTTP, spooling them to
// disk under a quarantine name until their size and digest check out.
package download

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/coreos/pkg/capnslog"

	"github.com/flatcar/ue-go/update"
	"github.com/flatcar/ue-go/util"
)

var plog = capnslog.NewPackageLogger("github.com/flatcar/ue-go", "download")

const (
	// UnverifiedSuffix marks spool files whose contents have not passed
	// the size and digest checks yet. A crash leaves the suffix in place
	// so a half-written payload is never mistaken for a verified one.
	UnverifiedSuffix = ".unverified"

	defaultRetries    = 3
	defaultRetryDelay = 5 * time.Second
)

// httpStatusError is a response with a non-200 status. Client errors are
// not retried, server errors are.
type httpStatusError struct {
	Status string
	Code   int
}

func (e *httpStatusError) Error() string {
	return "server returned " + e.Status
}

// Client downloads payloads. The zero value uses http.DefaultClient and
// the default retry policy and verifies nothing; pin ExpectedSize and
// ExpectedSHA256 from the update check whenever they are known.
type Client struct {
	// ExpectedSize rejects downloads of any other length when non-zero.
	ExpectedSize int64

	// ExpectedSHA256 rejects downloads with any other digest when set.
	ExpectedSHA256 []byte

	// Retries is the number of attempts per fetch, 0 meaning the default.
	Retries int

	// RetryDelay is the pause between attempts, 0 meaning the default.
	RetryDelay time.Duration

	// HTTPClient overrides http.DefaultClient when set.
	HTTPClient *http.Client
}

func (c *Client) retries() int {
	if c.Retries <= 0 {
		return defaultRetries
	}
	return c.Retries
}

func (c *Client) retryDelay() time.Duration {
	if c.RetryDelay <= 0 {
		return defaultRetryDelay
	}
	return c.RetryDelay
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

// Fetch downloads url to dest. The payload streams into dest plus
// UnverifiedSuffix and is renamed only after the pinned size and digest
// match; a mismatch removes the spool file and returns a SecurityError.
// Transient failures are retried, 4xx responses and rejected payloads
// are not.
func (c *Client) Fetch(ctx context.Context, url, dest string) error {
	return util.RetryConditional(c.retries(), c.retryDelay(), shouldRetry, func() error {
		return c.fetchOnce(ctx, url, dest)
	})
}

func shouldRetry(err error) bool {
	var herr *httpStatusError
	if errors.As(err, &herr) {
		return herr.Code >= 500
	}
	var serr *update.SecurityError
	if errors.As(err, &serr) {
		return false
	}
	return ctxAlive(err)
}

func ctxAlive(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &httpStatusError{Status: resp.Status, Code: resp.StatusCode}
	}

	spool := dest + UnverifiedSuffix
	f, err := os.Create(spool)
	if err != nil {
		return err
	}
	defer f.Close()

	plog.Infof("downloading %s to %s", url, spool)
	digest := sha256.New()
	n, err := util.CopyProgress(capnslog.INFO, path.Base(dest),
		io.MultiWriter(f, digest), resp.Body, resp.ContentLength)
	if err != nil {
		os.Remove(spool)
		return err
	}

	if err := c.checkPinned(n, digest.Sum(nil)); err != nil {
		os.Remove(spool)
		return err
	}

	if err := f.Sync(); err != nil {
		return err
	}
	return os.Rename(spool, dest)
}

func (c *Client) checkPinned(size int64, sum []byte) error {
	if c.ExpectedSize != 0 && size != c.ExpectedSize {
		return &update.SecurityError{Msg: fmt.Sprintf(
			"downloaded %d bytes, update check promised %d", size, c.ExpectedSize)}
	}
	if c.ExpectedSHA256 != nil && !hmac.Equal(sum, c.ExpectedSHA256) {
		return &update.SecurityError{Msg: fmt.Sprintf(
			"downloaded payload hash %s does not match pinned hash %s",
			hex.EncodeToString(sum), hex.EncodeToString(c.ExpectedSHA256))}
	}
	return nil
}

// FetchSigned downloads url and url + ".sig" and verifies the detached
// PGP signature before reporting success. The signature file is left
// next to dest for the caller to keep or remove.
func (c *Client) FetchSigned(ctx context.Context, url, dest, keyFile string) error {
	if err := c.Fetch(ctx, url, dest); err != nil {
		return err
	}
	sigClient := Client{
		Retries:    c.Retries,
		RetryDelay: c.RetryDelay,
		HTTPClient: c.HTTPClient,
	}
	if err := sigClient.Fetch(ctx, url+".sig", dest+".sig"); err != nil {
		return err
	}
	if err := VerifyFile(dest, keyFile); err != nil {
		os.Remove(dest)
		return &update.SecurityError{Msg: err.Error()}
	}
	return nil
}
