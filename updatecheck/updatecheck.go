// Copyright The Flatcar Maintainers
// SPDX-License-Identifier: Apache-2.0

// Package updatecheck asks an omaha server whether an update payload is
// available and where to fetch it from.
package updatecheck

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/coreos/go-omaha/omaha"
	"github.com/coreos/go-semver/semver"
	"github.com/coreos/pkg/capnslog"
)

var plog = capnslog.NewPackageLogger("github.com/flatcar/ue-go", "updatecheck")

const (
	// DefaultServer is the public Flatcar update endpoint.
	DefaultServer = "https://public.update.flatcar-linux.net/v1/update/"

	// DefaultAppID identifies Flatcar Container Linux to omaha servers.
	DefaultAppID = "e96281a6-d1af-4bde-9a0a-97b76e56dc57"

	// DefaultTrack is the release group reported when none is configured.
	DefaultTrack = "stable"
)

// ErrNoUpdate is returned by Check when the server answers the update
// check with "noupdate". It is a normal outcome, not a failure.
var ErrNoUpdate = errors.New("no update available")

// Package describes one downloadable payload from an update response.
type Package struct {
	// URL is the full download location, codebase joined with file name.
	URL string

	// Name is the payload file name within the codebase.
	Name string

	// Version is the version the server is offering.
	Version string

	// Size is the payload size in bytes, zero if the server omitted it.
	Size uint64

	// SHA256 is the decoded payload digest, nil if the server sent none.
	// Servers disagree on where it lives (package attribute or postinstall
	// action) and how it is encoded, both are handled.
	SHA256 []byte
}

// Client performs update checks against one omaha server. The zero
// value is not usable; fill in at least Version, other fields fall back
// to the Flatcar defaults.
type Client struct {
	// Server is the omaha endpoint URL.
	Server string

	// AppID identifies the product being updated.
	AppID string

	// Version is the currently running version, a valid semver.
	Version string

	// Track is the release group to check against.
	Track string

	// MachineID and BootID are opaque identifiers echoed to the server.
	MachineID string
	BootID    string

	// OEM is reported to the server when set.
	OEM string

	// HTTPClient overrides http.DefaultClient when set.
	HTTPClient *http.Client
}

func (c *Client) server() string {
	if c.Server == "" {
		return DefaultServer
	}
	return c.Server
}

func (c *Client) appID() string {
	if c.AppID == "" {
		return DefaultAppID
	}
	return c.AppID
}

func (c *Client) track() string {
	if c.Track == "" {
		return DefaultTrack
	}
	return c.Track
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

// Check sends one update check and returns the offered package, or
// ErrNoUpdate when the server has nothing newer.
func (c *Client) Check(ctx context.Context) (*Package, error) {
	if _, err := semver.NewVersion(c.Version); err != nil {
		return nil, fmt.Errorf("invalid version %q: %v", c.Version, err)
	}

	req := omaha.NewRequest()
	app := req.AddApp(c.appID(), c.Version)
	app.Track = c.track()
	app.MachineID = c.MachineID
	app.BootID = c.BootID
	app.OEM = c.OEM
	app.AddUpdateCheck()

	body, err := xml.Marshal(req)
	if err != nil {
		return nil, err
	}

	plog.Infof("checking %s for updates to %s on track %s", c.server(), c.Version, c.track())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "text/xml")

	httpResp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, httpResp.Body)
		return nil, fmt.Errorf("update check: server returned %s", httpResp.Status)
	}

	resp := &omaha.Response{}
	if err := xml.NewDecoder(httpResp.Body).Decode(resp); err != nil {
		return nil, fmt.Errorf("update check: undecodable response: %v", err)
	}
	return pickPackage(resp, c.appID())
}

// pickPackage extracts the first offered package for the given app from
// an update response.
func pickPackage(resp *omaha.Response, appID string) (*Package, error) {
	var app *omaha.AppResponse
	for _, a := range resp.Apps {
		if a.ID == appID {
			app = a
			break
		}
	}
	if app == nil {
		return nil, fmt.Errorf("update check: response does not mention app %s", appID)
	}
	uc := app.UpdateCheck
	if uc == nil {
		return nil, fmt.Errorf("update check: response carries no updatecheck")
	}
	switch string(uc.Status) {
	case "ok":
	case "noupdate":
		return nil, ErrNoUpdate
	default:
		return nil, fmt.Errorf("update check: status %q", uc.Status)
	}

	if len(uc.URLs) == 0 || uc.Manifest == nil || len(uc.Manifest.Packages) == 0 {
		return nil, fmt.Errorf("update check: ok response without a package")
	}
	srvPkg := uc.Manifest.Packages[0]

	full, err := url.JoinPath(uc.URLs[0].CodeBase, srvPkg.Name)
	if err != nil {
		return nil, fmt.Errorf("update check: bad codebase %q: %v", uc.URLs[0].CodeBase, err)
	}

	pkg := &Package{
		URL:     full,
		Name:    srvPkg.Name,
		Version: uc.Manifest.Version,
		Size:    srvPkg.Size,
	}

	// The payload digest may arrive as the package's hash_sha256
	// attribute or, from older servers, on the postinstall action.
	digest := srvPkg.SHA256
	if digest == "" {
		for _, action := range uc.Manifest.Actions {
			if action.Event == "postinstall" && action.SHA256 != "" {
				digest = action.SHA256
				break
			}
		}
	}
	if digest != "" {
		if pkg.SHA256, err = decodeSHA256(digest); err != nil {
			return nil, fmt.Errorf("update check: %v", err)
		}
	}

	plog.Infof("server offers %s (%d bytes) at %s", pkg.Version, pkg.Size, pkg.URL)
	return pkg, nil
}

// decodeSHA256 accepts both encodings seen in the wild: hex from
// nebraska-style servers and base64 from update_engine-style actions.
func decodeSHA256(s string) ([]byte, error) {
	if b, err := hex.DecodeString(s); err == nil && len(b) == 32 {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil && len(b) == 32 {
		return b, nil
	}
	return nil, fmt.Errorf("undecodable sha256 %q", s)
}
