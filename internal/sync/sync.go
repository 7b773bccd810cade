// Package sync replicates configuration to a WebDAV-style endpoint. The
// remote holds the same export envelope the import/export commands use;
// conflicts resolve last-write-wins on per-entity modification stamps.
package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/wookiisky/think-bot/internal/config"
	"github.com/wookiisky/think-bot/internal/errors"
	"github.com/wookiisky/think-bot/internal/logger"
)

// remoteFile is the object name stored on the endpoint.
const remoteFile = "thinkbot-config.json"

const requestTimeout = 30 * time.Second

// Result summarizes a completed sync cycle.
type Result struct {
	Downloaded bool // remote had an envelope to merge
	Merged     bool // the merge changed local config
	Uploaded   bool
	CleanedUp  int // soft-deleted entries physically removed
}

// Client performs config sync against one endpoint. At most one cycle runs
// at a time; a cycle requested while another is in flight is dropped.
type Client struct {
	http *http.Client

	mu       sync.Mutex
	inFlight bool
}

func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: requestTimeout}}
}

func (c *Client) url(settings config.SyncConfig) string {
	endpoint := settings.Endpoint
	if endpoint == "" {
		return ""
	}
	if endpoint[len(endpoint)-1] != '/' {
		endpoint += "/"
	}
	return endpoint + remoteFile
}

func (c *Client) newRequest(ctx context.Context, method, url string, settings config.SyncConfig, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if settings.Username != "" {
		req.SetBasicAuth(settings.Username, settings.Password)
	}
	return req, nil
}

// TestConnection checks that the endpoint is reachable and the credentials
// are accepted. A missing remote file still counts as success.
func (c *Client) TestConnection(ctx context.Context, settings config.SyncConfig) error {
	url := c.url(settings)
	if url == "" {
		return errors.E(errors.Op("sync.TestConnection"), errors.KindInvalid, "sync endpoint is not configured")
	}

	req, err := c.newRequest(ctx, http.MethodHead, url, settings, nil)
	if err != nil {
		return errors.SyncConnectionFailed(settings.Endpoint, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.SyncConnectionFailed(settings.Endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.E(errors.Op("sync.TestConnection"), errors.KindPermission,
			fmt.Sprintf("endpoint rejected credentials (%d)", resp.StatusCode))
	case resp.StatusCode >= 500:
		return errors.SyncConnectionFailed(settings.Endpoint, fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// download fetches the remote envelope. A 404 returns (nil, nil): nothing to
// merge yet.
func (c *Client) download(ctx context.Context, settings config.SyncConfig) (*config.ImportResult, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.url(settings), settings, nil)
	if err != nil {
		return nil, errors.SyncConnectionFailed(settings.Endpoint, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.SyncConnectionFailed(settings.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		logger.Debug("Sync: No remote config yet")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.E(errors.Op("sync.Download"), errors.KindSync,
			fmt.Sprintf("download failed with status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, errors.E(errors.Op("sync.Download"), errors.KindSync, err)
	}
	return config.ParseImport(data)
}

// upload writes the local envelope to the endpoint.
func (c *Client) upload(ctx context.Context, settings config.SyncConfig, cfg *config.Config) error {
	data, err := cfg.Export("sync")
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPut, c.url(settings), settings, bytes.NewReader(data))
	if err != nil {
		return errors.SyncConnectionFailed(settings.Endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.SyncConnectionFailed(settings.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return errors.E(errors.Op("sync.Upload"), errors.KindSync,
			fmt.Sprintf("upload failed with status %d", resp.StatusCode))
	}
	return nil
}

// Run executes one full sync cycle: download, merge last-write-wins, upload
// the merged state, then hard-remove soft-deleted entries. Returns
// SyncInFlight when a cycle is already running.
func (c *Client) Run(ctx context.Context, cfg *config.Config) (Result, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		logger.Info("Sync: Dropping request, a cycle is already in flight")
		return Result{}, errors.SyncInFlight()
	}
	c.inFlight = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	settings := cfg.GetBasic().Sync
	if !settings.Enabled {
		return Result{}, errors.E(errors.Op("sync.Run"), errors.KindInvalid, "sync is disabled")
	}
	if c.url(settings) == "" {
		return Result{}, errors.E(errors.Op("sync.Run"), errors.KindInvalid, "sync endpoint is not configured")
	}

	log := logger.ComponentLogger("Sync")

	var res Result

	remote, err := c.download(ctx, settings)
	if err != nil {
		return res, err
	}
	if remote != nil {
		res.Downloaded = true
		res.Merged = cfg.Merge(remote)
		if res.Merged {
			log.Info("Remote changes merged into local config")
		}
	}

	if err := c.upload(ctx, settings, cfg); err != nil {
		return res, err
	}
	res.Uploaded = true

	// The round-trip is confirmed: tombstones have propagated, so the
	// soft-deleted entries can go for real.
	res.CleanedUp = cfg.CleanupDeleted()
	if res.CleanedUp > 0 {
		log.Info("Removed soft-deleted entries after confirmed sync", "count", res.CleanedUp)
	}

	if err := cfg.Save(); err != nil {
		return res, err
	}
	log.Debug("Cycle complete",
		"downloaded", res.Downloaded, "merged", res.Merged,
		"uploaded", res.Uploaded, "cleaned", res.CleanedUp)
	return res, nil
}

// InFlight reports whether a cycle is currently running.
func (c *Client) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}
