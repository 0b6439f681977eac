// Package driver renders pages in a Chrome instance driven over the DevTools
// protocol.
package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"qubot/utils"
)

type Config struct {
	RemoteURL  string // Connect to this DevTools endpoint instead of launching
	Headless   bool
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Retries <= 0 {
		c.Retries = 1
	}
}

// Driver fetches rendered markup. The browser starts on the first fetch.
type Driver struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

func New(cfg Config) *Driver {
	cfg.defaults()
	return &Driver{cfg: cfg}
}

// Fetch opens url in a new tab and returns the document's outer HTML once
// loaded. Failed attempts are retried.
func (d *Driver) Fetch(ctx context.Context, url string) (string, error) {
	var page string
	err := utils.Retry(ctx, d.cfg.Retries, d.cfg.RetryDelay, func(ctx context.Context) error {
		var err error
		page, err = d.fetch(ctx, url)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	return page, nil
}

func (d *Driver) fetch(ctx context.Context, url string) (string, error) {
	b, err := d.connect()
	if err != nil {
		return "", err
	}

	tab, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return "", fmt.Errorf("failed to open tab: %w", err)
	}
	defer tab.Close()

	navCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	if err := tab.Context(navCtx).Navigate(url); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}
	if err := tab.Context(navCtx).WaitLoad(); err != nil {
		return "", fmt.Errorf("failed to wait for load: %w", err)
	}
	res, err := tab.Context(navCtx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("failed to read DOM: %w", err)
	}
	return res.Value.Str(), nil
}

func (d *Driver) connect() (*rod.Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser != nil {
		return d.browser, nil
	}

	wsURL := d.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(d.cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		d.lnch = l
		wsURL = u
	}
	log.Info().Msgf("Connecting to browser at %s", wsURL)

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		d.cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	d.browser = b
	return b, nil
}

// Close shuts the browser down and removes the launcher's profile.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cleanup()
}

func (d *Driver) cleanup() error {
	var err error
	if d.browser != nil {
		err = d.browser.Close()
		d.browser = nil
	}
	if d.lnch != nil {
		d.lnch.Cleanup()
		d.lnch = nil
	}
	return err
}
