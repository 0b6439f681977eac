package builder

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"qubot/ui"
	"qubot/utils"
)

// Fetcher returns the rendered markup of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Crawler builds a tree spanning several pages of one site. Pages reached
// through an anchor are attached below that anchor.
type Crawler struct {
	Fetcher Fetcher
	MaxURLs int
}

type pending struct {
	anchor ui.NodeID
	url    string
}

// Crawl fetches start, then follows same-host anchors breadth first until
// MaxURLs pages were visited. Only the start page is required to load.
func (c *Crawler) Crawl(ctx context.Context, start string) (*ui.Tree, error) {
	base, err := url.Parse(start)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start url: %w", err)
	}
	page, err := c.Fetcher.Fetch(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", start, err)
	}
	tree, links, err := build(page)
	if err != nil {
		return nil, err
	}

	visited := []string{normalize(base)}
	var queue []pending
	enqueue := func(from *url.URL, links []link) {
		for _, l := range links {
			if target, ok := resolve(from, l.href); ok && target.Host == base.Host {
				queue = append(queue, pending{anchor: l.node, url: normalize(target)})
			}
		}
	}
	enqueue(base, links)

	for len(queue) > 0 && len(visited) < c.MaxURLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next := queue[0]
		queue = queue[1:]
		if utils.FindIndex(visited, next.url) >= 0 {
			continue
		}
		visited = append(visited, next.url)

		page, err := c.Fetcher.Fetch(ctx, next.url)
		if err != nil {
			log.Warn().Err(err).Msgf("Skipping %s", next.url)
			continue
		}
		links, err := attach(tree, next.anchor, page)
		if err != nil {
			log.Warn().Err(err).Msgf("Skipping %s", next.url)
			continue
		}
		from, _ := url.Parse(next.url)
		enqueue(from, links)
	}

	log.Info().Msgf("Crawled %d pages into %d nodes", len(visited), tree.NodeCount())
	return tree, nil
}

// resolve turns an href into an absolute http(s) url.
func resolve(from *url.URL, href string) (*url.URL, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	target := from.ResolveReference(ref)
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, false
	}
	return target, true
}

func normalize(u *url.URL) string {
	clean := *u
	clean.Fragment = ""
	return clean.String()
}
