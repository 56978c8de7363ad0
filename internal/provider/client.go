package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hero-tracker/internal/config"
	"hero-tracker/internal/constants"
	"hero-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"
)

// Client talks to the external statistics provider. The provider is
// treated as hostile input: every response shape goes through the
// adapter chain in adapters.go before it becomes a domain.Hero.
type Client struct {
	baseURL string
	client  *fasthttp.Client
	logger  zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.ProviderBaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ProviderTimeout,
			WriteTimeout:        constants.ProviderTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

// FetchAll pulls the full roster, trying each parsing strategy in
// priority order and stopping at the first that yields records. A
// zero-length result signals a failed refresh to the caller.
func (c *Client) FetchAll(ctx context.Context) []domain.Hero {
	primary, err := c.get(ctx, c.baseURL+"/api/heroes/")
	if err != nil {
		c.logger.Warn().Err(err).Msg("primary hero endpoint unreachable")
	}

	var secondary []byte
	fetchSecondary := func() []byte {
		if secondary != nil {
			return secondary
		}
		body, err := c.get(ctx, c.baseURL+"/api/hero-list/")
		if err != nil {
			c.logger.Warn().Err(err).Msg("secondary hero endpoint unreachable")
			return nil
		}
		secondary = body
		return secondary
	}

	for _, a := range adapterChain {
		var body []byte
		switch a.source {
		case sourcePrimary:
			body = primary
		case sourceSecondary:
			body = fetchSecondary()
		}
		if len(body) == 0 {
			continue
		}

		heroes := a.parse(body)
		if len(heroes) == 0 {
			c.logger.Debug().Str("adapter", a.name).Msg("adapter yielded no heroes, falling through")
			continue
		}

		deduped := dedupe(heroes)
		c.logger.Info().
			Str("adapter", a.name).
			Int("parsed", len(heroes)).
			Int("unique", len(deduped)).
			Msg("hero roster fetched")
		return deduped
	}

	c.logger.Error().Msg("all parsing strategies exhausted, no heroes fetched")
	return nil
}

// FetchDetail loads the extended record for one hero. The slug is
// resolved against the already-loaded roster; an unknown slug yields
// an empty fragment, never an error. The three sub-fetches run
// independently so a slow or failing one degrades to an empty field.
func (c *Client) FetchDetail(ctx context.Context, slug string, known []domain.Hero) domain.HeroDetail {
	id, ok := resolveID(slug, known)
	if !ok {
		c.logger.Debug().Str("slug", slug).Msg("slug did not resolve to a known hero")
		return emptyDetail()
	}

	detail := emptyDetail()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		body, err := c.get(gctx, fmt.Sprintf("%s/api/hero-detail/%s/", c.baseURL, id))
		if err != nil {
			c.logger.Debug().Err(err).Str("hero_id", id).Msg("detail sub-fetch failed")
			return nil
		}
		detail.Summary, detail.Specialty = parseDetail(body)
		return nil
	})
	g.Go(func() error {
		body, err := c.get(gctx, fmt.Sprintf("%s/api/hero-counter/%s/", c.baseURL, id))
		if err != nil {
			c.logger.Debug().Err(err).Str("hero_id", id).Msg("counter sub-fetch failed")
			return nil
		}
		detail.Counters = parseNameList(body)
		return nil
	})
	g.Go(func() error {
		body, err := c.get(gctx, fmt.Sprintf("%s/api/hero-compatibility/%s/", c.baseURL, id))
		if err != nil {
			c.logger.Debug().Err(err).Str("hero_id", id).Msg("compatibility sub-fetch failed")
			return nil
		}
		detail.Compatibilities = parseNameList(body)
		return nil
	})
	_ = g.Wait()

	return detail
}

func emptyDetail() domain.HeroDetail {
	return domain.HeroDetail{Counters: []string{}, Compatibilities: []string{}}
}

// resolveID maps a human slug to the provider's internal identifier
// using the loaded roster. Hyphens are treated as spaces so
// "yu-zhong" matches "Yu Zhong".
func resolveID(slug string, known []domain.Hero) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(slug))
	spaced := strings.ReplaceAll(needle, "-", " ")
	for _, h := range known {
		name := strings.ToLower(h.Name)
		if name == needle || name == spaced || strings.ToLower(h.ID) == needle {
			if h.ID != "" {
				return h.ID, true
			}
			return h.Name, true
		}
	}
	return "", false
}

func dedupe(heroes []domain.Hero) []domain.Hero {
	seen := make(map[string]bool, len(heroes))
	out := make([]domain.Hero, 0, len(heroes))
	for _, h := range heroes {
		key := h.Identity()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.ProviderTimeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("provider error: %d", resp.StatusCode())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}
