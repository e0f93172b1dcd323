package main

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/trial-research/internal/config"
	"github.com/sells-group/trial-research/internal/enrich"
	"github.com/sells-group/trial-research/internal/metrics"
	"github.com/sells-group/trial-research/internal/provider"
	"github.com/sells-group/trial-research/internal/resilience"
	"github.com/sells-group/trial-research/pkg/apify"
	"github.com/sells-group/trial-research/pkg/google"
	"github.com/sells-group/trial-research/pkg/jina"
)

// fixtureProviderName labels offline calls in breakers, metrics and logs.
const fixtureProviderName = "fixture"

// researchEnv holds the initialized client stack and enricher used by the
// research command.
type researchEnv struct {
	Client   provider.Client
	Enricher *enrich.Enricher
	Metrics  *metrics.Collector
	Breakers *resilience.Breakers
}

// initResearch validates configuration and builds the guarded provider stack.
// Offline mode serves every lookup from a fixture file and needs no
// credentials.
func initResearch(c *config.Config, offline bool, fixturesPath string) (*researchEnv, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	opts, err := enrichOptions(c.Pipeline)
	if err != nil {
		return nil, err
	}

	var (
		client provider.Client
		names  provider.Names
	)
	if offline {
		if fixturesPath == "" {
			return nil, eris.New("research: --offline requires --fixtures")
		}
		fx, err := provider.LoadFixture(fixturesPath)
		if err != nil {
			return nil, err
		}
		client = fx
		names = provider.Names{Listing: fixtureProviderName, Jobs: fixtureProviderName, Page: fixtureProviderName}
		zap.L().Info("research: offline mode", zap.String("fixtures", fixturesPath))
	} else {
		if err := c.ValidateCredentials(); err != nil {
			return nil, err
		}
		client, names = liveClient(c)
	}

	m := metrics.New()
	breakers := resilience.NewBreakers(resilience.BreakerConfig{
		FailureThreshold: c.Provider.BreakerFailures,
		ResetTimeout:     c.Provider.BreakerReset(),
		OnStateChange: func(name string, from, to resilience.CircuitState) {
			zap.L().Warn("provider: circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			m.SetBreakerState(name, int(to))
		},
	})

	guarded := provider.NewGuarded(client, names, provider.GuardConfig{
		Timeout:  c.Provider.Timeout(),
		Breakers: breakers,
		Metrics:  m,
	})

	return &researchEnv{
		Client:   guarded,
		Enricher: enrich.New(guarded, opts),
		Metrics:  m,
		Breakers: breakers,
	}, nil
}

// liveClient wires the configured backends into a Router.
func liveClient(c *config.Config) (provider.Client, provider.Names) {
	var apifyProvider *provider.Apify
	apifyFor := func() *provider.Apify {
		if apifyProvider == nil {
			ac := apify.NewClient(c.Apify.Token,
				apify.WithBaseURL(c.Apify.BaseURL),
				apify.WithRunTimeout(time.Duration(c.Apify.RunTimeout)*time.Second),
			)
			apifyProvider = provider.NewApify(ac, provider.ApifyActors{
				Maps: c.Apify.MapsActor,
				Jobs: c.Apify.JobsActor,
				Page: c.Apify.PageActor,
			})
		}
		return apifyProvider
	}

	router := &provider.Router{}
	names := provider.Names{Listing: c.Provider.Listing, Page: c.Provider.Page}

	switch c.Provider.Listing {
	case config.ProviderGoogle:
		router.Listing = provider.NewGoogle(google.NewClient(c.Google.Key, google.WithBaseURL(c.Google.BaseURL)))
	default:
		router.Listing = apifyFor()
	}

	if c.Pipeline.JobsEnabled {
		router.Jobs = apifyFor()
		names.Jobs = config.ProviderApify
	}

	switch c.Provider.Page {
	case config.ProviderJina:
		router.Page = provider.NewJina(jina.NewClient(c.Jina.Key, jina.WithBaseURL(c.Jina.BaseURL)))
	case config.ProviderApify:
		router.Page = apifyFor()
	}

	zap.L().Info("research: providers configured",
		zap.String("listing", names.Listing),
		zap.String("jobs", names.Jobs),
		zap.String("page", names.Page),
	)
	return router, names
}

func enrichOptions(p config.PipelineConfig) (enrich.Options, error) {
	mode, err := enrich.ParseMode(p.Mode)
	if err != nil {
		return enrich.Options{}, err
	}
	return enrich.Options{
		Mode:                       mode,
		MaxResults:                 p.MaxResults,
		QuerySuffix:                p.QuerySuffix,
		JobsEnabled:                p.JobsEnabled,
		JobsMaxResults:             p.JobsMaxResults,
		PageEnabled:                p.PageEnabled,
		RetierEnabled:              p.RetierEnabled,
		MultiLocationMinCandidates: p.MultiLocationMinCandidates,
	}, nil
}
