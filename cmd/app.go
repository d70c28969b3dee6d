package cmd

import (
	"context"
	"os"
	"time"

	"equipflow/sei/internal/autopilot"
	"equipflow/sei/internal/classify"
	"equipflow/sei/internal/config"
	"equipflow/sei/internal/content"
	"equipflow/sei/internal/db"
	"equipflow/sei/internal/decision"
	"equipflow/sei/internal/feedback"
	"equipflow/sei/internal/intel"
	"equipflow/sei/internal/linking"
	"equipflow/sei/internal/logger"
	"equipflow/sei/internal/maintenance"
	"equipflow/sei/internal/media"
	"equipflow/sei/internal/publish"
	"equipflow/sei/internal/reasoning"
	"equipflow/sei/internal/session"
	"equipflow/sei/internal/sitemap"
)

const (
	defaultConfigFile = "sei.yaml"
	httpTimeout       = 60 * time.Second
)

// app holds the process-wide state one command needs: config, registry,
// logger and the batch session.
type app struct {
	cfg  *config.Config
	db   *db.DB
	log  *logger.Logger
	sess *session.Session
}

// openApp loads configuration, opens the registry and starts a session.
func openApp() (*app, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	log := logger.NewLogger(cfg.Logging.Level)

	d, err := db.OpenDB(DiscoverDB(cfg.Database.Path))
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:  cfg,
		db:   d,
		log:  log,
		sess: session.New(cfg.Publish.BreakerThreshold, cfg.Budget.Limits, d),
	}, nil
}

func (a *app) Close() error { return a.db.Close() }

func (a *app) backend() reasoning.Backend {
	r := a.cfg.Reasoning
	if r.Backend == "api" {
		return reasoning.NewMessagesAPI(r.APIURL, r.APIKey, r.Model, r.Timeout)
	}
	return &reasoning.ClaudeCLI{Binary: r.Binary, Model: r.Model, Timeout: r.Timeout}
}

func (a *app) gatherer() *intel.Gatherer {
	ic := a.cfg.Intel
	var (
		search intel.Searcher
		scrape intel.Scraper
	)
	if ic.FirecrawlKey != "" {
		fc := intel.NewFirecrawl(ic.FirecrawlURL, ic.FirecrawlKey, httpTimeout)
		search, scrape = fc, fc
	}
	if ic.Scraper == "local" {
		scrape = intel.NewPageScraper("")
	}
	var lang *intel.LanguageFilter
	if ic.EnglishOnly {
		lang = intel.NewLanguageFilter()
	}
	return intel.NewGatherer(search, scrape, lang, a.sess, ic, a.log)
}

func (a *app) classifier() *classify.Classifier {
	return classify.New(a.backend(), a.sess, a.log)
}

func (a *app) decider() *decision.Engine {
	return decision.NewEngine(a.db, a.log)
}

func (a *app) pipeline() *content.Pipeline {
	return content.NewPipeline(a.db, a.backend(), a.gatherer(), a.sess, a.cfg, a.log)
}

func (a *app) linker() *linking.Engine {
	return linking.NewEngine(a.db, a.cfg.Linking, a.log)
}

func (a *app) webflow() *publish.Webflow {
	p := a.cfg.Publish
	return publish.NewWebflow(p.APIURL, p.Token, p.CollectionID, httpTimeout)
}

func (a *app) indexNow() *publish.IndexNow {
	in := a.cfg.IndexNow
	return publish.NewIndexNow(in.Endpoint, a.cfg.Site.Domain, in.Key, in.KeyLocation, httpTimeout)
}

func (a *app) publisher() *publish.Publisher {
	return publish.NewPublisher(a.db, a.webflow(), a.indexNow(), a.sess, a.cfg, a.log)
}

func (a *app) attacher() *media.Attacher {
	ic := a.cfg.Images
	gen := media.NewOpenAIImages(ic.APIURL, ic.APIKey, ic.Model, ic.Size, 2*httpTimeout)
	var store media.Store
	if ic.Dir != "" {
		store = media.NewLocalStore(ic.Dir, ic.PublicURL, httpTimeout)
	}
	return media.NewAttacher(a.db, gen, store, a.sess, a.cfg.Site.Brand, a.log)
}

func (a *app) sitemap() *sitemap.Generator {
	return sitemap.NewGenerator(a.db, a.cfg.Site, a.cfg.Sitemap.Path, a.log)
}

func (a *app) scheduler() *maintenance.Scheduler {
	var linker maintenance.Linker
	if a.cfg.Linking.Enabled {
		linker = a.linker()
	}
	return maintenance.NewScheduler(a.db, a.pipeline(), linker, a.publisher(), a.sitemap(), a.cfg.Maintenance, a.log)
}

func (a *app) runner() *autopilot.Runner {
	stages := autopilot.Stages{
		Classifier: a.classifier(),
		Decider:    a.decider(),
		Generator:  a.pipeline(),
		Sitemap:    a.sitemap(),
	}
	if a.cfg.Images.Enabled {
		stages.Images = a.attacher()
	}
	if a.cfg.Linking.Enabled {
		stages.Linker = a.linker()
	}
	if a.cfg.Publish.Enabled {
		stages.Publisher = a.publisher()
	}
	return autopilot.New(a.db, stages, a.sess, a.cfg.Autopilot, a.log)
}

// feedback connects to the search console. A missing credentials file or
// site URL returns failure.ErrNotConfigured.
func (a *app) feedback(ctx context.Context) (*feedback.Service, error) {
	sc := a.cfg.SearchConsole
	src, err := feedback.NewSearchConsole(ctx, sc.CredentialsFile, sc.SiteURL)
	if err != nil {
		return nil, err
	}
	return feedback.NewService(a.db, src, a.cfg, a.log), nil
}
