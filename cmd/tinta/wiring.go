package main

import (
	"github.com/charmbracelet/log"

	"tinta/internal/classifier"
	"tinta/internal/config"
	"tinta/internal/fetch"
	"tinta/mapping"
)

// newFetchClient wires the page loader from configuration. The returned
// cleanup releases the headless-browser allocator when rendering is on.
func newFetchClient(cfg *config.Config, logger *log.Logger) (*fetch.Client, func()) {
	fcfg := fetch.Config{
		UserAgent:      cfg.Fetch.UserAgent,
		Timeout:        cfg.Fetch.Timeout,
		AssetTimeout:   cfg.Fetch.AssetTimeout,
		MaxSheets:      cfg.Fetch.MaxSheets,
		MaxImportDepth: cfg.Fetch.ImportDepth,
		Branding:       cfg.Fetch.Branding,
		Logger:         logger,
	}
	if cfg.Cache.Dir != "" {
		cache, err := fetch.NewCache(cfg.Cache.Dir, cfg.Cache.MaxBytes)
		if err != nil {
			logger.Warn("stylesheet cache disabled", "dir", cfg.Cache.Dir, "err", err)
		} else {
			fcfg.Cache = cache
		}
	}
	cleanup := func() {}
	if cfg.Fetch.Render {
		r := fetch.NewRenderer(logger)
		fcfg.Renderer = r
		cleanup = r.Close
	}
	return fetch.New(fcfg), cleanup
}

// newClassifier builds the remote classifier, or nil when no endpoint
// is configured.
func newClassifier(cfg *config.Config, logger *log.Logger) mapping.Classifier {
	if cfg.Classifier.Endpoint == "" {
		return nil
	}
	return classifier.New(cfg.Classifier.Endpoint,
		classifier.WithModel(cfg.Classifier.Model),
		classifier.WithAPIKey(cfg.Classifier.APIKey),
		classifier.WithTimeout(cfg.Classifier.Timeout),
		classifier.WithLogger(logger),
	)
}

// loadPrompts reads a prompt override file, or returns nil to keep the
// builtin prompts.
func loadPrompts(path string, logger *log.Logger) *mapping.PromptConfig {
	if path == "" {
		return nil
	}
	p, err := mapping.LoadPrompts(path)
	if err != nil {
		logger.Warn("prompt override ignored", "path", path, "err", err)
		return nil
	}
	return &p
}
