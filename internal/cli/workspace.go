package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/berth-dev/intake/internal/config"
	"github.com/berth-dev/intake/internal/interview"
	"github.com/berth-dev/intake/internal/judge"
	"github.com/berth-dev/intake/internal/log"
	"github.com/berth-dev/intake/internal/observe"
	"github.com/berth-dev/intake/internal/session"
	"github.com/berth-dev/intake/internal/topic"
)

// workspace is everything a command needs from the project directory.
type workspace struct {
	root    string
	cfg     *config.Config
	catalog *topic.Catalog
	store   session.Store
	logger  *log.Logger
}

// openWorkspace loads config and catalog and opens the session store for
// the project at projectDir. Callers must Close it.
func openWorkspace() (*workspace, error) {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project directory: %w", err)
	}

	cfg, err := config.LoadOrDefault(root)
	if err != nil {
		return nil, err
	}

	catalog := topic.Default()
	if path := cfg.CatalogPath(root); path != "" {
		catalog, err = topic.Load(path)
		if err != nil {
			return nil, err
		}
	}

	store, err := session.Open(cfg, root, catalog)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	logger, err := log.NewLogger(root)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &workspace{
		root:    root,
		cfg:     cfg,
		catalog: catalog,
		store:   store,
		logger:  logger,
	}, nil
}

// Close releases the session store.
func (w *workspace) Close() error {
	return w.store.Close()
}

// controller wires the judge backend, detector and evaluator selected by
// the config into an interview controller.
func (w *workspace) controller(ctx context.Context) (*interview.Controller, error) {
	client, err := judge.New(ctx, w.cfg.Judge)
	if err != nil {
		return nil, err
	}
	metrics := observe.DefaultMetrics()

	var detector interview.Detector = interview.KeywordDetector{}
	if w.cfg.Detector.Strategy == config.StrategyJudge {
		detector, err = interview.NewJudgeDetector(client, interview.JudgeDetectorConfig{
			Temperature: w.cfg.Judge.ClassifyTemperature,
			CacheSize:   w.cfg.Detector.CacheSize,
			Timeout:     w.cfg.JudgeTimeout(),
			Metrics:     metrics,
			OnFailure: func(err error) {
				_ = w.logger.Append(log.LogEvent{
					Event: log.EventJudgeFailed,
					Error: err.Error(),
					Data:  map[string]interface{}{"purpose": observe.PurposeClassify},
				})
			},
		})
		if err != nil {
			return nil, err
		}
	}

	evaluator := interview.NewEvaluator(
		&interview.LLMJudge{Client: client, Temperature: w.cfg.Judge.Temperature},
		w.cfg.JudgeTimeout(),
		metrics,
	)

	return interview.NewController(w.catalog, detector, evaluator,
		interview.WithStore(w.store),
		interview.WithLogger(w.logger),
		interview.WithMetrics(metrics),
	), nil
}

// loadSession returns the saved session, or an error naming the next step
// when there is none.
func (w *workspace) loadSession(ctx context.Context) (*interview.Session, error) {
	s, err := w.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if s == nil {
		return nil, fmt.Errorf("no saved interview found; start one with: intake run")
	}
	return s, nil
}
