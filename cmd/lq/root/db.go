package root

import (
	"context"

	"github.com/robert-crandall/journal-app/internal/config"
	"github.com/robert-crandall/journal-app/internal/engine"
	"github.com/robert-crandall/journal-app/internal/llm"
	"github.com/robert-crandall/journal-app/internal/storage"
)

// openService wires config, database, analyzer and engine together and
// resolves the implicit local user.
func openService(ctx context.Context) (*engine.Service, *storage.User, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		_ = db.Close()
	}

	analyzer := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, nil)
	svc := engine.NewService(db, analyzer, engine.LevelCurve{Base: cfg.LevelBase})

	user, err := svc.UserRepo().GetOrCreateDefault(ctx)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return svc, user, cleanup, nil
}
