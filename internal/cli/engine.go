package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	crosspost "github.com/crosspost-dev/go-crosspost"
	"github.com/crosspost-dev/go-crosspost/internal/config"
	"github.com/crosspost-dev/go-crosspost/pkg/orchestrator"
	tplrenderer "github.com/crosspost-dev/go-crosspost/pkg/renderers/template"
	"github.com/crosspost-dev/go-crosspost/pkg/schema"
	"github.com/crosspost-dev/go-crosspost/pkg/tagconv/sqlite"
)

// loadTable picks the schema source named by the configuration.
func loadTable(ctx context.Context, cfg config.Config) (schema.Table, error) {
	switch {
	case cfg.Schema.OpenAPI != "":
		return crosspost.LoadOpenAPIFile(ctx, cfg.Schema.OpenAPI)
	case cfg.Schema.Dir != "":
		return crosspost.LoadSchemaDir(cfg.Schema.Dir)
	default:
		return crosspost.LoadBuiltinSchema()
	}
}

func (a *app) openStore() (*sqlite.Store, error) {
	if a.cfg.Converters.DSN == "" {
		return nil, errors.New("no converter store configured (set converters.dsn or CROSSPOST_CONVERTERS_DSN)")
	}
	return sqlite.Open(a.cfg.Converters.DSN, sqlite.WithLogger(a.logger))
}

// newOrchestrator wires the engine from the configuration. The returned
// close function releases the converter store.
func (a *app) newOrchestrator(ctx context.Context) (*orchestrator.Orchestrator, func() error, error) {
	table, err := loadTable(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	templates, err := crosspost.NewTemplates(a.cfg.Templates.Dir, tplrenderer.WithLogger(a.logger))
	if err != nil {
		return nil, nil, err
	}

	options := []orchestrator.Option{
		orchestrator.WithTable(table),
		orchestrator.WithTemplates(templates),
		orchestrator.WithLogger(a.logger),
		orchestrator.WithConcurrency(a.cfg.Concurrency),
	}

	if a.cfg.Presets != "" {
		presets, err := orchestrator.NewJSONPresetTransformerFromFS(os.DirFS(filepath.Dir(a.cfg.Presets)), filepath.Base(a.cfg.Presets))
		if err != nil {
			return nil, nil, err
		}
		options = append(options, orchestrator.WithTransformer(presets))
	}

	closeFn := func() error { return nil }
	if a.cfg.Converters.DSN != "" {
		store, err := a.openStore()
		if err != nil {
			return nil, nil, err
		}
		options = append(options, orchestrator.WithSource(store))
		closeFn = store.Close
	}
	return orchestrator.New(options...), closeFn, nil
}
