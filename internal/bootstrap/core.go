package bootstrap

import (
	"github.com/arketic/taskmine/internal/pkg/config"
	"github.com/arketic/taskmine/internal/repository"
	"github.com/arketic/taskmine/internal/service"
)

// Core 持有跨二进制共享的核心依赖
type Core struct {
	Cfg *config.Config
	DB  *repository.Database

	Repos struct {
		Event   *repository.EventRepository
		Usage   *repository.UsageRepository
		File    *repository.FileEventRepository
		Browser *repository.BrowserVisitRepository
	}

	Services struct {
		Analyzer *service.AnalyzerService
		Report   *service.ReportService
	}
}

// NewCore 构建核心依赖（不启动采集）
func NewCore(cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	config.SetupLogger(cfg.App.LogLevel)

	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	c := &Core{Cfg: cfg, DB: db}

	c.Repos.Event = repository.NewEventRepository(db.DB)
	c.Repos.Usage = repository.NewUsageRepository(db.DB)
	c.Repos.File = repository.NewFileEventRepository(db.DB)
	c.Repos.Browser = repository.NewBrowserVisitRepository(db.DB)

	c.Services.Analyzer = service.NewAnalyzerService(
		c.Repos.Event,
		c.Repos.Usage,
		c.Repos.File,
		c.Repos.Browser,
		&service.ScorerConfig{
			TopSequences: cfg.Analyzer.TopSequences,
			TopApps:      cfg.Analyzer.TopApps,
		},
		&service.AnalyzerConfig{
			Days:           cfg.Analyzer.Days,
			MinFrequency:   cfg.Analyzer.MinFrequency,
			SequenceLength: cfg.Analyzer.SequenceLength,
		},
	)
	c.Services.Report = service.NewReportService(c.Services.Analyzer, c.Repos.Usage, cfg.Analyzer.ReportsDir)

	return c, nil
}

// Close 释放核心资源
func (c *Core) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
