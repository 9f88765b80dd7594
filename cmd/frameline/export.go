package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/frameline/internal/boundary"
	"github.com/ivlev/frameline/internal/config"
	"github.com/ivlev/frameline/internal/engine"
	"github.com/ivlev/frameline/internal/export"
	"github.com/ivlev/frameline/internal/scene"
)

const scenesDir = "scenes"

var exportCmd = &cobra.Command{
	Use:   "export [scene.yaml]",
	Short: "Собрать сцену и экспортировать ее",
	Long: `Читает сцену, строит таймлайн по длительности аудио, раскладывает кадры
и кодирует результат в выбранный формат. Без аргумента берется самая свежая
сцена из папки scenes/.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := resolveScene(args); err != nil {
			return err
		}
		p, cleanup, err := newProject()
		if err != nil {
			return err
		}
		defer cleanup()

		_, err = p.Run(cmd.Context())
		return err
	},
}

func init() {
	addRenderFlags(exportCmd.Flags())
}

// resolveScene выбирает сцену: аргумент, затем конфиг, затем самую свежую в scenes/.
func resolveScene(args []string) error {
	if len(args) > 0 {
		cfg.ScenePath = args[0]
	}
	if cfg.ScenePath != "" {
		return nil
	}
	latest, err := scene.FindLatest(scenesDir)
	if err != nil {
		return fmt.Errorf("%w. Создайте сцену: frameline scene init <папка>", err)
	}
	cfg.ScenePath = latest
	fmt.Printf("[*] Выбрана сцена: %s\n", latest)
	return nil
}

// newProject собирает проект по текущей конфигурации. cleanup закрывает
// экспортер и интерпретируемый движок, если он использовался.
func newProject() (*engine.Project, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	reg, err := engine.NewRegistry(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	ex := export.NewExporter(reg, logger)
	ex.OnState = func(from, to export.State) {
		logger.Debug("export state", zap.Stringer("from", from), zap.Stringer("to", to))
	}

	cleanup := func() {
		ex.Close()
		if cfg.Engine == config.EngineInterpreted {
			boundary.Default().Close()
		}
	}
	return engine.NewProject(cfg, ex, logger), cleanup, nil
}
