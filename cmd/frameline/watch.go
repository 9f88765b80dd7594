package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/frameline/internal/scene"
	"github.com/ivlev/frameline/internal/watch"
)

var debounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [scene.yaml]",
	Short: "Пересобирать экспорт при изменении сцены или ее файлов",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := resolveScene(args); err != nil {
			return err
		}
		p, cleanup, err := newProject()
		if err != nil {
			return err
		}
		defer cleanup()

		var w *watch.Watcher
		// после каждого прогона заново подписываемся: сцена могла сослаться на новые файлы
		rewatch := func() error {
			files, err := watchedFiles(cfg.ScenePath, cfg.AudioPath)
			if err != nil {
				return err
			}
			return w.Watch(files...)
		}
		run := func(ctx context.Context) error {
			fmt.Printf("[*] Изменения обнаружены, пересборка...\n")
			_, err := p.Run(ctx)
			if werr := rewatch(); werr != nil {
				logger.Warn("rewatch failed", zap.Error(werr))
			}
			if err != nil {
				fmt.Printf("[!] %v\n", err)
			}
			return err
		}

		w, err = watch.New(run, debounce, logger)
		if err != nil {
			return err
		}
		if _, err := p.Run(cmd.Context()); err != nil {
			fmt.Printf("[!] %v\n", err)
		}
		if err := rewatch(); err != nil {
			w.Stop()
			return err
		}

		fmt.Printf("[*] Слежу за %s (Ctrl+C для выхода)\n", cfg.ScenePath)
		w.Start(cmd.Context())
		<-cmd.Context().Done()
		w.Stop()

		st := w.Stats()
		fmt.Printf("[*] Событий: %d | Пересборок: %d | Ошибок: %d\n", st.Events, st.Runs, st.Errors)
		return nil
	},
}

// watchedFiles перечисляет файлы сцены: аудио (с учетом --audio), входы и
// сам файл сцены.
func watchedFiles(scenePath, audioOverride string) ([]string, error) {
	sc, err := scene.Read(scenePath)
	if err != nil {
		return nil, err
	}
	if audioOverride != "" {
		sc.Audio = audioOverride
	}
	return append(sc.Inputs(), scenePath), nil
}

func init() {
	addRenderFlags(watchCmd.Flags())
	watchCmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Пауза после последнего изменения перед пересборкой")
}
