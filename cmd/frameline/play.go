package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/frameline/internal/clock"
	"github.com/ivlev/frameline/internal/engine"
)

var playCmd = &cobra.Command{
	Use:   "play [scene.yaml]",
	Short: "Проиграть таймлайн по часам без звука и показать выбранные слоты",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := resolveScene(args); err != nil {
			return err
		}
		p := engine.NewProject(cfg, nil, logger)
		_, session, duration, err := p.Load(cmd.Context())
		if err != nil {
			return err
		}
		tl := session.Timeline()
		if tl.FPS() <= 0 {
			return fmt.Errorf("fps must be positive, got %d", tl.FPS())
		}

		player := clock.NewPlayer(duration, time.Second/time.Duration(tl.FPS()))
		defer player.Close()
		detach := session.Attach(player)
		defer detach()

		// "view" идет после "timeline", поэтому выбранный слот уже обновлен
		last := -1
		player.Subscribe("view", func(ev clock.Event) {
			switch ev.Type {
			case clock.EventTimeUpdate, clock.EventSeek:
				id := session.Selected()
				if id == last {
					return
				}
				last = id
				name := "-"
				if slot, ok := tl.Slot(id); ok && slot.Image != nil {
					name = filepath.Base(slot.Image.Name())
				}
				fmt.Printf("[>] %7.3fs | слот %5d | %s\n", ev.Time, id, name)
			case clock.EventFinish:
				fmt.Printf("[+++] Конец дорожки: %.2fs\n", ev.Time)
			}
		})
		defer player.Unsubscribe("view")

		fmt.Printf("[*] Слотов: %d @ %d FPS | Заполнено: %d | %.2fs\n", tl.Len(), tl.FPS(), len(tl.Populated()), duration)
		player.Ready()
		player.Play()

		stopped := make(chan struct{})
		go func() {
			select {
			case <-cmd.Context().Done():
				player.Stop()
			case <-stopped:
			}
		}()
		player.Wait()
		close(stopped)
		return nil
	},
}

func init() {
	fs := playCmd.Flags()
	fs.StringVar(&cfg.AudioPath, "audio", cfg.AudioPath, "Путь к аудио (по умолчанию берется из сцены)")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "FPS таймлайна (сцена может переопределить)")
	fs.IntVar(&cfg.DPI, "dpi", cfg.DPI, "DPI для страниц PDF")
}
