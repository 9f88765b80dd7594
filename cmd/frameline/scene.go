package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/frameline/internal/scene"
	"github.com/ivlev/frameline/internal/source"
	"github.com/ivlev/frameline/internal/system"
)

const audioDir = "input/audio"

var (
	sceneOut string
	minDwell float64
	maxDwell float64
)

var sceneCmd = &cobra.Command{
	Use:   "scene",
	Short: "Работа с файлами сцен",
}

var sceneInitCmd = &cobra.Command{
	Use:   "init <папка или картинка>",
	Short: "Создать сцену, равномерно разложив картинки по аудио",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.FPS <= 0 {
			return fmt.Errorf("fps must be positive, got %d", cfg.FPS)
		}
		inputs, err := source.ListImages(args[0])
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return fmt.Errorf("в %s нет картинок", args[0])
		}

		audio := cfg.AudioPath
		if audio == "" {
			audio, err = system.FindLatestAudio(audioDir)
			if err != nil {
				return fmt.Errorf("%w. Положите аудио в %s/ или укажите --audio", err, audioDir)
			}
			fmt.Printf("[*] Выбрано аудио: %s\n", audio)
		}
		duration, err := system.GetAudioDuration(cmd.Context(), audio)
		if err != nil {
			return err
		}

		// сцена хранит абсолютные пути, чтобы ее можно было положить куда угодно
		if audio, err = filepath.Abs(audio); err != nil {
			return err
		}
		for i, in := range inputs {
			if inputs[i], err = filepath.Abs(in); err != nil {
				return err
			}
		}

		d := scene.NewDistributor(cfg.FPS)
		if minDwell > 0 {
			d.MinDwell = minDwell
		}
		d.MaxDwell = maxDwell
		sc, err := d.Distribute(inputs, audio, duration)
		if err != nil {
			return err
		}

		out := sceneOut
		if out == "" {
			out = scene.GeneratePath(scenesDir, time.Now())
		}
		if err := scene.Write(sc, out); err != nil {
			return err
		}
		fmt.Printf("[+++] Сцена сохранена: %s (%d из %d картинок, %.2fs)\n", out, len(sc.Placements), len(inputs), duration)
		return nil
	},
}

func init() {
	fs := sceneInitCmd.Flags()
	fs.StringVar(&cfg.AudioPath, "audio", cfg.AudioPath, "Путь к аудио (по умолчанию: самый свежий файл в input/audio/)")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "FPS таймлайна, записывается в сцену")
	fs.StringVarP(&sceneOut, "output", "o", "", "Путь к сцене (по умолчанию scenes/scene_<время>.yaml)")
	fs.Float64Var(&minDwell, "min-dwell", 0, "Минимальное время на картинку, сек")
	fs.Float64Var(&maxDwell, "max-dwell", 0, "Максимальное время на картинку, сек (0 - без ограничения)")

	sceneCmd.AddCommand(sceneInitCmd)
}
