package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/frameline/internal/scene"
	"github.com/ivlev/frameline/internal/source"
	"github.com/ivlev/frameline/internal/system"
	"github.com/ivlev/frameline/internal/timeline"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <файл>",
	Short: "Показать, как файл ляжет на таймлайн",
	Long: `Печатает сведения о входном файле: кадры и задержки GIF, число страниц PDF,
размер картинки, длительность аудио (через ffprobe) или размещения сцены.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ext := strings.ToLower(filepath.Ext(path))

		switch {
		case source.IsGIF(path):
			return inspectGIF(path)
		case source.IsPDF(path):
			doc, err := source.OpenPDF(path, cfg.DPI)
			if err != nil {
				return err
			}
			defer doc.Close()
			fmt.Printf("[*] PDF: %s | Страниц: %d\n", filepath.Base(path), doc.PageCount())
		case source.IsStill(path):
			return inspectStill(path)
		case ext == ".yaml" || ext == ".yml":
			return inspectScene(path)
		case contains(system.AudioExtensions, ext):
			d, err := system.GetAudioDuration(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Printf("[*] Аудио: %s | %.3fs | Слотов при %d FPS: %d\n",
				filepath.Base(path), d, cfg.FPS, timeline.SlotCount(d, cfg.FPS))
		default:
			return fmt.Errorf("неподдерживаемый тип файла: %s", path)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().IntVar(&cfg.FPS, "fps", cfg.FPS, "FPS для расчета слотов")
	inspectCmd.Flags().IntVar(&cfg.DPI, "dpi", cfg.DPI, "DPI для страниц PDF")
}

func inspectGIF(path string) error {
	asset, err := source.DecodeGIFFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("[*] GIF: %s | %dx%d | Кадров: %d | Длительность: %.3fs\n",
		filepath.Base(path), asset.Width, asset.Height, len(asset.Frames), asset.TotalDurationSeconds())
	if verbose {
		for i, d := range asset.DelaysMs {
			fmt.Printf("    кадр %3d: %d мс\n", i, d)
		}
	}
	return nil
}

func inspectStill(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	conf, format, err := image.DecodeConfig(f)
	if err != nil {
		return &source.DecodeError{Source: path, Err: err}
	}
	fmt.Printf("[*] Картинка: %s | %s | %dx%d\n", filepath.Base(path), format, conf.Width, conf.Height)
	return nil
}

func inspectScene(path string) error {
	sc, err := scene.Read(path)
	if err != nil {
		return err
	}
	fmt.Printf("[*] Сцена: %s | Аудио: %s | FPS: %d | Размещений: %d\n",
		filepath.Base(path), filepath.Base(sc.Audio), sc.FPS, len(sc.Placements))
	for i, p := range sc.Placements {
		at := ""
		switch {
		case p.Slot != nil:
			at = fmt.Sprintf("слот %d", *p.Slot)
		case p.Time != nil:
			at = fmt.Sprintf("%.3fs", *p.Time)
		}
		fmt.Printf("    %3d: %-12s x%d  %s\n", i, at, p.Slots(), filepath.Base(p.Input))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
