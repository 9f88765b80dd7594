package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ivlev/frameline/internal/config"
	"github.com/ivlev/frameline/internal/system"
)

// version задается при сборке: -ldflags "-X main.version=..."
var version = "dev"

var (
	verbose    bool
	configPath string

	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "frameline",
	Short: "frameline - раскладка кадров по аудиодорожке и экспорт в GIF, PNG, MP4, WebM",
	Long: `frameline строит таймлайн кадров фиксированной частоты поверх аудиодорожки,
раскладывает по нему картинки, GIF и страницы PDF из файла сцены и
экспортирует результат анимацией, архивом кадров или видео.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if verbose {
			level.SetLevel(zapcore.DebugLevel)
		}
		zc := zap.NewProductionConfig()
		zc.Level = level
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		zap.ReplaceGlobals(logger)

		// Увеличиваем лимиты системы (для macOS/Linux)
		system.InitResourceLimits(logger)

		if err := loadConfig(cmd.Flags()); err != nil {
			return err
		}
		if cfg.Workers <= 0 {
			cfg.Workers = system.Workers()
		}
		cfg.BuildVersion = version
		logger.Debug("config loaded",
			zap.String("config", configPath),
			zap.String("format", cfg.Format),
			zap.String("engine", cfg.Engine),
			zap.Int("workers", cfg.Workers))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// loadConfig накладывает YAML-файл на значения по умолчанию, а затем снова
// применяет флаги, явно заданные в командной строке.
func loadConfig(fs *pflag.FlagSet) error {
	if configPath == "" {
		return nil
	}

	changed := map[string]string{}
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := cfg.LoadFile(configPath); err != nil {
		return err
	}
	for name, value := range changed {
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
	}
	return nil
}

// addRenderFlags описывает параметры, общие для export, watch и play.
func addRenderFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cfg.AudioPath, "audio", cfg.AudioPath, "Путь к аудио (по умолчанию берется из сцены)")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Папка для результатов с автоматическим именем")
	fs.StringVarP(&cfg.OutputPath, "output", "o", cfg.OutputPath, "Путь к результату (если пусто, генерируется в --output-dir)")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "FPS таймлайна (сцена может переопределить)")
	fs.StringVarP(&cfg.Format, "format", "f", cfg.Format, "Формат: gif, png, mp4, webm")
	fs.IntVarP(&cfg.Quality, "quality", "q", cfg.Quality, "Качество 1-100")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Ширина")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Высота")
	fs.StringVar(&cfg.Fit, "fit", cfg.Fit, "Вписывание кадра: stretch, contain, cover")
	fs.BoolVar(&cfg.IncludeAudio, "include-audio", cfg.IncludeAudio, "Добавить аудиодорожку в видео")
	fs.BoolVar(&cfg.UseEntireSoundtrack, "full-audio", cfg.UseEntireSoundtrack, "Не обрезать аудио по последнему кадру")
	fs.StringVar(&cfg.Engine, "engine", cfg.Engine, "Движок gif/png: native, interpreted")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Потоки (0 - по числу ядер)")
	fs.IntVar(&cfg.DPI, "dpi", cfg.DPI, "DPI для страниц PDF")
	fs.StringVar(&cfg.VideoEncoder, "video-encoder", cfg.VideoEncoder, "Энкодер H.264 (по умолчанию выбирается автоматически)")
	fs.BoolVar(&cfg.Realtime, "realtime", cfg.Realtime, "Подавать кадры в ffmpeg в темпе воспроизведения")
	fs.BoolVar(&cfg.ShowStats, "stats", cfg.ShowStats, "Показать отчет о производительности")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный лог")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML-файл конфигурации")
	rootCmd.Version = version

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(sceneCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Ошибка: %v\n", err)
		os.Exit(1)
	}
}
