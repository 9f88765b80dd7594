package system

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

var (
	AudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}
	SceneExtensions = []string{".yaml", ".yml"}
)

// InitResourceLimits поднимает лимит открытых файлов: длинные экспорты держат
// много временных файлов и пайпов ffmpeg одновременно.
func InitResourceLimits(log *zap.Logger) {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warn("не удалось получить лимит файлов", zap.Error(err))
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn("не удалось установить лимит файлов", zap.Error(err))
		return
	}
	log.Debug("лимит открытых файлов увеличен", zap.Uint64("nofile", uint64(rLimit.Cur)))
}

// FindLatest ищет самый свежий файл с одним из расширений в папке.
func FindLatest(dir string, extensions []string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), extensions) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено файлов %v", dir, extensions)
	}
	return latestFile, nil
}

func FindLatestAudio(dir string) (string, error) {
	return FindLatest(dir, AudioExtensions)
}

func FindLatestScene(dir string) (string, error) {
	return FindLatest(dir, SceneExtensions)
}

func hasExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// GetAudioDuration получает длительность аудио через ffprobe.
func GetAudioDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w (%s)", path, err, strings.TrimSpace(string(out)))
	}
	return ParseDuration(string(out))
}

// ParseDuration разбирает вывод ffprobe вида "12.345000".
func ParseDuration(out string) (float64, error) {
	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(out), "%f", &duration); err != nil {
		return 0, fmt.Errorf("unexpected ffprobe output %q: %w", out, err)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0, fmt.Errorf("non-finite duration %q", strings.TrimSpace(out))
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %f", duration)
	}
	return duration, nil
}

// GetBestH264Encoder выбирает аппаратный энкодер, если ffmpeg его знает.
// Приоритеты: VideoToolbox (macOS), NVENC, затем программный libx264.
func GetBestH264Encoder(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return pickEncoder(string(out))
}

func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// FFmpegAvailable проверяет, что ffmpeg есть в PATH.
func FFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}
