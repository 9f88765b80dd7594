// Package video кодирует поток RGBA кадров в mp4/webm через ffmpeg.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"os/exec"
)

type Params struct {
	Width, Height int
	FPS           int
	Container     string // mp4 | webm
	Encoder       string // libx264, h264_nvenc, h264_videotoolbox; для webm игнорируется
	Quality       int    // 1..100
	AudioPath     string // пусто, если звук не нужен
	// FullAudio: звук не обрезается по последнему кадру
	FullAudio bool
	// Frames: сколько кадров будет записано; без FullAudio задает длину ролика
	Frames int
	Output    string
}

// BuildArgs собирает аргументы ffmpeg. Кадры идут в stdin как rawvideo rgba.
func BuildArgs(p Params) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
	}
	if p.AudioPath != "" {
		args = append(args, "-i", p.AudioPath)
	}

	args = append(args, "-map", "0:v")
	if p.AudioPath != "" {
		args = append(args, "-map", "1:a")
	}

	// yuv420p требует чётных размеров
	if p.Width%2 != 0 || p.Height%2 != 0 {
		args = append(args, "-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2")
	}

	args = append(args, "-pix_fmt", "yuv420p")
	args = append(args, codecArgs(p)...)

	// ролик заканчивается сразу после последнего кадра, звук режется по нему
	if p.AudioPath != "" && !p.FullAudio && p.Frames > 0 && p.FPS > 0 {
		args = append(args, "-t", fmt.Sprintf("%.6f", float64(p.Frames)/float64(p.FPS)))
	}
	if p.Container == "mp4" {
		args = append(args, "-movflags", "+faststart")
	}

	args = append(args, p.Output)
	return args
}

func codecArgs(p Params) []string {
	if p.Container == "webm" {
		args := []string{"-c:v", "libvpx-vp9", "-crf", fmt.Sprintf("%d", VP9CRF(p.Quality)), "-b:v", "0"}
		if p.AudioPath != "" {
			args = append(args, "-c:a", "libopus", "-b:a", "128k")
		}
		return args
	}

	enc := p.Encoder
	if enc == "" {
		enc = "libx264"
	}
	args := []string{"-c:v", enc}

	// Качество в зависимости от энкодера
	switch enc {
	case "h264_videotoolbox":
		// кбит/с: 75 -> 7.5Мбит/с
		args = append(args, "-b:v", fmt.Sprintf("%dk", p.Quality*100))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", H264CRF(p.Quality)))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", H264CRF(p.Quality)), "-preset", "medium")
	}

	if p.AudioPath != "" {
		args = append(args, "-c:a", "aac", "-b:a", "192k")
	}
	return args
}

// H264CRF переводит качество 1..100 в CRF 40..18.
func H264CRF(quality int) int {
	return 40 - int(math.Round(float64(clampQuality(quality))*22/100))
}

// VP9CRF переводит качество 1..100 в CRF 50..15.
func VP9CRF(quality int) int {
	return 50 - int(math.Round(float64(clampQuality(quality))*35/100))
}

func clampQuality(q int) int {
	return max(1, min(100, q))
}

// FrameCount: сколько кадров уйдёт в ffmpeg. При FullAudio последний кадр
// удерживается до конца звуковой дорожки.
func FrameCount(frames, fps int, audioDuration float64, fullAudio bool) int {
	if !fullAudio || fps <= 0 {
		return frames
	}
	need := int(math.Ceil(audioDuration*float64(fps) - 1e-9))
	return max(frames, need)
}

// Process это один запущенный ffmpeg, принимающий кадры.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	width  int
	height int
	buf    *image.RGBA
}

func Start(ctx context.Context, p Params) (*Process, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", BuildArgs(p)...)
	proc := &Process{cmd: cmd, width: p.Width, height: p.Height}
	cmd.Stderr = &proc.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	proc.stdin = stdin

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return proc, nil
}

// WriteFrame пишет кадр как raw RGBA.
func (p *Process) WriteFrame(img image.Image) error {
	if err := p.writeRawRGBA(p.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w: %s", err, p.stderr.String())
	}
	return nil
}

func (p *Process) writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() != p.width || bounds.Dy() != p.height {
		return fmt.Errorf("frame is %dx%d, stream is %dx%d", bounds.Dx(), bounds.Dy(), p.width, p.height)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		if p.buf == nil {
			p.buf = image.NewRGBA(image.Rect(0, 0, p.width, p.height))
		}
		draw.Draw(p.buf, p.buf.Bounds(), img, bounds.Min, draw.Src)
		rgba = p.buf
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// Close закрывает stdin и ждёт, пока ffmpeg допишет файл.
func (p *Process) Close() error {
	closeErr := p.stdin.Close()
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, p.stderr.String())
	}
	if closeErr != nil && !errors.Is(closeErr, io.ErrClosedPipe) {
		return closeErr
	}
	return nil
}

// Abort убивает ffmpeg без ожидания результата.
func (p *Process) Abort() {
	p.stdin.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.cmd.Wait()
}
