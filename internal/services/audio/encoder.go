package audio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/jonas747/ogg"

	"soundwave/pkg/logger"
)

var (
	// ErrEncodingFailed is returned when encoding fails
	ErrEncodingFailed = errors.New("audio encoding failed")
	// ErrAlreadyPlaying is returned when already playing
	ErrAlreadyPlaying = errors.New("already playing")
)

// AudioEncoder handles encoding audio streams for Discord
type AudioEncoder struct {
	logger *logger.Logger
}

// NewAudioEncoder creates a new audio encoder
func NewAudioEncoder(log *logger.Logger) *AudioEncoder {
	return &AudioEncoder{
		logger: log,
	}
}

// EncodeOptions contains options for encoding
type EncodeOptions struct {
	Volume      int    // 0-200, 100 is unity gain
	Bitrate     int    // in kbps, default 128
	Application string // audio, voip, or lowdelay
	BufferSize  int    // buffer size in frames
}

// DefaultEncodeOptions returns default encoding options
func DefaultEncodeOptions() *EncodeOptions {
	return &EncodeOptions{
		Volume:      100,
		Bitrate:     128,
		Application: "audio",
		BufferSize:  1024, // ~20 seconds of 20ms frames
	}
}

// EncodeStream encodes an audio source URL for Discord playback.
// Returns a channel that provides encoded audio frames.
func (e *AudioEncoder) EncodeStream(sourceURL string, options *EncodeOptions) (<-chan []byte, <-chan error, error) {
	if options == nil {
		options = DefaultEncodeOptions()
	}

	e.logger.WithField("url", sourceURL).Info("Starting audio encoding...")

	frameChannel := make(chan []byte, options.BufferSize)
	errorChannel := make(chan error, 1)

	// Encoding runs in its own goroutine; yt-dlp pipes into FFmpeg so we
	// never hand stream URLs to FFmpeg directly (avoids YouTube 403s)
	go e.encodeWithYtDlpPipe(sourceURL, options, frameChannel, errorChannel)

	return frameChannel, errorChannel, nil
}

// EncodeDirect encodes straight from an already-extracted stream URL,
// skipping the yt-dlp pipe. Callers must hand in a fresh handle; a stale
// one dies mid-stream with 403s.
func (e *AudioEncoder) EncodeDirect(streamURL string, options *EncodeOptions) (<-chan []byte, <-chan error, error) {
	if options == nil {
		options = DefaultEncodeOptions()
	}

	frameChannel := make(chan []byte, options.BufferSize)
	errorChannel := make(chan error, 1)

	go e.encodeFromStreamURL(streamURL, options, frameChannel, errorChannel)

	return frameChannel, errorChannel, nil
}

// encodeFromStreamURL runs FFmpeg alone against a warmed stream URL
func (e *AudioEncoder) encodeFromStreamURL(streamURL string, options *EncodeOptions, frameChannel chan []byte, errorChannel chan error) {
	defer close(frameChannel)
	defer close(errorChannel)

	e.logger.WithField("url", streamURL[:min(80, len(streamURL))]).Info("📻 Starting direct FFmpeg encoding from warmed stream...")

	ffmpegArgs := []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "2",
		"-i", streamURL,
		"-map", "0:a",
		"-af", fmt.Sprintf("volume=%.2f", float64(options.Volume)/100.0),
		"-acodec", "libopus",
		"-f", "ogg",
		"-compression_level", "5",
		"-ar", "48000",
		"-ac", "2",
		"-b:a", fmt.Sprintf("%d", options.Bitrate*1000),
		"-application", options.Application,
		"-frame_duration", "20",
		"-loglevel", "error",
		"pipe:1",
	}

	ffmpegCmd := exec.Command("ffmpeg", ffmpegArgs...)

	ffmpegStdout, err := ffmpegCmd.StdoutPipe()
	if err != nil {
		e.logger.WithError(err).Error("❌ Failed to get FFmpeg stdout pipe")
		errorChannel <- fmt.Errorf("failed to get ffmpeg stdout: %w", err)
		return
	}
	ffmpegStderr, err := ffmpegCmd.StderrPipe()
	if err != nil {
		e.logger.WithError(err).Error("❌ Failed to get FFmpeg stderr pipe")
		errorChannel <- fmt.Errorf("failed to get ffmpeg stderr: %w", err)
		return
	}

	go func() {
		scanner := bufio.NewScanner(ffmpegStderr)
		for scanner.Scan() {
			e.logger.WithField("ffmpeg", scanner.Text()).Warn("FFmpeg output")
		}
	}()

	if err := ffmpegCmd.Start(); err != nil {
		e.logger.WithError(err).Error("❌ Failed to start FFmpeg")
		errorChannel <- fmt.Errorf("failed to start ffmpeg: %w", err)
		return
	}

	defer func() {
		if ffmpegCmd.Process != nil {
			ffmpegCmd.Process.Kill()
			ffmpegCmd.Wait()
		}
	}()

	e.pumpFrames(ffmpegStdout, frameChannel, errorChannel)
}

// encodeWithYtDlpPipe uses yt-dlp piped to FFmpeg to encode audio
func (e *AudioEncoder) encodeWithYtDlpPipe(sourceURL string, options *EncodeOptions, frameChannel chan []byte, errorChannel chan error) {
	defer close(frameChannel)
	defer close(errorChannel)

	e.logger.WithField("url", sourceURL[:min(80, len(sourceURL))]).Info("📻 Starting yt-dlp -> FFmpeg piped encoding...")

	// yt-dlp downloads the best audio to stdout
	ytDlpArgs := []string{
		"-f", "bestaudio/best",
		"-o", "-",
		"--no-playlist",
		"--no-check-certificate",
		"--geo-bypass",
		"--quiet",
		"--no-warnings",
		sourceURL,
	}

	ytDlpCmd := exec.Command("yt-dlp", ytDlpArgs...)
	ytDlpStdout, err := ytDlpCmd.StdoutPipe()
	if err != nil {
		e.logger.WithError(err).Error("❌ Failed to get yt-dlp stdout pipe")
		errorChannel <- fmt.Errorf("failed to get yt-dlp stdout: %w", err)
		return
	}
	ytDlpStderr, err := ytDlpCmd.StderrPipe()
	if err != nil {
		e.logger.WithError(err).Error("❌ Failed to get yt-dlp stderr pipe")
		errorChannel <- fmt.Errorf("failed to get yt-dlp stderr: %w", err)
		return
	}

	// Log yt-dlp errors in background
	go func() {
		scanner := bufio.NewScanner(ytDlpStderr)
		for scanner.Scan() {
			e.logger.WithField("yt-dlp", scanner.Text()).Debug("yt-dlp output")
		}
	}()

	// FFmpeg reads from the yt-dlp pipe and outputs OGG/Opus to stdout.
	// Volume is applied here so the boost range above 100% works without
	// touching the Opus frames afterwards.
	ffmpegArgs := []string{
		"-i", "pipe:0",
		"-reconnect", "1",
		"-reconnect_at_eof", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "2",
		"-map", "0:a",
		"-af", fmt.Sprintf("volume=%.2f", float64(options.Volume)/100.0),
		"-acodec", "libopus",
		"-f", "ogg",
		"-compression_level", "5",
		"-ar", "48000",
		"-ac", "2",
		"-b:a", fmt.Sprintf("%d", options.Bitrate*1000),
		"-application", options.Application,
		"-frame_duration", "20",
		"-loglevel", "error",
		"pipe:1",
	}

	ffmpegCmd := exec.Command("ffmpeg", ffmpegArgs...)
	ffmpegCmd.Stdin = ytDlpStdout

	ffmpegStdout, err := ffmpegCmd.StdoutPipe()
	if err != nil {
		e.logger.WithError(err).Error("❌ Failed to get FFmpeg stdout pipe")
		errorChannel <- fmt.Errorf("failed to get ffmpeg stdout: %w", err)
		return
	}
	ffmpegStderr, err := ffmpegCmd.StderrPipe()
	if err != nil {
		e.logger.WithError(err).Error("❌ Failed to get FFmpeg stderr pipe")
		errorChannel <- fmt.Errorf("failed to get ffmpeg stderr: %w", err)
		return
	}

	// Log FFmpeg errors in background
	go func() {
		scanner := bufio.NewScanner(ffmpegStderr)
		for scanner.Scan() {
			e.logger.WithField("ffmpeg", scanner.Text()).Warn("FFmpeg output")
		}
	}()

	if err := ytDlpCmd.Start(); err != nil {
		e.logger.WithError(err).Error("❌ Failed to start yt-dlp")
		errorChannel <- fmt.Errorf("failed to start yt-dlp: %w", err)
		return
	}

	if err := ffmpegCmd.Start(); err != nil {
		ytDlpCmd.Process.Kill()
		e.logger.WithError(err).Error("❌ Failed to start FFmpeg")
		errorChannel <- fmt.Errorf("failed to start ffmpeg: %w", err)
		return
	}

	// Ensure processes are killed on exit
	defer func() {
		if ytDlpCmd.Process != nil {
			ytDlpCmd.Process.Kill()
			ytDlpCmd.Wait()
		}
		if ffmpegCmd.Process != nil {
			ffmpegCmd.Process.Kill()
			ffmpegCmd.Wait()
		}
	}()

	e.logger.Info("✅ yt-dlp -> FFmpeg pipeline started, reading Opus frames from OGG stream...")

	e.pumpFrames(ffmpegStdout, frameChannel, errorChannel)
}

// pumpFrames reads the OGG/Opus stream FFmpeg produces and feeds frames to
// the playback loop at the 20ms frame rate
func (e *AudioEncoder) pumpFrames(oggStream io.Reader, frameChannel chan []byte, errorChannel chan error) {
	decoder := ogg.NewPacketDecoder(ogg.NewDecoder(oggStream))

	frameCount := 0
	lastLogTime := time.Now()

	// Opus frames are 20ms each; throttle encoding to the playback rate so
	// the frame buffer never runs away from the sender
	frameInterval := 20 * time.Millisecond
	startTime := time.Now()

	// Skip first 2 packets (Opus header and comment metadata)
	skipPackets := 2

	for {
		packet, _, err := decoder.Decode()
		if err != nil {
			if err == io.EOF {
				e.logger.WithField("frames", frameCount).Info("✅ Encoding completed (EOF)")
				return
			}
			if frameCount > 0 {
				e.logger.WithError(err).WithField("frames", frameCount).Warn("⚠️ Encoding ended after frames")
				return
			}
			e.logger.WithError(err).Error("❌ Error decoding OGG packet")
			errorChannel <- err
			return
		}

		if skipPackets > 0 {
			skipPackets--
			continue
		}

		if len(packet) > 0 {
			frameCount++

			if time.Since(lastLogTime) > 5*time.Second {
				e.logger.WithField("frames", frameCount).Debug("Encoding in progress...")
				lastLogTime = time.Now()
			}

			expectedTime := startTime.Add(time.Duration(frameCount) * frameInterval)
			now := time.Now()
			if now.Before(expectedTime) {
				time.Sleep(expectedTime.Sub(now))
			}

			frameChannel <- packet
		}
	}
}
