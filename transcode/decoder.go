// Package transcode decodes audio files into the mono float64 PCM the
// analysis stage consumes, shelling out to ffmpeg/ffprobe so any container or
// codec the annotations reference can be ingested.
package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/ThiagoPoppe/parc/logging"
)

// AudioData holds a decoded stretch of audio.
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Codec      string        `json:"codec,omitempty"`
}

// DecoderConfig holds decoder configuration.
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	TargetChannels   int           `json:"target_channels"`
	ResampleQuality  string        `json:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout"`
}

// DefaultDecoderConfig returns the settings the feature pipeline expects:
// mono 44100 Hz, binaries resolved from PATH.
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 44100,
		TargetChannels:   1,
		ResampleQuality:  "medium",
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          60 * time.Second,
	}
}

// AudioMetadata holds source properties reported by ffprobe.
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
}

// Decoder decodes audio through FFmpeg.
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a decoder with the given config, or defaults if nil.
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeFile decodes a whole audio file.
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	return d.DecodeSegment(filename, 0, 0)
}

// DecodeSegment decodes the [start, end) stretch of an audio file, in
// seconds. An end of 0 means the rest of the file; this is how the annotation
// sync points are cut out of a full download.
func (d *Decoder) DecodeSegment(filename string, start, end float64) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"filename":  filename,
	})

	if start < 0 {
		return nil, fmt.Errorf("negative start offset: %f", start)
	}
	if end != 0 && end <= start {
		return nil, fmt.Errorf("segment end %f not after start %f", end, start)
	}

	metadata, err := d.probeFile(filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
	})

	args := []string{"-v", "error"}
	if start > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", start))
	}
	if end > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", end-start))
	}
	args = append(args, "-i", filename)
	args = append(args, d.outputArgs(metadata)...)
	args = append(args, "pipe:1")

	output, err := d.runFFmpeg(args, nil, logger)
	if err != nil {
		return nil, err
	}
	return d.pcmFromOutput(output, metadata)
}

// DecodeBytes decodes audio held in memory.
func (d *Decoder) DecodeBytes(data []byte) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"data_size": len(data),
	})

	if len(data) == 0 {
		return nil, fmt.Errorf("empty audio data")
	}

	metadata, err := d.probeBytes(data)
	if err != nil {
		logger.Error(err, "Failed to probe audio bytes")
		return nil, err
	}

	args := []string{"-v", "error", "-i", "pipe:0"}
	args = append(args, d.outputArgs(metadata)...)
	args = append(args, "pipe:1")

	output, err := d.runFFmpeg(args, data, logger)
	if err != nil {
		return nil, err
	}
	return d.pcmFromOutput(output, metadata)
}

// outputArgs builds the ffmpeg output parameters: raw little-endian float64,
// target channel count and sample rate, soxr resampling when the source rate
// differs.
func (d *Decoder) outputArgs(metadata *AudioMetadata) []string {
	args := []string{
		"-vn",
		"-f", "f64le",
		"-ac", strconv.Itoa(d.config.TargetChannels),
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
	}

	if metadata != nil && metadata.SampleRate != d.config.TargetSampleRate {
		switch d.config.ResampleQuality {
		case "fast":
			args = append(args, "-af", "aresample=resampler=soxr:precision=16")
		case "medium":
			args = append(args, "-af", "aresample=resampler=soxr:precision=20")
		case "high":
			args = append(args, "-af", "aresample=resampler=soxr:precision=28")
		}
	}

	return args
}

// runFFmpeg executes ffmpeg with the configured timeout, feeding stdin when
// data is non-nil.
func (d *Decoder) runFFmpeg(args []string, stdin []byte, logger logging.Logger) ([]byte, error) {
	ctx := context.Background()
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	startTime := time.Now()
	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			logger.Error(err, "FFmpeg decode failed", logging.Fields{
				"stderr": string(exitError.Stderr),
			})
			return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	logger.Debug("FFmpeg decode completed", logging.Fields{
		"output_bytes": len(output),
		"decode_time":  time.Since(startTime).Seconds(),
	})
	return output, nil
}

// probeFile asks ffprobe for the first audio stream of a file.
func (d *Decoder) probeFile(filename string) (*AudioMetadata, error) {
	return d.probe([]string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		filename,
	}, nil)
}

// probeBytes asks ffprobe for the first audio stream of in-memory data.
func (d *Decoder) probeBytes(data []byte) (*AudioMetadata, error) {
	return d.probe([]string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		"pipe:0",
	}, data)
}

func (d *Decoder) probe(args []string, stdin []byte) (*AudioMetadata, error) {
	ctx := context.Background()
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, d.config.FFprobePath, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeOutput(output)
}

// parseProbeOutput extracts audio metadata from ffprobe JSON.
func parseProbeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
			Duration   string `json:"duration"`
			BitRate    string `json:"bit_rate"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}
	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil {
		sampleRate = 44100
	}
	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}
	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
	}, nil
}

// pcmFromOutput converts raw ffmpeg output into AudioData.
func (d *Decoder) pcmFromOutput(output []byte, metadata *AudioMetadata) (*AudioData, error) {
	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}

	samplesPerChannel := len(samples) / d.config.TargetChannels
	duration := time.Duration(samplesPerChannel) * time.Second / time.Duration(d.config.TargetSampleRate)

	codec := ""
	if metadata != nil {
		codec = metadata.Codec
	}
	return &AudioData{
		PCM:        samples,
		SampleRate: d.config.TargetSampleRate,
		Channels:   d.config.TargetChannels,
		Duration:   duration,
		Codec:      codec,
	}, nil
}

// bytesToFloat64 reinterprets little-endian float64 bytes, trimming any
// trailing partial sample.
func bytesToFloat64(data []byte) []float64 {
	data = data[:len(data)-(len(data)%8)]
	if len(data) == 0 {
		return nil
	}

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}

// ValidateConfig checks the configuration and that the ffmpeg binaries can be
// executed.
func (d *Decoder) ValidateConfig() error {
	if d.config.TargetSampleRate <= 0 {
		return fmt.Errorf("target sample rate must be positive: %d", d.config.TargetSampleRate)
	}
	if d.config.TargetChannels <= 0 || d.config.TargetChannels > 8 {
		return fmt.Errorf("target channels must be between 1 and 8: %d", d.config.TargetChannels)
	}
	if d.config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %v", d.config.Timeout)
	}

	if err := exec.Command(d.config.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	if err := exec.Command(d.config.FFprobePath, "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}
	return nil
}
