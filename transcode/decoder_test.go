package transcode

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Bytes(samples ...float64) []byte {
	data := make([]byte, len(samples)*8)
	for i, s := range samples {
		binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(s))
	}
	return data
}

func TestDefaultDecoderConfig(t *testing.T) {
	config := DefaultDecoderConfig()

	assert.Equal(t, 44100, config.TargetSampleRate)
	assert.Equal(t, 1, config.TargetChannels)
	assert.Equal(t, "medium", config.ResampleQuality)
	assert.Equal(t, "ffmpeg", config.FFmpegPath)
	assert.Equal(t, "ffprobe", config.FFprobePath)
}

func TestBytesToFloat64(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []float64
	}{
		{
			name: "round trip",
			data: float64Bytes(0.5, -0.25, 1.0),
			want: []float64{0.5, -0.25, 1.0},
		},
		{
			name: "trailing partial sample dropped",
			data: append(float64Bytes(0.125), 0x01, 0x02, 0x03),
			want: []float64{0.125},
		},
		{
			name: "empty input",
			data: nil,
			want: nil,
		},
		{
			name: "shorter than one sample",
			data: []byte{0x01, 0x02},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bytesToFloat64(tt.data))
		})
	}
}

func TestParseProbeOutput(t *testing.T) {
	jsonData := []byte(`{
		"streams": [{
			"codec_type": "audio",
			"codec_name": "aac",
			"sample_rate": "48000",
			"channels": 2,
			"duration": "212.35",
			"bit_rate": "128000"
		}]
	}`)

	metadata, err := parseProbeOutput(jsonData)
	require.NoError(t, err)

	assert.Equal(t, 48000, metadata.SampleRate)
	assert.Equal(t, 2, metadata.Channels)
	assert.Equal(t, "aac", metadata.Codec)
	assert.InDelta(t, 212.35, metadata.Duration, 1e-9)
	assert.Equal(t, 128000, metadata.Bitrate)
}

func TestParseProbeOutput_Errors(t *testing.T) {
	tests := []struct {
		name     string
		jsonData string
	}{
		{name: "not json", jsonData: "garbage"},
		{name: "no streams", jsonData: `{"streams": []}`},
		{
			name:     "video stream",
			jsonData: `{"streams": [{"codec_type": "video", "codec_name": "h264", "channels": 0}]}`,
		},
		{
			name:     "bad channel count",
			jsonData: `{"streams": [{"codec_type": "audio", "codec_name": "aac", "sample_rate": "44100", "channels": 0}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseProbeOutput([]byte(tt.jsonData))
			assert.Error(t, err)
		})
	}
}

func TestParseProbeOutput_MissingFieldsFallBack(t *testing.T) {
	jsonData := []byte(`{
		"streams": [{
			"codec_type": "audio",
			"codec_name": "pcm_s16le",
			"channels": 1
		}]
	}`)

	metadata, err := parseProbeOutput(jsonData)
	require.NoError(t, err)

	assert.Equal(t, 44100, metadata.SampleRate)
	assert.Zero(t, metadata.Duration)
	assert.Zero(t, metadata.Bitrate)
}

func TestOutputArgs(t *testing.T) {
	decoder := NewDecoder(nil)

	args := decoder.outputArgs(&AudioMetadata{SampleRate: 48000})
	assert.Contains(t, args, "f64le")
	assert.Contains(t, args, "-vn")
	assert.Contains(t, args, "aresample=resampler=soxr:precision=20")

	// No resample filter when the source already matches.
	args = decoder.outputArgs(&AudioMetadata{SampleRate: 44100})
	assert.NotContains(t, args, "-af")
}

func TestOutputArgs_ResampleQuality(t *testing.T) {
	tests := []struct {
		quality string
		filter  string
	}{
		{quality: "fast", filter: "aresample=resampler=soxr:precision=16"},
		{quality: "medium", filter: "aresample=resampler=soxr:precision=20"},
		{quality: "high", filter: "aresample=resampler=soxr:precision=28"},
	}

	for _, tt := range tests {
		t.Run(tt.quality, func(t *testing.T) {
			config := DefaultDecoderConfig()
			config.ResampleQuality = tt.quality
			decoder := NewDecoder(config)

			args := decoder.outputArgs(&AudioMetadata{SampleRate: 22050})
			assert.Contains(t, args, tt.filter)
		})
	}
}

func TestDecodeSegment_InvalidBounds(t *testing.T) {
	decoder := NewDecoder(nil)

	_, err := decoder.DecodeSegment("song.mp3", -1.0, 0)
	assert.Error(t, err)

	_, err = decoder.DecodeSegment("song.mp3", 10.0, 5.0)
	assert.Error(t, err)
}

func TestDecodeBytes_Empty(t *testing.T) {
	decoder := NewDecoder(nil)

	_, err := decoder.DecodeBytes(nil)
	assert.Error(t, err)
}

func TestValidateConfig_BadValues(t *testing.T) {
	tests := []struct {
		name   string
		config *DecoderConfig
	}{
		{
			name: "zero sample rate",
			config: &DecoderConfig{
				TargetSampleRate: 0, TargetChannels: 1, Timeout: time.Second,
			},
		},
		{
			name: "too many channels",
			config: &DecoderConfig{
				TargetSampleRate: 44100, TargetChannels: 9, Timeout: time.Second,
			},
		},
		{
			name: "zero timeout",
			config: &DecoderConfig{
				TargetSampleRate: 44100, TargetChannels: 1, Timeout: 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDecoder(tt.config).ValidateConfig()
			assert.Error(t, err)
		})
	}
}

func TestPCMFromOutput(t *testing.T) {
	decoder := NewDecoder(nil)

	audio, err := decoder.pcmFromOutput(
		float64Bytes(make([]float64, 44100)...),
		&AudioMetadata{Codec: "mp3"},
	)
	require.NoError(t, err)

	assert.Equal(t, 44100, audio.SampleRate)
	assert.Equal(t, 1, audio.Channels)
	assert.Equal(t, time.Second, audio.Duration)
	assert.Equal(t, "mp3", audio.Codec)
	assert.Len(t, audio.PCM, 44100)
}

func TestPCMFromOutput_Empty(t *testing.T) {
	decoder := NewDecoder(nil)

	_, err := decoder.pcmFromOutput(nil, nil)
	assert.Error(t, err)
}
