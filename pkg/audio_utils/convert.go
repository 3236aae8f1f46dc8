package audio_utils

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
	"github.com/petrzlen/callchain-golang/pkg/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNoSamples         = errors.New("audio contains no samples")
)

const (
	outputBitDepth = 16
	pcmAudioFormat = 1
	// WAVE_FORMAT_IEEE_FLOAT and WAVE_FORMAT_EXTENSIBLE from the RIFF format tag.
	floatAudioFormat      = 3
	extensibleAudioFormat = 0xFFFE
	// go-mp3 always produces interleaved S16LE stereo.
	mp3Channels = 2
)

func dbg(err error) {
	if err != nil {
		log.Debug().Err(err).Msg("sth non-essential failed")
	}
}

// DecodeFile reads the whole file at path in one go and decodes it into a mono waveform
// at its native sample rate. The format is picked by file extension.
func DecodeFile(fs afero.Fs, path string) (*models.Waveform, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", path)
	}

	fileFormat := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	log.Debug().Str("path", path).Str("format", fileFormat).Int("byte_size", len(data)).Msg("decoding audio file")

	switch fileFormat {
	case "wav", "wave":
		return DecodeFromWav(data)
	case "mp3":
		return DecodeFromMp3(data)
	case "flac":
		return DecodeFromFlac(data)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "extension %q", fileFormat)
	}
}

func DecodeFromWav(data []byte) (*models.Waveform, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, errors.Wrap(ErrUnsupportedFormat, "not a valid wav file")
	}
	switch decoder.WavAudioFormat {
	case pcmAudioFormat, extensibleAudioFormat:
	case floatAudioFormat:
		return decodeFloatWav(decoder)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "wav audio format %d", decoder.WavAudioFormat)
	}
	intBuffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode wav")
	}
	bitDepth := intBuffer.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(decoder.BitDepth)
	}
	return intBufferToWaveform(intBuffer, bitDepth)
}

// decodeFloatWav reads IEEE float samples, go-audio only decodes integer PCM.
func decodeFloatWav(decoder *wav.Decoder) (*models.Waveform, error) {
	if err := decoder.FwdToPCM(); err != nil {
		return nil, errors.Wrap(err, "cannot find wav data")
	}
	if decoder.PCMChunk == nil {
		return nil, errors.Wrap(ErrUnsupportedFormat, "wav has no data chunk")
	}
	bytesPerSample := int(decoder.BitDepth) / 8
	if decoder.BitDepth != 32 && decoder.BitDepth != 64 {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "float wav with bit depth %d", decoder.BitDepth)
	}
	sampleRate := int(decoder.SampleRate)
	if sampleRate <= 0 {
		return nil, errors.Wrap(ErrUnsupportedFormat, "missing sample rate")
	}
	numChannels := int(decoder.NumChans)
	if numChannels <= 0 {
		numChannels = 1
	}

	raw, err := io.ReadAll(decoder.PCMChunk)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read wav data")
	}
	frameSize := bytesPerSample * numChannels
	numFrames := len(raw) / frameSize
	if numFrames == 0 {
		return nil, ErrNoSamples
	}

	samples := make([]float64, numFrames)
	for i := range samples {
		sum := 0.0
		for ch := 0; ch < numChannels; ch++ {
			offset := i*frameSize + ch*bytesPerSample
			if bytesPerSample == 4 {
				sum += float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[offset:])))
			} else {
				sum += math.Float64frombits(binary.LittleEndian.Uint64(raw[offset:]))
			}
		}
		samples[i] = sum / float64(numChannels)
	}

	log.Debug().Int("num_frames", numFrames).Int("sample_rate", sampleRate).Int("num_channels", numChannels).Int("source_bit_depth", int(decoder.BitDepth)).Msg("decoded float wav to mono waveform")
	return &models.Waveform{Samples: samples, SampleRate: sampleRate}, nil
}

func DecodeFromMp3(data []byte) (*models.Waveform, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode mp3")
	}
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read mp3 frames")
	}
	intBuffer := &audio.IntBuffer{
		Data: TwoByteDataToIntSlice(raw),
		Format: &audio.Format{
			SampleRate:  decoder.SampleRate(),
			NumChannels: mp3Channels,
		},
		SourceBitDepth: 16,
	}
	return intBufferToWaveform(intBuffer, 16)
}

func DecodeFromFlac(data []byte) (*models.Waveform, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode flac")
	}
	defer func() { dbg(stream.Close()) }()

	numChannels := int(stream.Info.NChannels)
	intBuffer := &audio.IntBuffer{
		Format: &audio.Format{
			SampleRate:  int(stream.Info.SampleRate),
			NumChannels: numChannels,
		},
		SourceBitDepth: int(stream.Info.BitsPerSample),
	}
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "cannot parse flac frame")
		}
		if len(frame.Subframes) != numChannels {
			return nil, errors.Errorf("flac frame has %d subframes, stream declares %d channels", len(frame.Subframes), numChannels)
		}
		// Interleave so the buffer looks like any other PCM buffer.
		for i := range frame.Subframes[0].Samples {
			for _, subframe := range frame.Subframes {
				intBuffer.Data = append(intBuffer.Data, int(subframe.Samples[i]))
			}
		}
	}
	return intBufferToWaveform(intBuffer, intBuffer.SourceBitDepth)
}

// intBufferToWaveform scales integer PCM into [-1, 1] and averages channels down to mono.
func intBufferToWaveform(intBuffer *audio.IntBuffer, bitDepth int) (*models.Waveform, error) {
	if intBuffer.Format == nil || intBuffer.Format.SampleRate <= 0 {
		return nil, errors.Wrap(ErrUnsupportedFormat, "missing sample rate")
	}
	numChannels := intBuffer.Format.NumChannels
	if numChannels <= 0 {
		numChannels = 1
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "bit depth %d", bitDepth)
	}
	numFrames := len(intBuffer.Data) / numChannels
	if numFrames == 0 {
		return nil, ErrNoSamples
	}

	scale := math.Pow(2, float64(bitDepth-1))
	offset := 0.0
	if bitDepth == 8 {
		// 8-bit wav is unsigned.
		offset = 128
	}

	samples := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		sum := 0.0
		for ch := 0; ch < numChannels; ch++ {
			sum += (float64(intBuffer.Data[i*numChannels+ch]) - offset) / scale
		}
		samples[i] = sum / float64(numChannels)
	}

	log.Debug().Int("num_frames", numFrames).Int("sample_rate", intBuffer.Format.SampleRate).Int("num_channels", numChannels).Int("source_bit_depth", bitDepth).Msg("decoded pcm to mono waveform")
	return &models.Waveform{Samples: samples, SampleRate: intBuffer.Format.SampleRate}, nil
}

// EncodeFloatsToWav writes mono samples as 16-bit PCM WAV. Samples outside [-1, 1] are clipped.
func EncodeFloatsToWav(samples []float64, sampleRate int) ([]byte, error) {
	intData := make([]int, len(samples))
	maxValue := math.Pow(2, outputBitDepth-1) - 1
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		intData[i] = int(math.Round(s * maxValue))
	}
	inputBuffer := &audio.IntBuffer{
		Data: intData,
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		SourceBitDepth: outputBitDepth,
	}
	return convertIntSamplesToWav(inputBuffer, sampleRate, 1, pcmAudioFormat)
}

func convertIntSamplesToWav(inputBuffer *audio.IntBuffer, sampleRate int, numChannels int, audioFormat int) (result []byte, err error) {
	// Create a new in-memory file system
	fs := afero.NewMemMapFs()
	// Create an in-memory file to support io.WriteSeeker needed for NewEncoder which is needed for finalizing headers.
	inMemoryFilename := "in-memory-output.wav"
	inMemoryFile, err := fs.Create(inMemoryFilename)
	if err != nil {
		err = errors.Wrap(err, "cannot create in-memory wav file")
		return
	}

	wavEncoder := wav.NewEncoder(inMemoryFile, sampleRate, outputBitDepth, numChannels, audioFormat)
	log.Debug().Int("int_data_length", len(inputBuffer.Data)).Int("sample_rate", sampleRate).Int("output_bit_depth", outputBitDepth).Int("num_channels", numChannels).Int("audio_format", audioFormat).Msg("encoding int stream output as a wav")
	// Write also emits the header, so it must run even for an empty buffer.
	if err = wavEncoder.Write(inputBuffer); err != nil {
		err = errors.Wrap(err, "cannot encode samples as wav")
		return
	}

	// Close the wavEncoder to flush any remaining data and finalize the WAV file
	if err = wavEncoder.Close(); err != nil {
		err = errors.Wrap(err, "cannot finish wav encoding")
		return
	}

	// We close and re-open the file so we can properly read-all of its contents.
	dbg(inMemoryFile.Close())
	result, err = afero.ReadFile(fs, inMemoryFilename)
	if err != nil {
		err = errors.Wrap(err, "cannot read back in-memory wav")
		return
	}
	if len(result) == 0 {
		err = errors.New("wav output is empty")
	}
	return
}

// TwoByteDataToIntSlice assumes S16LE samples.
func TwoByteDataToIntSlice(audioData []byte) []int {
	intData := make([]int, len(audioData)/2)
	for i := 0; i+1 < len(audioData); i += 2 {
		intData[i/2] = int(int16(uint16(audioData[i]) | uint16(audioData[i+1])<<8))
	}
	return intData
}
