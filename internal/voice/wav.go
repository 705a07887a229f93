package voice

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// wavHeaderSize is the size of a canonical PCM WAV header
const wavHeaderSize = 44

// WAVInfo describes an uploaded readback recording
type WAVInfo struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// InspectWAV validates that the reader starts with a PCM WAV header and
// returns its parameters along with a reader replaying the full stream.
// Rejecting malformed uploads here avoids a pointless transcription call.
func InspectWAV(r io.Reader) (*WAVInfo, io.Reader, error) {
	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, nil, fmt.Errorf("audio upload too short for a WAV header: %w", err)
	}

	if !bytes.Equal(header[0:4], []byte("RIFF")) || !bytes.Equal(header[8:12], []byte("WAVE")) {
		return nil, nil, fmt.Errorf("audio upload is not a WAV file")
	}
	if !bytes.Equal(header[12:16], []byte("fmt ")) {
		return nil, nil, fmt.Errorf("WAV file missing fmt chunk")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	if audioFormat != 1 {
		return nil, nil, fmt.Errorf("unsupported WAV encoding %d, expected PCM", audioFormat)
	}

	info := &WAVInfo{
		Channels:      int(binary.LittleEndian.Uint16(header[22:24])),
		SampleRate:    int(binary.LittleEndian.Uint32(header[24:28])),
		BitsPerSample: int(binary.LittleEndian.Uint16(header[34:36])),
	}
	if info.Channels < 1 || info.SampleRate == 0 {
		return nil, nil, fmt.Errorf("WAV header carries invalid format parameters")
	}

	return info, io.MultiReader(bytes.NewReader(header), r), nil
}
