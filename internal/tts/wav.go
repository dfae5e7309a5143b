package tts

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var (
	riffTag = []byte("RIFF")
	waveTag = []byte("WAVE")
	dataTag = []byte("data")
)

// mergeWAV joins RIFF/PCM clips with identical encoding parameters into a
// single file: the first clip's header is kept, the sample data of the rest
// is appended, and the RIFF and data chunk sizes are rewritten. Clips must
// have their data chunk last, which holds for synthesis output.
func mergeWAV(clips [][]byte) ([]byte, error) {
	if len(clips) == 0 {
		return nil, fmt.Errorf("no clips to merge")
	}

	dataOff, err := wavDataOffset(clips[0])
	if err != nil {
		return nil, fmt.Errorf("clip 0: %w", err)
	}

	out := make([]byte, len(clips[0]))
	copy(out, clips[0])
	for i, clip := range clips[1:] {
		off, err := wavDataOffset(clip)
		if err != nil {
			return nil, fmt.Errorf("clip %d: %w", i+1, err)
		}
		out = append(out, clip[off:]...)
	}

	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	binary.LittleEndian.PutUint32(out[dataOff-4:dataOff], uint32(len(out)-dataOff))
	return out, nil
}

// wavDataOffset returns the offset of the first sample byte: the position
// just past the data chunk header.
func wavDataOffset(b []byte) (int, error) {
	if len(b) < 12 || !bytes.Equal(b[:4], riffTag) || !bytes.Equal(b[8:12], waveTag) {
		return 0, fmt.Errorf("not a RIFF/WAVE file")
	}
	i := 12
	for i+8 <= len(b) {
		size := int(binary.LittleEndian.Uint32(b[i+4 : i+8]))
		if bytes.Equal(b[i:i+4], dataTag) {
			return i + 8, nil
		}
		i += 8 + size
		if size%2 == 1 {
			i++ // chunks are word-aligned
		}
	}
	return 0, fmt.Errorf("no data chunk")
}
