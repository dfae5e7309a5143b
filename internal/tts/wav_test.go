package tts

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// testWAV builds a minimal RIFF/PCM file around the given samples.
func testWAV(samples []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(samples)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(24000))
	binary.Write(&buf, binary.LittleEndian, uint32(48000))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(samples)))
	buf.Write(samples)
	return buf.Bytes()
}

func TestMergeWAV(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	b := []byte{5, 6}
	c := []byte{7, 8, 9, 10}

	merged, err := mergeWAV([][]byte{testWAV(a), testWAV(b), testWAV(c)})
	if err != nil {
		t.Fatal(err)
	}

	off, err := wavDataOffset(merged)
	if err != nil {
		t.Fatal(err)
	}
	want := append(append(append([]byte{}, a...), b...), c...)
	if !bytes.Equal(merged[off:], want) {
		t.Errorf("merged samples = %v, want %v", merged[off:], want)
	}

	riffSize := binary.LittleEndian.Uint32(merged[4:8])
	if int(riffSize) != len(merged)-8 {
		t.Errorf("RIFF size = %d, want %d", riffSize, len(merged)-8)
	}
	dataSize := binary.LittleEndian.Uint32(merged[off-4 : off])
	if int(dataSize) != len(want) {
		t.Errorf("data chunk size = %d, want %d", dataSize, len(want))
	}
}

func TestMergeWAVSingleClip(t *testing.T) {
	clip := testWAV([]byte{9, 9, 9, 9})
	merged, err := mergeWAV([][]byte{clip})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(merged, clip) {
		t.Errorf("single clip changed by merge")
	}
}

func TestMergeWAVRejectsGarbage(t *testing.T) {
	if _, err := mergeWAV(nil); err == nil {
		t.Error("expected error for empty clip list")
	}
	if _, err := mergeWAV([][]byte{[]byte("mp3 frames, not wav")}); err == nil {
		t.Error("expected error for non-RIFF input")
	}
}
