// Package content caches contest sample test cases and fetches them from a
// remote source when missing.
package content

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	appErr "github.com/abnzrdev/trainer/pkg/errors"
)

// Sample is one (input, expected output) test case pair. Order matters:
// the first sample seeds a fresh workspace.
type Sample struct {
	Input  string `json:"in"`
	Output string `json:"out"`
}

// SamplePack bundles the samples of one problem for on-disk caching.
type SamplePack struct {
	Contest   string    `json:"contest"`
	ProblemID string    `json:"problem_id"`
	Samples   []Sample  `json:"samples"`
	FetchedAt time.Time `json:"fetched_at"`
}

// encodePack serializes and zstd-compresses a pack.
func encodePack(pack *SamplePack) ([]byte, error) {
	payload, err := json.Marshal(pack)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.SamplePackCorrupt, "encode sample pack failed")
	}

	var buf bytes.Buffer
	writer, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.SamplePackCorrupt, "init compressor failed")
	}
	if _, err := writer.Write(payload); err != nil {
		_ = writer.Close()
		return nil, appErr.Wrapf(err, appErr.SamplePackCorrupt, "compress sample pack failed")
	}
	if err := writer.Close(); err != nil {
		return nil, appErr.Wrapf(err, appErr.SamplePackCorrupt, "finish compressing sample pack failed")
	}
	return buf.Bytes(), nil
}

// decodePack decompresses and deserializes a pack.
func decodePack(data []byte) (*SamplePack, error) {
	reader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.SamplePackCorrupt, "init decompressor failed")
	}
	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.SamplePackCorrupt, "decompress sample pack failed")
	}

	var pack SamplePack
	if err := json.Unmarshal(payload, &pack); err != nil {
		return nil, appErr.Wrapf(err, appErr.SamplePackCorrupt, "decode sample pack failed")
	}
	return &pack, nil
}
