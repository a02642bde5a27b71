// Package volumeio loads scans into memory and stores fused volumes.
//
// Raw volumes are headerless buffers of float32 samples in row-major order;
// their shape and byte order come from configuration. A raw path ending in
// ".zst" holds the same buffer compressed with zstd. Volumes can also be
// exchanged as numpy .npy files.
//
// Every writer goes through a temporary file in the destination directory
// that is renamed into place only after all data has been written.
package volumeio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"orthofuse/internal/models"
	"orthofuse/pkg/fusion"
)

const bytesPerSample = 4

// IsCompressed reports whether the path names a zstd-compressed raw volume
func IsCompressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zst")
}

// IsNpy reports whether the path names a numpy array file
func IsNpy(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".npy")
}

// Read loads a volume of the given shape, choosing the decoder from the
// file extension
func Read(path string, shape [3]int, order binary.ByteOrder) (*models.Volume, error) {
	if !IsNpy(path) {
		return ReadRaw(path, shape, order)
	}

	v, err := ReadNpy(path)
	if err != nil {
		return nil, err
	}
	if v.Shape != shape {
		return nil, fmt.Errorf("%w: %s has shape %v, expected %v", fusion.ErrInputShape, path, v.Shape, shape)
	}
	return v, nil
}

// ReadRaw loads a headerless float32 buffer and checks its length against shape
func ReadRaw(path string, shape [3]int, order binary.ByteOrder) (*models.Volume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if IsCompressed(path) {
		if data, err = decompress(data); err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
	}

	samples := shape[0] * shape[1] * shape[2]
	if len(data) != samples*bytesPerSample {
		return nil, fmt.Errorf("%w: %s holds %d bytes, shape %v needs %d",
			fusion.ErrInputShape, path, len(data), shape, samples*bytesPerSample)
	}

	return models.FromData(DecodeFloat32(data, order), shape)
}

// WriteRaw stores the volume as a headerless float32 buffer
func WriteRaw(path string, v *models.Volume, order binary.ByteOrder) error {
	data := EncodeFloat32(v.Data, order)
	if IsCompressed(path) {
		var err error
		if data, err = compress(data); err != nil {
			return fmt.Errorf("failed to compress %s: %w", path, err)
		}
	}

	return writeAtomic(path, func(tmp string) error {
		f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return err
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

// DecodeFloat32 converts a buffer of float32 samples to float64
func DecodeFloat32(data []byte, order binary.ByteOrder) []float64 {
	out := make([]float64, len(data)/bytesPerSample)
	for i := range out {
		bits := order.Uint32(data[i*bytesPerSample:])
		out[i] = float64(math.Float32frombits(bits))
	}
	return out
}

// EncodeFloat32 converts samples to a float32 buffer
func EncodeFloat32(samples []float64, order binary.ByteOrder) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		order.PutUint32(out[i*bytesPerSample:], math.Float32bits(float32(s)))
	}
	return out
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd encode: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

// writeAtomic creates a temporary file next to path, lets write fill it and
// renames it over path. On any error the temporary file is removed and path
// is left untouched.
func writeAtomic(path string, write func(tmp string) error) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	f, err := os.CreateTemp(dir, "."+base+".tmp-*"+filepath.Ext(base))
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	tmp := f.Name()
	f.Close()

	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
