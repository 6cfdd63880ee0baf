package configstore

import (
	"crypto/sha256"
	"hash"
	"os"
	"sync"
)

// FwUpdateSectorSize is the alignment WriteFwUpdateChunk enforces between
// successive chunk offsets, mirroring flash_recorder.h's sector geometry
// (not itself in the retrieval pack; 4096 matches the sector size already
// established for the log ring in internal/logpipeline and keeps both
// flash consumers on one convention).
const FwUpdateSectorSize = 4096

// FwUpdateWriter streams a firmware image to a staging file, enforcing
// strictly sequential, sector-aligned chunk offsets and counting each
// sector once, the first time a chunk touches it (the staging file is
// truncated at creation, so no erase fill is written), mirroring
// CONFIG_WriteFwUpdateChunk's documented contract over a raw flash region.
type FwUpdateWriter struct {
	mu sync.Mutex

	file *os.File

	expectedOffset uint64
	erasedSectors  map[uint64]bool
	sectorWrites   int
	digest         hash.Hash
	total          uint64
}

// NewFwUpdateWriter creates (truncating) the staging file at path.
func NewFwUpdateWriter(path string) (*FwUpdateWriter, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &FwUpdateWriter{
		file:          f,
		erasedSectors: make(map[uint64]bool),
		digest:        sha256.New(),
	}, nil
}

// WriteChunk appends data at offset. offset must equal the number of
// bytes written so far and must land on a sector boundary; violating
// either returns ErrChunkMisaligned, matching CONFIG_WriteFwUpdateChunk's
// implicit sequential-write contract.
func (w *FwUpdateWriter) WriteChunk(offset uint64, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if offset != w.expectedOffset {
		return ErrChunkMisaligned
	}
	if offset%FwUpdateSectorSize != 0 {
		return ErrChunkMisaligned
	}

	last := offset
	if len(data) > 0 {
		last = offset + uint64(len(data)) - 1
	}
	for sector := offset / FwUpdateSectorSize; sector <= last/FwUpdateSectorSize; sector++ {
		if !w.erasedSectors[sector] {
			w.erasedSectors[sector] = true
			w.sectorWrites++
		}
	}

	if _, err := w.file.WriteAt(data, int64(offset)); err != nil {
		return err
	}
	w.digest.Write(data)
	w.expectedOffset += uint64(len(data))
	w.total += uint64(len(data))
	return nil
}

// SectorWrites returns the number of distinct sectors written so far.
func (w *FwUpdateWriter) SectorWrites() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sectorWrites
}

// Finish returns the total bytes written and the SHA-256 digest of the
// image assembled so far, then closes the staging file.
func (w *FwUpdateWriter) Finish() (bytesWritten uint64, sum [sha256.Size]byte, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	copy(sum[:], w.digest.Sum(nil))
	bytesWritten = w.total
	err = w.file.Close()
	return
}
