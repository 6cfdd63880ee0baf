// flashring.go implements the append-only record ring, adapted from the
// mmap-backed write-ahead log technique: a memory-mapped file with a
// fixed header plus a body, grown into once at creation and thereafter
// written in place as an sector-aligned ring rather than an
// ever-growing append log.
//
// File format:
//
//	Header (flashRingHeaderSize bytes):
//	  - Magic: "QLOG" (4 bytes)
//	  - Version: uint16
//	  - SectorSize: uint32
//	  - RecordSize: uint32
//	  - AreaLength: uint64 (bytes, a whole multiple of SectorSize)
//	  - NextUUID: uint64 (next record position to write, monotonic)
//	  - RotationNumber: uint64 (times the ring has wrapped)
//	  - Reserved padding to flashRingHeaderSize
//
//	Body: AreaLength bytes, divided into fixed RecordSize slots. A slot
//	holds: checksum(4) uuid(8) timestampSec(8) timestampMs(2) type(1)
//	data(maxDataSize), zero-padded to RecordSize.
//
// A record's slot is uuid % recordsPerArea. Crossing into a sector not
// yet written this rotation erases that sector first, so a crash mid-write
// never leaves a torn record overlapping stale data from two rotations
// ago.
package logpipeline

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const (
	flashRingMagic      = "QLOG"
	flashRingVersion    = uint16(1)
	flashRingHeaderSize = 64

	// DefaultSectorSize is the flash sector size assumed when none is
	// configured. The board-config header defining the real NOR flash
	// geometry (OCTAL_FLASH_SECTOR_SIZE) was not in the retrieval pack;
	// 4096 matches the common sector size for the octal flash parts this
	// platform uses.
	DefaultSectorSize = 4096

	// recordHeadSize is checksum(4) + uuid(8) + timestampSec(8) + timestampMs(2).
	recordHeadSize = 4 + 8 + 8 + 2
	// recordBodySize is type(1) + the largest Data variant.
	recordBodySize = 1 + maxDataSize
	// RecordSize is the fixed per-slot size every record occupies,
	// rounded up to an even number of bytes (MAKE_EVEN in the source).
	RecordSize = ((recordHeadSize + recordBodySize) + 1) &^ 1
)

const (
	headerOffMagic          = 0
	headerOffVersion        = 4
	headerOffSectorSize     = 6
	headerOffRecordSize     = 10
	headerOffAreaLength     = 14
	headerOffNextUUID       = 22
	headerOffRotationNumber = 30
)

// FlashRing is the append-only, sector-aligned record ring: the
// info-recorder write pointer and rotation number live in the header,
// and the payload recorder is the fixed-slot body, both backed by a
// single mmap'd file for crash-safe persistence.
type FlashRing struct {
	mu   sync.Mutex
	file *os.File
	data []byte

	sectorSize uint32
	areaLength uint64

	nextUUID       uint64
	rotationNumber uint64
	erasedSector   uint64 // index of the last sector erased this rotation
	haveErased     bool

	closed bool
}

// NewFlashRing opens or creates the ring file under dir, sized to hold
// areaLength bytes of records (rounded up to a whole number of sectors).
func NewFlashRing(dir string, areaLength uint64, sectorSize uint32) (*FlashRing, error) {
	if sectorSize == 0 {
		sectorSize = DefaultSectorSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ring directory: %w", err)
	}

	sectors := (areaLength + uint64(sectorSize) - 1) / uint64(sectorSize)
	if sectors == 0 {
		sectors = 1
	}
	areaLength = sectors * uint64(sectorSize)

	r := &FlashRing{sectorSize: sectorSize, areaLength: areaLength}

	path := filepath.Join(dir, "log.ring")
	if _, err := os.Stat(path); err == nil {
		if err := r.openExisting(path); err != nil {
			return nil, err
		}
		return r, nil
	}
	if err := r.createNew(path); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FlashRing) createNew(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create ring file: %w", err)
	}

	size := flashRingHeaderSize + r.areaLength
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return fmt.Errorf("truncate ring file: %w", err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return fmt.Errorf("mmap ring file: %w", err)
	}

	r.file = f
	r.data = data
	r.nextUUID = 0
	r.rotationNumber = 0
	r.writeHeader()
	return nil
}

func (r *FlashRing) openExisting(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open ring file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat ring file: %w", err)
	}
	size := uint64(info.Size())
	if size < flashRingHeaderSize {
		f.Close()
		return ErrCorrupted
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return fmt.Errorf("mmap ring file: %w", err)
	}

	r.file = f
	r.data = data

	if string(data[headerOffMagic:headerOffVersion]) != flashRingMagic {
		r.closeLocked()
		return ErrCorrupted
	}
	version := binary.LittleEndian.Uint16(data[headerOffVersion:headerOffSectorSize])
	if version != flashRingVersion {
		r.closeLocked()
		return ErrVersionMismatch
	}

	r.sectorSize = binary.LittleEndian.Uint32(data[headerOffSectorSize:headerOffRecordSize])
	recordSize := binary.LittleEndian.Uint32(data[headerOffRecordSize:headerOffAreaLength])
	if recordSize != RecordSize {
		r.closeLocked()
		return ErrVersionMismatch
	}
	r.areaLength = binary.LittleEndian.Uint64(data[headerOffAreaLength:headerOffNextUUID])
	r.nextUUID = binary.LittleEndian.Uint64(data[headerOffNextUUID:headerOffRotationNumber])
	r.rotationNumber = binary.LittleEndian.Uint64(data[headerOffRotationNumber : headerOffRotationNumber+8])

	return nil
}

func (r *FlashRing) writeHeader() {
	copy(r.data[headerOffMagic:], flashRingMagic)
	binary.LittleEndian.PutUint16(r.data[headerOffVersion:], flashRingVersion)
	binary.LittleEndian.PutUint32(r.data[headerOffSectorSize:], r.sectorSize)
	binary.LittleEndian.PutUint32(r.data[headerOffRecordSize:], RecordSize)
	binary.LittleEndian.PutUint64(r.data[headerOffAreaLength:], r.areaLength)
	binary.LittleEndian.PutUint64(r.data[headerOffNextUUID:], r.nextUUID)
	binary.LittleEndian.PutUint64(r.data[headerOffRotationNumber:], r.rotationNumber)
}

func (r *FlashRing) recordsPerArea() uint64 { return r.areaLength / RecordSize }
func (r *FlashRing) recordsPerSector() uint64 {
	return uint64(r.sectorSize) / RecordSize
}

// Append writes rec to the next ring slot, assigning its UUID, timestamp
// (10ms resolution) and checksum, and returns the assigned UUID.
func (r *FlashRing) Append(rec Record) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrRingClosed
	}

	uuid := r.nextUUID
	slot := uuid % r.recordsPerArea()
	sector := slot / r.recordsPerSector()

	if slot%r.recordsPerSector() == 0 && (!r.haveErased || sector != r.erasedSector) {
		r.eraseSector(sector)
		r.erasedSector = sector
		r.haveErased = true
	}

	now := time.Now()
	sec := now.Unix()
	ms := uint16((now.Nanosecond() / 1e6 / 10) * 10)

	buf := make([]byte, RecordSize)
	binary.LittleEndian.PutUint64(buf[4:12], uuid)
	binary.LittleEndian.PutUint64(buf[12:20], uint64(sec))
	binary.LittleEndian.PutUint16(buf[20:22], ms)
	buf[22] = byte(rec.Data.Type())
	rec.Data.encode(buf[23 : 23+maxDataSize])
	checksum := crc32.ChecksumIEEE(buf[4:])
	binary.LittleEndian.PutUint32(buf[0:4], checksum)

	offset := flashRingHeaderSize + slot*RecordSize
	copy(r.data[offset:offset+RecordSize], buf)

	r.nextUUID++
	if r.nextUUID%r.recordsPerArea() == 0 {
		r.rotationNumber++
	}
	r.writeHeader()

	return uuid, nil
}

func (r *FlashRing) eraseSector(sector uint64) {
	start := flashRingHeaderSize + sector*uint64(r.sectorSize)
	end := start + uint64(r.sectorSize)
	if end > uint64(len(r.data)) {
		end = uint64(len(r.data))
	}
	clear(r.data[start:end])
}

// GetRecord retrieves the record written at uuid. It returns
// ErrRecordNotFound if uuid was never written or has since been
// overwritten by the ring wrapping around.
func (r *FlashRing) GetRecord(uuid uint64) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero Record
	if r.closed {
		return zero, ErrRingClosed
	}
	if uuid >= r.nextUUID {
		return zero, ErrRecordNotFound
	}
	if r.nextUUID-uuid > r.recordsPerArea() {
		return zero, ErrRecordNotFound
	}
	// Entering a sector erases it whole, so once the ring has wrapped the
	// records that sat in the current sector a lap earlier are gone too.
	if rps := r.recordsPerSector(); r.recordsPerArea() > rps {
		sectorEnd := ((r.nextUUID-1)/rps + 1) * rps
		if sectorEnd > r.recordsPerArea() && uuid < sectorEnd-r.recordsPerArea() {
			return zero, ErrRecordNotFound
		}
	}

	slot := uuid % r.recordsPerArea()
	offset := flashRingHeaderSize + slot*RecordSize
	buf := r.data[offset : offset+RecordSize]

	checksum := binary.LittleEndian.Uint32(buf[0:4])
	gotUUID := binary.LittleEndian.Uint64(buf[4:12])
	if gotUUID != uuid || crc32.ChecksumIEEE(buf[4:]) != checksum {
		return zero, ErrCorrupted
	}

	sec := int64(binary.LittleEndian.Uint64(buf[12:20]))
	ms := binary.LittleEndian.Uint16(buf[20:22])
	ts := time.Unix(sec, 0).Add(time.Duration(ms) * time.Millisecond)

	data, err := decodeData(RecordType(buf[22]), buf[23:23+maxDataSize])
	if err != nil {
		return zero, err
	}

	return Record{
		Head: Head{UUID: uuid, Timestamp: ts, Checksum: checksum},
		Data: data,
	}, nil
}

// LastID returns the UUID of the most recently appended record, or
// ErrRecordNotFound if the ring is empty.
func (r *FlashRing) LastID() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nextUUID == 0 {
		return 0, ErrRecordNotFound
	}
	return r.nextUUID - 1, nil
}

// Format erases the entire ring and resets the write pointer and
// rotation number, for maintenance use only.
func (r *FlashRing) Format() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRingClosed
	}
	clear(r.data[flashRingHeaderSize:])
	r.nextUUID = 0
	r.rotationNumber = 0
	r.haveErased = false
	r.writeHeader()
	return unix.Msync(r.data, unix.MS_ASYNC)
}

// Sync forces the ring's pending writes to durable storage.
func (r *FlashRing) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRingClosed
	}
	return unix.Msync(r.data, unix.MS_SYNC)
}

// Close releases the ring's resources.
func (r *FlashRing) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *FlashRing) closeLocked() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.data != nil {
		_ = unix.Msync(r.data, unix.MS_SYNC)
		if err := unix.Munmap(r.data); err != nil {
			return fmt.Errorf("munmap ring file: %w", err)
		}
		r.data = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return fmt.Errorf("close ring file: %w", err)
		}
		r.file = nil
	}
	return nil
}
