package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// ArchiveEntry is one file written into a test archive, in order
type ArchiveEntry struct {
	Name    string
	Content string
}

// CreateTestZip creates an in-memory ZIP with the given entries, preserving their order
func CreateTestZip(t testing.TB, entries []ArchiveEntry) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	for _, entry := range entries {
		f, err := w.Create(entry.Name)
		if err != nil {
			t.Fatalf("Failed to create file %s in ZIP: %v", entry.Name, err)
		}
		if _, err := f.Write([]byte(entry.Content)); err != nil {
			t.Fatalf("Failed to write content to %s in ZIP: %v", entry.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close ZIP writer: %v", err)
	}

	return buf.Bytes()
}

// CreateTestGzip creates a gzip member whose header carries name
func CreateTestGzip(t testing.TB, name string, content string) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := gzip.NewWriter(buf)
	w.Name = name
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write gzip content: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close gzip writer: %v", err)
	}

	return buf.Bytes()
}

// CreateTestRar creates an in-memory RAR 4.x archive holding the entries uncompressed ("store" method).
// Entries whose name ends with '/' are written as directories.
func CreateTestRar(t testing.TB, entries []ArchiveEntry) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	buf.WriteString("Rar!\x1a\x07\x00")

	// Main archive header, no flags, 6 reserved bytes.
	writeRarBlock(buf, 0x73, 0x0000, make([]byte, 6))

	for _, entry := range entries {
		name := []byte(strings.TrimSuffix(entry.Name, "/"))
		content := []byte(entry.Content)
		flags := uint16(0x8000) // header is followed by packed data
		attributes := uint32(0x20)
		if strings.HasSuffix(entry.Name, "/") {
			flags |= 0x00e0 // directory window size
			attributes = 0x10
			content = nil
		}

		fields := make([]byte, 25, 25+len(name))
		binary.LittleEndian.PutUint32(fields[0:], uint32(len(content))) // packed size
		binary.LittleEndian.PutUint32(fields[4:], uint32(len(content))) // unpacked size
		fields[8] = 0                                                    // host OS: MS-DOS
		binary.LittleEndian.PutUint32(fields[9:], crc32.ChecksumIEEE(content))
		binary.LittleEndian.PutUint32(fields[13:], 0x00210000) // 1980-01-01 00:00:00
		fields[17] = 20                                        // version needed to extract
		fields[18] = 0x30                                      // store
		binary.LittleEndian.PutUint16(fields[19:], uint16(len(name)))
		binary.LittleEndian.PutUint32(fields[21:], attributes)
		fields = append(fields, name...)

		writeRarBlock(buf, 0x74, flags, fields)
		buf.Write(content)
	}

	// End of archive.
	writeRarBlock(buf, 0x7b, 0x4000, nil)

	return buf.Bytes()
}

// writeRarBlock writes a RAR 4.x block header whose CRC covers everything after the CRC field
func writeRarBlock(buf *bytes.Buffer, blockType byte, flags uint16, fields []byte) {
	header := make([]byte, 5, 5+len(fields))
	header[0] = blockType
	binary.LittleEndian.PutUint16(header[1:], flags)
	binary.LittleEndian.PutUint16(header[3:], uint16(7+len(fields)))
	header = append(header, fields...)

	var crc [2]byte
	binary.LittleEndian.PutUint16(crc[:], uint16(crc32.ChecksumIEEE(header)))
	buf.Write(crc[:])
	buf.Write(header)
}
