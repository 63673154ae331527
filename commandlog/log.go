// Copyright 2026 The Meshdir Authors
// SPDX-License-Identifier: Apache-2.0

package commandlog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"

	"github.com/meshdir-foundation/meshdir/lib/codec"
	"github.com/meshdir-foundation/meshdir/lib/schema"
)

// Frame layout, all integers big-endian:
//
//	magic (8 bytes, file header only)
//	per record:
//	  tag             uint8   compression of this record
//	  uncompressed    uint32  payload size before compression
//	  stored          uint32  payload size as written
//	  payload         stored bytes
//
// These values are protocol constants; changing them breaks every
// existing log file.
const (
	logMagic = "MDLOG\x00\x01\n"

	// maxRecordSize bounds a single record. A command envelope is a
	// few kilobytes at most; anything near this limit is corruption.
	maxRecordSize = 1 << 20
)

// compressionTag identifies the compression of one record.
type compressionTag uint8

const (
	compressionNone compressionTag = 0
	compressionLZ4  compressionTag = 1
)

// Writer appends command envelopes to a log stream.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer
}

// NewWriter starts a fresh log on w, writing the file header
// immediately.
func NewWriter(w io.Writer) (*Writer, error) {
	writer := &Writer{w: bufio.NewWriter(w)}
	if _, err := writer.w.WriteString(logMagic); err != nil {
		return nil, fmt.Errorf("commandlog: writing header: %w", err)
	}
	return writer, nil
}

// Create starts a fresh log file at path, truncating any existing
// file. The caller must Close the writer.
func Create(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("commandlog: creating %s: %w", path, err)
	}
	writer, err := NewWriter(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	writer.closer = file
	return writer, nil
}

// OpenAppend opens an existing log file for appending, creating a
// fresh log when the file is absent or empty. The header of an
// existing file is verified before any record is written.
func OpenAppend(path string) (*Writer, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("commandlog: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return Create(path)
	}

	file, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("commandlog: opening %s: %w", path, err)
	}
	magic := make([]byte, len(logMagic))
	if _, err := io.ReadFull(file, magic); err != nil {
		file.Close()
		return nil, fmt.Errorf("commandlog: reading header of %s: %w", path, err)
	}
	if string(magic) != logMagic {
		file.Close()
		return nil, fmt.Errorf("commandlog: %s: bad magic %q", path, magic)
	}
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		file.Close()
		return nil, fmt.Errorf("commandlog: seeking end of %s: %w", path, err)
	}
	return &Writer{w: bufio.NewWriter(file), closer: file}, nil
}

// Append writes one envelope as a compressed record.
func (w *Writer) Append(envelope *schema.Envelope) error {
	record, err := codec.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("commandlog: encoding record: %w", err)
	}
	if len(record) > maxRecordSize {
		return fmt.Errorf("commandlog: record is %d bytes, maximum is %d", len(record), maxRecordSize)
	}

	tag := compressionLZ4
	stored := make([]byte, lz4.CompressBlockBound(len(record)))
	written, err := lz4.CompressBlock(record, stored, nil)
	if err != nil {
		return fmt.Errorf("commandlog: lz4 compress: %w", err)
	}
	if written == 0 || written >= len(record) {
		// Incompressible; store raw.
		tag = compressionNone
		stored = record
	} else {
		stored = stored[:written]
	}

	var header [9]byte
	header[0] = byte(tag)
	binary.BigEndian.PutUint32(header[1:5], uint32(len(record)))
	binary.BigEndian.PutUint32(header[5:9], uint32(len(stored)))
	if _, err := w.w.Write(header[:]); err != nil {
		return fmt.Errorf("commandlog: writing record header: %w", err)
	}
	if _, err := w.w.Write(stored); err != nil {
		return fmt.Errorf("commandlog: writing record payload: %w", err)
	}
	return nil
}

// Flush pushes buffered records to the underlying writer. Hosts call
// this after each applied command so a crash loses at most the
// in-flight record.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("commandlog: flush: %w", err)
	}
	return nil
}

// Close flushes and, when the writer owns the file, closes it.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// Reader replays a log stream record by record.
type Reader struct {
	r      *bufio.Reader
	closer io.Closer
}

// NewReader opens a log stream, verifying the file header.
func NewReader(r io.Reader) (*Reader, error) {
	reader := &Reader{r: bufio.NewReader(r)}
	magic := make([]byte, len(logMagic))
	if _, err := io.ReadFull(reader.r, magic); err != nil {
		return nil, fmt.Errorf("commandlog: reading header: %w", err)
	}
	if string(magic) != logMagic {
		return nil, fmt.Errorf("commandlog: bad magic %q", magic)
	}
	return reader, nil
}

// Open opens a log file at path. The caller must Close the reader.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("commandlog: opening %s: %w", path, err)
	}
	reader, err := NewReader(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.closer = file
	return reader, nil
}

// Next returns the next envelope, or io.EOF at a clean end of log.
// A partial trailing record returns ErrUnexpectedEOF.
func (r *Reader) Next() (*schema.Envelope, error) {
	var header [9]byte
	if _, err := io.ReadFull(r.r, header[:1]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("commandlog: reading record header: %w", err)
	}
	if _, err := io.ReadFull(r.r, header[1:]); err != nil {
		return nil, fmt.Errorf("commandlog: reading record header: %w", err)
	}

	tag := compressionTag(header[0])
	uncompressed := binary.BigEndian.Uint32(header[1:5])
	stored := binary.BigEndian.Uint32(header[5:9])
	if uncompressed > maxRecordSize || stored > maxRecordSize {
		return nil, fmt.Errorf("commandlog: record sizes %d/%d exceed maximum %d", uncompressed, stored, maxRecordSize)
	}

	payload := make([]byte, stored)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, fmt.Errorf("commandlog: reading record payload: %w", err)
	}

	var record []byte
	switch tag {
	case compressionNone:
		if stored != uncompressed {
			return nil, fmt.Errorf("commandlog: raw record sizes disagree: %d vs %d", stored, uncompressed)
		}
		record = payload
	case compressionLZ4:
		record = make([]byte, uncompressed)
		read, err := lz4.UncompressBlock(payload, record)
		if err != nil {
			return nil, fmt.Errorf("commandlog: lz4 decompress: %w", err)
		}
		if read != int(uncompressed) {
			return nil, fmt.Errorf("commandlog: lz4 decompress: got %d bytes, expected %d", read, uncompressed)
		}
	default:
		return nil, fmt.Errorf("commandlog: unknown compression tag %d", tag)
	}

	var envelope schema.Envelope
	if err := codec.Unmarshal(record, &envelope); err != nil {
		return nil, fmt.Errorf("commandlog: decoding record: %w", err)
	}
	return &envelope, nil
}

// Close closes the underlying file when the reader owns one.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Replay feeds every record to apply in log order, stopping at the
// first error. Returns the number of records applied.
func (r *Reader) Replay(apply func(*schema.Envelope) error) (int, error) {
	applied := 0
	for {
		envelope, err := r.Next()
		if err == io.EOF {
			return applied, nil
		}
		if err != nil {
			return applied, err
		}
		if err := apply(envelope); err != nil {
			return applied, fmt.Errorf("commandlog: applying record %d: %w", applied, err)
		}
		applied++
	}
}
