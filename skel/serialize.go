/*
	This file supports serialization/deserialization and compression of data
	persisted by the skeletonization pipeline.
*/

package skel

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash/crc32"

	"github.com/golang/snappy"
)

// Compression is the format of compression for storing data.
// NOTE: Should be no more than 8 (3 bits) of compression types.
type Compression uint8

const (
	Uncompressed Compression = 0
	Snappy       Compression = 1
)

func (compress Compression) String() string {
	switch compress {
	case Uncompressed:
		return "No compression"
	case Snappy:
		return "Go Snappy compression"
	default:
		return "Unknown compression"
	}
}

// Checksum is the type of checksum employed for error checking stored data.
// NOTE: Should be no more than 4 (2 bits) of checksum types.
type Checksum uint8

const (
	NoChecksum Checksum = 0
	CRC32      Checksum = 1
)

func (checksum Checksum) String() string {
	switch checksum {
	case NoChecksum:
		return "No checksum"
	case CRC32:
		return "CRC32 checksum"
	default:
		return "Unknown checksum"
	}
}

// DefaultCompression and DefaultChecksum are used for all pipeline values
// unless a caller opts out.
const (
	DefaultCompression = Snappy
	DefaultChecksum    = CRC32
)

// SerializationFormat is a single byte combining both compression and checksum methods.
type SerializationFormat uint8

func EncodeSerializationFormat(compress Compression, checksum Checksum) SerializationFormat {
	a := (uint8(compress) & 0x07) << 5
	b := (uint8(checksum) & 0x03) << 3
	return SerializationFormat(a | b)
}

func DecodeSerializationFormat(s SerializationFormat) (compress Compression, checksum Checksum) {
	compress = Compression(uint8(s) >> 5)
	checksum = Checksum((uint8(s) >> 3) & 0x03)
	return
}

// SerializeData serializes a slice of bytes using optional compression, checksum.
func SerializeData(data []byte, compress Compression, checksum Checksum) (s []byte, err error) {
	var buffer bytes.Buffer

	// Store the requested compression and checksum.
	format := EncodeSerializationFormat(compress, checksum)
	if err = binary.Write(&buffer, binary.LittleEndian, format); err != nil {
		return
	}

	var byteData []byte
	switch compress {
	case Uncompressed:
		byteData = data
	case Snappy:
		byteData = snappy.Encode(nil, data)
	default:
		err = fmt.Errorf("illegal compression (%s) during serialization", compress)
		return
	}

	switch checksum {
	case NoChecksum:
	case CRC32:
		crcChecksum := crc32.ChecksumIEEE(byteData)
		err = binary.Write(&buffer, binary.LittleEndian, crcChecksum)
	default:
		err = fmt.Errorf("illegal checksum (%s) in SerializeData()", checksum)
	}
	if err == nil {
		// The actual data is written last, after any checksum, so we don't
		// have to worry about length when deserializing.
		if _, err = buffer.Write(byteData); err == nil {
			s = buffer.Bytes()
		}
	}
	return
}

// Serialize an arbitrary Go object using Gob encoding and optional compression, checksum.
// If your object is []byte, you should preferentially use SerializeData since the Gob
// encoding process adds some overhead.
func Serialize(object interface{}, compress Compression, checksum Checksum) ([]byte, error) {
	var buffer bytes.Buffer
	enc := gob.NewEncoder(&buffer)
	if err := enc.Encode(object); err != nil {
		return nil, err
	}
	return SerializeData(buffer.Bytes(), compress, checksum)
}

// DeserializeData deserializes a slice of bytes using stored compression, checksum.
// If uncompress parameter is false, the data is not uncompressed.
func DeserializeData(s []byte, uncompress bool) (data []byte, compress Compression, err error) {
	buffer := bytes.NewBuffer(s)

	var format SerializationFormat
	if err = binary.Read(buffer, binary.LittleEndian, &format); err != nil {
		return
	}
	var checksum Checksum
	compress, checksum = DecodeSerializationFormat(format)

	var storedCrc32 uint32
	switch checksum {
	case NoChecksum:
	case CRC32:
		err = binary.Read(buffer, binary.LittleEndian, &storedCrc32)
	default:
		err = fmt.Errorf("illegal checksum in deserializing data")
	}
	if err != nil {
		return
	}

	cdata := buffer.Bytes()

	switch checksum {
	case CRC32:
		crcChecksum := crc32.ChecksumIEEE(cdata)
		if crcChecksum != storedCrc32 {
			err = fmt.Errorf("bad checksum: stored %x got %x", storedCrc32, crcChecksum)
			return
		}
	}

	if uncompress {
		switch compress {
		case Uncompressed:
			data = cdata
		case Snappy:
			data, err = snappy.Decode(nil, cdata)
		default:
			err = fmt.Errorf("illegal compression format (%d) in deserialization", compress)
		}
	}
	return
}

// Deserialize a Go object using Gob encoding.
func Deserialize(s []byte, object interface{}) error {
	data, _, err := DeserializeData(s, true)
	if err != nil {
		return err
	}
	buffer := bytes.NewBuffer(data)
	dec := gob.NewDecoder(buffer)
	return dec.Decode(object)
}
