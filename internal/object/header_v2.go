package object

import (
	"fmt"

	"github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/message"
)

// Version 2 headers open with "OHDR", a version byte and a flags byte.
// Flag bits 0-1 give the width of the chunk size field as 1<<bits bytes,
// bit 2 turns on per-message creation order fields, bit 4 adds attribute
// phase change values and bit 5 adds four 4-byte timestamps. The chunk
// size counts message bytes only; a lookup3 checksum closes the chunk.
func readV2(r *binary.Reader, address uint64) (*Header, error) {
	// Signature was checked by the caller.
	r.Skip(4)

	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, fmt.Errorf("%w: expected version 2, got %d", ErrUnsupportedVersion, version)
	}

	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}

	hdr := &Header{Version: 2, Address: address, Flags: flags}

	if flags&0x20 != 0 {
		for _, t := range []*uint32{&hdr.AccessTime, &hdr.ModTime, &hdr.ChangeTime, &hdr.BirthTime} {
			*t, _ = r.ReadUint32()
		}
	}

	if flags&0x10 != 0 {
		// Max compact and min dense attribute counts, 2 bytes each.
		r.Skip(4)
	}

	sizeFieldSize := 1 << (flags & 0x03)
	chunk0Size, err := r.ReadUintN(sizeFieldSize)
	if err != nil {
		return nil, err
	}

	trackCreationOrder := flags&0x04 != 0

	// The trailing 4 bytes of the chunk are its checksum, which the
	// message loop must not consume. Verification is left to callers
	// that need it.
	chunkEnd := r.Pos() + int64(chunk0Size) - 4

	hdr.Messages = readV2MessageRun(r, r, chunkEnd, trackCreationOrder)
	return hdr, nil
}

// readV2MessageRun decodes messages from cr until end, chasing any
// continuation messages through fileR. Unparseable tails are dropped
// rather than failing the whole header.
func readV2MessageRun(fileR, cr *binary.Reader, end int64, trackCreationOrder bool) []message.Message {
	var messages []message.Message
	for cr.Pos() < end {
		msg, err := readV2Message(cr, trackCreationOrder)
		if err != nil {
			break
		}
		if msg == nil {
			continue
		}
		if cont, ok := msg.(*message.Continuation); ok {
			contMsgs, err := readV2Continuation(fileR, cont.Offset, cont.Length, trackCreationOrder)
			if err == nil {
				messages = append(messages, contMsgs...)
			}
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

// readV2Continuation decodes a continuation block, which is framed as an
// "OCHK" signature, message bytes and a closing checksum.
func readV2Continuation(r *binary.Reader, offset, length uint64, trackCreationOrder bool) ([]message.Message, error) {
	cr := r.At(int64(offset))

	sig, err := cr.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	if string(sig) != "OCHK" {
		return nil, fmt.Errorf("invalid continuation block signature: %s", sig)
	}

	chunkEnd := int64(offset) + int64(length) - 4
	return readV2MessageRun(r, cr, chunkEnd, trackCreationOrder), nil
}

func readV2Message(r *binary.Reader, trackCreationOrder bool) (message.Message, error) {
	msgType, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}

	var dataSize uint64
	if msgType == 0xFF {
		// Extended framing carries the type after the marker and a
		// 32-bit size for data too large for the 16-bit field.
		if msgType, err = r.ReadUint8(); err != nil {
			return nil, err
		}
		dataSize, err = r.ReadUintN(4)
	} else {
		dataSize, err = r.ReadUintN(2)
	}
	if err != nil {
		return nil, err
	}

	flags, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if trackCreationOrder {
		r.Skip(2)
	}

	data, err := r.ReadBytes(int(dataSize))
	if err != nil {
		return nil, err
	}

	// NIL messages only pad the chunk.
	if msgType == 0 {
		return nil, nil
	}
	return message.Parse(message.Type(msgType), data, flags, r)
}
