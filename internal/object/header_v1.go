package object

import (
	"fmt"

	"github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/message"
)

// readV1 decodes a version 1 object header. The prelude is a version
// byte, a reserved byte, the message count, the reference count and
// the total message byte size; the messages follow on the next 8-byte
// boundary. Each message is framed as a 2-byte type, 2-byte data size,
// flag byte and three reserved bytes, with its data padded to 8 bytes.
func readV1(r *binary.Reader, address uint64) (*Header, error) {
	version, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, fmt.Errorf("%w: expected version 1, got %d", ErrUnsupportedVersion, version)
	}

	r.Skip(1) // reserved

	numMessages, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}

	refCount, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	headerSize, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}

	hdr := &Header{
		Version:  1,
		Address:  address,
		RefCount: refCount,
		Messages: make([]message.Message, 0, numMessages),
	}

	r.Align(8)
	hdr.Messages = append(hdr.Messages, readV1MessageRun(r, r.Pos()+int64(headerSize))...)

	return hdr, nil
}

// readV1MessageRun decodes framed messages until end, following
// continuation messages into their blocks. NIL messages and message
// types the parser does not know are dropped.
func readV1MessageRun(r *binary.Reader, end int64) []message.Message {
	var messages []message.Message

	for r.Pos() < end {
		msgType, err := r.ReadUint16()
		if err != nil {
			break
		}

		dataSize, err := r.ReadUint16()
		if err != nil {
			break
		}

		flags, err := r.ReadUint8()
		if err != nil {
			break
		}

		r.Skip(3) // reserved

		data, err := r.ReadBytes(int(dataSize))
		if err != nil {
			break
		}

		r.Align(8)

		if msgType == 0 {
			continue
		}

		if message.Type(msgType) == message.TypeObjectHeaderContinuation {
			contMsg, err := message.ParseContinuation(data, r)
			if err != nil {
				continue
			}
			cr := r.At(int64(contMsg.Offset))
			messages = append(messages, readV1MessageRun(cr, int64(contMsg.Offset+contMsg.Length))...)
			continue
		}

		msg, err := message.Parse(message.Type(msgType), data, flags, r)
		if err != nil {
			continue
		}

		messages = append(messages, msg)
	}

	return messages
}
