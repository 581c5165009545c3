package object

import (
	"github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/message"
)

// MinGroupChunkSize pads group object headers so links appended later
// can reuse the space. The value matches what common writers emit.
const MinGroupChunkSize = 120

// WriteHeader emits a v2 object header at the writer's position and
// reports the bytes written.
func WriteHeader(w *binary.Writer, messages []message.Message) (int64, error) {
	return WriteHeaderWithMinChunk(w, messages, 0)
}

// WriteHeaderWithMinChunk emits a v2 object header whose chunk is
// padded with a NIL message up to minChunkSize. The chunk size field
// counts message bytes only; the lookup3 checksum follows the chunk, so
// the whole header is staged in memory before hitting the file.
func WriteHeaderWithMinChunk(w *binary.Writer, messages []message.Message, minChunkSize int) (int64, error) {
	messagesSize, chunkSize, chunkSizeFieldSize := headerGeometry(w, messages, minChunkSize)

	buf := make([]byte, 6+chunkSizeFieldSize+chunkSize+4)
	bw := binary.NewWriter(&bufferWriterAt{buf: buf}, binary.Config{
		ByteOrder:  w.ByteOrder(),
		OffsetSize: w.OffsetSize(),
		LengthSize: w.LengthSize(),
	})

	var err error
	emit := func(f func() error) {
		if err == nil {
			err = f()
		}
	}

	// Flag bits 0-1 hold log2 of the chunk size field width.
	var flags uint8
	for 1<<flags < chunkSizeFieldSize {
		flags++
	}

	emit(func() error { return bw.WriteBytes(SignatureV2) })
	emit(func() error { return bw.WriteUint8(2) })
	emit(func() error { return bw.WriteUint8(flags) })
	emit(func() error { return bw.WriteUintN(uint64(chunkSize), chunkSizeFieldSize) })

	for _, msg := range messages {
		m := msg
		emit(func() error { return writeV2Message(bw, m) })
	}

	if paddingSize := chunkSize - messagesSize; paddingSize > 0 {
		// Fill with one NIL message: type, 2-byte size, flags, zeros.
		nilDataSize := paddingSize - 4
		if nilDataSize < 0 {
			nilDataSize = 0
		}
		emit(func() error { return bw.WriteUint8(0x00) })
		emit(func() error { return bw.WriteUint16(uint16(nilDataSize)) })
		emit(func() error { return bw.WriteUint8(0x00) })
		emit(func() error { return bw.WriteZeros(nilDataSize) })
	}

	// Checksum covers everything up to itself.
	emit(func() error { return bw.WriteUint32(binary.Lookup3Checksum(buf[:bw.Pos()])) })
	if err != nil {
		return 0, err
	}

	startPos := w.Pos()
	if err := w.WriteBytes(buf[:bw.Pos()]); err != nil {
		return 0, err
	}
	return w.Pos() - startPos, nil
}

// writeV2Message emits one message with its v2 framing. Messages whose
// data would overflow the 2-byte size field switch to the extended
// framing with a 0xFF marker and a 4-byte size.
func writeV2Message(w *binary.Writer, msg message.Message) error {
	s, ok := msg.(message.Serializable)
	if !ok {
		return nil
	}
	dataSize := s.SerializedSize(w)

	var err error
	emit := func(f func() error) {
		if err == nil {
			err = f()
		}
	}

	if dataSize > 65535 {
		emit(func() error { return w.WriteUint8(0xFF) })
		emit(func() error { return w.WriteUint8(uint8(msg.Type())) })
		emit(func() error { return w.WriteUint32(uint32(dataSize)) })
	} else {
		emit(func() error { return w.WriteUint8(uint8(msg.Type())) })
		emit(func() error { return w.WriteUint16(uint16(dataSize)) })
	}
	emit(func() error { return w.WriteUint8(0) }) // message flags
	emit(func() error { return s.Serialize(w) })
	return err
}

// messageHeaderSize reports the framing bytes a message will need.
func messageHeaderSize(w *binary.Writer, msg message.Message) int {
	s, ok := msg.(message.Serializable)
	if !ok {
		return 0
	}
	if s.SerializedSize(w) > 65535 {
		return 7
	}
	return 4
}

// chunkSizeFieldBytes picks the smallest width that fits the chunk size.
func chunkSizeFieldBytes(size int64) int {
	n := 1
	for n < 8 && size >= 1<<(8*n) {
		n *= 2
	}
	return n
}

// bufferWriterAt collects header bytes in memory so the checksum can
// be computed before anything reaches the file.
type bufferWriterAt struct {
	buf []byte
}

func (b *bufferWriterAt) WriteAt(p []byte, off int64) (n int, err error) {
	if int(off)+len(p) > len(b.buf) {
		newBuf := make([]byte, int(off)+len(p))
		copy(newBuf, b.buf)
		b.buf = newBuf
	}
	copy(b.buf[off:], p)
	return len(p), nil
}

// HeaderSize predicts the byte size WriteHeader would produce.
func HeaderSize(w *binary.Writer, messages []message.Message) int {
	return HeaderSizeWithMinChunk(w, messages, 0)
}

// HeaderSizeWithMinChunk predicts the full header size, prefix and
// checksum included, for the given minimum chunk size.
func HeaderSizeWithMinChunk(w *binary.Writer, messages []message.Message, minChunkSize int) int {
	_, chunkSize, fieldSize := headerGeometry(w, messages, minChunkSize)
	return 6 + fieldSize + chunkSize + 4
}

// headerGeometry computes the byte budget of a v2 header: message bytes
// with framing, the padded chunk size, and the chunk size field width.
func headerGeometry(w *binary.Writer, messages []message.Message, minChunkSize int) (messagesSize, chunkSize, fieldSize int) {
	for _, msg := range messages {
		messagesSize += messageHeaderSize(w, msg)
		if s, ok := msg.(message.Serializable); ok {
			messagesSize += s.SerializedSize(w)
		}
	}

	chunkSize = messagesSize
	if chunkSize < minChunkSize {
		chunkSize = minChunkSize
	}
	return messagesSize, chunkSize, chunkSizeFieldBytes(int64(chunkSize))
}

// NewEmptyGroupHeader lists the messages of a group with no links yet.
// LinkInfo and GroupInfo are always present so other readers accept the
// group.
func NewEmptyGroupHeader() []message.Message {
	return []message.Message{
		message.NewLinkInfo(),
		message.NewGroupInfo(),
	}
}

// NewGroupHeader lists the messages of a group holding the given links.
func NewGroupHeader(links []*message.Link) []message.Message {
	messages := NewEmptyGroupHeader()
	for _, link := range links {
		messages = append(messages, link)
	}
	return messages
}

// NewDatasetHeader lists the three messages every dataset header needs.
func NewDatasetHeader(dataspace *message.Dataspace, datatype *message.Datatype, layout *message.DataLayout) []message.Message {
	return []message.Message{dataspace, datatype, layout}
}
