package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/message"
)

// SignatureV2 opens every version 2 object header. Version 1 headers
// have no signature and start directly with the version byte.
var SignatureV2 = []byte{'O', 'H', 'D', 'R'}

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// Header is a decoded object header: the messages describing one
// group or dataset, continuation blocks already folded in.
type Header struct {
	// Version is 1 or 2.
	Version uint8

	// Address is where the header starts in the file.
	Address uint64

	// Flags holds the version 2 header flags.
	Flags uint8

	RefCount uint32

	Messages []message.Message

	// Timestamps are only populated for version 2 headers that carry
	// the time fields flag.
	AccessTime uint32
	ModTime    uint32
	ChangeTime uint32
	BirthTime  uint32
}

// Read decodes the object header at address, sniffing the version
// from the first bytes.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))

	peek, err := hr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header: %w", err)
	}

	if string(peek) == "OHDR" {
		return readV2(hr, address)
	}

	// Version 1 headers begin with the bare version byte.
	if peek[0] == 1 {
		return readV1(hr, address)
	}

	return nil, fmt.Errorf("%w: unknown format at address %d", ErrInvalidHeader, address)
}

// GetMessage returns the first message of the given type, nil when
// the header has none.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			return msg
		}
	}
	return nil
}

// GetMessages collects every message of the given type in header order.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var result []message.Message
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			result = append(result, msg)
		}
	}
	return result
}

// typedMessage finds the first message of the given type and asserts
// it to T, returning T's zero value when the header has none.
func typedMessage[T message.Message](h *Header, typ message.Type) T {
	var zero T
	if msg := h.GetMessage(typ); msg != nil {
		return msg.(T)
	}
	return zero
}

// Typed accessors for the messages a dataset header is expected to
// carry. Each returns nil when the message is absent.

func (h *Header) Dataspace() *message.Dataspace {
	return typedMessage[*message.Dataspace](h, message.TypeDataspace)
}

func (h *Header) Datatype() *message.Datatype {
	return typedMessage[*message.Datatype](h, message.TypeDatatype)
}

func (h *Header) DataLayout() *message.DataLayout {
	return typedMessage[*message.DataLayout](h, message.TypeDataLayout)
}

func (h *Header) FilterPipeline() *message.FilterPipeline {
	return typedMessage[*message.FilterPipeline](h, message.TypeFilterPipeline)
}
