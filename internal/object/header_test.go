package object

import (
	"bytes"
	"testing"

	"github.com/robert-malhotra/h5data/internal/binary"
	"github.com/robert-malhotra/h5data/internal/message"
)

func TestGetMessage(t *testing.T) {
	h := &Header{
		Version: 2,
		Messages: []message.Message{
			&message.Dataspace{Rank: 2, Dimensions: []uint64{10, 20}},
			&message.Datatype{Class: message.ClassFixedPoint, Size: 4},
		},
	}

	ds := h.GetMessage(message.TypeDataspace)
	if ds == nil {
		t.Fatal("dataspace message not found")
	}
	if space, ok := ds.(*message.Dataspace); !ok || space.Rank != 2 {
		t.Error("wrong dataspace returned")
	}

	if h.GetMessage(message.TypeFilterPipeline) != nil {
		t.Error("missing message type should return nil")
	}
}

func TestGetMessagesCollectsAll(t *testing.T) {
	h := &Header{
		Version: 2,
		Messages: []message.Message{
			&message.Dataspace{Rank: 1},
			&message.Attribute{Name: "attr1"},
			&message.Attribute{Name: "attr2"},
		},
	}

	if got := len(h.GetMessages(message.TypeAttribute)); got != 2 {
		t.Errorf("attribute count = %d, want 2", got)
	}
	if got := len(h.GetMessages(message.TypeDataspace)); got != 1 {
		t.Errorf("dataspace count = %d, want 1", got)
	}
	if got := len(h.GetMessages(message.TypeLink)); got != 0 {
		t.Errorf("link count = %d, want 0", got)
	}
}

func TestTypedAccessors(t *testing.T) {
	h := &Header{
		Messages: []message.Message{
			&message.Dataspace{Rank: 3, Dimensions: []uint64{2, 3, 4}},
			&message.Datatype{Class: message.ClassFloatPoint, Size: 8},
			&message.DataLayout{Class: message.LayoutContiguous, Address: 1234},
			&message.FilterPipeline{Filters: []message.FilterInfo{{ID: 1}}},
		},
	}

	if ds := h.Dataspace(); ds == nil || ds.Rank != 3 || ds.Dimensions[0] != 2 {
		t.Errorf("Dataspace() = %+v", ds)
	}
	if dt := h.Datatype(); dt == nil || dt.Class != message.ClassFloatPoint || dt.Size != 8 {
		t.Errorf("Datatype() = %+v", dt)
	}
	if dl := h.DataLayout(); dl == nil || dl.Class != message.LayoutContiguous {
		t.Errorf("DataLayout() = %+v", dl)
	}
	if fp := h.FilterPipeline(); fp == nil || len(fp.Filters) != 1 {
		t.Errorf("FilterPipeline() = %+v", fp)
	}
}

func TestTypedAccessorsNilWhenAbsent(t *testing.T) {
	h := &Header{}

	if h.Dataspace() != nil {
		t.Error("Dataspace() should be nil")
	}
	if h.Datatype() != nil {
		t.Error("Datatype() should be nil")
	}
	if h.DataLayout() != nil {
		t.Error("DataLayout() should be nil")
	}
	if h.FilterPipeline() != nil {
		t.Error("FilterPipeline() should be nil")
	}
}

func TestReadRejectsUnknownFormat(t *testing.T) {
	// Neither the OHDR signature nor a version 1 byte.
	r := binary.NewReader(bytes.NewReader([]byte{99, 0, 0, 0}), binary.DefaultConfig())

	if _, err := Read(r, 0); err == nil {
		t.Error("expected error for unrecognized header bytes")
	}
}

func TestReadRejectsBadSignature(t *testing.T) {
	r := binary.NewReader(bytes.NewReader([]byte("XXXX")), binary.DefaultConfig())

	if _, err := Read(r, 0); err == nil {
		t.Error("expected error for wrong signature")
	}
}
