package btree

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/robert-malhotra/h5data/internal/binary"
)

// bthdHeader serializes a v2 B-tree header with the given type, depth
// and root pointer, using the node geometry shared by these tests.
func bthdHeader(btType uint8, depth uint16, rootAddr uint64, rootRecords uint16, totalRecords uint64) []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString("BTHD")
	buf.WriteByte(0) // version
	buf.WriteByte(btType)
	buf.Write([]byte{0, 4, 0, 0}) // node size 1024
	buf.Write([]byte{24, 0})      // record size
	buf.Write([]byte{byte(depth), byte(depth >> 8)})
	buf.WriteByte(75) // split percent
	buf.WriteByte(25) // merge percent
	addr := make([]byte, 8)
	for i := 0; i < 8; i++ {
		addr[i] = byte(rootAddr >> (8 * i))
	}
	buf.Write(addr)
	buf.Write([]byte{byte(rootRecords), byte(rootRecords >> 8)})
	total := make([]byte, 8)
	for i := 0; i < 8; i++ {
		total[i] = byte(totalRecords >> (8 * i))
	}
	buf.Write(total)
	return buf.Bytes()
}

func chunkReader(data []byte) *binary.Reader {
	return binary.NewReader(bytes.NewReader(data), binary.DefaultConfig())
}

func TestHeaderFieldLayout(t *testing.T) {
	r := chunkReader(bthdHeader(10, 0, 256, 1, 1)).At(0)

	sig, err := r.ReadBytes(4)
	if err != nil {
		t.Fatalf("reading signature: %v", err)
	}
	if string(sig) != "BTHD" {
		t.Errorf("signature = %q, want BTHD", sig)
	}

	version, err := r.ReadUint8()
	if err != nil {
		t.Fatalf("reading version: %v", err)
	}
	if version != 0 {
		t.Errorf("version = %d, want 0", version)
	}

	typ, err := r.ReadUint8()
	if err != nil {
		t.Fatalf("reading type: %v", err)
	}
	if typ != 10 {
		t.Errorf("type = %d, want 10", typ)
	}
}

func TestInvalidHeaderSignature(t *testing.T) {
	for _, sig := range []string{"\x00\x00\x00\x00", "XXXX", "BTHX", "bthd"} {
		_, err := ReadChunkIndexV2(chunkReader([]byte(sig)), 0, 2)
		if err == nil {
			t.Errorf("signature %q accepted", sig)
			continue
		}
		if !strings.Contains(err.Error(), "invalid B-tree v2 signature") {
			t.Errorf("signature %q: unexpected error %v", sig, err)
		}
	}
}

func TestUnsupportedHeaderVersion(t *testing.T) {
	for version := 1; version <= 5; version++ {
		data := append([]byte("BTHD"), byte(version))
		_, err := ReadChunkIndexV2(chunkReader(data), 0, 2)
		if err == nil {
			t.Errorf("version %d accepted", version)
			continue
		}
		if !strings.Contains(err.Error(), "unsupported B-tree v2 version") {
			t.Errorf("version %d: unexpected error %v", version, err)
		}
	}
}

func TestNonChunkTreeTypesRejected(t *testing.T) {
	for _, wrong := range []uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 12, 15, 255} {
		t.Run(strconv.Itoa(int(wrong)), func(t *testing.T) {
			_, err := ReadChunkIndexV2(chunkReader(bthdHeader(wrong, 0, 0, 0, 0)), 0, 2)
			if err == nil {
				t.Fatalf("type %d accepted", wrong)
			}
			if !strings.Contains(err.Error(), "unexpected B-tree v2 type") {
				t.Errorf("type %d: unexpected error %v", wrong, err)
			}
		})
	}
}

func TestChunkTreeTypesAccepted(t *testing.T) {
	for _, chunkType := range []uint8{BTreeV2TypeChunkNoFilter, BTreeV2TypeChunkWithFilter} {
		t.Run(strconv.Itoa(int(chunkType)), func(t *testing.T) {
			// Zero root records means no node needs reading.
			idx, err := ReadChunkIndexV2(chunkReader(bthdHeader(chunkType, 0, 0, 0, 0)), 0, 2)
			if err != nil {
				t.Fatalf("type %d rejected: %v", chunkType, err)
			}
			if idx == nil {
				t.Fatal("nil index for empty tree")
			}
			if len(idx.Entries) != 0 {
				t.Errorf("empty tree has %d entries", len(idx.Entries))
			}
		})
	}
}

func TestTruncatedHeader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"signature only", []byte("BTHD")},
		{"through version", []byte("BTHD\x00")},
		{"through type", []byte("BTHD\x00\x0a")},
		{"missing total records", append([]byte("BTHD\x00\x0a"), make([]byte, 16)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadChunkIndexV2(chunkReader(tt.data), 0, 2); err == nil {
				t.Error("truncated header accepted")
			}
		})
	}
}

// withNodeAt appends padding so the node bytes land at the header's
// root address of 100.
func withNodeAt100(header []byte, node []byte) []byte {
	data := make([]byte, 100, 100+len(node))
	copy(data, header)
	return append(data, node...)
}

func TestBadLeafNode(t *testing.T) {
	header := bthdHeader(10, 0, 100, 1, 1)

	t.Run("signature", func(t *testing.T) {
		data := withNodeAt100(header, []byte("XXXX"))
		_, err := ReadChunkIndexV2(chunkReader(data), 0, 2)
		if err == nil {
			t.Fatal("bad leaf signature accepted")
		}
		if !strings.Contains(err.Error(), "invalid B-tree v2 leaf signature") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("version", func(t *testing.T) {
		data := withNodeAt100(header, []byte("BTLF\x05"))
		_, err := ReadChunkIndexV2(chunkReader(data), 0, 2)
		if err == nil {
			t.Fatal("bad leaf version accepted")
		}
		if !strings.Contains(err.Error(), "unsupported B-tree v2 leaf version") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestBadInternalNode(t *testing.T) {
	// Depth 1 makes the root an internal node.
	header := bthdHeader(10, 1, 100, 1, 1)

	t.Run("signature", func(t *testing.T) {
		data := withNodeAt100(header, []byte("XXXX"))
		_, err := ReadChunkIndexV2(chunkReader(data), 0, 2)
		if err == nil {
			t.Fatal("bad internal node signature accepted")
		}
		if !strings.Contains(err.Error(), "invalid B-tree v2 internal node signature") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("version", func(t *testing.T) {
		data := withNodeAt100(header, []byte("BTIN\x05"))
		_, err := ReadChunkIndexV2(chunkReader(data), 0, 2)
		if err == nil {
			t.Fatal("bad internal node version accepted")
		}
		if !strings.Contains(err.Error(), "unsupported B-tree v2 internal node version") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestChunkTypeConstants(t *testing.T) {
	if BTreeV2TypeChunkNoFilter != 10 {
		t.Errorf("BTreeV2TypeChunkNoFilter = %d, want 10", BTreeV2TypeChunkNoFilter)
	}
	if BTreeV2TypeChunkWithFilter != 11 {
		t.Errorf("BTreeV2TypeChunkWithFilter = %d, want 11", BTreeV2TypeChunkWithFilter)
	}
}

func TestHeaderAtNonZeroOffset(t *testing.T) {
	data := make([]byte, 256)
	data = append(data, bthdHeader(10, 0, 0, 0, 0)...)

	idx, err := ReadChunkIndexV2(chunkReader(data), 256, 2)
	if err != nil {
		t.Fatalf("ReadChunkIndexV2 at offset 256: %v", err)
	}
	if idx == nil {
		t.Error("nil index")
	}
}
