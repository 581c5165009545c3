package heap

import (
	"github.com/robert-malhotra/h5data/internal/binary"
)

// GlobalHeapWriter accumulates objects and emits them as one global
// heap collection.
type GlobalHeapWriter struct {
	w         *binary.Writer
	allocator func(size int64) uint64
	objects   [][]byte
}

func NewGlobalHeapWriter(w *binary.Writer, allocator func(size int64) uint64) *GlobalHeapWriter {
	return &GlobalHeapWriter{
		w:         w,
		allocator: allocator,
	}
}

// AddObject queues an object and returns its collection index. Indexes
// start at 1; index 0 is the collection's end marker.
func (ghw *GlobalHeapWriter) AddObject(data []byte) uint16 {
	ghw.objects = append(ghw.objects, data)
	return uint16(len(ghw.objects))
}

// AddString queues a string with its terminating NUL.
func (ghw *GlobalHeapWriter) AddString(s string) uint16 {
	data := make([]byte, len(s)+1)
	copy(data, s)
	return ghw.AddObject(data)
}

// pad8 is the padding needed to bring n up to an 8-byte boundary.
func pad8(n int) int {
	return (8 - (n % 8)) % 8
}

// Write allocates one GCOL collection and stores every queued object in
// it. It returns the collection address and the heap ID for each object
// index passed out by AddObject.
func (ghw *GlobalHeapWriter) Write() (uint64, map[uint16]GlobalHeapID, error) {
	if len(ghw.objects) == 0 {
		return 0, nil, nil
	}

	// Collection header: signature, version, three reserved bytes and a
	// length-sized collection size.
	headerSize := 4 + 1 + 3 + ghw.w.LengthSize()

	// Each object carries an index, refcount, four reserved bytes, a
	// length-sized size, then the data padded to 8 bytes.
	objectsSize := 0
	for _, obj := range ghw.objects {
		objHeaderSize := 2 + 2 + 4 + ghw.w.LengthSize()
		objectsSize += objHeaderSize + len(obj) + pad8(len(obj))
	}

	// A 2-byte zero index terminates the collection, and the whole
	// collection is padded to 8 bytes.
	totalSize := headerSize + objectsSize + 2
	collectionPadding := pad8(totalSize)
	collectionSize := totalSize + collectionPadding

	heapAddr := ghw.allocator(int64(collectionSize))
	w := ghw.w.At(int64(heapAddr))

	var err error
	emit := func(f func() error) {
		if err == nil {
			err = f()
		}
	}

	emit(func() error { return w.WriteBytes([]byte("GCOL")) })
	emit(func() error { return w.WriteUint8(1) })
	emit(func() error { return w.WriteZeros(3) })
	emit(func() error { return w.WriteLength(uint64(collectionSize)) })

	heapIDs := make(map[uint16]GlobalHeapID)
	for i, obj := range ghw.objects {
		index := uint16(i + 1)
		o := obj

		emit(func() error { return w.WriteUint16(index) })
		emit(func() error { return w.WriteUint16(1) }) // refcount
		emit(func() error { return w.WriteZeros(4) })
		emit(func() error { return w.WriteLength(uint64(len(o))) })
		emit(func() error { return w.WriteBytes(o) })
		emit(func() error { return w.WriteZeros(pad8(len(o))) })

		heapIDs[index] = GlobalHeapID{
			CollectionAddress: heapAddr,
			ObjectIndex:       uint32(index),
		}
	}

	emit(func() error { return w.WriteUint16(0) })
	emit(func() error { return w.WriteZeros(collectionPadding) })

	if err != nil {
		return 0, nil, err
	}
	return heapAddr, heapIDs, nil
}

// WriteGlobalHeapID emits a heap reference: the collection address at
// offset width followed by a 4-byte object index.
func WriteGlobalHeapID(w *binary.Writer, id GlobalHeapID) error {
	if err := w.WriteOffset(id.CollectionAddress); err != nil {
		return err
	}
	return w.WriteUint32(id.ObjectIndex)
}

// GlobalHeapIDSize is the stored size of a heap reference.
func GlobalHeapIDSize(offsetSize int) int {
	return offsetSize + 4
}
