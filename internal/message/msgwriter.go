package message

import (
	"github.com/robert-malhotra/h5data/internal/binary"
)

// msgWriter sequences serialize steps, keeping the first write error so
// each step need not be checked in place.
type msgWriter struct {
	w   *binary.Writer
	err error
}

func (mw *msgWriter) u8(v uint8) {
	if mw.err == nil {
		mw.err = mw.w.WriteUint8(v)
	}
}

func (mw *msgWriter) u16(v uint16) {
	if mw.err == nil {
		mw.err = mw.w.WriteUint16(v)
	}
}

func (mw *msgWriter) u32(v uint32) {
	if mw.err == nil {
		mw.err = mw.w.WriteUint32(v)
	}
}

func (mw *msgWriter) uintN(v uint64, n int) {
	if mw.err == nil {
		mw.err = mw.w.WriteUintN(v, n)
	}
}

func (mw *msgWriter) bytes(b []byte) {
	if mw.err == nil {
		mw.err = mw.w.WriteBytes(b)
	}
}

func (mw *msgWriter) zeros(n int) {
	if mw.err == nil {
		mw.err = mw.w.WriteZeros(n)
	}
}

func (mw *msgWriter) offset(v uint64) {
	if mw.err == nil {
		mw.err = mw.w.WriteOffset(v)
	}
}

func (mw *msgWriter) length(v uint64) {
	if mw.err == nil {
		mw.err = mw.w.WriteLength(v)
	}
}
