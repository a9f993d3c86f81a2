package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// 二进制基础类型编码规则（大端序）：
//   int32  4 字节
//   bool   1 字节（0/1）
//   string int32 字节长度 + UTF-8 内容
//   bytes  int32 长度 + 原始内容
//   字符串列表 int32 数量 + 逐个 string

// writer 带粘滞错误的流写入器
// 首个写入错误会被记住，之后的写入全部变成空操作，
// 编码结束时只需检查一次最终状态
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) writeInt32(v int) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(w.w, binary.BigEndian, int32(v))
}

func (w *writer) writeBool(b bool) {
	if w.err != nil {
		return
	}
	var v byte
	if b {
		v = 1
	}
	_, w.err = w.w.Write([]byte{v})
}

func (w *writer) writeString(s string) {
	w.writeBytes([]byte(s))
}

func (w *writer) writeBytes(b []byte) {
	w.writeInt32(len(b))
	if w.err != nil || len(b) == 0 {
		return
	}
	_, w.err = w.w.Write(b)
}

func (w *writer) writeStringList(list []string) {
	w.writeInt32(len(list))
	for _, s := range list {
		w.writeString(s)
	}
}

// reader 带粘滞错误的流读取器
type reader struct {
	r   io.Reader
	err error
}

func (r *reader) readInt32() int {
	if r.err != nil {
		return 0
	}
	var v int32
	r.err = binary.Read(r.r, binary.BigEndian, &v)
	return int(v)
}

func (r *reader) readBool() bool {
	if r.err != nil {
		return false
	}
	var buf [1]byte
	_, r.err = io.ReadFull(r.r, buf[:])
	return buf[0] != 0
}

func (r *reader) readString() string {
	return string(r.readBytes())
}

func (r *reader) readBytes() []byte {
	n := r.readInt32()
	if r.err != nil {
		return nil
	}
	if n < 0 {
		r.err = fmt.Errorf("codec: negative length %d in stream", n)
		return nil
	}
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		r.err = err
		return nil
	}
	return buf
}

func (r *reader) readStringList() []string {
	n := r.readInt32()
	if r.err != nil {
		return nil
	}
	if n < 0 {
		r.err = fmt.Errorf("codec: negative list length %d in stream", n)
		return nil
	}
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, r.readString())
		if r.err != nil {
			return nil
		}
	}
	return list
}
