package plugin

import "bytes"

// Minimal hand-assembled generator modules. Each one exports memory, alloc
// (always 1024), build (always a pointer to a data segment at 0 holding the
// canned response) and response_length.

func uleb(n uint64) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if n == 0 {
			return out
		}
	}
}

func sleb(n int64) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if (n == 0 && b&0x40 == 0) || (n == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func vec(items ...[]byte) []byte {
	out := uleb(uint64(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func wasmName(s string) []byte {
	return append(uleb(uint64(len(s))), s...)
}

func section(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, uleb(uint64(len(content)))...)
	return append(out, content...)
}

func funcBody(code ...byte) []byte {
	body := append([]byte{0x00}, code...) // no locals
	body = append(body, 0x0b)
	return append(uleb(uint64(len(body))), body...)
}

type testModule struct {
	response       []byte
	responseLength int64
	skipBuild      bool
}

func (m testModule) bytes() []byte {
	const (
		i32 = 0x7f
		i64 = 0x7e
	)
	var b bytes.Buffer
	b.Write([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})

	b.Write(section(1, vec(
		[]byte{0x60, 0x01, i32, 0x01, i32},      // alloc
		[]byte{0x60, 0x02, i32, i32, 0x01, i32}, // build
		[]byte{0x60, 0x00, 0x01, i64},           // response_length
	)))
	b.Write(section(3, vec([]byte{0}, []byte{1}, []byte{2})))
	b.Write(section(5, vec([]byte{0x00, 0x01})))

	exports := [][]byte{
		append(wasmName("memory"), 0x02, 0x00),
		append(wasmName("alloc"), 0x00, 0x00),
		append(wasmName("response_length"), 0x00, 0x02),
	}
	if !m.skipBuild {
		exports = append(exports, append(wasmName("build"), 0x00, 0x01))
	}
	b.Write(section(7, vec(exports...)))

	length := m.responseLength
	if length == 0 {
		length = int64(len(m.response))
	}
	b.Write(section(10, vec(
		funcBody(append([]byte{0x41}, sleb(1024)...)...),
		funcBody(0x41, 0x00),
		funcBody(append([]byte{0x42}, sleb(length)...)...),
	)))

	segment := []byte{0x00, 0x41, 0x00, 0x0b}
	segment = append(segment, uleb(uint64(len(m.response)))...)
	segment = append(segment, m.response...)
	b.Write(section(11, vec(segment)))

	return b.Bytes()
}

func generatorWasm(response string) []byte {
	return testModule{response: []byte(response)}.bytes()
}
