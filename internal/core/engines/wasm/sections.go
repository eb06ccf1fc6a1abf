package wasm

import (
	"encoding/binary"
	"fmt"
)

// encodeSections 把多个字节段编码为单个缓冲区
// 每段布局为 数据 || 大端u32长度，段间直接拼接。
// db_next以 (key, value) 两段返回一条记录，空key段表示迭代结束
func encodeSections(sections ...[]byte) []byte {
	size := 0
	for _, s := range sections {
		size += len(s) + 4
	}
	out := make([]byte, 0, size)
	for _, s := range sections {
		out = append(out, s...)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
		out = append(out, lenBuf[:]...)
	}
	return out
}

// decodeSections 逆向解析段编码缓冲区
// 长度字段位于每段末尾，因此从尾部向前解析后再反转顺序
func decodeSections(data []byte) ([][]byte, error) {
	var reversed [][]byte
	remaining := len(data)
	for remaining > 0 {
		if remaining < 4 {
			return nil, fmt.Errorf("段编码残缺: 剩余%d字节", remaining)
		}
		length := int(binary.BigEndian.Uint32(data[remaining-4 : remaining]))
		remaining -= 4
		if length > remaining {
			return nil, fmt.Errorf("段长度越界: len=%d 剩余=%d", length, remaining)
		}
		section := make([]byte, length)
		copy(section, data[remaining-length:remaining])
		remaining -= length
		reversed = append(reversed, section)
	}

	sections := make([][]byte, len(reversed))
	for i, s := range reversed {
		sections[len(reversed)-1-i] = s
	}
	return sections, nil
}
