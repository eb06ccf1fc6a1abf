// Package address 实现人类可读地址与规范二进制地址的双向映射
//
// 规范形式为定长字节数组，内部嵌入地址原文并以零字节填充，
// 保证长度界内任意地址满足往返不变式 Humanize(Canonicalize(a)) == a。
// 任何重编码方案（base58/bech32等）都无法对任意输入维持该不变式，
// 因此编解码刻意保持为纯粹的填充/去填充
package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
)

const (
	// CanonicalLength 规范地址字节长度
	CanonicalLength = 54

	// MinHumanLength 人类可读地址最小长度
	// 过短的输入几乎总是调用方缺陷，直接拒绝
	MinHumanLength = 3

	// GasCostCanonicalize Canonicalize固定燃气费用
	GasCostCanonicalize = 44

	// GasCostHumanize Humanize固定燃气费用
	GasCostHumanize = 24
)

var (
	// ErrTooShort 地址长度低于下限
	ErrTooShort = errors.New("address too short")

	// ErrTooLong 地址长度超过规范长度
	ErrTooLong = errors.New("address too long")

	// ErrLengthMismatch 规范地址长度不符
	ErrLengthMismatch = errors.New("canonical address length mismatch")

	// ErrMalformed 规范地址内容非法（填充区出现非零字节等）
	ErrMalformed = errors.New("malformed canonical address")
)

// Codec 地址编解码器，无状态纯函数集合
type Codec struct{}

// 编译期接口断言
var _ simulation.AddressCodec = (*Codec)(nil)

// NewCodec 创建编解码器
func NewCodec() *Codec {
	return &Codec{}
}

// Canonicalize 人类可读地址 → 规范二进制地址
// 返回结果、本次操作的燃气费用与错误
func (c *Codec) Canonicalize(human string) ([]byte, uint64, error) {
	if len(human) < MinHumanLength {
		return nil, GasCostCanonicalize, fmt.Errorf("%w: %q (%d < %d)", ErrTooShort, human, len(human), MinHumanLength)
	}
	if len(human) > CanonicalLength {
		return nil, GasCostCanonicalize, fmt.Errorf("%w: %q (%d > %d)", ErrTooLong, human, len(human), CanonicalLength)
	}

	canonical := make([]byte, CanonicalLength)
	copy(canonical, human)
	return canonical, GasCostCanonicalize, nil
}

// Humanize 规范二进制地址 → 人类可读地址
func (c *Codec) Humanize(canonical []byte) (string, uint64, error) {
	if len(canonical) != CanonicalLength {
		return "", GasCostHumanize, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(canonical), CanonicalLength)
	}

	trimmed := bytes.TrimRight(canonical, "\x00")
	if len(trimmed) < MinHumanLength {
		return "", GasCostHumanize, fmt.Errorf("%w: payload too short after trim", ErrMalformed)
	}
	// 填充区之外不允许出现零字节，否则往返不可逆
	if bytes.IndexByte(trimmed, 0) >= 0 {
		return "", GasCostHumanize, fmt.Errorf("%w: embedded zero byte", ErrMalformed)
	}
	return string(trimmed), GasCostHumanize, nil
}
