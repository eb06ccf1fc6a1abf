package wasm

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/tetratelabs/wazero/api"

	"github.com/weisyn/wasmsim/pkg/types"
)

// 密码学宿主函数的固定燃气费用
const (
	GasCostSecp256k1Verify  = 770
	GasCostSecp256k1Recover = 1540
	GasCostEd25519Verify    = 630
	GasCostEd25519PerItem   = 630
)

// 密码学宿主函数的返回码（0为成功/验签通过）
const (
	cryptoOK             uint32 = 0
	cryptoVerifyFailed   uint32 = 1
	cryptoInvalidHash    uint32 = 3
	cryptoInvalidSig     uint32 = 4
	cryptoInvalidPubkey  uint32 = 5
	cryptoRecoverFailure uint32 = 10
)

// hostAbort 宿主函数中止执行的载体
// wazero把宿主函数的panic转换为入口调用错误，
// 真正的原因已先行记录在trapErr
type hostAbort struct{ err error }

func (b *Backend) abortHost(err error) {
	b.trapErr = err
	panic(hostAbort{err: err})
}

// hostConsume 扣除燃气，耗尽时中止本次执行
func (b *Backend) hostConsume(amount uint64, descriptor string) {
	if err := b.host.Meter.Consume(amount, descriptor); err != nil {
		b.abortHost(err)
	}
}

// hostReadRegion 读出区域数据，越界时中止
func (b *Backend) hostReadRegion(ptr uint32) []byte {
	data, err := b.readRegion(ptr)
	if err != nil {
		b.abortHost(err)
	}
	return data
}

// hostWriteData 分配区域写入数据，失败时中止
func (b *Backend) hostWriteData(ctx context.Context, data []byte) uint32 {
	ptr, err := b.writeToContract(ctx, data)
	if err != nil {
		b.abortHost(err)
	}
	return ptr
}

// hostWriteError 把错误信息写入新区域，返回区域指针
// 地址编解码类宿主函数以此向合约报告可恢复错误
func (b *Backend) hostWriteError(ctx context.Context, err error) uint32 {
	return b.hostWriteData(ctx, []byte(err.Error()))
}

// writeToExistingRegion 向合约预分配的目标区域写入数据
func (b *Backend) writeToExistingRegion(regionPtr uint32, data []byte) error {
	mem := b.module.Memory()
	offset, ok := mem.ReadUint32Le(regionPtr)
	if !ok {
		return fmt.Errorf("目标区域结构读取越界: ptr=%d", regionPtr)
	}
	capacity, ok := mem.ReadUint32Le(regionPtr + 4)
	if !ok {
		return fmt.Errorf("目标区域结构读取越界: ptr=%d", regionPtr)
	}
	if capacity < uint32(len(data)) {
		return fmt.Errorf("目标区域容量不足: capacity=%d need=%d", capacity, len(data))
	}
	if len(data) > 0 && !mem.Write(offset, data) {
		return fmt.Errorf("目标区域写入越界: offset=%d len=%d", offset, len(data))
	}
	if !mem.WriteUint32Le(regionPtr+8, uint32(len(data))) {
		return fmt.Errorf("目标区域长度写入越界: ptr=%d", regionPtr)
	}
	return nil
}

// querySystemResult query_chain的外层结果封装
// 路由层面的失败同样进入ok分支（Err非空），合约可捕获
type querySystemResult struct {
	Ok *types.QueryResult `json:"ok,omitempty"`
}

// registerHostModule 注册env宿主模块
//
// 📋 **宿主函数清单**（与合约的导入段一一对应）：
//   - 存储：db_read / db_write / db_remove / db_scan / db_next
//   - 地址：addr_validate / addr_canonicalize / addr_humanize
//   - 查询：query_chain
//   - 密码学：secp256k1_verify / secp256k1_recover_pubkey /
//     ed25519_verify / ed25519_batch_verify
//   - 调试：debug / abort
func (b *Backend) registerHostModule(ctx context.Context) error {
	builder := b.runtime.NewHostModuleBuilder("env")

	builder.NewFunctionBuilder().WithFunc(func(ctx context.Context, _ api.Module, keyPtr uint32) uint32 {
		key := b.hostReadRegion(keyPtr)
		value, cost := b.host.Store.Get(key)
		b.hostConsume(cost, "db_read")
		if value == nil {
			return 0
		}
		return b.hostWriteData(ctx, value)
	}).Export("db_read")

	builder.NewFunctionBuilder().WithFunc(func(_ context.Context, _ api.Module, keyPtr, valuePtr uint32) {
		key := b.hostReadRegion(keyPtr)
		value := b.hostReadRegion(valuePtr)
		b.hostConsume(b.host.Store.Set(key, value), "db_write")
	}).Export("db_write")

	builder.NewFunctionBuilder().WithFunc(func(_ context.Context, _ api.Module, keyPtr uint32) {
		key := b.hostReadRegion(keyPtr)
		b.hostConsume(b.host.Store.Remove(key), "db_remove")
	}).Export("db_remove")

	builder.NewFunctionBuilder().WithFunc(func(_ context.Context, _ api.Module, startPtr, endPtr uint32, order int32) uint32 {
		var start, end []byte
		if startPtr != 0 {
			start = b.hostReadRegion(startPtr)
		}
		if endPtr != 0 {
			end = b.hostReadRegion(endPtr)
		}
		id, cost := b.host.Store.Scan(start, end, types.Order(order))
		b.hostConsume(cost, "db_scan")
		return uint32(id)
	}).Export("db_scan")

	builder.NewFunctionBuilder().WithFunc(func(ctx context.Context, _ api.Module, iteratorID uint32) uint32 {
		key, value, cost, err := b.host.Store.Next(uint64(iteratorID))
		if err != nil {
			b.abortHost(err)
		}
		b.hostConsume(cost, "db_next")
		// 迭代结束以空key段表示，合约侧据此停止
		return b.hostWriteData(ctx, encodeSections(key, value))
	}).Export("db_next")

	builder.NewFunctionBuilder().WithFunc(func(ctx context.Context, _ api.Module, srcPtr uint32) uint32 {
		human := string(b.hostReadRegion(srcPtr))
		canonical, cost, err := b.host.Codec.Canonicalize(human)
		if err != nil {
			return b.hostWriteError(ctx, err)
		}
		b.hostConsume(cost, "addr_canonicalize")
		back, cost, err := b.host.Codec.Humanize(canonical)
		if err != nil {
			return b.hostWriteError(ctx, err)
		}
		b.hostConsume(cost, "addr_humanize")
		if back != human {
			return b.hostWriteError(ctx, fmt.Errorf("address %q is not normalized", human))
		}
		return 0
	}).Export("addr_validate")

	builder.NewFunctionBuilder().WithFunc(func(ctx context.Context, _ api.Module, srcPtr, dstPtr uint32) uint32 {
		human := string(b.hostReadRegion(srcPtr))
		canonical, cost, err := b.host.Codec.Canonicalize(human)
		if err != nil {
			return b.hostWriteError(ctx, err)
		}
		b.hostConsume(cost, "addr_canonicalize")
		if err := b.writeToExistingRegion(dstPtr, canonical); err != nil {
			b.abortHost(err)
		}
		return 0
	}).Export("addr_canonicalize")

	builder.NewFunctionBuilder().WithFunc(func(ctx context.Context, _ api.Module, srcPtr, dstPtr uint32) uint32 {
		canonical := b.hostReadRegion(srcPtr)
		human, cost, err := b.host.Codec.Humanize(canonical)
		if err != nil {
			return b.hostWriteError(ctx, err)
		}
		b.hostConsume(cost, "addr_humanize")
		if err := b.writeToExistingRegion(dstPtr, []byte(human)); err != nil {
			b.abortHost(err)
		}
		return 0
	}).Export("addr_humanize")

	builder.NewFunctionBuilder().WithFunc(func(ctx context.Context, _ api.Module, requestPtr uint32) uint32 {
		request := b.hostReadRegion(requestPtr)
		result := b.host.Querier.Route(request, b.host.Meter)
		return b.hostWriteData(ctx, types.MustMarshalJSON(querySystemResult{Ok: &result}))
	}).Export("query_chain")

	builder.NewFunctionBuilder().WithFunc(func(_ context.Context, _ api.Module, hashPtr, sigPtr, pubkeyPtr uint32) uint32 {
		b.hostConsume(GasCostSecp256k1Verify, "secp256k1_verify")
		return b.secp256k1Verify(b.hostReadRegion(hashPtr), b.hostReadRegion(sigPtr), b.hostReadRegion(pubkeyPtr))
	}).Export("secp256k1_verify")

	builder.NewFunctionBuilder().WithFunc(func(ctx context.Context, _ api.Module, hashPtr, sigPtr, recoveryParam uint32) uint64 {
		b.hostConsume(GasCostSecp256k1Recover, "secp256k1_recover_pubkey")
		return b.secp256k1Recover(ctx, b.hostReadRegion(hashPtr), b.hostReadRegion(sigPtr), recoveryParam)
	}).Export("secp256k1_recover_pubkey")

	builder.NewFunctionBuilder().WithFunc(func(_ context.Context, _ api.Module, msgPtr, sigPtr, pubkeyPtr uint32) uint32 {
		b.hostConsume(GasCostEd25519Verify, "ed25519_verify")
		return ed25519Verify(b.hostReadRegion(msgPtr), b.hostReadRegion(sigPtr), b.hostReadRegion(pubkeyPtr))
	}).Export("ed25519_verify")

	builder.NewFunctionBuilder().WithFunc(func(_ context.Context, _ api.Module, msgsPtr, sigsPtr, pubkeysPtr uint32) uint32 {
		return b.ed25519BatchVerify(b.hostReadRegion(msgsPtr), b.hostReadRegion(sigsPtr), b.hostReadRegion(pubkeysPtr))
	}).Export("ed25519_batch_verify")

	builder.NewFunctionBuilder().WithFunc(func(_ context.Context, _ api.Module, msgPtr uint32) {
		if b.logger != nil {
			b.logger.Debugw("合约调试输出", "message", string(b.hostReadRegion(msgPtr)))
		}
	}).Export("debug")

	builder.NewFunctionBuilder().WithFunc(func(_ context.Context, _ api.Module, msgPtr uint32) {
		b.abortHost(fmt.Errorf("合约主动中止: %s", b.hostReadRegion(msgPtr)))
	}).Export("abort")

	_, err := builder.Instantiate(ctx)
	return err
}

// secp256k1Verify 校验64字节r||s签名
func (b *Backend) secp256k1Verify(hash, sig, pubkey []byte) uint32 {
	if len(hash) != 32 {
		return cryptoInvalidHash
	}
	if len(sig) != 64 {
		return cryptoInvalidSig
	}
	pk, err := btcec.ParsePubKey(pubkey)
	if err != nil {
		return cryptoInvalidPubkey
	}
	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return cryptoInvalidSig
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return cryptoInvalidSig
	}
	if btcecdsa.NewSignature(&r, &s).Verify(hash, pk) {
		return cryptoOK
	}
	return cryptoVerifyFailed
}

// secp256k1Recover 从签名恢复65字节未压缩公钥
// 低32位为结果区域指针，高32位为错误码
func (b *Backend) secp256k1Recover(ctx context.Context, hash, sig []byte, recoveryParam uint32) uint64 {
	if len(hash) != 32 {
		return uint64(cryptoInvalidHash) << 32
	}
	if len(sig) != 64 || recoveryParam > 3 {
		return uint64(cryptoInvalidSig) << 32
	}
	compact := make([]byte, 65)
	compact[0] = byte(27 + recoveryParam)
	copy(compact[1:], sig)
	pk, _, err := btcecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return uint64(cryptoRecoverFailure) << 32
	}
	return uint64(b.hostWriteData(ctx, pk.SerializeUncompressed()))
}

func ed25519Verify(msg, sig, pubkey []byte) uint32 {
	if len(sig) != ed25519.SignatureSize {
		return cryptoInvalidSig
	}
	if len(pubkey) != ed25519.PublicKeySize {
		return cryptoInvalidPubkey
	}
	if ed25519.Verify(ed25519.PublicKey(pubkey), msg, sig) {
		return cryptoOK
	}
	return cryptoVerifyFailed
}

// ed25519BatchVerify 批量验签
// 消息或公钥可以只给一个（广播到全部签名），其余情况三组数量必须一致
func (b *Backend) ed25519BatchVerify(msgsData, sigsData, pubkeysData []byte) uint32 {
	msgs, err := decodeSections(msgsData)
	if err != nil {
		return cryptoInvalidHash
	}
	sigs, err := decodeSections(sigsData)
	if err != nil {
		return cryptoInvalidSig
	}
	pubkeys, err := decodeSections(pubkeysData)
	if err != nil {
		return cryptoInvalidPubkey
	}
	b.hostConsume(uint64(len(sigs))*GasCostEd25519PerItem, "ed25519_batch_verify")

	n := len(sigs)
	if len(msgs) != n && len(msgs) != 1 {
		return cryptoInvalidHash
	}
	if len(pubkeys) != n && len(pubkeys) != 1 {
		return cryptoInvalidPubkey
	}
	for i := 0; i < n; i++ {
		msg := msgs[0]
		if len(msgs) == n {
			msg = msgs[i]
		}
		pubkey := pubkeys[0]
		if len(pubkeys) == n {
			pubkey = pubkeys[i]
		}
		if code := ed25519Verify(msg, sigs[i], pubkey); code != cryptoOK {
			return code
		}
	}
	return cryptoOK
}
