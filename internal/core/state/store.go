// Package state 维护模拟链的可变状态：
// 每合约独占的燃气计费键值存储、账户余额表与质押静态表
package state

import (
	"bytes"
	"errors"
	"sort"
	"sync"

	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
	"github.com/weisyn/wasmsim/pkg/types"
)

// 存储操作的燃气定价
// 读写按字节计费，扫描开销与迭代收尾为固定值
const (
	// GasPerByteRead 读取路径每字节费用（get/remove按键长，next按键值长）
	GasPerByteRead = 3

	// GasPerByteWrite 写入路径每字节费用（set按键+值长度）
	GasPerByteWrite = 30

	// GasScanFlat 创建范围扫描的固定开销
	GasScanFlat = 11

	// GasLastIteration 迭代器耗尽后的收尾固定费用
	GasLastIteration = 37
)

// ErrIteratorNotFound 未知迭代器id
var ErrIteratorNotFound = errors.New("iterator not found")

// CostGet get操作的燃气费用
func CostGet(key []byte) uint64 { return uint64(len(key)) * GasPerByteRead }

// CostSet set操作的燃气费用
func CostSet(key, value []byte) uint64 { return uint64(len(key)+len(value)) * GasPerByteWrite }

// CostRemove remove操作的燃气费用
func CostRemove(key []byte) uint64 { return uint64(len(key)) * GasPerByteRead }

// snapshotIterator 扫描时刻的条目快照
// 创建后与底层存储完全解耦，之后的写入/删除不影响已捕获内容
type snapshotIterator struct {
	pairs [][2][]byte
	pos   int
}

// Store 燃气计费的有序键值存储
//
// 📋 **所有权**：一个Store只属于一个合约实例，绝不跨实例共享；
// 热重载时通过Copy整体复制到新实例
//
// 迭代器id在Store生命周期内单调递增且唯一
type Store struct {
	mu       sync.Mutex
	contract string // 所属合约地址，仅用于审计事件
	entries  map[string][]byte

	iterators  map[uint64]*snapshotIterator
	nextIterID uint64

	observer simulation.ChangeObserver
}

var _ simulation.KVStore = (*Store)(nil)

// NewStore 创建空存储
// observer可为nil（无审计）
func NewStore(contract string, observer simulation.ChangeObserver) *Store {
	return &Store{
		contract:  contract,
		entries:   make(map[string][]byte),
		iterators: make(map[uint64]*snapshotIterator),
		// 迭代器id从1开始，0保留为非法id
		nextIterID: 1,
		observer:   observer,
	}
}

// SetObserver 绑定变更观察者
func (s *Store) SetObserver(observer simulation.ChangeObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// Get 读取键值，不存在时返回nil
func (s *Store) Get(key []byte) ([]byte, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.entries[string(key)]
	if !ok {
		return nil, CostGet(key)
	}
	return append([]byte(nil), v...), CostGet(key)
}

// Set 写入键值并通知观察者
// 观察者失败（panic）不影响写入结果
func (s *Store) Set(key, value []byte) uint64 {
	s.mu.Lock()
	s.entries[string(key)] = append([]byte(nil), value...)
	observer := s.observer
	contract := s.contract
	s.mu.Unlock()

	if observer != nil {
		notify(func() { observer.OnWrite(contract, key, value) })
	}
	return CostSet(key, value)
}

// Remove 删除键并通知观察者
// 删除不存在的键不是错误
func (s *Store) Remove(key []byte) uint64 {
	s.mu.Lock()
	delete(s.entries, string(key))
	observer := s.observer
	contract := s.contract
	s.mu.Unlock()

	if observer != nil {
		notify(func() { observer.OnRemove(contract, key) })
	}
	return CostRemove(key)
}

// Scan 创建范围扫描迭代器
//
// 区间为 [start, end)，nil边界表示不设界；start > end 时
// 返回零元素迭代器而非错误。匹配条目在调用时刻快照，
// 之后对底层存储的修改不影响扫描结果
func (s *Store) Scan(start, end []byte, order types.Order) (uint64, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if order == types.Descending {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}

	pairs := make([][2][]byte, len(keys))
	for i, k := range keys {
		pairs[i] = [2][]byte{
			append([]byte(nil), k...),
			append([]byte(nil), s.entries[k]...),
		}
	}

	id := s.nextIterID
	s.nextIterID++
	s.iterators[id] = &snapshotIterator{pairs: pairs}
	return id, GasScanFlat
}

// Next 推进迭代器
//
// 仍有元素时返回键值与按字节计的费用；耗尽后返回nil键值与
// 固定收尾费用（不是错误）；未知id返回ErrIteratorNotFound
func (s *Store) Next(iteratorID uint64) ([]byte, []byte, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.iterators[iteratorID]
	if !ok {
		return nil, nil, GasLastIteration, ErrIteratorNotFound
	}
	if it.pos >= len(it.pairs) {
		return nil, nil, GasLastIteration, nil
	}
	pair := it.pairs[it.pos]
	it.pos++
	cost := uint64(len(pair[0])+len(pair[1])) * GasPerByteRead
	return pair[0], pair[1], cost, nil
}

// NextIteratorID 返回下一个将要分配的迭代器id
// 调用编排层用它界定一次调用期间打开的迭代器范围
func (s *Store) NextIteratorID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextIterID
}

// ReleaseIteratorsFrom 释放id不小于from的所有迭代器
// 一次生命周期调用结束时整体回收，防止迭代器表无界增长
func (s *Store) ReleaseIteratorsFrom(from uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.iterators {
		if id >= from {
			delete(s.iterators, id)
		}
	}
}

// OpenIterators 当前存活的迭代器数量
func (s *Store) OpenIterators() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.iterators)
}

// Len 存储的条目数量
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Copy 整体复制存储内容到新Store
//
// 热重载替换实例时使用；迭代器不随复制转移（它们属于旧实例
// 正在进行的调用），新Store的id计数从旧值延续以保持唯一性
func (s *Store) Copy(contract string, observer simulation.ChangeObserver) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	dst := NewStore(contract, observer)
	for k, v := range s.entries {
		dst.entries[k] = append([]byte(nil), v...)
	}
	dst.nextIterID = s.nextIterID
	return dst
}

// notify 审计钩子防护：钩子的panic绝不冒泡到写入路径
func notify(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
