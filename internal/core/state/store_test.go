package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/wasmsim/pkg/types"
)

func TestStoreSetGetRemove(t *testing.T) {
	s := NewStore("contract_a", nil)

	cost := s.Set([]byte("k"), []byte("value"))
	assert.Equal(t, uint64(6*GasPerByteWrite), cost)

	v, cost := s.Get([]byte("k"))
	assert.Equal(t, []byte("value"), v)
	assert.Equal(t, uint64(1*GasPerByteRead), cost)

	cost = s.Remove([]byte("k"))
	assert.Equal(t, uint64(1*GasPerByteRead), cost)

	v, _ = s.Get([]byte("k"))
	assert.Nil(t, v)
}

func TestStoreGetMissing(t *testing.T) {
	s := NewStore("contract_a", nil)
	v, cost := s.Get([]byte("absent"))
	assert.Nil(t, v)
	assert.Equal(t, CostGet([]byte("absent")), cost)
}

func TestScanOrdering(t *testing.T) {
	s := NewStore("contract_a", nil)
	// 乱序插入
	s.Set([]byte("b"), []byte("2"))
	s.Set([]byte("a"), []byte("1"))
	s.Set([]byte("c"), []byte("3"))

	collect := func(id uint64) []string {
		var keys []string
		for {
			k, _, _, err := s.Next(id)
			require.NoError(t, err)
			if k == nil {
				return keys
			}
			keys = append(keys, string(k))
		}
	}

	asc, cost := s.Scan(nil, nil, types.Ascending)
	assert.Equal(t, uint64(GasScanFlat), cost)
	assert.Equal(t, []string{"a", "b", "c"}, collect(asc))

	desc, _ := s.Scan(nil, nil, types.Descending)
	assert.Equal(t, []string{"c", "b", "a"}, collect(desc))
}

func TestScanBounds(t *testing.T) {
	s := NewStore("contract_a", nil)
	for _, k := range []string{"a", "b", "c", "d"} {
		s.Set([]byte(k), []byte("v"))
	}

	// [b, d) 半开区间
	id, _ := s.Scan([]byte("b"), []byte("d"), types.Ascending)
	k1, _, _, _ := s.Next(id)
	k2, _, _, _ := s.Next(id)
	k3, _, _, _ := s.Next(id)
	assert.Equal(t, "b", string(k1))
	assert.Equal(t, "c", string(k2))
	assert.Nil(t, k3)
}

// start > end 的倒置区间产生空迭代器，而非错误
func TestScanInvertedRange(t *testing.T) {
	s := NewStore("contract_a", nil)
	s.Set([]byte("m"), []byte("v"))

	id, _ := s.Scan([]byte("z"), []byte("a"), types.Ascending)
	k, v, cost, err := s.Next(id)
	require.NoError(t, err)
	assert.Nil(t, k)
	assert.Nil(t, v)
	assert.Equal(t, uint64(GasLastIteration), cost)
}

// 耗尽后的迭代器继续返回"无值"且收固定收尾费用
func TestNextAfterExhaustion(t *testing.T) {
	s := NewStore("contract_a", nil)
	s.Set([]byte("x"), []byte("1"))

	id, _ := s.Scan(nil, nil, types.Ascending)
	k, _, cost, err := s.Next(id)
	require.NoError(t, err)
	assert.Equal(t, "x", string(k))
	assert.Equal(t, uint64(2*GasPerByteRead), cost)

	for i := 0; i < 3; i++ {
		k, v, cost, err := s.Next(id)
		require.NoError(t, err)
		assert.Nil(t, k)
		assert.Nil(t, v)
		assert.Equal(t, uint64(GasLastIteration), cost)
	}
}

func TestNextUnknownIterator(t *testing.T) {
	s := NewStore("contract_a", nil)
	_, _, _, err := s.Next(999)
	assert.ErrorIs(t, err, ErrIteratorNotFound)
}

// 扫描快照与后续删除完全解耦
func TestIteratorSnapshotIsolation(t *testing.T) {
	s := NewStore("contract_a", nil)
	s.Set([]byte("a"), []byte("1"))
	s.Set([]byte("b"), []byte("2"))

	id, _ := s.Scan(nil, nil, types.Ascending)

	// 扫描创建后删除底层条目
	s.Remove([]byte("a"))
	s.Remove([]byte("b"))

	k1, v1, _, err := s.Next(id)
	require.NoError(t, err)
	assert.Equal(t, "a", string(k1))
	assert.Equal(t, "1", string(v1))

	k2, _, _, err := s.Next(id)
	require.NoError(t, err)
	assert.Equal(t, "b", string(k2))
}

// 迭代器id在Store生命周期内单调递增
func TestIteratorIDsMonotonic(t *testing.T) {
	s := NewStore("contract_a", nil)
	var prev uint64
	for i := 0; i < 10; i++ {
		id, _ := s.Scan(nil, nil, types.Ascending)
		assert.Greater(t, id, prev)
		prev = id
	}
}

// 调用作用域回收：释放某id之后打开的全部迭代器
func TestReleaseIteratorsFrom(t *testing.T) {
	s := NewStore("contract_a", nil)
	s.Set([]byte("a"), []byte("1"))

	keep, _ := s.Scan(nil, nil, types.Ascending)
	mark := s.NextIteratorID()
	s.Scan(nil, nil, types.Ascending)
	s.Scan(nil, nil, types.Ascending)
	assert.Equal(t, 3, s.OpenIterators())

	s.ReleaseIteratorsFrom(mark)
	assert.Equal(t, 1, s.OpenIterators())

	// 早于mark的迭代器不受影响
	k, _, _, err := s.Next(keep)
	require.NoError(t, err)
	assert.Equal(t, "a", string(k))

	// 被释放的id此后视为未知
	_, _, _, err = s.Next(mark)
	assert.ErrorIs(t, err, ErrIteratorNotFound)
}

func TestStoreCopy(t *testing.T) {
	src := NewStore("old", nil)
	src.Set([]byte("k1"), []byte("v1"))
	src.Set([]byte("k2"), []byte("v2"))
	src.Scan(nil, nil, types.Ascending)

	dst := src.Copy("new", nil)
	assert.Equal(t, 2, dst.Len())
	v, _ := dst.Get([]byte("k1"))
	assert.Equal(t, []byte("v1"), v)

	// 副本与源解耦
	dst.Set([]byte("k1"), []byte("changed"))
	orig, _ := src.Get([]byte("k1"))
	assert.Equal(t, []byte("v1"), orig)

	// 迭代器不随复制转移，但id计数延续，保证唯一性
	assert.Equal(t, 0, dst.OpenIterators())
	assert.Equal(t, src.NextIteratorID(), dst.NextIteratorID())
}

type recordingObserver struct {
	writes  []string
	removes []string
	fail    bool
}

func (r *recordingObserver) OnWrite(contract string, key, value []byte) {
	if r.fail {
		panic("observer failure")
	}
	r.writes = append(r.writes, fmt.Sprintf("%s/%s=%s", contract, key, value))
}

func (r *recordingObserver) OnRemove(contract string, key []byte) {
	if r.fail {
		panic("observer failure")
	}
	r.removes = append(r.removes, fmt.Sprintf("%s/%s", contract, key))
}

func TestObserverNotified(t *testing.T) {
	obs := &recordingObserver{}
	s := NewStore("token", obs)

	s.Set([]byte("k"), []byte("v"))
	s.Remove([]byte("k"))

	assert.Equal(t, []string{"token/k=v"}, obs.writes)
	assert.Equal(t, []string{"token/k"}, obs.removes)
}

// 观察者失败绝不影响写入
func TestObserverFailureDoesNotFailWrite(t *testing.T) {
	obs := &recordingObserver{fail: true}
	s := NewStore("token", obs)

	assert.NotPanics(t, func() {
		s.Set([]byte("k"), []byte("v"))
	})
	v, _ := s.Get([]byte("k"))
	assert.Equal(t, []byte("v"), v)

	assert.NotPanics(t, func() {
		s.Remove([]byte("k"))
	})
	v, _ = s.Get([]byte("k"))
	assert.Nil(t, v)
}
