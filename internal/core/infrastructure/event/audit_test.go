package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditBusDelivers(t *testing.T) {
	bus := NewAuditBus()

	var gotContract string
	var gotKey, gotValue []byte
	err := bus.SubscribeWrite(func(contract string, key, value []byte) {
		gotContract = contract
		gotKey = key
		gotValue = value
	})
	require.NoError(t, err)

	bus.OnWrite("token", []byte("balance"), []byte("42"))

	assert.Equal(t, "token", gotContract)
	assert.Equal(t, []byte("balance"), gotKey)
	assert.Equal(t, []byte("42"), gotValue)

	writes, removes := bus.Stats()
	assert.Equal(t, uint64(1), writes)
	assert.Equal(t, uint64(0), removes)
}

// 订阅方panic不得影响发布方
func TestAuditBusSurvivesPanickingSubscriber(t *testing.T) {
	bus := NewAuditBus()
	require.NoError(t, bus.SubscribeRemove(func(contract string, key []byte) {
		panic("audit sink exploded")
	}))

	assert.NotPanics(t, func() {
		bus.OnRemove("token", []byte("k"))
	})

	_, removes := bus.Stats()
	assert.Equal(t, uint64(1), removes)
}

func TestAuditBusWithoutSubscribers(t *testing.T) {
	bus := NewAuditBus()
	assert.NotPanics(t, func() {
		bus.OnWrite("a", []byte("k"), []byte("v"))
		bus.OnRemove("a", []byte("k"))
	})
}
