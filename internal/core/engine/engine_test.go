package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/wasmsim/internal/core/address"
	"github.com/weisyn/wasmsim/internal/core/engine/testutil"
	"github.com/weisyn/wasmsim/internal/core/querier"
	"github.com/weisyn/wasmsim/internal/core/state"
	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
	"github.com/weisyn/wasmsim/pkg/types"
)

const (
	testChainID    = "Oraichain"
	testBaseHeight = uint64(12_345)
	testGasLimit   = uint64(5_000_000)
)

func testParams() Params {
	return Params{
		ChainID:      testChainID,
		BaseHeight:   testBaseHeight,
		BlockTime:    "1571797419879305533",
		GasLimit:     testGasLimit,
		MaxCallDepth: DefaultMaxCallDepth,
	}
}

// newTestEngine 组装一个带脚本化后端的完整引擎：
// 注册表、账户、质押表、查询路由与跨合约解析回填
func newTestEngine(t *testing.T, factory *testutil.Factory, balances map[string]types.Coins, params Params) *Engine {
	t.Helper()

	if balances == nil {
		balances = map[string]types.Coins{
			"alice": {types.NewCoin(1000, "orai")},
		}
	}
	accounts := state.NewAccounts(balances)
	staking := state.NewStaking("orai", nil, nil)
	router := querier.NewRouter(accounts, staking, nil, nil)

	e := New(NewRegistry(), accounts, factory, address.NewCodec(), router, nil, params, nil)
	router.SetContractQuerier(e)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// emptyHandler 三个入口都成功且不做任何事
func emptyHandler() testutil.Handler {
	return testutil.Handler{
		Instantiate: func(_ simulation.BackendHost, _ types.Env, _ types.MessageInfo, _ []byte) (*types.Response, error) {
			return &types.Response{}, nil
		},
		Execute: func(_ simulation.BackendHost, _ types.Env, _ types.MessageInfo, _ []byte) (*types.Response, error) {
			return &types.Response{}, nil
		},
		Query: func(_ simulation.BackendHost, _ types.Env, _ []byte) ([]byte, error) {
			return []byte(`{}`), nil
		},
	}
}

// 状态变更调用使高度+1，查询不推进
func TestCallAdvancesHeightOnStateChange(t *testing.T) {
	factory := testutil.NewFactory()
	factory.Register("counter", emptyHandler())

	e := newTestEngine(t, factory, nil, testParams())
	require.NoError(t, e.LoadOrReplace("contract-a", []byte("counter")))

	ctx := context.Background()

	out, err := e.Call(ctx, KindInstantiate, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)
	assert.Equal(t, `{"message":"instantiate succeeded"}`, out.Data)

	env, ok := e.ContractEnv("contract-a")
	require.True(t, ok)
	assert.Equal(t, testBaseHeight+1, env.Block.Height)
	assert.Equal(t, testChainID, env.Block.ChainID)

	out, err = e.Call(ctx, KindExecute, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)
	assert.Equal(t, `{"message":"execute succeeded"}`, out.Data)

	_, err = e.Call(ctx, KindQuery, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)

	env, _ = e.ContractEnv("contract-a")
	assert.Equal(t, testBaseHeight+2, env.Block.Height, "查询不应推进高度")
}

// 合约逻辑错误转换为 {"error": ...}，高度不推进，实例继续可用
func TestCallErrorIsRecoverable(t *testing.T) {
	factory := testutil.NewFactory()
	h := emptyHandler()
	fail := true
	h.Execute = func(_ simulation.BackendHost, _ types.Env, _ types.MessageInfo, _ []byte) (*types.Response, error) {
		if fail {
			return nil, assert.AnError
		}
		return &types.Response{}, nil
	}
	factory.Register("flaky", h)

	e := newTestEngine(t, factory, nil, testParams())
	require.NoError(t, e.LoadOrReplace("contract-a", []byte("flaky")))
	ctx := context.Background()

	out, err := e.Call(ctx, KindExecute, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)
	assert.Contains(t, out.Data, `"error"`)

	env, _ := e.ContractEnv("contract-a")
	assert.Equal(t, testBaseHeight, env.Block.Height, "失败调用不应推进高度")

	fail = false
	out, err = e.Call(ctx, KindExecute, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)
	assert.Equal(t, `{"message":"execute succeeded"}`, out.Data)
}

// 未知地址与非法调用类型在入口处拒绝
func TestCallValidation(t *testing.T) {
	e := newTestEngine(t, testutil.NewFactory(), nil, testParams())
	ctx := context.Background()

	_, err := e.Call(ctx, KindExecute, "nowhere", []byte(`{}`), "alice")
	assert.ErrorIs(t, err, simulation.ErrNoSuchContract)

	_, err = e.Call(ctx, CallKind("migrate"), "nowhere", []byte(`{}`), "alice")
	assert.ErrorIs(t, err, ErrUnknownCallKind)
}

// 账户为空时使用字典序最小的已配置地址
func TestDefaultAccount(t *testing.T) {
	factory := testutil.NewFactory()
	h := emptyHandler()
	h.Execute = func(_ simulation.BackendHost, _ types.Env, info types.MessageInfo, _ []byte) (*types.Response, error) {
		return &types.Response{Attributes: []types.Attribute{{Key: "sender", Value: info.Sender}}}, nil
	}
	factory.Register("echo", h)

	balances := map[string]types.Coins{
		"carol": {types.NewCoin(5, "orai")},
		"bob":   {types.NewCoin(7, "orai")},
	}
	e := newTestEngine(t, factory, balances, testParams())
	require.NoError(t, e.LoadOrReplace("contract-a", []byte("echo")))

	out, err := e.Call(context.Background(), KindExecute, "contract-a", []byte(`{}`), "")
	require.NoError(t, err)
	require.Len(t, out.Attributes, 1)
	assert.Equal(t, "bob", out.Attributes[0].Value)
}

// wasm/execute出站消息：命中目标时以目标地址为键记录其结果，
// 目标缺失时记录失败属性且不中止整个调用
func TestDispatchCrossContract(t *testing.T) {
	factory := testutil.NewFactory()

	caller := emptyHandler()
	caller.Execute = func(_ simulation.BackendHost, _ types.Env, _ types.MessageInfo, _ []byte) (*types.Response, error) {
		return &types.Response{
			Attributes: []types.Attribute{{Key: "action", Value: "relay"}},
			Messages: []types.CosmosMsg{
				{Wasm: &types.WasmMsg{Execute: &types.ExecuteMsg{ContractAddr: "contract-b", Msg: []byte(`{"ping":{}}`)}}},
				{Wasm: &types.WasmMsg{Execute: &types.ExecuteMsg{ContractAddr: "contract-missing", Msg: []byte(`{}`)}}},
			},
		}, nil
	}
	factory.Register("caller", caller)

	var calleeSender string
	callee := emptyHandler()
	callee.Execute = func(_ simulation.BackendHost, _ types.Env, info types.MessageInfo, _ []byte) (*types.Response, error) {
		calleeSender = info.Sender
		return &types.Response{}, nil
	}
	factory.Register("callee", callee)

	e := newTestEngine(t, factory, nil, testParams())
	require.NoError(t, e.LoadOrReplace("contract-a", []byte("caller")))
	require.NoError(t, e.LoadOrReplace("contract-b", []byte("callee")))

	out, err := e.Call(context.Background(), KindExecute, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)
	assert.Equal(t, `{"message":"execute succeeded"}`, out.Data)

	// 合约自身属性在前，调度属性按消息顺序在后
	require.Len(t, out.Attributes, 3)
	assert.Equal(t, types.Attribute{Key: "action", Value: "relay"}, out.Attributes[0])
	assert.Equal(t, types.Attribute{Key: "contract-b", Value: `{"message":"execute succeeded"}`}, out.Attributes[1])
	assert.Equal(t, "contract-missing", out.Attributes[2].Key)
	assert.Contains(t, out.Attributes[2].Value, "no such contract")

	// 被调方看到的sender是发起调度的合约地址
	assert.Equal(t, "contract-a", calleeSender)

	envB, _ := e.ContractEnv("contract-b")
	assert.Equal(t, testBaseHeight+1, envB.Block.Height)
}

// 互相调用的两个合约在深度上限处终止而不是栈耗尽
func TestDispatchRecursionLimit(t *testing.T) {
	factory := testutil.NewFactory()

	bounce := func(target string) testutil.Handler {
		h := emptyHandler()
		h.Execute = func(_ simulation.BackendHost, _ types.Env, _ types.MessageInfo, _ []byte) (*types.Response, error) {
			return &types.Response{Messages: []types.CosmosMsg{
				{Wasm: &types.WasmMsg{Execute: &types.ExecuteMsg{ContractAddr: target, Msg: []byte(`{}`)}}},
			}}, nil
		}
		return h
	}
	factory.Register("ping", bounce("contract-b"))
	factory.Register("pong", bounce("contract-a"))

	params := testParams()
	params.MaxCallDepth = 4
	e := newTestEngine(t, factory, nil, params)
	require.NoError(t, e.LoadOrReplace("contract-a", []byte("ping")))
	require.NoError(t, e.LoadOrReplace("contract-b", []byte("pong")))

	out, err := e.Call(context.Background(), KindExecute, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)
	assert.Equal(t, `{"message":"execute succeeded"}`, out.Data)

	// 深度0/2/4在a上执行，1/3在b上执行，第5层被上限拦截
	envA, _ := e.ContractEnv("contract-a")
	envB, _ := e.ContractEnv("contract-b")
	assert.Equal(t, testBaseHeight+3, envA.Block.Height)
	assert.Equal(t, testBaseHeight+2, envB.Block.Height)
}

// bank与custom出站消息对核心不透明，以消息类别为键原样上报
func TestDispatchOpaqueMessages(t *testing.T) {
	factory := testutil.NewFactory()
	h := emptyHandler()
	h.Execute = func(_ simulation.BackendHost, _ types.Env, _ types.MessageInfo, _ []byte) (*types.Response, error) {
		return &types.Response{Messages: []types.CosmosMsg{
			{Bank: []byte(`{"send":{"to_address":"bob","amount":[]}}`)},
			{Custom: []byte(`{"ping":{}}`)},
		}}, nil
	}
	factory.Register("opaque", h)

	e := newTestEngine(t, factory, nil, testParams())
	require.NoError(t, e.LoadOrReplace("contract-a", []byte("opaque")))

	out, err := e.Call(context.Background(), KindExecute, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)
	require.Len(t, out.Attributes, 2)
	assert.Equal(t, "bank", out.Attributes[0].Key)
	assert.Equal(t, "custom", out.Attributes[1].Key)
}

// 燃气在宿主第一步（地址规范化）耗尽时，存储不发生任何变更
func TestOutOfGasLeavesStoreIntact(t *testing.T) {
	factory := testutil.NewFactory()
	h := emptyHandler()
	h.Execute = func(host simulation.BackendHost, _ types.Env, info types.MessageInfo, _ []byte) (*types.Response, error) {
		canonical, cost, err := host.Codec.Canonicalize(info.Sender)
		if err != nil {
			return nil, err
		}
		if err := host.Meter.Consume(cost, "canonicalize sender"); err != nil {
			return nil, err
		}
		if err := host.Meter.Consume(host.Store.Set([]byte("owner"), canonical), "write owner"); err != nil {
			return nil, err
		}
		return &types.Response{}, nil
	}
	factory.Register("writer", h)

	params := testParams()
	params.GasLimit = address.GasCostCanonicalize - 1
	e := newTestEngine(t, factory, nil, params)
	require.NoError(t, e.LoadOrReplace("contract-a", []byte("writer")))

	out, err := e.Call(context.Background(), KindExecute, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)
	assert.Contains(t, out.Data, "out of gas")
	assert.Equal(t, params.GasLimit, out.GasUsed, "耗尽时燃气一次性扣到上限")

	inst, ok := e.registry.Get("contract-a")
	require.True(t, ok)
	assert.Zero(t, inst.Store().Len(), "耗尽前不应有任何写入落盘")
}

// 调用结束时整体回收本次打开的迭代器
func TestIteratorsReleasedAfterCall(t *testing.T) {
	factory := testutil.NewFactory()
	h := emptyHandler()
	h.Execute = func(host simulation.BackendHost, _ types.Env, _ types.MessageInfo, _ []byte) (*types.Response, error) {
		host.Store.Set([]byte("k1"), []byte("v1"))
		host.Store.Set([]byte("k2"), []byte("v2"))
		// 打开两个迭代器且不消费到尾，回收由调用边界负责
		host.Store.Scan(nil, nil, types.Ascending)
		host.Store.Scan(nil, nil, types.Descending)
		return &types.Response{}, nil
	}
	factory.Register("scanner", h)

	e := newTestEngine(t, factory, nil, testParams())
	require.NoError(t, e.LoadOrReplace("contract-a", []byte("scanner")))

	_, err := e.Call(context.Background(), KindExecute, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)

	inst, _ := e.registry.Get("contract-a")
	assert.Zero(t, inst.Store().OpenIterators())
	assert.Equal(t, 2, inst.Store().Len())
}

// 热替换：存储内容与区块高度延续，旧后端被关闭
func TestLoadOrReplacePreservesState(t *testing.T) {
	factory := testutil.NewFactory()

	v1 := emptyHandler()
	v1.Execute = func(host simulation.BackendHost, _ types.Env, _ types.MessageInfo, _ []byte) (*types.Response, error) {
		host.Store.Set([]byte("version"), []byte("v1"))
		return &types.Response{}, nil
	}
	factory.Register("v1", v1)

	v2 := emptyHandler()
	v2.Query = func(host simulation.BackendHost, _ types.Env, _ []byte) ([]byte, error) {
		val, _ := host.Store.Get([]byte("version"))
		return val, nil
	}
	factory.Register("v2", v2)

	e := newTestEngine(t, factory, nil, testParams())
	require.NoError(t, e.LoadOrReplace("contract-a", []byte("v1")))

	_, err := e.Call(context.Background(), KindExecute, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)

	oldInst, _ := e.registry.Get("contract-a")
	oldBackend := oldInst.backend.(*testutil.Backend)

	require.NoError(t, e.LoadOrReplace("contract-a", []byte("v2")))
	assert.True(t, oldBackend.Closed(), "被替换实例的后端应立即释放")

	env, _ := e.ContractEnv("contract-a")
	assert.Equal(t, testBaseHeight+1, env.Block.Height, "高度跨替换延续")

	out, err := e.Call(context.Background(), KindQuery, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)
	assert.Equal(t, "v1", out.Data, "旧存储内容对新模块可见")
}

// 合约内发起的wasm智能查询经路由器解析回注册表
func TestSmartQueryThroughRouter(t *testing.T) {
	factory := testutil.NewFactory()

	oracle := emptyHandler()
	oracle.Query = func(_ simulation.BackendHost, _ types.Env, _ []byte) ([]byte, error) {
		return []byte(`{"price":"42"}`), nil
	}
	factory.Register("oracle", oracle)

	consumer := emptyHandler()
	var routed types.QueryResult
	consumer.Execute = func(host simulation.BackendHost, _ types.Env, _ types.MessageInfo, _ []byte) (*types.Response, error) {
		req := []byte(`{"wasm":{"smart":{"contract_addr":"contract-oracle","msg":{"price":{}}}}}`)
		routed = host.Querier.Route(req, host.Meter)
		return &types.Response{}, nil
	}
	factory.Register("consumer", consumer)

	e := newTestEngine(t, factory, nil, testParams())
	require.NoError(t, e.LoadOrReplace("contract-oracle", []byte("oracle")))
	require.NoError(t, e.LoadOrReplace("contract-a", []byte("consumer")))

	_, err := e.Call(context.Background(), KindExecute, "contract-a", []byte(`{}`), "alice")
	require.NoError(t, err)
	assert.Empty(t, routed.Err)
	assert.JSONEq(t, `{"price":"42"}`, string(routed.Ok))
}

// 热重载与外部查询互斥：监视器goroutine反复热替换的同时，
// 前端通过Call发起查询，注册表读写全部落在引擎锁之内
func TestQueryDuringHotReload(t *testing.T) {
	factory := testutil.NewFactory()
	factory.Register("counter", emptyHandler())

	e := newTestEngine(t, factory, nil, testParams())
	require.NoError(t, e.LoadOrReplace("contract-a", []byte("counter")))

	const rounds = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < rounds; i++ {
			if err := e.LoadOrReplace("contract-a", []byte("counter")); err != nil {
				t.Errorf("热替换失败: %v", err)
				return
			}
		}
	}()

	ctx := context.Background()
	for i := 0; i < rounds; i++ {
		out, err := e.Call(ctx, KindQuery, "contract-a", []byte(`{}`), "")
		require.NoError(t, err)
		assert.Equal(t, `{}`, out.Data)
	}
	<-done
}

// Addresses按字典序返回全部已注册地址
func TestAddresses(t *testing.T) {
	factory := testutil.NewFactory()
	factory.Register("counter", emptyHandler())

	e := newTestEngine(t, factory, nil, testParams())
	require.NoError(t, e.LoadOrReplace("zeta", []byte("counter")))
	require.NoError(t, e.LoadOrReplace("alpha", []byte("counter")))

	assert.Equal(t, []string{"alpha", "zeta"}, e.Addresses())
}
