package chain

// 模拟链默认常量
// 与主流CosmWasm链的mock环境保持一致，合约无需改动即可调试
const (
	// DefaultChainID 默认链标识
	DefaultChainID = "Oraichain"

	// DefaultDenom 默认币种
	DefaultDenom = "orai"

	// DefaultBaseHeight 默认初始区块高度
	DefaultBaseHeight = uint64(12_345)

	// DefaultBaseTimeSeconds 默认初始区块时间（Unix秒）
	DefaultBaseTimeSeconds = uint64(1_571_797_419)

	// DefaultGasLimit 每实例燃气上限
	// 上限足够大，本地调试中燃气耗尽只应来自合约自身的失控循环
	DefaultGasLimit = uint64(500_000_000_000_000)

	// DefaultAccount 默认调用方账户
	DefaultAccount = "fake_sender_addr"

	// DefaultBalance 默认账户余额
	DefaultBalance = uint64(10_000_000_000_000_000)

	// defaultMaxCallDepth 跨合约调用深度上限
	defaultMaxCallDepth = 32

	// defaultFetchTimeoutMS fetch自定义查询超时
	defaultFetchTimeoutMS = 10_000

	// defaultWatchIntervalMS 合约文件轮询间隔
	defaultWatchIntervalMS = 1_000
)
