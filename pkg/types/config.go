package types

// AppConfig 用户配置文件的顶层结构
// 全部字段可选，缺省值由各配置区域自行补齐
type AppConfig struct {
	Log   *UserLogConfig   `json:"log,omitempty"`
	API   *UserAPIConfig   `json:"api,omitempty"`
	Chain *UserChainConfig `json:"chain,omitempty"`
}

// UserLogConfig 用户日志配置
// 指针字段区分"未配置"与"配置为零值"
type UserLogConfig struct {
	Level    *string `json:"level,omitempty"`
	FilePath *string `json:"file_path,omitempty"`
}

// UserAPIConfig 用户REST服务配置
type UserAPIConfig struct {
	Enabled *bool   `json:"enabled,omitempty"`
	Host    *string `json:"host,omitempty"`
	Port    *int    `json:"port,omitempty"`
}

// UserChainConfig 用户模拟链配置
type UserChainConfig struct {
	ChainID         *string       `json:"chain_id,omitempty"`
	BondedDenom     *string       `json:"bonded_denom,omitempty"`
	BaseHeight      *uint64       `json:"base_height,omitempty"`
	BaseTimeSeconds *uint64       `json:"base_time_seconds,omitempty"`
	GasLimit        *uint64       `json:"gas_limit,omitempty"`
	MaxCallDepth    *int          `json:"max_call_depth,omitempty"`
	FetchTimeoutMS  *int          `json:"fetch_timeout_ms,omitempty"`
	WatchIntervalMS *int          `json:"watch_interval_ms,omitempty"`
	Accounts        []UserAccount `json:"accounts,omitempty"`
	Validators      []Validator   `json:"validators,omitempty"`
	Delegations     []Delegation  `json:"delegations,omitempty"`
}

// UserAccount 预置账户及其余额
type UserAccount struct {
	Address string `json:"address"`
	Coins   Coins  `json:"coins"`
}
