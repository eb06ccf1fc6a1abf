package config

import (
	"go.uber.org/fx"

	apicfg "github.com/weisyn/wasmsim/internal/config/api"
	chaincfg "github.com/weisyn/wasmsim/internal/config/chain"
	logcfg "github.com/weisyn/wasmsim/internal/config/log"
	"github.com/weisyn/wasmsim/pkg/types"
)

// Params 配置模块的依赖参数
type Params struct {
	fx.In

	// AppConfig 用户配置（可选，未提供时全部使用默认值）
	AppConfig *types.AppConfig `optional:"true"`
}

// Module 返回配置模块
// 按区域提供具体配置类型，供其他模块直接注入
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			func(params Params) *Provider {
				return NewProvider(params.AppConfig)
			},
			func(provider *Provider) *logcfg.Config {
				return provider.GetLog()
			},
			func(provider *Provider) *apicfg.Config {
				return provider.GetAPI()
			},
			func(provider *Provider) *chaincfg.Config {
				return provider.GetChain()
			},
		),
	)
}
