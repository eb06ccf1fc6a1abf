package address

import (
	"go.uber.org/fx"

	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
)

// Module 返回地址编解码模块
func Module() fx.Option {
	return fx.Module("address",
		fx.Provide(
			NewCodec,
			func(codec *Codec) simulation.AddressCodec {
				return codec
			},
		),
	)
}
