package governance

import "go.uber.org/fx"

var Module = fx.Module("governance",
	fx.Provide(LoadFromEnv),
	fx.Provide(NewValidator),
)
