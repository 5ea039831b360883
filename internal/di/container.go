package di

import "github.com/samber/do/v2"

// New builds an injector with every service registered as a singleton:
// 1. Params (the caller-supplied inputs)
// 2. ConfigService (depends on Params, LoggerService) -- optional session profiles
// 3. LoggerService (no dependencies)
// 4. CredentialsService (depends on Params)
// 5. ClientService (depends on Params, CredentialsService, LoggerService)
func New(params Params) do.Injector {
	i := do.New()

	do.Provide(i, provideParams(params))
	do.Provide(i, NewConfigService)
	do.Provide(i, NewLoggerService)
	do.Provide(i, NewCredentialsService)
	do.Provide(i, NewClientService)

	return i
}
