package workflows

import (
	"github.com/PolarWolf314/cloak/internal/cipher"
	"github.com/PolarWolf314/cloak/internal/configs"
	"github.com/PolarWolf314/cloak/internal/gitx"
	logger "github.com/PolarWolf314/cloak/internal/logging"
	"github.com/PolarWolf314/cloak/internal/secrets"
)

// Env carries the resolved settings and capabilities shared by every
// workflow. It is built once per invocation and not modified afterwards.
type Env struct {
	Settings configs.Settings
	Cipher   cipher.Cipher
	Repo     gitx.Repo
	Logger   logger.Logger
}

func (env Env) engine() *secrets.Engine {
	return secrets.NewEngine(env.Settings, env.Cipher, env.Repo, env.Logger)
}
