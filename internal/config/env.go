package config

import (
	"github.com/caarlos0/env/v11"

	"github.com/zx06/xkeychain/internal/errors"
)

// LoadEnv reads the XKC_* variables from the process environment.
func LoadEnv() (Env, *errors.XError) {
	return parseEnv(env.Options{})
}

// LoadEnvFrom reads the XKC_* variables from vars instead.
func LoadEnvFrom(vars map[string]string) (Env, *errors.XError) {
	return parseEnv(env.Options{Environment: vars})
}

func parseEnv(opts env.Options) (Env, *errors.XError) {
	var e Env
	if err := env.ParseWithOptions(&e, opts); err != nil {
		return Env{}, errors.Wrap(errors.CodeCfgInvalid, "invalid environment", nil, err)
	}
	return e, nil
}
