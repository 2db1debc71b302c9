// Package autoload initialises the global logger from LOG_* variables when imported.
// It reads the process environment only; values from an env file apply once
// main re-initialises the logger through the config package.
package autoload

import (
	"github.com/kelseyhightower/envconfig"
	logx "github.com/tanpawarit/order-desk-assistant/pkg/logger"
)

func init() {
	var conf logx.Config
	if err := envconfig.Process("LOG", &conf); err != nil {
		logx.Init()
		return
	}
	logx.Init(conf)
}
