package main

import (
	"flag"
)

type AppFlags struct {
	GlobalConfigFile string
	ListenAddr       string
	LogLevel         string
}

func ParseFlags() AppFlags {
	globalConfigFile := flag.String("config", "", "Path to the global YAML/JSON configuration file. If not set, searches default locations.")
	globalConfigFileAlias := flag.String("c", "", "Alias for -config")

	listenAddr := flag.String("listen", "", "Address for the control-plane API (overrides api_config.listen_addr)")
	listenAddrAlias := flag.String("l", "", "Alias for -listen")

	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides log_config.log_level)")

	flag.Parse()

	flags := AppFlags{LogLevel: *logLevel}

	if *globalConfigFile != "" {
		flags.GlobalConfigFile = *globalConfigFile
	} else if *globalConfigFileAlias != "" {
		flags.GlobalConfigFile = *globalConfigFileAlias
	}

	if *listenAddr != "" {
		flags.ListenAddr = *listenAddr
	} else if *listenAddrAlias != "" {
		flags.ListenAddr = *listenAddrAlias
	}

	return flags
}
