/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package

	ParseFlags must be called once from main. Flags are only registered here so
	that importing this package from tests does not swallow the test runner's
	own flags.
*/

package flag

import (
	"flag"
)

var (
	IsDevelopment bool
	ServiceName   string
	ConfigPath    string
)

func init() {
	flag.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development. default value is true")
	flag.StringVar(&ServiceName, "service", "api_server", "name reported in log fields")
	flag.StringVar(&ConfigPath, "config", "config.yaml", "path to the yaml application config")
}

func ParseFlags() {
	flag.Parse()
}
