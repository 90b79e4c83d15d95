package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlag ties a viper key to a flag. BindPFlag only fails on a nil flag,
// which is a programming error.
func bindFlag(v *viper.Viper, key string, f *pflag.Flag) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
