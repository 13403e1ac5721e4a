////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package cmd initializes the CLI and config parsers as well as the logger.
package cmd

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/veil/cmd/conf"
)

var cfgFile string
var verbose bool
var showVer bool
var validConfig bool

// rootCmd represents the base command when called without any sub-commands
var rootCmd = &cobra.Command{
	Use:   "veil",
	Short: "Runs confidential share computations against a local cluster",
	Long: `veil seals each configured party's record under a secret shared
with the computation engine, queues it, waits for the computation to
finalize and opens the result.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if showVer {
			printVersion()
			return
		}
		if !validConfig {
			jww.FATAL.Panic("Invalid Config File")
		}

		params, err := conf.NewParams(viper.GetViper())
		if err != nil {
			jww.FATAL.Panicf("Failed to load params: %+v", err)
		}

		if err = openLog(params.LogPath); err != nil {
			fmt.Printf("%s, default log output used.\n", err)
		}

		ctx, cancel := exitContext(context.Background())
		defer cancel()
		debugOnSignal(ctx, syscall.SIGUSR1)

		if err = Run(ctx, params); err != nil {
			jww.FATAL.Panicf("Run failed: %+v", err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.  This is called by main.main(). It only needs to
// happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		jww.ERROR.Printf("Exiting with error: %s", err.Error())
		os.Exit(1)
	}
	jww.INFO.Printf("Exiting without error...")
}

// init is the initialization function for Cobra which defines commands
// and flags.
func init() {
	cobra.OnInitialize(initConfig, initLog)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "",
		"config file (default is $HOME/.veil/veil.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose mode for debugging")
	rootCmd.Flags().BoolVarP(&showVer, "version", "V", false,
		"Show the version information.")
	rootCmd.Flags().Bool("devMode", false,
		"Keeps computation records in memory when no database is set")

	err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup(
		"verbose"))
	handleBindingError(err, "verbose")

	err = viper.BindPFlag("devMode", rootCmd.Flags().Lookup("devMode"))
	handleBindingError(err, "devMode")
}

func handleBindingError(err error, flag string) {
	if err != nil {
		jww.FATAL.Panicf("Error on binding flag \"%s\":%+v", flag, err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	//Use default config location if none is passed
	if cfgFile == "" {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			jww.ERROR.Println(err)
			os.Exit(1)
		}

		cfgFile = home + "/.veil/veil.yaml"
	}

	validConfig = true
	f, err := os.Open(cfgFile)
	if err != nil {
		jww.ERROR.Printf("Invalid config file (%s): %s", cfgFile,
			err.Error())
		validConfig = false
	} else if err = f.Close(); err != nil {
		jww.ERROR.Printf("Could not close config file: %+v", err)
	}

	viper.SetConfigFile(cfgFile)
	viper.SetEnvPrefix("veil")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if validConfig {
		if err = viper.ReadInConfig(); err != nil {
			jww.ERROR.Printf("Unable to read config file (%s): %s", cfgFile,
				err.Error())
			validConfig = false
		}
	}
}

// initLog initializes logging thresholds
func initLog() {
	// If verbose flag set then log more info for debugging
	if viper.GetBool("verbose") {
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetStdoutThreshold(jww.LevelDebug)
	} else {
		jww.SetLogThreshold(jww.LevelInfo)
		jww.SetStdoutThreshold(jww.LevelInfo)
	}
}

// openLog directs the log to a file at path, overwriting it if it exists
func openLog(path string) error {
	logFile, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "invalid or missing log path %s", path)
	}
	jww.SetLogOutput(logFile)
	return nil
}
