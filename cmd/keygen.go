////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

import (
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/veil/cmd/conf"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/xx_network/crypto/csprng"
	"gitlab.com/xx_network/primitives/utils"
)

var keyOut string
var overwrite bool

func init() {
	keygenCmd.Flags().StringVarP(&keyOut, "out", "o", "",
		"key file to write (default is $HOME/.veil/engine.yaml)")
	keygenCmd.Flags().BoolVarP(&overwrite, "force", "f", false,
		"Overwrite an existing key file")
	rootCmd.AddCommand(keygenCmd)
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an X25519 key pair",
	Long: `Generate an X25519 key pair and write it as YAML. The file can be
used as the engine key of a local run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := keyOut
		if path == "" {
			home, err := homedir.Dir()
			if err != nil {
				return err
			}
			path = home + "/.veil/engine.yaml"
		}
		path, err := utils.ExpandPath(path)
		if err != nil {
			return err
		}
		if utils.Exists(path) && !overwrite {
			return errors.Errorf("%s exists, use --force to overwrite it", path)
		}

		kp, err := cryptops.GenerateKeyPair(csprng.NewSystemRNG())
		if err != nil {
			return err
		}
		defer kp.Destroy()

		if err = conf.SaveKeyPair(path, kp); err != nil {
			return err
		}
		jww.INFO.Printf("Wrote key pair to %s", path)
		fmt.Println(kp.Public)
		return nil
	},
}
