////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package conf

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"gitlab.com/elixxir/veil/cryptops"
	"gitlab.com/xx_network/primitives/utils"
	"gopkg.in/yaml.v2"
)

// KeyFile is the on-disk form of an X25519 key pair
type KeyFile struct {
	Private string `yaml:"private"`
	Public  string `yaml:"public"`
}

// SaveKeyPair writes kp to path as YAML
func SaveKeyPair(path string, kp *cryptops.KeyPair) error {
	data, err := yaml.Marshal(&KeyFile{
		Private: hex.EncodeToString(kp.Private[:]),
		Public:  hex.EncodeToString(kp.Public[:]),
	})
	if err != nil {
		return errors.Wrap(err, "could not encode key pair")
	}
	return utils.WriteFile(path, data, utils.FilePerms, utils.DirPerms)
}

// LoadKeyPair reads a key pair written by SaveKeyPair. The public key is
// checked against the private key.
func LoadKeyPair(path string) (*cryptops.KeyPair, error) {
	data, err := utils.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read key file %s", path)
	}

	kf := KeyFile{}
	if err = yaml.Unmarshal(data, &kf); err != nil {
		return nil, errors.Wrapf(err, "could not decode key file %s", path)
	}

	privBytes, err := hex.DecodeString(kf.Private)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	priv, err := cryptops.NewPrivateKey(privBytes)
	cryptops.Zero(privBytes)
	if err != nil {
		return nil, err
	}

	kp, err := cryptops.KeyPairFromPrivate(priv)
	if err != nil {
		return nil, err
	}
	if kf.Public != "" && kf.Public != hex.EncodeToString(kp.Public[:]) {
		kp.Destroy()
		return nil, errors.Errorf("public key in %s does not match its "+
			"private key", path)
	}
	return kp, nil
}
