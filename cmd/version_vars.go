////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

const GITVERSION = `unreleased`
const SEMVER = "0.1.0"
const DEPENDENCIES = `module gitlab.com/elixxir/veil

go 1.19

require (
	github.com/cenkalti/backoff/v4 v4.1.3
	github.com/jinzhu/copier v0.0.0-20201025035756-632e723a6687
	github.com/mitchellh/go-homedir v1.1.0
	github.com/mr-tron/base58 v1.2.0
	github.com/pkg/errors v0.9.1
	github.com/spf13/cobra v1.1.1
	github.com/spf13/jwalterweatherman v1.1.0
	github.com/spf13/viper v1.7.1
	gitlab.com/xx_network/crypto v0.0.5-0.20230109222209-557b66d73c33
	gitlab.com/xx_network/primitives v0.0.4-0.20221219230308-4b5550a9247d
	golang.org/x/crypto v0.5.0
	golang.org/x/sync v0.1.0
	golang.org/x/time v0.3.0
	gopkg.in/yaml.v2 v2.4.0
	gorm.io/driver/postgres v1.1.2
	gorm.io/gorm v1.21.16
)
`
