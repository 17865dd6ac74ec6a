// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/rtenv/cmd/rtenv"

func main() {
	cmd.Execute()
}
