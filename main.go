// Copyright 2025 The WiseGate Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"wisegate/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
