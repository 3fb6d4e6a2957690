/*
Copyright © 2016 the CMacIonize-Go authors.
This file is part of CMacIonize-Go.

CMacIonize-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.
*/

// Command cmacionize is a command-line interface for the CMacIonize-Go
// photoionization model.
package main

import (
	"fmt"
	"os"

	"github.com/knut0815/cmacionize/cmacutil"
)

func main() {
	cfg := cmacutil.InitializeConfig()
	if err := cfg.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
