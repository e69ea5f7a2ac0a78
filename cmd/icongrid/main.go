// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Command icongrid reconstructs meshes from ICON-style unstructured grids.
package main

import (
	"context"
	"os"

	"github.com/2dChan/icongrid/icongridutil"
)

func main() {
	if err := icongridutil.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
