// SPDX-License-Identifier: MPL-2.0

// sagemake orchestrates building, testing, and documenting a scientific
// Python package that lives inside the SageMath runtime.
package main

import cmd "sagemake/cmd/sagemake"

func main() {
	cmd.Execute()
}
