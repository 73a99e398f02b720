// Package testing is blank-imported by test packages to put the process in
// test mode before any package init reads the environment.
package testing

import "os"

func init() {
	_ = os.Setenv("STOREFRONT_TEST_MODE", "true")
	// Uploads in tests always go to a temp dir.
	_ = os.Unsetenv("CLOUDINARY_URL")
}
