// Package deps checks that external programs launched by actions, such as the
// image viewer, resolve to executables.
package deps
