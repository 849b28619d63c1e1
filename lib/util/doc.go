// Package util contains helpers shared by the command line tools, most
// notably the generator for the random test files used by the load harness.
package util
