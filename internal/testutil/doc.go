// Package testutil holds helpers shared by watchfilter package tests:
// deterministic evaluation IDs, file fixtures and captured logs.
package testutil
