package buildinfo

import "testing"

func TestPrintBuildInfo_DefaultsAndSet(t *testing.T) {
	ov, od, oc := BuildVersion, BuildDate, BuildCommit
	t.Cleanup(func() { BuildVersion, BuildDate, BuildCommit = ov, od, oc })

	BuildVersion, BuildDate, BuildCommit = "", "", ""
	PrintBuildInfo()

	BuildVersion, BuildDate, BuildCommit = "v1", "2026-08-29", "deadbeef"
	PrintBuildInfo()
}
