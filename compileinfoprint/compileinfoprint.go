// compileinfoprint is imported by the geopipe command for the side effect of
// printing the build provenance to os.Stderr before any stage runs.
package compileinfoprint

import "github.com/carbocation/geopipe/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
