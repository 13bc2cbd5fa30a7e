// Package testing provides a widget testing harness for Kayak.
//
// # Quick Start
//
// Create a tester, pump a widget, and make assertions:
//
//	func TestCounter(t *testing.T) {
//	    tester := kayaktest.NewWidgetTesterWithT(t)
//	    count := binding.Bind(0)
//	    tester.PumpWidget(Counter{Count: count})
//
//	    if !tester.Find(kayaktest.ByText("Count: 0")).Exists() {
//	        t.Fatal("expected initial count")
//	    }
//
//	    count.Set(1)
//	    tester.Pump()
//
//	    if !tester.Find(kayaktest.ByText("Count: 1")).Exists() {
//	        t.Error("expected updated count")
//	    }
//	}
//
// # Snapshot Testing
//
// Capture and compare widget tree snapshots:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.json")
//
// Update snapshots with:
//
//	KAYAK_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import kayaktest "github.com/go-drift/kayak/pkg/testing"
package testing
