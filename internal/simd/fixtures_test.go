package simd

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

const inlineExperiment = `
dataset:
  inline:
    x: [[0, 0], [1, 1], [2, 4], [3, 9], [4, 16], [5, 25], [6, 36], [7, 49], [8, 64], [9, 81]]
    y: [0.1, 0.9, 2.2, 2.8, 4.1, 4.9, 6.3, 6.8, 8.2, 8.7]
simulation:
  n_init: 3
  n_iter: 4
  n_repl: 5
  seed: 11
model:
  name: linear
  label: OLS
compare:
  - name: knn
    k: 2
`

const csvExperiment = `
dataset:
  path: ignored.csv
  response: y
simulation:
  n_init: 2
  n_iter: 3
  n_repl: 4
  seed: 5
model:
  name: ridge
  alpha: 0.5
`

const sampleCSV = `a,b,y
0,1,0.5
1,0,1.0
2,2,2.5
3,1,2.9
4,3,4.4
5,2,5.1
`

const singularExperiment = `
dataset:
  inline:
    x: [[1], [1], [1], [1], [1]]
    y: [1, 2, 3, 4, 5]
simulation:
  n_init: 2
  n_iter: 2
  n_repl: 3
model:
  name: linear
`

// slowInput builds a run that takes long enough to be stopped mid-flight.
func slowInput() *RunInput {
	var b strings.Builder
	b.WriteString("a,b,y\n")
	for i := 0; i < 400; i++ {
		fmt.Fprintf(&b, "%d,%d,%d\n", i, (i*37)%101, (i*53)%97)
	}
	return &RunInput{
		ExperimentYAML: `
dataset:
  response: y
simulation:
  n_init: 5
  n_iter: 350
  n_repl: 10000
  seed: 1
model:
  name: knn
  k: 3
`,
		DatasetCSV: b.String(),
	}
}

func waitForStatus(t *testing.T, store *RunStore, runID string, want models.RunStatus) *RunRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec, ok := store.Get(runID)
		if ok && rec.Run.Status == want {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	rec, _ := store.Get(runID)
	if rec == nil {
		t.Fatalf("run %s not found", runID)
	}
	t.Fatalf("run %s: expected status %s, got %s (error %q)", runID, want, rec.Run.Status, rec.Run.Error)
	return nil
}
