package meeting

import (
	"context"
	"sync"

	"github.com/meetinsight/meeting-insight/internal/model"
)

// Result pairs one transcript's analysis with its error.
type Result struct {
	Transcript Transcript
	Analysis   *model.Analysis
	Err        error
}

// Pool analyzes batches of transcripts with a fixed number of workers.
type Pool struct {
	concurrency int
}

// NewPool returns a Pool running at most concurrency analyses at once.
func NewPool(concurrency int) *Pool {
	return &Pool{concurrency: max(concurrency, 1)}
}

// AnalyzeAll runs provider over every transcript and returns the results in
// input order. A cancelled context stops workers from starting new work;
// unstarted transcripts report ctx.Err().
func (p *Pool) AnalyzeAll(ctx context.Context, provider Provider, transcripts []Transcript) []Result {
	results := make([]Result, len(transcripts))
	if len(transcripts) == 0 {
		return results
	}

	jobs := make(chan int, len(transcripts))
	numWorkers := min(len(transcripts), p.concurrency)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Go(func() {
			for i := range jobs {
				t := transcripts[i]
				results[i].Transcript = t
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				results[i].Analysis, results[i].Err = provider.Analyze(ctx, t)
			}
		})
	}

	for i := range transcripts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
