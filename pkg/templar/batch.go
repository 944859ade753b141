package templar

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/jmylchreest/templar/internal/logger"
)

// Document is one template submitted to ProcessMany.
type Document struct {
	Name string
	HTML string
}

// ProcessMany processes docs with at most concurrency templates in flight.
// Results are returned in input order. A failed document has Result.Err set;
// documents not started before ctx is done fail with ctx.Err().
func (p *Processor) ProcessMany(ctx context.Context, docs []Document, concurrency int) []*Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*Result, len(docs))
	wp := pool.New().WithMaxGoroutines(concurrency)

	for i, doc := range docs {
		wp.Go(func() {
			results[i] = p.processOne(ctx, doc)
		})
	}
	wp.Wait()

	return results
}

func (p *Processor) processOne(ctx context.Context, doc Document) *Result {
	if err := ctx.Err(); err != nil {
		return failed(doc.Name, err)
	}

	result, err := p.Process(doc.HTML)
	if err != nil {
		logger.ForTemplate(doc.Name).Warn("template failed", "error", err)
		return failed(doc.Name, err)
	}
	result.Name = doc.Name
	return result
}

func failed(name string, err error) *Result {
	return &Result{Name: name, Err: err, Error: err.Error()}
}
