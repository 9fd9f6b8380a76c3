package propagation

import (
	"context"
	"runtime"

	"github.com/nfvri/ran-propagation/pkg/model"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Link is one transmitter-receiver pair of a link matrix
type Link struct {
	TxID    string
	RxID    string
	Context *model.PropagationContext
}

// LinkResult is the evaluated quality of a link
type LinkResult struct {
	TxID             string  `json:"tx"`
	RxID             string  `json:"rx"`
	DistanceM        float64 `json:"distance"`
	FrequencyMHz     float64 `json:"frequency"`
	Model            string  `json:"model"`
	LineOfSight      bool    `json:"los"`
	PathLossDB       float64 `json:"pathLoss"`
	ReceivedPowerDbm float64 `json:"rxPower"`
	Err              error   `json:"-"`
}

// LinkConsumer receives link results as they are computed. OnLink may be called
// concurrently from several workers.
type LinkConsumer interface {
	OnLink(result LinkResult)
}

// LinkConsumerFunc adapts a function to a LinkConsumer
type LinkConsumerFunc func(result LinkResult)

func (f LinkConsumerFunc) OnLink(result LinkResult) {
	f(result)
}

// BatchCalculator evaluates link matrices on a bounded worker pool. Links sharing a
// fingerprint are evaluated once.
type BatchCalculator struct {
	calculator *Calculator
	workers    int
	consumer   LinkConsumer
}

// NewBatchCalculator returns a batch driver; workers <= 0 uses one worker per CPU
func NewBatchCalculator(calculator *Calculator, workers int, consumer LinkConsumer) *BatchCalculator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BatchCalculator{calculator: calculator, workers: workers, consumer: consumer}
}

// Compute evaluates every link and returns the results in input order. Cancelling ctx stops
// the batch between links; results computed so far are returned with the context error and
// links that were never evaluated carry that error.
func (b *BatchCalculator) Compute(ctx context.Context, links []Link) ([]LinkResult, error) {
	results := make([]LinkResult, len(links))
	evaluated := make([]bool, len(links))
	groups := make(map[Fingerprint][]int)
	var order []Fingerprint

	for i, link := range links {
		results[i] = LinkResult{TxID: link.TxID, RxID: link.RxID}
		if link.Context != nil {
			results[i].DistanceM = link.Context.Distance()
			results[i].FrequencyMHz = link.Context.FrequencyMHz
		}
		key, err := b.calculator.Fingerprint(link.Context)
		if err != nil {
			results[i].Err = err
			evaluated[i] = true
			b.deliver(results[i])
			continue
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	log.Debugf("computing %d links as %d distinct fingerprints on %d workers", len(links), len(order), b.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for _, key := range order {
		if gctx.Err() != nil {
			break
		}
		indexes := groups[key]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			estimate, err := b.calculator.Estimate(links[indexes[0]].Context)
			for _, i := range indexes {
				r := &results[i]
				r.Err = err
				evaluated[i] = true
				if err == nil {
					r.Model = estimate.Model.String()
					r.LineOfSight = estimate.LineOfSight
					r.PathLossDB = estimate.PathLossDB
					r.ReceivedPowerDbm = estimate.ReceivedPowerDbm
				}
				b.deliver(*r)
			}
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		for i := range results {
			if !evaluated[i] {
				results[i].Err = err
			}
		}
	}
	return results, err
}

func (b *BatchCalculator) deliver(result LinkResult) {
	if b.consumer != nil {
		b.consumer.OnLink(result)
	}
}
