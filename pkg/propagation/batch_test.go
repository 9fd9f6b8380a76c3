package propagation

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type collector struct {
	mu      sync.Mutex
	results []LinkResult
}

func (c *collector) OnLink(result LinkResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

func matrixLinks() []Link {
	return []Link{
		{TxID: "tx1", RxID: "rx1", Context: newContext(r3.Vec{X: 500, Z: 1.5}, model.ModelFreeSpace)},
		{TxID: "tx1", RxID: "rx2", Context: newContext(r3.Vec{X: 800, Z: 1.5}, model.ModelFreeSpace)},
		// same fingerprint as rx1
		{TxID: "tx1", RxID: "rx3", Context: newContext(r3.Vec{X: 500.02, Z: 1.5}, model.ModelFreeSpace)},
	}
}

func TestBatchCompute(t *testing.T) {
	calc := NewCalculator(nil, Config{})
	counting := &fixedModel{modelType: model.ModelFreeSpace, loss: 95}
	calc.RegisterModel(counting)
	consumer := &collector{}

	results, err := NewBatchCalculator(calc, 2, consumer).Compute(context.Background(), matrixLinks())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, int32(2), counting.calls.Load(), "duplicate fingerprints are evaluated once")

	for i, rx := range []string{"rx1", "rx2", "rx3"} {
		assert.Equal(t, rx, results[i].RxID)
		assert.NoError(t, results[i].Err)
		assert.Equal(t, 95.0, results[i].PathLossDB)
		assert.Equal(t, -65.0, results[i].ReceivedPowerDbm)
		assert.Equal(t, "freespace", results[i].Model)
	}
	assert.InDelta(t, math.Hypot(500.02, 8.5), results[2].DistanceM, 1e-9)
	assert.Len(t, consumer.results, 3)
}

func TestBatchInvalidLink(t *testing.T) {
	calc := NewCalculator(nil, Config{})
	links := matrixLinks()
	links[1].Context.FrequencyMHz = -1
	links = append(links, Link{TxID: "tx2", RxID: "rx1"})

	results, err := NewBatchCalculator(calc, 0, nil).Compute(context.Background(), links)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.NoError(t, results[0].Err)
	assert.True(t, errors.IsInvalid(results[1].Err))
	assert.True(t, errors.IsInvalid(results[3].Err))
}

func TestBatchCancelled(t *testing.T) {
	calc := NewCalculator(nil, Config{})
	counting := &fixedModel{modelType: model.ModelFreeSpace, loss: 95}
	calc.RegisterModel(counting)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := NewBatchCalculator(calc, 1, nil).Compute(ctx, matrixLinks())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 3)
	assert.Equal(t, int32(0), counting.calls.Load())
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled, r.RxID)
	}
}

func TestBatchStopsOnCancel(t *testing.T) {
	calc := NewCalculator(nil, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var links []Link
	for i := 0; i < 50; i++ {
		links = append(links, Link{TxID: "tx", RxID: "rx", Context: newContext(r3.Vec{X: float64(100 + 10*i), Z: 1.5}, model.ModelFreeSpace)})
	}
	delivered := 0
	consumer := LinkConsumerFunc(func(LinkResult) {
		delivered++
		if delivered == 5 {
			cancel()
		}
	})

	results, err := NewBatchCalculator(calc, 1, consumer).Compute(ctx, links)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, delivered, len(links))

	cancelled := 0
	for _, r := range results {
		if r.Err != nil {
			assert.ErrorIs(t, r.Err, context.Canceled)
			cancelled++
			continue
		}
		assert.Greater(t, r.PathLossDB, 0.0, "evaluated links carry their loss")
	}
	assert.Equal(t, len(links)-delivered, cancelled)
}
