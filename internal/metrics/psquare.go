package metrics

import (
	"math"
	"sort"
	"time"
)

// p2Quantile estimates a single quantile with the P² algorithm (Jain and
// Chlamtac, 1985): five markers whose heights approximate the minimum,
// p/2, p, (1+p)/2 and maximum of the stream.
type p2Quantile struct {
	p       float64
	count   int
	heights [5]float64
	pos     [5]float64
	desired [5]float64
	incr    [5]float64
}

func newP2Quantile(p float64) *p2Quantile {
	return &p2Quantile{
		p:       p,
		pos:     [5]float64{0, 1, 2, 3, 4},
		desired: [5]float64{0, 2 * p, 4 * p, 2 + 2*p, 4},
		incr:    [5]float64{0, p / 2, p, (1 + p) / 2, 1},
	}
}

func (q *p2Quantile) add(x float64) {
	if q.count < 5 {
		q.heights[q.count] = x
		q.count++
		if q.count == 5 {
			sort.Float64s(q.heights[:])
		}
		return
	}
	q.count++

	var k int
	switch {
	case x < q.heights[0]:
		q.heights[0] = x
		k = 0
	case x < q.heights[1]:
		k = 0
	case x < q.heights[2]:
		k = 1
	case x < q.heights[3]:
		k = 2
	case x <= q.heights[4]:
		k = 3
	default:
		q.heights[4] = x
		k = 3
	}

	for i := k + 1; i < 5; i++ {
		q.pos[i]++
	}
	for i := range q.desired {
		q.desired[i] += q.incr[i]
	}

	for i := 1; i <= 3; i++ {
		d := q.desired[i] - q.pos[i]
		if (d >= 1 && q.pos[i+1]-q.pos[i] > 1) || (d <= -1 && q.pos[i-1]-q.pos[i] < -1) {
			step := math.Copysign(1, d)
			h := q.parabolic(i, step)
			if q.heights[i-1] < h && h < q.heights[i+1] {
				q.heights[i] = h
			} else {
				q.heights[i] = q.linear(i, step)
			}
			q.pos[i] += step
		}
	}
}

func (q *p2Quantile) parabolic(i int, d float64) float64 {
	n, h := q.pos, q.heights
	return h[i] + d/(n[i+1]-n[i-1])*
		((n[i]-n[i-1]+d)*(h[i+1]-h[i])/(n[i+1]-n[i])+
			(n[i+1]-n[i]-d)*(h[i]-h[i-1])/(n[i]-n[i-1]))
}

func (q *p2Quantile) linear(i int, d float64) float64 {
	j := i + int(d)
	return q.heights[i] + d*(q.heights[j]-q.heights[i])/(q.pos[j]-q.pos[i])
}

// value returns the current estimate. Until five observations exist it is
// the nearest-rank quantile of the observations seen so far.
func (q *p2Quantile) value() float64 {
	if q.count == 0 {
		return 0
	}
	if q.count < 5 {
		seen := make([]float64, q.count)
		copy(seen, q.heights[:q.count])
		sort.Float64s(seen)
		rank := int(math.Ceil(q.p*float64(q.count))) - 1
		if rank < 0 {
			rank = 0
		}
		return seen[rank]
	}
	return q.heights[2]
}

// P2Estimator tracks p50, p95 and p99 with one P² estimator each, plus exact
// running extrema. Memory use does not grow with the number of observations.
type P2Estimator struct {
	extrema
	p50 *p2Quantile
	p95 *p2Quantile
	p99 *p2Quantile
}

func NewP2Estimator() *P2Estimator {
	return &P2Estimator{
		p50: newP2Quantile(QuantileP50),
		p95: newP2Quantile(QuantileP95),
		p99: newP2Quantile(QuantileP99),
	}
}

func (e *P2Estimator) Observe(d time.Duration) {
	if d < 0 {
		d = 0
	}
	e.observe(d)
	x := float64(d)
	e.p50.add(x)
	e.p95.add(x)
	e.p99.add(x)
}

func (e *P2Estimator) Histogram() LatencyHistogram {
	return e.histogram(
		time.Duration(math.Round(e.p50.value())),
		time.Duration(math.Round(e.p95.value())),
		time.Duration(math.Round(e.p99.value())),
	)
}
