package hatanaka

import "fmt"

// predictors holds the signed binomial coefficients (-1)^(k+1) * C(m,k), k=1..m, per order m.
var predictors = [MaxOrder + 1][]int64{
	{},
	{1},
	{2, -1},
	{3, -3, 1},
	{4, -6, 4, -1},
	{5, -10, 10, -5, 1},
	{6, -15, 20, -15, 6, -1},
}

// NumDiff is the numeric differencing kernel. It transmits the m-th order
// difference of a stream of integers, where m grows by one per value up to the
// configured order. The arithmetic wraps around silently on int64 overflow.
type NumDiff struct {
	maxOrder int
	order    int
	counter  int
	hist     []int64 // ring buffer, hist[head] is the most recent value
	head     int
}

// NewNumDiff returns a new kernel that accepts orders up to maxOrder.
// The kernel must be initialized with ForceInit before use.
func NewNumDiff(maxOrder int) (*NumDiff, error) {
	if maxOrder > MaxOrder {
		return nil, fmt.Errorf("%w: %d > %d", ErrOrderTooBig, maxOrder, MaxOrder)
	}
	if maxOrder < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, maxOrder)
	}
	return &NumDiff{maxOrder: maxOrder, hist: make([]int64, maxOrder)}, nil
}

// ForceInit restarts the kernel with value and the differencing order.
// The state is not modified if order is invalid.
func (d *NumDiff) ForceInit(value int64, order int) error {
	if order > d.maxOrder {
		return fmt.Errorf("%w: %d > %d", ErrOrderTooBig, order, d.maxOrder)
	}
	if order < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}
	d.order = order
	d.counter = 0
	d.head = 0
	for i := range d.hist {
		d.hist[i] = 0
	}
	d.hist[0] = value
	return nil
}

// Order returns the configured order.
func (d *NumDiff) Order() int {
	return d.order
}

// Decompress returns the value for the difference patch.
func (d *NumDiff) Decompress(patch int64) int64 {
	d.counter++
	value := patch + d.predict()
	d.push(value)
	return value
}

// Compress returns the difference for value.
func (d *NumDiff) Compress(value int64) int64 {
	d.counter++
	patch := value - d.predict()
	d.push(value)
	return patch
}

// predict extrapolates the next value from the history.
func (d *NumDiff) predict() int64 {
	m := d.counter
	if m > d.order {
		m = d.order
	}
	var sum int64
	for k, coef := range predictors[m] {
		sum += coef * d.hist[(d.head+k)%d.maxOrder]
	}
	return sum
}

func (d *NumDiff) push(value int64) {
	d.head = (d.head + d.maxOrder - 1) % d.maxOrder
	d.hist[d.head] = value
}
