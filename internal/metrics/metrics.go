package metrics

type Counter interface {
	Inc()
}

type Metrics struct {
	OrdersPlaced          Counter
	OrdersFailed          Counter
	Compensations         Counter
	CompensationsFailed   Counter
	PositionsClosed       Counter
	CloseFailed           Counter
	OpportunitiesRejected Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		OrdersPlaced:          n,
		OrdersFailed:          n,
		Compensations:         n,
		CompensationsFailed:   n,
		PositionsClosed:       n,
		CloseFailed:           n,
		OpportunitiesRejected: n,
	}
}
