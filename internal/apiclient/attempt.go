package apiclient

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// attempt describes one try of a logical call. Each retry gets a new value.
type attempt struct {
	method string
	url    string
	// number is 1 for the initial try.
	number int
	// delay is the wait that preceded this try.
	delay time.Duration
}

func (a attempt) next(delay time.Duration) attempt {
	return attempt{method: a.method, url: a.url, number: a.number + 1, delay: delay}
}

// retries is the count of retries this attempt represents.
func (a attempt) retries() int { return a.number - 1 }

// newSchedule yields base, 2*base, 4*base, ... without jitter.
func newSchedule(base time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = time.Duration(math.MaxInt64)
	bo.Reset()
	return bo
}
