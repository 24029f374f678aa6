package gcs

import (
	"fmt"
	"math/big"
	"time"
)

var nanosPerSecond, maxTimeNanos *big.Int

func timeToNanos(t time.Time) *big.Int {
	n := big.NewInt(t.Unix())
	n.Mul(n, nanosPerSecond)
	return n.Add(n, big.NewInt(int64(t.Nanosecond())))
}

func nanosToTime(n *big.Int) time.Time {
	var secs, nanos big.Int
	secs.DivMod(n, nanosPerSecond, &nanos)
	return time.Unix(secs.Int64(), nanos.Int64())
}

// timeKey renders t as a fixed-width decimal string
// whose lexical order is the chronological order of times.
// Object listings come back in lexical order.
func timeKey(t time.Time) string {
	n := timeToNanos(t)
	return fmt.Sprintf("%030d", n.Add(n, maxTimeNanos))
}

func timeFromKey(s string) (time.Time, bool) {
	var n big.Int
	if _, ok := n.SetString(s, 10); !ok {
		return time.Time{}, false
	}
	return nanosToTime(n.Sub(&n, maxTimeNanos)).UTC(), true
}

func init() {
	// This is from https://stackoverflow.com/a/32620397
	maxTime := time.Unix(1<<63-1-int64((1969*365+1969/4-1969/100+1969/400)*24*60*60), 999999999)

	nanosPerSecond = big.NewInt(int64(time.Second))
	maxTimeNanos = timeToNanos(maxTime) // Must call after nanosPerSecond is initialized
}
