package decsync

import (
	"fmt"
	"math/rand/v2"
)

// randomSuffixBound is the exclusive upper bound for GenerateAppID's random
// tail: a uniform integer in [0, 100000), zero-padded to five digits.
const randomSuffixBound = 100000

// GenerateAppID returns "<deviceName>-<appName>", optionally suffixed with
// "-<5-digit-zero-padded-random>" when isRandom is true. The random tail
// lets a single device run two instances of the same app (e.g. two
// profiles) without colliding on the same writer subtree; deviceName alone
// is assumed unique enough across a user's synced devices otherwise.
func GenerateAppID(deviceName, appName string, isRandom bool) string {
	id := deviceName + "-" + appName
	if isRandom {
		id += fmt.Sprintf("-%05d", rand.IntN(randomSuffixBound))
	}

	return id
}
