// Package ratelimit paces directory lookups.
//
// A single TokenBucket is shared by all dispatcher workers so the total
// query rate stays under a fixed per-minute cap no matter how many workers
// are running. The cap is optional; with no limiter configured workers run
// as fast as the external command answers.
//
//	limiter := ratelimit.PerMinute(120)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
