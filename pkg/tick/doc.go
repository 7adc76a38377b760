// Package tick provides the scheduler's time unit: an unsigned 32-bit counter
// that wraps at its bit width.
//
// All due checks go through Elapsed/Reached, which interpret the difference of
// two ticks as a signed two's-complement quantity. That keeps comparisons
// correct when "now" and a stored timestamp straddle the counter's maximum value,
// as long as the two are less than 2^31 ticks apart.
package tick
