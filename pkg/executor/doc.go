/*
Package executor wraps fallible, possibly slow calls with a deadline and
bounded retries.

The combinators compose: WithTimeout races an operation against a timer,
WithRetry re-runs it a bounded number of times, and WithTimeoutAndRetry
applies the deadline to every attempt.

A timeout abandons the wait, not the work. If the wrapped call ignores its
context (as blocking accessibility calls do), it keeps running in the
background after WithTimeout has returned, and whatever it eventually
produces is discarded. Nothing reclaims such calls early; callers that need
to bound them must bound how many they start.
*/
package executor
