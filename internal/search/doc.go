/*
Package search looks up track metadata from the external search service.

The service is treated as a black box reachable over HTTP:

	GET <base>?query=<watch-url-prefix><id>&limit=1

and is expected to answer with

	{"result":[{"title":"...","thumbnails":[{"url":"..."}],
	            "duration":"3:45","viewCount":{"short":"1.2M views"}}]}

Only the first result is used. A response that is not valid JSON, carries
no results, or has a field of the wrong JSON type is a failure; fields that
are simply absent take the same defaults as placeholder metadata.

Successful lookups are memoized in memory for a configurable TTL so that a
burst of requests for a popular identifier that misses the poster cache
(for example after a failed download) does not hammer the service.
Failures are never memoized.
*/
package search
