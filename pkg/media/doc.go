// Package media resolves source URLs into a lazy stream of downloadable items.
//
// A Registry maps a URL to the first Provider that recognizes it. The Provider
// supplies an Accessor for that URL and configures the HTTP client the source
// needs. A TaskProvider then pulls pages from the Accessor one at a time and
// hands out each location as a Task:
//
//	res, err := registry.Resolve(rawURL)
//	client, err := res.Provider.ConfigureTransport(transport.FromConfig(cfg, log))
//	tp := media.NewTaskProvider(res.Accessor, client, log)
//	for task, err := range tp.All() {
//		...
//		task.Close()
//	}
//
// Nothing in this package sleeps or retries. Rate limits surface as
// *errors.RateLimitError values and the caller decides whether to re-issue the
// failed page or item (see TaskProvider.Open).
package media
