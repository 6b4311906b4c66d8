package kawatrpc

import "net/http"

// processorChain runs an ordered list of HeaderProcessors over outgoing and
// incoming headers. Order is fixed at registration time; the cookie jar, if
// enabled, is always registered first. The chain itself carries no state
// beyond the processor list.
type processorChain struct {
	processors []HeaderProcessor
}

func (pc *processorChain) register(p HeaderProcessor) {
	pc.processors = append(pc.processors, p)
}

// composeRequest invokes every processor's ComposeRequest hook in
// registration order, mutating the shared outgoing header map.
func (pc *processorChain) composeRequest(headers http.Header) {
	for _, p := range pc.processors {
		p.ComposeRequest(headers)
	}
}

// parseResponse invokes every processor's ParseResponse hook in
// registration order against the incoming header map.
func (pc *processorChain) parseResponse(headers http.Header) {
	for _, p := range pc.processors {
		p.ParseResponse(headers)
	}
}
