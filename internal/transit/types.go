package transit

// Snapshot is one stop's transient fetch result for a single render
// cycle. It is built fresh per request and never persisted.
type Snapshot struct {
	// StopCode is the bus stop code that was queried.
	StopCode string

	// Services are the upcoming services at the stop, in upstream order.
	// Empty when the stop is unconfigured or the fetch failed.
	Services []Service

	// Err describes an upstream failure, for rendering as visible text.
	// Empty on success. A blank stop code is not a failure.
	Err string
}

// Service is one bus service with up to two predicted arrivals.
type Service struct {
	// No is the service number, e.g. "12" or "197A".
	No string

	// Next and Next2 are the raw ISO-8601 predicted arrival timestamps,
	// nil when the upstream has no prediction for that slot.
	Next  *string
	Next2 *string
}

// arrivalResponse mirrors the LTA DataMall BusArrivalv2 payload,
// reduced to the fields the summariser consumes.
type arrivalResponse struct {
	BusStopCode string `json:"BusStopCode"`
	Services    []struct {
		ServiceNo string  `json:"ServiceNo"`
		NextBus   nextBus `json:"NextBus"`
		NextBus2  nextBus `json:"NextBus2"`
	} `json:"Services"`
}

type nextBus struct {
	EstimatedArrival string `json:"EstimatedArrival"`
}
