package loadgen

const (
	// workerChannelMultiplier sizes the job channel relative to the worker count.
	workerChannelMultiplier = 2

	headerUserID         = "X-User-ID"
	headerIdempotencyKey = "Idempotency-Key"
)
