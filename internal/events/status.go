package events

type Status string

const (
	StatusUpcoming Status = "UPCOMING"
	StatusEnded    Status = "ENDED"
)
