package domain

import "time"

// DeadLetter log record the worker gave up on
type DeadLetter struct {
	Source    string    `bson:"source" json:"source"`
	Partition int       `bson:"partition" json:"partition"`
	Offset    int64     `bson:"offset" json:"offset"`
	Key       string    `bson:"key,omitempty" json:"key,omitempty"`
	Payload   string    `bson:"payload" json:"payload"`
	Reason    string    `bson:"reason" json:"reason"`
	FailedAt  time.Time `bson:"failed_at" json:"failed_at"`
}
