package domain

import "time"

type Record struct {
	ID        int64
	Content   string
	CreatedAt time.Time
}
