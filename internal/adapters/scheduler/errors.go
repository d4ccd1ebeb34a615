package scheduler

import "errors"

// ErrInvalidSchedule is returned for a cron spec robfig/cron cannot parse.
var ErrInvalidSchedule = errors.New("invalid refresh schedule")
