package cache

import "errors"

var (
	ErrEncode = errors.New("cache encode failed")
	ErrDecode = errors.New("cache decode failed")
	ErrRedis  = errors.New("redis cache failed")
)
