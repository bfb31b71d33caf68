package consts

const (
	ViewerCacheKey       = "townhall:viewer:"
	UserFollowingKey     = "townhall:user:following:"
	DirectorySyncLockKey = "townhall:lock:directory:sync"
)
