package cache

type hitResult[T any] struct {
	data    T
	valid   bool
	claimed bool
}

// Cache is a get-or-claim cache: the first caller to miss on a key claims
// it and is responsible for computing and setting the value, while other
// callers wait. See GetOrCreate.
type Cache[T any] interface {
	getOrClaim(key string) hitResult[T]
	set(key string, data T)
	delete(key string)
	wait()
}
