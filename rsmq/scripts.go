package rsmq

import "github.com/redis/go-redis/v9"

// KEYS[1] queue zset, KEYS[2] queue hash.
// ARGV[1] now in ms, ARGV[2] new visible-at in ms.
// Returns {id, body, rc, fr} or an empty table.
var receiveScript = redis.NewScript(`
local msg = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", "0", "1")
if #msg == 0 then
	return {}
end
redis.call("ZADD", KEYS[1], ARGV[2], msg[1])
redis.call("HINCRBY", KEYS[2], "totalrecv", 1)
local body = redis.call("HGET", KEYS[2], msg[1])
local rc = redis.call("HINCRBY", KEYS[2], msg[1] .. ":rc", 1)
local o = {msg[1], body, rc}
if rc == 1 then
	redis.call("HSET", KEYS[2], msg[1] .. ":fr", ARGV[1])
	table.insert(o, ARGV[1])
else
	table.insert(o, redis.call("HGET", KEYS[2], msg[1] .. ":fr"))
end
return o
`)

// Same keys as receiveScript, ARGV[1] now in ms.
var popScript = redis.NewScript(`
local msg = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", "0", "1")
if #msg == 0 then
	return {}
end
redis.call("HINCRBY", KEYS[2], "totalrecv", 1)
local body = redis.call("HGET", KEYS[2], msg[1])
local rc = redis.call("HINCRBY", KEYS[2], msg[1] .. ":rc", 1)
local o = {msg[1], body, rc}
if rc == 1 then
	table.insert(o, ARGV[1])
else
	table.insert(o, redis.call("HGET", KEYS[2], msg[1] .. ":fr"))
end
redis.call("ZREM", KEYS[1], msg[1])
redis.call("HDEL", KEYS[2], msg[1], msg[1] .. ":rc", msg[1] .. ":fr")
return o
`)

// KEYS[1] queue zset. ARGV[1] message id, ARGV[2] new visible-at in ms.
var changeVisibilityScript = redis.NewScript(`
local score = redis.call("ZSCORE", KEYS[1], ARGV[1])
if not score then
	return 0
end
redis.call("ZADD", KEYS[1], ARGV[2], ARGV[1])
return 1
`)
