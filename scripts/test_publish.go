// +build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RoutePathsEvent struct {
	RouteID uuid.UUID `json:"route_id"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	routeID := flag.String("route", "", "ID маршрута (обязателен)")
	wait := flag.Duration("wait", 10*time.Second, "Сколько ждать ответа воркера")
	flag.Parse()

	id, err := uuid.Parse(*routeID)
	if err != nil {
		log.Fatalf("Invalid -route: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	data, err := json.Marshal(RoutePathsEvent{RouteID: id})
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// последний id в done-стриме, чтобы читать только новые ответы
	last := "0"
	if tail, err := client.XRevRangeN(ctx, "stream:route:paths:done", "+", "-", 1).Result(); err == nil && len(tail) > 0 {
		last = tail[0].ID
	}

	msgID, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:route:paths",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}
	fmt.Printf("Published %s: %s\n", msgID, data)

	deadline := time.Now().Add(*wait)
	for time.Now().Before(deadline) {
		res, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{"stream:route:paths:done", last},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			log.Fatalf("Failed to read done stream: %v", err)
		}
		for _, s := range res {
			for _, m := range s.Messages {
				last = m.ID
				fmt.Printf("Done %s: %v\n", m.ID, m.Values["data"])
			}
		}
	}
}
