package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/suPer8Hu/chat-platform/internal/chat"
	"github.com/suPer8Hu/chat-platform/internal/config"
	"github.com/suPer8Hu/chat-platform/internal/db"
	"github.com/suPer8Hu/chat-platform/internal/search"
	"github.com/suPer8Hu/chat-platform/internal/store/rabbitmq"
	"github.com/suPer8Hu/chat-platform/internal/store/redisstore"
	"github.com/suPer8Hu/chat-platform/internal/worker"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	rds := redisstore.NewStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rds.Close()

	cons, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit consumer: %v", err)
	}
	defer cons.Close()

	es := search.NewClient(cfg.ElasticURL)
	if err := es.HealthCheck(context.Background()); err != nil {
		log.Printf("search: cluster unreachable, indexing will retry: %v", err)
	}
	if err := es.EnsureIndex(context.Background()); err != nil {
		log.Printf("search: ensure index: %v", err)
	}

	repo := chat.NewRepo(gdb)

	indexer := worker.NewIndexer(es, cfg.IndexBatchSize, cfg.IndexFlushInterval)
	aggregator := worker.NewAggregator(repo, rds, cons, indexer,
		cfg.ChatCreationQueue, cfg.MessageCreationQueue,
		cfg.AggregateInterval, cfg.DrainBudget)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	indexer.Start(ctx)
	aggregator.Start(ctx)
	log.Printf("worker started, queues=%s,%s interval=%s",
		cfg.ChatCreationQueue, cfg.MessageCreationQueue, cfg.AggregateInterval)

	<-ctx.Done()
	log.Printf("worker shutting down")

	aggregator.Stop()
	indexer.Stop()
}
